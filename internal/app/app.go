// Package app wires together configuration, the generator, logging and the
// local store into a single Deps struct that commands receive at runtime.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/derickschaefer/bbcompare/internal/cache"
	"github.com/derickschaefer/bbcompare/internal/config"
	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/obslog"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/store"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

// MaxHistory is the number of history entries kept after each append.
const MaxHistory = 1000

// Deps holds all runtime dependencies injected into command Run functions.
// Store is nil until RequireStore is called.
type Deps struct {
	Config    *config.Config
	Generator *cache.Generator
	Logger    *slog.Logger
	Sink      obslog.Sink
	Store     *store.Store
}

// Options controls how New sets up logging.
type Options struct {
	LogWriter io.Writer // defaults to os.Stderr
	LogFormat string    // "text" (default) or "json"
	// AsyncSink buffers the interaction log; used by the long-running servers.
	AsyncSink bool
}

// New builds a Deps from resolved config and installs its logger as the
// slog default.
func New(cfg *config.Config, opts Options) (*Deps, error) {
	if opts.LogWriter == nil {
		opts.LogWriter = os.Stderr
	}
	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	logger := obslog.New(level, opts.LogFormat, opts.LogWriter)
	slog.SetDefault(logger)

	gen, err := cache.New(urlgen.New(cfg.BaseURL), cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}

	var sink obslog.Sink = obslog.Nop{}
	if cfg.InteractionLog != "" {
		fo := obslog.FileSinkOptions{}
		if opts.AsyncSink {
			fo = obslog.FileSinkOptions{Buffer: 1024, Workers: 1}
		}
		fs, err := obslog.NewFileSink(cfg.InteractionLog, fo)
		if err != nil {
			gen.Close()
			return nil, err
		}
		sink = fs
	}

	logger.Debug("dependencies ready",
		"base_url", cfg.BaseURL,
		"cache_size", cfg.CacheSize,
		"interaction_log", cfg.InteractionLog,
	)
	return &Deps{
		Config:    cfg,
		Generator: gen,
		Logger:    logger,
		Sink:      sink,
	}, nil
}

// RequireStore opens the local database if it is not open yet.
func (d *Deps) RequireStore() error {
	if d.Store != nil {
		return nil
	}
	if d.Config.DBPath == "" {
		return errors.New("no database path configured (set db_path in config.json or BBCOMPARE_DB_PATH)")
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return err
	}
	d.Store = s
	return nil
}

// RecordHistory appends a history entry when history is enabled. Failures
// are logged, never returned: history must not break generation.
func (d *Deps) RecordHistory(source string, raw params.Raw, res urlgen.Result) {
	if !d.Config.RecordHistory {
		return
	}
	if _, err := d.AppendHistory(model.NewHistoryEntry(source, raw, res)); err != nil {
		d.Logger.Warn("recording history", "error", err)
	}
}

// AppendHistory stores e and prunes the log to MaxHistory entries. It
// ignores Config.RecordHistory; servers decide once at startup whether to
// pass Deps as their history recorder.
func (d *Deps) AppendHistory(e model.HistoryEntry) (model.HistoryEntry, error) {
	if err := d.RequireStore(); err != nil {
		return e, err
	}
	e, err := d.Store.AppendHistory(e)
	if err != nil {
		return e, err
	}
	n, err := d.Store.PruneHistory(MaxHistory)
	if err != nil {
		return e, fmt.Errorf("pruning history: %w", err)
	}
	if n > 0 {
		d.Logger.Debug("pruned history", "removed", n)
	}
	return e, nil
}

// Close releases the store, the interaction log and the result cache.
func (d *Deps) Close() error {
	var errs []error
	if d.Store != nil {
		errs = append(errs, d.Store.Close())
		d.Store = nil
	}
	if d.Sink != nil {
		errs = append(errs, d.Sink.Close())
	}
	if d.Generator != nil {
		d.Generator.Close()
	}
	return errors.Join(errs...)
}
