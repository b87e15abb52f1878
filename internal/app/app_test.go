package app_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/derickschaefer/bbcompare/internal/app"
	"github.com/derickschaefer/bbcompare/internal/config"
	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/params"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		BaseURL:       config.DefaultBaseURL,
		Format:        config.DefaultFormat,
		DBPath:        filepath.Join(dir, "test.db"),
		LogLevel:      "info",
		CacheSize:     16,
		Concurrency:   2,
		Rate:          1,
		Burst:         1,
		RecordHistory: true,
	}
}

func newDeps(t *testing.T, cfg *config.Config, logs *bytes.Buffer) *app.Deps {
	t.Helper()
	d, err := app.New(cfg, app.Options{LogWriter: logs})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNewDoesNotOpenStore(t *testing.T) {
	cfg := testConfig(t)
	d := newDeps(t, cfg, &bytes.Buffer{})
	if d.Store != nil {
		t.Error("Store should stay closed until RequireStore")
	}
	if _, err := os.Stat(cfg.DBPath); !os.IsNotExist(err) {
		t.Errorf("db file should not exist yet, stat err = %v", err)
	}
	if d.Generator.BaseURL() != config.DefaultBaseURL {
		t.Errorf("Generator base URL: got %q", d.Generator.BaseURL())
	}
}

func TestRequireStore(t *testing.T) {
	d := newDeps(t, testConfig(t), &bytes.Buffer{})
	if err := d.RequireStore(); err != nil {
		t.Fatalf("RequireStore: %v", err)
	}
	first := d.Store
	if err := d.RequireStore(); err != nil {
		t.Fatalf("second RequireStore: %v", err)
	}
	if d.Store != first {
		t.Error("RequireStore should reuse the open store")
	}
}

func TestRequireStoreNoPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = ""
	d := newDeps(t, cfg, &bytes.Buffer{})
	if err := d.RequireStore(); err == nil {
		t.Error("expected error without db path")
	}
}

func TestRecordHistory(t *testing.T) {
	d := newDeps(t, testConfig(t), &bytes.Buffer{})
	raw := params.Raw{Postcode: "e14 9wb"}
	d.RecordHistory("cli", raw, d.Generator.GenerateRaw(raw))

	h, err := d.Store.ListHistory(0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(h) != 1 || h[0].Source != "cli" || h[0].Postcode != "E14 9WB" || !h[0].Success {
		t.Errorf("unexpected history: %+v", h)
	}
}

func TestRecordHistoryDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.RecordHistory = false
	d := newDeps(t, cfg, &bytes.Buffer{})
	raw := params.Raw{Postcode: "E14 9WB"}
	d.RecordHistory("cli", raw, d.Generator.GenerateRaw(raw))
	if d.Store != nil {
		t.Error("disabled history should not open the store")
	}
}

func TestAppendHistoryIgnoresRecordFlag(t *testing.T) {
	cfg := testConfig(t)
	cfg.RecordHistory = false
	d := newDeps(t, cfg, &bytes.Buffer{})

	e, err := d.AppendHistory(model.HistoryEntry{Source: "api", Postcode: "E14 9WB", Success: true})
	if err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if e.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	h, err := d.Store.ListHistory(0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(h) != 1 || h[0].Source != "api" {
		t.Errorf("unexpected history: %+v", h)
	}
}

func TestDebugForcesDebugLogs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Debug = true
	var logs bytes.Buffer
	newDeps(t, cfg, &logs)
	if !strings.Contains(logs.String(), "dependencies ready") {
		t.Errorf("expected debug log line, got %q", logs.String())
	}
}

func TestInteractionLogCreated(t *testing.T) {
	cfg := testConfig(t)
	cfg.InteractionLog = filepath.Join(t.TempDir(), "logs", "interactions.jsonl")
	d, err := app.New(cfg, app.Options{LogWriter: &bytes.Buffer{}, AsyncSink: true})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(cfg.InteractionLog); err != nil {
		t.Errorf("interaction log should exist: %v", err)
	}
}
