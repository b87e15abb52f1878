package obslog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ToolCall describes one invocation of a generator operation made on
// behalf of a client (an HTTP request or an MCP tool call).
type ToolCall struct {
	Tool     string
	Input    any
	Output   any
	Success  bool
	Duration time.Duration
}

// Sink receives interaction records. Implementations must be safe for
// concurrent use.
type Sink interface {
	// ToolCall records a completed call and returns its interaction ID.
	ToolCall(ctx context.Context, call ToolCall) string
	// Error records a failure that produced no tool output.
	Error(ctx context.Context, tool string, err error, input any)
	Close() error
}

// Nop is a Sink that discards everything.
type Nop struct{}

func (Nop) ToolCall(context.Context, ToolCall) string { return uuid.NewString() }
func (Nop) Error(context.Context, string, error, any) {}
func (Nop) Close() error                              { return nil }

// FileSink appends interaction records as JSON lines to a file.
type FileSink struct {
	logger *slog.Logger
	async  *AsyncHandler // nil in synchronous mode
	file   *os.File
	once   sync.Once
}

// FileSinkOptions tunes NewFileSink. The zero value writes synchronously.
type FileSinkOptions struct {
	// Buffer > 0 routes records through an AsyncHandler with this many slots.
	Buffer  int
	Workers int
}

// NewFileSink opens (or creates) path for appending. Parent directories
// are created as needed.
func NewFileSink(path string, opts FileSinkOptions) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating interaction log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening interaction log: %w", err)
	}
	var h slog.Handler = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})
	s := &FileSink{file: f}
	if opts.Buffer > 0 {
		s.async = NewAsyncHandler(h, opts.Buffer, opts.Workers)
		h = s.async
	}
	s.logger = slog.New(h)
	return s, nil
}

// ToolCall writes a "tool_call" record.
func (s *FileSink) ToolCall(ctx context.Context, call ToolCall) string {
	id := uuid.NewString()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "tool_call",
		slog.String("type", "tool_call"),
		slog.String("interaction_id", id),
		slog.String("tool_name", call.Tool),
		slog.Any("input", call.Input),
		slog.Any("output", call.Output),
		slog.Bool("success", call.Success),
		slog.Int64("duration_ms", call.Duration.Milliseconds()),
	)
	return id
}

// Error writes an "error" record.
func (s *FileSink) Error(ctx context.Context, tool string, err error, input any) {
	s.logger.LogAttrs(ctx, slog.LevelError, "error",
		slog.String("type", "error"),
		slog.String("interaction_id", uuid.NewString()),
		slog.String("tool_name", tool),
		slog.String("error", err.Error()),
		slog.Any("input", input),
	)
}

// Dropped reports how many records the async buffer discarded.
func (s *FileSink) Dropped() int64 {
	if s.async == nil {
		return 0
	}
	return s.async.DroppedCount()
}

// Close flushes pending records and closes the file.
func (s *FileSink) Close() error {
	var err error
	s.once.Do(func() {
		if s.async != nil {
			s.async.Close()
		}
		err = s.file.Close()
	})
	return err
}
