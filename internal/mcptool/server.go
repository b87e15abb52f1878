// Package mcptool exposes the URL generator to LLM clients as Model
// Context Protocol tools over stdio.
package mcptool

import (
	"context"
	"io"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/obslog"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

// Generator is satisfied by urlgen.Generator and cache.Generator.
type Generator interface {
	GenerateRaw(raw params.Raw) urlgen.Result
}

// HistoryRecorder persists generation attempts; *store.Store satisfies it.
type HistoryRecorder interface {
	AppendHistory(e model.HistoryEntry) (model.HistoryEntry, error)
}

// Options configures a Server. Generator is required.
type Options struct {
	Name      string
	Version   string
	Generator Generator
	Logger    *slog.Logger
	Sink      obslog.Sink
	History   HistoryRecorder
}

// Server wraps an MCP server with the bbcompare tools registered.
type Server struct {
	mcpServer *mcpserver.MCPServer
	gen       Generator
	log       *slog.Logger
	sink      obslog.Sink
	history   HistoryRecorder
}

// New builds a Server and registers its tools.
func New(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "bbcompare"
	}
	s := &Server{
		mcpServer: mcpserver.NewMCPServer(opts.Name, opts.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
		gen:     opts.Generator,
		log:     opts.Logger,
		sink:    opts.Sink,
		history: opts.History,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.sink == nil {
		s.sink = obslog.Nop{}
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying server, for tests and custom transports.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// ServeStdio speaks MCP over in/out until ctx is cancelled or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info("mcp server ready", "transport", "stdio")
	return mcpserver.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}
