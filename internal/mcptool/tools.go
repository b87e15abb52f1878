package mcptool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/obslog"
	"github.com/derickschaefer/bbcompare/internal/params"
)

// Tool names.
const (
	ToolGenerateURL        = "generate_url"
	ToolValidateParameters = "validate_parameters"
	ToolParameterHelp      = "parameter_help"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.generateURLTool(),
		s.validateParametersTool(),
		s.parameterHelpTool(),
	)
}

// parameterOptions declares every Raw field on a tool, with enum domains
// where the field has one.
func parameterOptions(postcodeRequired bool) []mcplib.ToolOption {
	pc := []mcplib.PropertyOption{mcplib.Description("UK postcode, e.g. \"E14 9WB\"")}
	if postcodeRequired {
		pc = append(pc, mcplib.Required())
	}
	opts := []mcplib.ToolOption{mcplib.WithString(params.FieldPostcode, pc...)}
	for _, f := range params.Help() {
		switch f.Name {
		case params.FieldPostcode:
			continue
		case params.FieldNewLine:
			opts = append(opts, mcplib.WithBoolean(f.Name, mcplib.Description(f.Description)))
		default:
			po := []mcplib.PropertyOption{mcplib.Description(f.Description)}
			if len(f.Options) > 0 {
				po = append(po, mcplib.Enum(f.Options...))
			}
			opts = append(opts, mcplib.WithString(f.Name, po...))
		}
	}
	return opts
}

func (s *Server) generateURLTool() mcpserver.ServerTool {
	opts := append([]mcplib.ToolOption{
		mcplib.WithDescription("Generate a broadband comparison URL for a UK postcode with optional filters. " +
			"Returns the URL, a summary, the parameters used, and suggestions for refining the search."),
	}, parameterOptions(true)...)
	return mcpserver.ServerTool{
		Tool:    mcplib.NewTool(ToolGenerateURL, opts...),
		Handler: s.handleGenerateURL,
	}
}

func (s *Server) validateParametersTool() mcpserver.ServerTool {
	opts := append([]mcplib.ToolOption{
		mcplib.WithDescription("Check extracted search parameters without generating a URL. " +
			"Reports which parameters were provided, which optional filters are missing, and any invalid values."),
	}, parameterOptions(false)...)
	return mcpserver.ServerTool{
		Tool:    mcplib.NewTool(ToolValidateParameters, opts...),
		Handler: s.handleValidateParameters,
	}
}

func (s *Server) parameterHelpTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool(ToolParameterHelp,
			mcplib.WithDescription("Describe the supported search parameters and their allowed values."),
			mcplib.WithString("field", mcplib.Description("Limit the answer to one parameter name")),
		),
		Handler: s.handleParameterHelp,
	}
}

func (s *Server) handleGenerateURL(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	start := time.Now()
	raw, err := decodeRaw(req.GetArguments())
	if err != nil {
		s.sink.Error(ctx, ToolGenerateURL, err, req.GetArguments())
		return mcplib.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	res := s.gen.GenerateRaw(raw)
	s.sink.ToolCall(ctx, obslog.ToolCall{
		Tool: ToolGenerateURL, Input: raw, Output: res, Success: res.Success, Duration: time.Since(start),
	})
	if s.history != nil {
		if _, err := s.history.AppendHistory(model.NewHistoryEntry("mcp", raw, res)); err != nil {
			s.log.Warn("recording history", "error", err)
		}
	}
	return toolResultJSON(res, !res.Success)
}

func (s *Server) handleValidateParameters(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	start := time.Now()
	raw, err := decodeRaw(req.GetArguments())
	if err != nil {
		s.sink.Error(ctx, ToolValidateParameters, err, req.GetArguments())
		return mcplib.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	in := params.Inspect(raw)
	s.sink.ToolCall(ctx, obslog.ToolCall{
		Tool: ToolValidateParameters, Input: raw, Output: in, Success: len(in.Problems) == 0, Duration: time.Since(start),
	})
	return toolResultJSON(in, false)
}

func (s *Server) handleParameterHelp(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	start := time.Now()
	field, _ := req.GetArguments()["field"].(string)
	field = strings.TrimSpace(field)

	var out any = params.Help()
	if field != "" {
		var found *params.FieldHelp
		for _, f := range params.Help() {
			if strings.EqualFold(f.Name, field) {
				found = &f
				break
			}
		}
		if found == nil {
			return mcplib.NewToolResultError(fmt.Sprintf("unknown parameter %q", field)), nil
		}
		out = found
	}
	s.sink.ToolCall(ctx, obslog.ToolCall{
		Tool: ToolParameterHelp, Input: req.GetArguments(), Output: out, Success: true, Duration: time.Since(start),
	})
	return toolResultJSON(out, false)
}

// decodeRaw maps tool arguments onto params.Raw through JSON, so the same
// coercions apply as for HTTP bodies (providers as string or list).
func decodeRaw(args map[string]any) (params.Raw, error) {
	var raw params.Raw
	if args == nil {
		return raw, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return raw, err
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return raw, err
	}
	return raw, nil
}

func toolResultJSON(v any, isError bool) (*mcplib.CallToolResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	res := mcplib.NewToolResultText(strings.TrimSuffix(buf.String(), "\n"))
	res.IsError = isError
	return res, nil
}
