package cmd

// cmd/llm.go: machine-readable context document for LLM onboarding.
//
// Usage:
//   bbcompare llm                          # start bundle, paste into an LLM session
//   bbcompare llm --topic toc              # topic index for the two-step handshake
//   bbcompare llm --topic parameters       # field reference with valid values
//   bbcompare llm --topic toc,tools        # comma-separated multi-topic
//   bbcompare llm --topic all              # everything
//
// Two-step handshake:
//   1. bbcompare llm --topic toc           (paste, the LLM asks for topics)
//   2. bbcompare llm --topic <requested>   (paste, the LLM says ready)

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/derickschaefer/bbcompare/internal/config"
	"github.com/derickschaefer/bbcompare/internal/mcptool"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
	"github.com/spf13/cobra"
)

// ─── Topic registry ───────────────────────────────────────────────────────────

type llmTopic struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var topicRegistry = []llmTopic{
	{"start", "Onboarding bundle: conversation flow, parameters, tools and gotchas."},
	{"toc", "Topic index and interaction guide for the two-step handshake."},
	{"parameters", "Every search parameter, whether it is required, and its exact valid values."},
	{"conversation", "How to gather parameters from a user and when to generate."},
	{"tools", "MCP tools and HTTP endpoints with their inputs and outputs."},
	{"commands", "CLI command reference."},
	{"data-model", "GenerationResult and the Result envelope."},
	{"examples", "Example inputs with the URLs this build generates for them."},
	{"gotchas", "Exact matching, defaults and other sharp edges."},
	{"version", "Build metadata for provenance."},
}

// ─── Command ──────────────────────────────────────────────────────────────────

var llmTopicFlag string

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Emit a machine-readable context document for LLM onboarding",
	Long: `Emit a JSON document describing bbcompare's parameters, tools and
conversation rules, sized for an LLM context window.

Bare 'bbcompare llm' emits the start bundle. Paste it into an LLM session
and the model can collect search parameters and call the generator.

Two-step handshake:
  1. bbcompare llm --topic toc
  2. bbcompare llm --topic <requested topics>

Topics:
  start         Onboarding bundle (default)
  toc           Topic index
  parameters    Field reference with valid values
  conversation  Gathering parameters from a user
  tools         MCP tools and HTTP endpoints
  commands      CLI reference
  data-model    Result types
  examples      Inputs with generated URLs
  gotchas       Sharp edges
  version       Build metadata
  all           Everything`,
	Example: `  bbcompare llm
  bbcompare llm --topic toc
  bbcompare llm --topic parameters,gotchas
  bbcompare llm --topic all | pbcopy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := parseLLMTopics(llmTopicFlag)
		if err != nil {
			return err
		}
		doc := buildLLMDoc(topics)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		if globalFlags.Format != "jsonl" {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(doc)
	},
}

func init() {
	rootCmd.AddCommand(llmCmd)
	llmCmd.Flags().StringVar(&llmTopicFlag, "topic", "start",
		"topic(s) to emit, comma-separated, or all")
}

// ─── Topic parsing ────────────────────────────────────────────────────────────

// parseLLMTopics splits the --topic value. Empty means start; unknown names
// are an error.
func parseLLMTopics(flag string) ([]string, error) {
	flag = strings.TrimSpace(flag)
	if flag == "" {
		flag = "start"
	}
	if flag == "all" {
		all := make([]string, len(topicRegistry))
		for i, t := range topicRegistry {
			all[i] = t.Name
		}
		return all, nil
	}

	known := make(map[string]bool, len(topicRegistry))
	for _, t := range topicRegistry {
		known[t.Name] = true
	}
	parts := strings.Split(flag, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !known[p] {
			return nil, fmt.Errorf("unknown topic %q (run 'bbcompare llm --topic toc' for the list)", p)
		}
		out = append(out, p)
	}
	return out, nil
}

// ─── Document builder ─────────────────────────────────────────────────────────

func buildLLMDoc(topics []string) map[string]any {
	doc := map[string]any{
		"tool":    "bbcompare",
		"version": Version,
		"llm_note": "This document was generated by `bbcompare llm`. " +
			"It is the authoritative reference for bbcompare's parameters and tools. " +
			"Parameter values must be copied exactly as listed.",
	}

	for _, t := range topics {
		switch t {
		case "start":
			doc["start"] = buildStart()
		case "toc":
			doc["toc"] = buildTOC()
		case "parameters":
			doc["parameters"] = buildParameters()
		case "conversation":
			doc["conversation"] = buildConversation()
		case "tools":
			doc["tools"] = buildTools()
		case "commands":
			doc["commands"] = buildCommands()
		case "data-model":
			doc["data_model"] = buildDataModel()
		case "examples":
			doc["examples"] = buildExamples()
		case "gotchas":
			doc["gotchas"] = buildGotchas()
		case "version":
			doc["version_detail"] = currentVersion()
		}
	}
	return doc
}

// ─── Start ────────────────────────────────────────────────────────────────────

func buildStart() map[string]any {
	return map[string]any{
		"description": "Onboarding bundle. Enough context to gather a broadband search from a user and produce a comparison URL.",
		"suggested_prompt": "I am pasting the output of `bbcompare llm`. " +
			"It describes a tool that turns a UK broadband search into a comparison-site URL. " +
			"Ask me for my postcode first; it is the only required field. " +
			"Offer the optional filters, but generate as soon as I want results. " +
			"Use only the exact option values listed. Tell me when you are ready.",
		"parameters":   buildParameters(),
		"conversation": buildConversation(),
		"tools":        buildTools(),
		"gotchas":      buildGotchas(),
	}
}

// ─── TOC ──────────────────────────────────────────────────────────────────────

func buildTOC() map[string]any {
	topics := make([]map[string]any, len(topicRegistry))
	for i, t := range topicRegistry {
		topics[i] = map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"fetch":       fmt.Sprintf("bbcompare llm --topic %s", t.Name),
		}
	}
	return map[string]any{
		"description": "bbcompare validates broadband search parameters and builds a comparison-site URL. " +
			"It never contacts the site and returns no deals; the user opens the URL.",
		"topics":       topics,
		"quick_start":  "bbcompare llm",
		"multi_topic":  "bbcompare llm --topic parameters,tools",
		"full_context": "bbcompare llm --topic all",
	}
}

// ─── Parameters ───────────────────────────────────────────────────────────────

func buildParameters() map[string]any {
	return map[string]any{
		"fields": params.Help(),
		"postcode_rules": "UK postcode. Case and spacing are normalized: 'e149ww' becomes 'E14 9WW'. " +
			"The outward code is 1-2 letters, a digit and an optional letter or digit; the inward code is a digit and two letters.",
		"providers_rules": "A comma-separated string or a list. Names are trimmed, empties dropped, duplicates removed, order kept.",
		"speed_alias":     "'speed' is accepted as an input alias for speedInMb.",
		"defaults_in_url": map[string]string{
			params.FieldProductType: "broadband",
			params.FieldSortBy:      "Recommended",
		},
	}
}

// ─── Conversation ─────────────────────────────────────────────────────────────

func buildConversation() map[string]any {
	return map[string]any{
		"flow": []string{
			"Ask for the postcode. Nothing can be generated without it.",
			"Call validate_parameters with what you have to see what is missing or invalid.",
			"Offer up to two optional filters at a time; the user may skip them all.",
			"Call generate_url. Present the URL and the message.",
			"Offer the returned suggestions to refine the search, then generate again with the changed fields.",
		},
		"refinement": "Each generation is independent. To refine, send the full parameter set again with the changed fields.",
		"on_failure": "When success is false, read message, correct the named field with the user, and retry. Do not invent a URL.",
	}
}

// ─── Tools ────────────────────────────────────────────────────────────────────

func buildTools() map[string]any {
	return map[string]any{
		"mcp": map[string]any{
			"start": "bbcompare mcp   (stdio transport)",
			"tools": []map[string]any{
				{"name": mcptool.ToolGenerateURL, "input": "parameter object", "output": "GenerationResult as JSON; isError is true when no URL was generated"},
				{"name": mcptool.ToolValidateParameters, "input": "parameter object, postcode optional", "output": "has_postcode, provided_params, missing_optional, problems, suggestions"},
				{"name": mcptool.ToolParameterHelp, "input": "optional field name", "output": "field reference"},
			},
		},
		"http": map[string]any{
			"start": fmt.Sprintf("bbcompare serve   (default %s)", config.DefaultListenAddr),
			"endpoints": []map[string]any{
				{"method": "GET", "path": "/healthz"},
				{"method": "GET", "path": "/v1/parameters"},
				{"method": "POST", "path": "/v1/generate", "status": "200 with a URL, 422 without, 400 bad JSON, 413 body over 64KB, 429 rate limited"},
				{"method": "POST", "path": "/v1/inspect"},
			},
		},
	}
}

// ─── Commands ─────────────────────────────────────────────────────────────────

func buildCommands() map[string]any {
	return map[string]any{
		"global_flags": map[string]any{
			"--format":      "table|json|jsonl|yaml|md|url  (default: table)",
			"--out":         "write output to file instead of stdout",
			"--base-url":    "comparison site base URL (also: BROADBAND_BASE_URL env, config.json)",
			"--log-level":   "debug|info|warn|error",
			"--concurrency": "max parallel generations for --batch  (default: 8)",
			"--no-history":  "do not record generations",
			"--verbose":     "show timing and cache stats after output",
			"--quiet":       "suppress all non-error output",
		},
		"commands": []map[string]any{
			{"usage": "bbcompare url [POSTCODE] [--speed S] [--contract C] [--phone-calls P] [--product-type T] [--providers A,B] [--current-provider X] [--new-line] [--sort-by O] [--open]", "does": "generate one URL; exits 1 when none is generated"},
			{"usage": "bbcompare url --batch < in.jsonl", "does": "one parameter object per line in, one result per line out, input order kept"},
			{"usage": "bbcompare params [FIELD]", "does": "field reference"},
			{"usage": "bbcompare missing [POSTCODE] [flags as url]", "does": "what is provided, missing or invalid"},
			{"usage": "bbcompare saved save|list|show|run|delete", "does": "named searches in the local database"},
			{"usage": "bbcompare history list|clear", "does": "log of generations"},
			{"usage": "bbcompare store stats|clear", "does": "local database maintenance"},
			{"usage": "bbcompare serve", "does": "HTTP API"},
			{"usage": "bbcompare mcp", "does": "MCP server on stdio"},
			{"usage": "bbcompare config init|get|set", "does": "configuration"},
		},
	}
}

// ─── Data model ───────────────────────────────────────────────────────────────

func buildDataModel() map[string]any {
	return map[string]any{
		"generation_result": map[string]any{
			"success":          "bool",
			"message":          "string, human readable; explains the failure when success is false",
			"url":              "string, present only on success",
			"parameters_used":  "object, normalized parameters; empty when validation failed",
			"missing_optional": "[]string, optional filters not given, in fixed order",
			"suggestions":      "[]string, at most 3 refinement hints",
		},
		"result_envelope": map[string]any{
			"kind":         "generation|batch|parameter_help|inspection|saved_search|history",
			"generated_at": "RFC 3339 time",
			"command":      "command that produced it",
			"data":         "payload; kind says what is inside",
			"warnings":     "[]string, e.g. failed batch lines",
			"stats":        "cache_hit, duration_ms, items",
			"note":         "CLI --format json wraps results in this envelope. MCP and HTTP return the bare generation_result.",
		},
	}
}

// ─── Examples ─────────────────────────────────────────────────────────────────

// buildExamples runs each example through the generator, so the URLs always
// match this build.
func buildExamples() map[string]any {
	yes := true
	inputs := []struct {
		name string
		raw  params.Raw
	}{
		{"postcode only", params.Raw{Postcode: "e14 9ww"}},
		{"fast fibre, cheapest first", params.Raw{Postcode: "SW1A 1AA", Speed: "100Mb", SortBy: "First Year Cost"}},
		{"bundle with providers", params.Raw{
			Postcode:       "M1 1AE",
			ContractLength: "24 months",
			ProductType:    "broadband,phone,tv",
			Providers:      params.Providers{"BT", "Sky"},
			NewLine:        &yes,
		}},
		{"invalid speed", params.Raw{Postcode: "E14 9WW", Speed: "1Gb"}},
	}

	gen := urlgen.New(config.DefaultBaseURL)
	out := make([]map[string]any, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, map[string]any{
			"name":   in.name,
			"input":  in.raw,
			"result": gen.GenerateRaw(in.raw),
		})
	}
	return map[string]any{
		"base_url": config.DefaultBaseURL,
		"examples": out,
	}
}

// ─── Gotchas ──────────────────────────────────────────────────────────────────

func buildGotchas() []map[string]any {
	return []map[string]any{
		{
			"id":      "exact-values",
			"title":   "Option values are case-sensitive and exact",
			"detail":  "'100mb', '100 Mb' and '24 Months' are rejected. Copy values from the parameters topic.",
			"wrong":   `{"speedInMb": "100mb"}`,
			"correct": `{"speedInMb": "100Mb"}`,
		},
		{
			"id":      "product-type-commas",
			"title":   "Product type combinations use commas",
			"detail":  "Bundles are written 'broadband,phone' and 'broadband,phone,tv', not with '+' or spaces.",
			"wrong":   `{"productType": "broadband+phone"}`,
			"correct": `{"productType": "broadband,phone"}`,
		},
		{
			"id":     "no-live-data",
			"title":  "No deals are fetched",
			"detail": "The URL is well-formed and consistent, but the site decides what it shows. Never describe prices or deals; hand the user the URL.",
		},
		{
			"id":     "new-line-false",
			"title":  "newLine false is the same as unset",
			"detail": "Only newLine true adds a filter to the URL.",
		},
		{
			"id":     "postcode-syntax-only",
			"title":  "Postcodes are checked for syntax only",
			"detail": "A well-formed postcode that does not exist still produces a URL.",
		},
	}
}
