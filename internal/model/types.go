// Package model defines the records bbcompare persists and the result
// envelope that every command returns.
package model

import (
	"time"

	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

// ─── Persisted Records ───────────────────────────────────────────────────────

// SavedSearch is a named parameter set that can be replayed later.
// Params keeps the raw input so a search saved under an older
// vocabulary is re-validated on every run.
type SavedSearch struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Params    params.Raw `json:"params" yaml:"params"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"updated_at"`
	LastURL   string     `json:"last_url,omitempty" yaml:"last_url,omitempty"`
}

// HistoryEntry records one generation attempt.
type HistoryEntry struct {
	ID       string    `json:"id" yaml:"id"`
	At       time.Time `json:"at" yaml:"at"`
	Source   string    `json:"source" yaml:"source"` // cli, batch, api, mcp
	Postcode string    `json:"postcode" yaml:"postcode"`
	Success  bool      `json:"success" yaml:"success"`
	URL      string    `json:"url,omitempty" yaml:"url,omitempty"`
	Message  string    `json:"message" yaml:"message"`
}

// NewHistoryEntry summarises a generation result. The postcode is taken
// from the normalized parameters when generation succeeded and from the
// raw input otherwise.
func NewHistoryEntry(source string, raw params.Raw, res urlgen.Result) HistoryEntry {
	pc := raw.Postcode
	if v, ok := res.ParametersUsed[params.FieldPostcode].(string); ok {
		pc = v
	}
	return HistoryEntry{
		At:       time.Now().UTC(),
		Source:   source,
		Postcode: pc,
		Success:  res.Success,
		URL:      res.URL,
		Message:  res.Message,
	}
}

// ─── Batch ───────────────────────────────────────────────────────────────────

// BatchItem is one line of batch output: the 1-based input line number
// and the result generated for it.
type BatchItem struct {
	Line   int           `json:"line" yaml:"line"`
	Result urlgen.Result `json:"result" yaml:"result"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries timing and cache metadata for a command result.
type ResultStats struct {
	CacheHit   bool  `json:"cache_hit" yaml:"cache_hit"`
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`
	Items      int   `json:"items" yaml:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind" yaml:"kind"`
	GeneratedAt time.Time   `json:"generated_at" yaml:"generated_at"`
	Command     string      `json:"command" yaml:"command"`
	Data        interface{} `json:"data" yaml:"data"`
	Warnings    []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Stats       ResultStats `json:"stats" yaml:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindGeneration    = "generation"     // *urlgen.Result
	KindBatch         = "batch"          // []BatchItem
	KindParameterHelp = "parameter_help" // []params.FieldHelp
	KindInspection    = "inspection"     // *params.Inspection
	KindSavedSearch   = "saved_search"   // *SavedSearch or []SavedSearch
	KindHistory       = "history"        // []HistoryEntry
)

// NewResult builds an envelope stamped with the current time.
func NewResult(kind, command string, data interface{}, items int) *Result {
	return &Result{
		Kind:        kind,
		GeneratedAt: time.Now().UTC(),
		Command:     command,
		Data:        data,
		Stats:       ResultStats{Items: items},
	}
}
