package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Raw is loosely formatted input as it arrives from flags, JSON bodies or
// LLM tool calls. Empty strings mean "not supplied". Raw never reaches the
// URL encoder; Build turns it into a ParameterSet first.
type Raw struct {
	Postcode        string    `json:"postcode" yaml:"postcode"`
	Speed           string    `json:"speedInMb,omitempty" yaml:"speedInMb,omitempty"`
	SpeedAlias      string    `json:"speed,omitempty" yaml:"speed,omitempty"`
	ContractLength  string    `json:"contractLength,omitempty" yaml:"contractLength,omitempty"`
	PhoneCalls      string    `json:"phoneCalls,omitempty" yaml:"phoneCalls,omitempty"`
	ProductType     string    `json:"productType,omitempty" yaml:"productType,omitempty"`
	Providers       Providers `json:"providers,omitempty" yaml:"providers,omitempty"`
	CurrentProvider string    `json:"currentProvider,omitempty" yaml:"currentProvider,omitempty"`
	NewLine         *bool     `json:"newLine,omitempty" yaml:"newLine,omitempty"`
	SortBy          string    `json:"sortBy,omitempty" yaml:"sortBy,omitempty"`

	AddressID       string `json:"addressId,omitempty" yaml:"addressId,omitempty"`
	MatryoshkaSpeed string `json:"matryoshkaSpeed,omitempty" yaml:"matryoshkaSpeed,omitempty"`
	OpenProduct     string `json:"openProduct,omitempty" yaml:"openProduct,omitempty"`
	Tab             string `json:"tab,omitempty" yaml:"tab,omitempty"`
	TVChannels      string `json:"tvChannels,omitempty" yaml:"tvChannels,omitempty"`
}

// speed resolves the speedInMb/speed alias pair; the canonical key wins.
func (r Raw) speed() string {
	if r.Speed != "" {
		return r.Speed
	}
	return r.SpeedAlias
}

// ─── Providers ────────────────────────────────────────────────────────────────

// Providers is a provider list that decodes from either a comma-separated
// JSON string ("BT,Sky") or a JSON array (["BT","Sky"]). Array elements are
// kept whole; only the string form is split.
type Providers []string

// UnmarshalJSON accepts null, a string, an array of scalars, or a single
// scalar, which is stringified.
func (p *Providers) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*p = nil
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = strings.Split(s, ",")
		return nil
	case len(b) > 0 && b[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		out := make(Providers, 0, len(items))
		for _, it := range items {
			out = append(out, scalarString(it))
		}
		*p = out
		return nil
	case len(b) > 0 && b[0] == '{':
		return fmt.Errorf("providers: expected string or list, got object")
	default:
		*p = Providers{scalarString(b)}
		return nil
	}
}

// scalarString renders a JSON scalar as text: strings are unquoted, numbers
// and booleans keep their literal form.
func scalarString(b json.RawMessage) string {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return ""
	}
	return string(bytes.TrimSpace(b))
}

// SplitProviders coerces a comma-delimited provider string.
func SplitProviders(s string) []string {
	return CoerceProviders(strings.Split(s, ","))
}

// CoerceProviders trims each entry, drops empties and duplicates while
// preserving first-seen order. An empty result is nil (unset), never an
// empty list.
func CoerceProviders(list []string) []string {
	seen := make(map[string]bool, len(list))
	var out []string
	for _, p := range list {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
