package urlgen

import (
	"fmt"
	"strings"

	"github.com/derickschaefer/bbcompare/internal/params"
)

// maxSuggestions caps Result.Suggestions.
const maxSuggestions = 3

// Result is the outcome of one encode attempt. URL is set only on success.
type Result struct {
	Success         bool           `json:"success" yaml:"success"`
	Message         string         `json:"message" yaml:"message"`
	URL             string         `json:"url,omitempty" yaml:"url,omitempty"`
	ParametersUsed  map[string]any `json:"parameters_used" yaml:"parameters_used"`
	MissingOptional []string       `json:"missing_optional" yaml:"missing_optional"`
	Suggestions     []string       `json:"suggestions" yaml:"suggestions"`
}

// Failed builds an unsuccessful result echoing no parameters, for input
// that never produced a ParameterSet.
func Failed(message string) Result {
	return Result{
		Message:         message,
		ParametersUsed:  map[string]any{},
		MissingOptional: []string{},
		Suggestions:     []string{},
	}
}

// summary is the one-line success message naming the postcode and the main
// filters applied.
func summary(p params.ParameterSet) string {
	var filters []string
	if p.Speed != "" {
		filters = append(filters, "speed: "+string(p.Speed))
	}
	if p.ContractLength != "" {
		filters = append(filters, "contract: "+string(p.ContractLength))
	}
	if len(p.Providers) > 0 {
		filters = append(filters, "providers: "+strings.Join(p.Providers, ", "))
	}
	if p.ProductType != "" {
		filters = append(filters, "type: "+string(p.ProductType))
	}

	msg := fmt.Sprintf("Generated URL for postcode %s", p.Postcode)
	if len(filters) > 0 {
		msg += " with filters: " + strings.Join(filters, ", ")
	}
	return msg
}

// suggest returns refinement hints, at most three, in rule order.
func suggest(p params.ParameterSet) []string {
	out := []string{}
	if p.Speed == "" {
		out = append(out, "Consider specifying a speed preference: "+
			strings.Join(params.Options(params.FieldSpeed), ", "))
	}
	if p.ContractLength == "" {
		out = append(out, "You can filter by contract length: "+
			strings.Join(params.Options(params.FieldContractLength), ", "))
	}
	if p.Providers == nil {
		out = append(out, "You can filter by specific providers (e.g., BT, Sky, Hyperoptic)")
	}
	if p.SortBy == "" || p.SortBy == params.SortRecommended {
		out = append(out, "Try sorting by 'First Year Cost' or 'Avg. Monthly Cost' for better deals")
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
