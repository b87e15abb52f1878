package params

import "strings"

// FieldHelp describes one parameter for people and for LLM tool schemas.
type FieldHelp struct {
	Name        string   `json:"name" yaml:"name"`
	Required    bool     `json:"required" yaml:"required"`
	Description string   `json:"description" yaml:"description"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Help returns the static parameter table in presentation order. Option
// lists come from the enum domains.
func Help() []FieldHelp {
	return []FieldHelp{
		{Name: FieldPostcode, Required: true,
			Description: "Required. UK postcode (e.g., E14 9WB, SW10 9PA)"},
		enumHelp(FieldSpeed),
		enumHelp(FieldContractLength),
		enumHelp(FieldPhoneCalls),
		enumHelp(FieldProductType),
		{Name: FieldProviders,
			Description: "Optional. Comma-separated provider names or list (e.g., 'Hyperoptic,BT' or ['BT','Sky'])"},
		{Name: FieldCurrentProvider,
			Description: "Optional. User's existing provider name"},
		{Name: FieldNewLine,
			Description: "Optional. Boolean: true if a new phone line is required"},
		enumHelp(FieldSortBy),
	}
}

func enumHelp(field string) FieldHelp {
	opts := Options(field)
	return FieldHelp{
		Name:        field,
		Description: "Optional. Valid options: " + strings.Join(opts, ", "),
		Options:     opts,
	}
}

// HelpTable returns Help as a field → description map.
func HelpTable() map[string]string {
	h := Help()
	out := make(map[string]string, len(h))
	for _, f := range h {
		out[f.Name] = f.Description
	}
	return out
}
