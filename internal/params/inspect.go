package params

import "errors"

// Inspection summarizes partially gathered input without encoding a URL.
// Conversational callers use it to decide what to ask next.
type Inspection struct {
	HasPostcode     bool     `json:"has_postcode" yaml:"has_postcode"`
	Provided        []string `json:"provided_params" yaml:"provided_params"`
	MissingOptional []string `json:"missing_optional" yaml:"missing_optional"`
	Problems        []string `json:"problems,omitempty" yaml:"problems,omitempty"`
	Suggestions     []string `json:"suggestions" yaml:"suggestions"`
}

// Inspect reports which fields raw supplies, which optional filters
// (providers included) are still open, and any validation problems.
func Inspect(raw Raw) Inspection {
	supplied := []struct {
		name string
		ok   bool
	}{
		{FieldPostcode, raw.Postcode != ""},
		{FieldSpeed, raw.speed() != ""},
		{FieldContractLength, raw.ContractLength != ""},
		{FieldPhoneCalls, raw.PhoneCalls != ""},
		{FieldProductType, raw.ProductType != ""},
		{FieldProviders, len(CoerceProviders(raw.Providers)) > 0},
		{FieldCurrentProvider, raw.CurrentProvider != ""},
		{FieldNewLine, raw.NewLine != nil},
		{FieldSortBy, raw.SortBy != ""},
	}

	in := Inspection{
		Provided:        []string{},
		MissingOptional: []string{},
		Suggestions:     []string{},
	}
	optional := map[string]bool{
		FieldSpeed: true, FieldContractLength: true, FieldPhoneCalls: true,
		FieldProductType: true, FieldProviders: true, FieldSortBy: true,
	}
	for _, s := range supplied {
		switch {
		case s.ok:
			in.Provided = append(in.Provided, s.name)
		case optional[s.name]:
			in.MissingOptional = append(in.MissingOptional, s.name)
		}
	}

	if _, err := Build(raw); err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			in.Problems = verrs.Messages()
		}
	}
	_, pcErr := NormalizePostcode(raw.Postcode)
	in.HasPostcode = pcErr == nil

	if !in.HasPostcode {
		in.Suggestions = append(in.Suggestions,
			"Ask for the user's UK postcode (required to generate comparison URLs)")
	} else if len(in.MissingOptional) > 2 {
		in.Suggestions = append(in.Suggestions,
			"You can generate a URL now with defaults, or ask about specific preferences")
	}
	return in
}
