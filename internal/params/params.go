// Package params defines the broadband search parameter set: the closed value
// domains for each field, UK postcode normalization, and the coercion step
// that turns loosely formatted input into a validated ParameterSet.
//
// Nothing in this package performs I/O. Every failure is reported as a
// ValidationError value; a single Build call collects all of them.
package params

import (
	"encoding/json"
	"strings"
)

// UI-only fragment defaults.
const (
	DefaultMatryoshkaSpeed = "Broadband"
	DefaultTab             = "alldeals"
)

// ParameterSet is one validated search request. Build is the only way to get
// one from untrusted input; refinement produces a new value via Refine.
type ParameterSet struct {
	Postcode        string         `json:"postcode" yaml:"postcode"`
	Speed           Speed          `json:"speedInMb,omitempty" yaml:"speedInMb,omitempty"`
	ContractLength  ContractLength `json:"contractLength,omitempty" yaml:"contractLength,omitempty"`
	PhoneCalls      PhoneCalls     `json:"phoneCalls,omitempty" yaml:"phoneCalls,omitempty"`
	ProductType     ProductType    `json:"productType,omitempty" yaml:"productType,omitempty"`
	Providers       []string       `json:"providers,omitempty" yaml:"providers,omitempty"`
	CurrentProvider string         `json:"currentProvider,omitempty" yaml:"currentProvider,omitempty"`
	NewLine         *bool          `json:"newLine,omitempty" yaml:"newLine,omitempty"`
	SortBy          SortBy         `json:"sortBy,omitempty" yaml:"sortBy,omitempty"`

	AddressID       string `json:"addressId" yaml:"addressId"`
	MatryoshkaSpeed string `json:"matryoshkaSpeed" yaml:"matryoshkaSpeed"`
	OpenProduct     string `json:"openProduct" yaml:"openProduct"`
	Tab             string `json:"tab" yaml:"tab"`
	TVChannels      string `json:"tvChannels" yaml:"tvChannels"`
}

// optionalOrder is the fixed order missing optional fields are reported in.
var optionalOrder = []string{
	FieldSpeed,
	FieldContractLength,
	FieldPhoneCalls,
	FieldProductType,
	FieldSortBy,
}

// Build coerces raw into a ParameterSet, normalizing the postcode and
// providers and checking every enum field. All problems are returned
// together as ValidationErrors.
func Build(raw Raw) (ParameterSet, error) {
	var errs ValidationErrors
	var p ParameterSet
	var err *ValidationError

	p.Postcode, err = postcode(raw.Postcode)
	errs.add(err)

	p.Speed, err = speeds.parse(raw.speed())
	errs.add(err)
	p.ContractLength, err = contractLengths.parse(raw.ContractLength)
	errs.add(err)
	p.PhoneCalls, err = phoneCalls.parse(raw.PhoneCalls)
	errs.add(err)
	p.ProductType, err = productTypes.parse(raw.ProductType)
	errs.add(err)
	p.SortBy, err = sortOrders.parse(raw.SortBy)
	errs.add(err)

	p.Providers = CoerceProviders(raw.Providers)
	p.CurrentProvider = strings.TrimSpace(raw.CurrentProvider)
	if raw.NewLine != nil {
		v := *raw.NewLine
		p.NewLine = &v
	}

	p.AddressID = raw.AddressID
	p.MatryoshkaSpeed = orDefault(raw.MatryoshkaSpeed, DefaultMatryoshkaSpeed)
	p.OpenProduct = raw.OpenProduct
	p.Tab = orDefault(raw.Tab, DefaultTab)
	p.TVChannels = raw.TVChannels

	if len(errs) > 0 {
		return ParameterSet{}, errs
	}
	return p, nil
}

// Raw converts p back into raw input. Build(p.Raw()) is the identity for a
// ParameterSet that came out of Build.
func (p ParameterSet) Raw() Raw {
	r := Raw{
		Postcode:        p.Postcode,
		Speed:           string(p.Speed),
		ContractLength:  string(p.ContractLength),
		PhoneCalls:      string(p.PhoneCalls),
		ProductType:     string(p.ProductType),
		CurrentProvider: p.CurrentProvider,
		SortBy:          string(p.SortBy),
		AddressID:       p.AddressID,
		MatryoshkaSpeed: p.MatryoshkaSpeed,
		OpenProduct:     p.OpenProduct,
		Tab:             p.Tab,
		TVChannels:      p.TVChannels,
	}
	if p.Providers != nil {
		r.Providers = append(Providers(nil), p.Providers...)
	}
	if p.NewLine != nil {
		v := *p.NewLine
		r.NewLine = &v
	}
	return r
}

// Validate re-runs every check against p. It is useful for values assembled
// by hand rather than through Build.
func (p ParameterSet) Validate() error {
	var errs ValidationErrors
	if p.Postcode == "" {
		errs.add(&ValidationError{Kind: EmptyPostcode, Field: FieldPostcode})
	} else if err := ValidatePostcodeFormat(p.Postcode); err != nil {
		errs.add(err.(*ValidationError))
	}
	errs.add(speeds.check(p.Speed))
	errs.add(contractLengths.check(p.ContractLength))
	errs.add(phoneCalls.check(p.PhoneCalls))
	errs.add(productTypes.check(p.ProductType))
	errs.add(sortOrders.check(p.SortBy))
	return errs.Err()
}

// Refine overlays every field supplied in change onto a copy of p and
// validates the result. p itself is never modified.
func (p ParameterSet) Refine(change Raw) (ParameterSet, error) {
	r := p.Raw()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&r.Postcode, change.Postcode)
	set(&r.Speed, change.speed())
	set(&r.ContractLength, change.ContractLength)
	set(&r.PhoneCalls, change.PhoneCalls)
	set(&r.ProductType, change.ProductType)
	set(&r.CurrentProvider, change.CurrentProvider)
	set(&r.SortBy, change.SortBy)
	set(&r.AddressID, change.AddressID)
	set(&r.MatryoshkaSpeed, change.MatryoshkaSpeed)
	set(&r.OpenProduct, change.OpenProduct)
	set(&r.Tab, change.Tab)
	set(&r.TVChannels, change.TVChannels)
	if change.Providers != nil {
		r.Providers = change.Providers
	}
	if change.NewLine != nil {
		r.NewLine = change.NewLine
	}
	return Build(r)
}

// MissingOptional lists the optional filters not set on p, always in the
// order speedInMb, contractLength, phoneCalls, productType, sortBy.
func (p ParameterSet) MissingOptional() []string {
	set := map[string]bool{
		FieldSpeed:          p.Speed != "",
		FieldContractLength: p.ContractLength != "",
		FieldPhoneCalls:     p.PhoneCalls != "",
		FieldProductType:    p.ProductType != "",
		FieldSortBy:         p.SortBy != "",
	}
	missing := []string{}
	for _, f := range optionalOrder {
		if !set[f] {
			missing = append(missing, f)
		}
	}
	return missing
}

// MissingOptionalFields is the standalone form of ParameterSet.MissingOptional,
// for multi-turn clarification without a full encode.
func MissingOptionalFields(p ParameterSet) []string {
	return p.MissingOptional()
}

// Used echoes the fields that carry a value: the postcode, every optional
// field that was set, and non-empty UI fields.
func (p ParameterSet) Used() map[string]any {
	out := map[string]any{FieldPostcode: p.Postcode}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put(FieldSpeed, string(p.Speed))
	put(FieldContractLength, string(p.ContractLength))
	put(FieldPhoneCalls, string(p.PhoneCalls))
	put(FieldProductType, string(p.ProductType))
	put(FieldCurrentProvider, p.CurrentProvider)
	put(FieldSortBy, string(p.SortBy))
	if p.Providers != nil {
		out[FieldProviders] = append([]string(nil), p.Providers...)
	}
	if p.NewLine != nil {
		out[FieldNewLine] = *p.NewLine
	}
	put(FieldAddressID, p.AddressID)
	put(FieldMatryoshkaSpeed, p.MatryoshkaSpeed)
	put(FieldOpenProduct, p.OpenProduct)
	put(FieldTab, p.Tab)
	put(FieldTVChannels, p.TVChannels)
	return out
}

// Key is a deterministic identity for p, suitable as a cache key.
// Struct fields marshal in declaration order, so equal sets give equal keys.
func (p ParameterSet) Key() string {
	b, _ := json.Marshal(p)
	return string(b)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
