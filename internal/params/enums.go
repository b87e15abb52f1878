package params

// ─── Field names ──────────────────────────────────────────────────────────────

// Field names double as JSON keys, URL fragment keys and the names reported
// in missing-field lists.
const (
	FieldPostcode        = "postcode"
	FieldSpeed           = "speedInMb"
	FieldContractLength  = "contractLength"
	FieldPhoneCalls      = "phoneCalls"
	FieldProductType     = "productType"
	FieldProviders       = "providers"
	FieldCurrentProvider = "currentProvider"
	FieldNewLine         = "newLine"
	FieldSortBy          = "sortBy"

	FieldAddressID       = "addressId"
	FieldMatryoshkaSpeed = "matryoshkaSpeed"
	FieldOpenProduct     = "openProduct"
	FieldTab             = "tab"
	FieldTVChannels      = "tvChannels"
)

// ─── Enumerated domains ───────────────────────────────────────────────────────

// Speed is a broadband speed tier. The zero value means unset.
type Speed string

const (
	Speed10Mb  Speed = "10Mb"
	Speed30Mb  Speed = "30Mb"
	Speed55Mb  Speed = "55Mb"
	Speed100Mb Speed = "100Mb"
)

// ContractLength is a minimum contract term. The zero value means unset.
type ContractLength string

const (
	Contract12Months ContractLength = "12 months"
	Contract18Months ContractLength = "18 months"
	Contract24Months ContractLength = "24 months"
)

// PhoneCalls is the inclusive-calls package filter. The zero value means unset.
type PhoneCalls string

const (
	CallsCheapest       PhoneCalls = "Cheapest"
	CallsShowAll        PhoneCalls = "Show me everything"
	CallsEveningWeekend PhoneCalls = "Evening and Weekend"
	CallsAnytime        PhoneCalls = "Anytime"
	CallsNoInclusive    PhoneCalls = "No inclusive"
	CallsNoPhoneLine    PhoneCalls = "No phone line"
)

// ProductType is the bundle being compared. The zero value means unset and
// encodes as ProductBroadband.
type ProductType string

const (
	ProductBroadband        ProductType = "broadband"
	ProductBroadbandPhone   ProductType = "broadband,phone"
	ProductBroadbandPhoneTV ProductType = "broadband,phone,tv"
)

// SortBy is the result ordering. The zero value means unset and encodes as
// SortRecommended.
type SortBy string

const (
	SortRecommended       SortBy = "Recommended"
	SortFirstYearCost     SortBy = "First Year Cost"
	SortAvgMonthlyCost    SortBy = "Avg. Monthly Cost"
	SortTotalContractCost SortBy = "Total Contract Cost"
	SortSetupCosts        SortBy = "Setup Costs"
	SortContractLength    SortBy = "Contract Length"
	SortSpeed             SortBy = "Speed"
	SortUsage             SortBy = "Usage"
)

// domain is the closed set of literals one enum field accepts. Option lists
// shown to users are derived from it, so there is one source of truth.
type domain[T ~string] struct {
	field  string
	values []T
}

func (d domain[T]) contains(v T) bool {
	for _, x := range d.values {
		if x == v {
			return true
		}
	}
	return false
}

// parse matches raw exactly (case-sensitive). Empty input means unset.
func (d domain[T]) parse(raw string) (T, *ValidationError) {
	if raw == "" {
		return "", nil
	}
	v := T(raw)
	if d.contains(v) {
		return v, nil
	}
	return "", &ValidationError{
		Kind:    InvalidEnumValue,
		Field:   d.field,
		Value:   raw,
		Allowed: d.strings(),
	}
}

// check validates an already-typed value; unset is always valid.
func (d domain[T]) check(v T) *ValidationError {
	_, err := d.parse(string(v))
	return err
}

func (d domain[T]) strings() []string {
	out := make([]string, len(d.values))
	for i, v := range d.values {
		out[i] = string(v)
	}
	return out
}

var (
	speeds = domain[Speed]{FieldSpeed, []Speed{
		Speed10Mb, Speed30Mb, Speed55Mb, Speed100Mb,
	}}
	contractLengths = domain[ContractLength]{FieldContractLength, []ContractLength{
		Contract12Months, Contract18Months, Contract24Months,
	}}
	phoneCalls = domain[PhoneCalls]{FieldPhoneCalls, []PhoneCalls{
		CallsCheapest, CallsShowAll, CallsEveningWeekend,
		CallsAnytime, CallsNoInclusive, CallsNoPhoneLine,
	}}
	productTypes = domain[ProductType]{FieldProductType, []ProductType{
		ProductBroadband, ProductBroadbandPhone, ProductBroadbandPhoneTV,
	}}
	sortOrders = domain[SortBy]{FieldSortBy, []SortBy{
		SortRecommended, SortFirstYearCost, SortAvgMonthlyCost, SortTotalContractCost,
		SortSetupCosts, SortContractLength, SortSpeed, SortUsage,
	}}
)

// ParseSpeed returns the Speed matching raw exactly, or InvalidEnumValue.
func ParseSpeed(raw string) (Speed, error) {
	v, err := speeds.parse(raw)
	if err != nil {
		return "", err
	}
	return v, nil
}

// ParseContractLength returns the ContractLength matching raw exactly.
func ParseContractLength(raw string) (ContractLength, error) {
	v, err := contractLengths.parse(raw)
	if err != nil {
		return "", err
	}
	return v, nil
}

// ParsePhoneCalls returns the PhoneCalls option matching raw exactly.
func ParsePhoneCalls(raw string) (PhoneCalls, error) {
	v, err := phoneCalls.parse(raw)
	if err != nil {
		return "", err
	}
	return v, nil
}

// ParseProductType returns the ProductType matching raw exactly.
func ParseProductType(raw string) (ProductType, error) {
	v, err := productTypes.parse(raw)
	if err != nil {
		return "", err
	}
	return v, nil
}

// ParseSortBy returns the SortBy option matching raw exactly.
func ParseSortBy(raw string) (SortBy, error) {
	v, err := sortOrders.parse(raw)
	if err != nil {
		return "", err
	}
	return v, nil
}

// Options returns the valid literals for an enum field, in declared order.
// Non-enum fields return nil.
func Options(field string) []string {
	switch field {
	case FieldSpeed:
		return speeds.strings()
	case FieldContractLength:
		return contractLengths.strings()
	case FieldPhoneCalls:
		return phoneCalls.strings()
	case FieldProductType:
		return productTypes.strings()
	case FieldSortBy:
		return sortOrders.strings()
	}
	return nil
}
