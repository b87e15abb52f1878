package params

import (
	"regexp"
	"strings"
)

// postcodePattern is deliberately loose: outward code of 1–2 letters, a digit
// and an optional letter or digit, then an inward code of a digit and two
// letters. It accepts many postcodes that do not exist.
var postcodePattern = regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z0-9]?\s*\d[A-Z]{2}$`)

// NormalizePostcode trims and upper-cases raw, collapses internal whitespace
// runs to one space and, when no space is present, splits off the final three
// characters as the inward code ("e149wb" → "E14 9WB").
func NormalizePostcode(raw string) (string, error) {
	s := strings.Join(strings.Fields(strings.ToUpper(raw)), " ")
	if s == "" {
		return "", &ValidationError{Kind: EmptyPostcode, Field: FieldPostcode}
	}
	if r := []rune(s); len(r) > 3 && !strings.Contains(s, " ") {
		s = string(r[:len(r)-3]) + " " + string(r[len(r)-3:])
	}
	return s, nil
}

// ValidatePostcodeFormat checks a normalized postcode against the permissive
// UK pattern. Spaces are ignored for the match.
func ValidatePostcodeFormat(normalized string) error {
	if !postcodePattern.MatchString(strings.ReplaceAll(normalized, " ", "")) {
		return &ValidationError{Kind: InvalidPostcodeFormat, Field: FieldPostcode, Value: normalized}
	}
	return nil
}

// PostcodeForURL replaces the space between outward and inward code with '+',
// the form the comparison site expects in its location parameter.
func PostcodeForURL(normalized string) string {
	return strings.ReplaceAll(normalized, " ", "+")
}

// postcode runs normalization then format validation.
func postcode(raw string) (string, *ValidationError) {
	s, err := NormalizePostcode(raw)
	if err != nil {
		return "", err.(*ValidationError)
	}
	if err := ValidatePostcodeFormat(s); err != nil {
		return s, err.(*ValidationError)
	}
	return s, nil
}
