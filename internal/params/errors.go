package params

import (
	"fmt"
	"strings"
)

// Kind classifies a validation failure.
type Kind int

const (
	EmptyPostcode Kind = iota + 1
	InvalidPostcodeFormat
	InvalidEnumValue
	MalformedURL
)

func (k Kind) String() string {
	switch k {
	case EmptyPostcode:
		return "EmptyPostcode"
	case InvalidPostcodeFormat:
		return "InvalidPostcodeFormat"
	case InvalidEnumValue:
		return "InvalidEnumValue"
	case MalformedURL:
		return "MalformedURL"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ValidationError is a single problem with a parameter set or a generated URL.
// The message is written for end users and can be relayed verbatim.
type ValidationError struct {
	Kind    Kind
	Field   string
	Value   string
	Allowed []string // InvalidEnumValue only
	Reason  string   // MalformedURL only
}

// Sentinels for errors.Is; matching is on Kind alone.
var (
	ErrEmptyPostcode         = &ValidationError{Kind: EmptyPostcode}
	ErrInvalidPostcodeFormat = &ValidationError{Kind: InvalidPostcodeFormat}
	ErrInvalidEnumValue      = &ValidationError{Kind: InvalidEnumValue}
	ErrMalformedURL          = &ValidationError{Kind: MalformedURL}
)

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyPostcode:
		return "Postcode is required"
	case InvalidPostcodeFormat:
		return fmt.Sprintf("Invalid UK postcode format: %s", e.Value)
	case InvalidEnumValue:
		return fmt.Sprintf("Invalid %s %q: must be one of %s",
			e.Field, e.Value, strings.Join(e.Allowed, ", "))
	case MalformedURL:
		if e.Reason != "" {
			return e.Reason
		}
		return fmt.Sprintf("malformed URL %q", e.Value)
	default:
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
}

// Is reports whether target is a ValidationError of the same Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// ValidationErrors accumulates every failure found in one pass so callers
// can report all problems together.
type ValidationErrors []*ValidationError

// maxReported caps how many problems Error() spells out.
const maxReported = 3

func (v *ValidationErrors) add(err *ValidationError) {
	if err != nil {
		*v = append(*v, err)
	}
}

// Err returns nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Error joins the first three messages with "; ".
func (v ValidationErrors) Error() string {
	n := len(v)
	if n > maxReported {
		n = maxReported
	}
	msgs := make([]string, n)
	for i := 0; i < n; i++ {
		msgs[i] = v[i].Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// Messages returns every message, uncapped.
func (v ValidationErrors) Messages() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Error()
	}
	return out
}
