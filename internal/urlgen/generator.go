// Package urlgen turns a validated parameter set into a comparison-site URL.
//
// The encoding is deterministic: the same ParameterSet and base URL always
// produce byte-identical output. A Generator holds only its base URL, so one
// instance may be shared freely between goroutines.
package urlgen

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/derickschaefer/bbcompare/internal/params"
)

// DefaultBaseURL is the comparison page targeted when none is configured.
const DefaultBaseURL = "https://broadband.justmovein.co/packages"

// Generator encodes ParameterSets against one base URL. To target a
// different site, construct a new Generator.
type Generator struct {
	baseURL string
}

// New returns a Generator for baseURL, or DefaultBaseURL when empty. The
// base URL is not checked here; a bad one surfaces as a MalformedURL result.
func New(baseURL string) *Generator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Generator{baseURL: baseURL}
}

// BaseURL returns the configured target.
func (g *Generator) BaseURL() string {
	return g.baseURL
}

// GenerateRaw builds a ParameterSet from raw input and encodes it.
func (g *Generator) GenerateRaw(raw params.Raw) Result {
	p, err := params.Build(raw)
	if err != nil {
		return invalid(err)
	}
	return g.encode(p)
}

// Generate encodes p. p is passed through params.Build again first, so a
// hand-assembled value gets the same normalization and checks as raw input.
func (g *Generator) Generate(p params.ParameterSet) Result {
	return g.GenerateRaw(p.Raw())
}

func invalid(err error) Result {
	return Failed("Invalid parameters: " + err.Error())
}

// ─── Encoding ─────────────────────────────────────────────────────────────────

// fragmentEntry is one key/value in the fragment query string.
type fragmentEntry struct {
	key, value string
}

// fragment lists every fragment parameter in the site's fixed key order,
// with defaults filled in. Empty values are dropped by the caller.
func fragment(p params.ParameterSet) []fragmentEntry {
	newLine := ""
	if p.NewLine != nil && *p.NewLine {
		newLine = "NewLine"
	}
	productType := p.ProductType
	if productType == "" {
		productType = params.ProductBroadband
	}
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = params.SortRecommended
	}
	matryoshka := p.MatryoshkaSpeed
	if matryoshka == "" {
		matryoshka = params.DefaultMatryoshkaSpeed
	}
	tab := p.Tab
	if tab == "" {
		tab = params.DefaultTab
	}

	return []fragmentEntry{
		{params.FieldAddressID, p.AddressID},
		{params.FieldContractLength, string(p.ContractLength)},
		{params.FieldCurrentProvider, p.CurrentProvider},
		{params.FieldMatryoshkaSpeed, matryoshka},
		{params.FieldNewLine, newLine},
		{params.FieldOpenProduct, p.OpenProduct},
		{params.FieldPhoneCalls, string(p.PhoneCalls)},
		{params.FieldProductType, string(productType)},
		{params.FieldProviders, strings.Join(p.Providers, ",")},
		{params.FieldSortBy, string(sortBy)},
		{params.FieldSpeed, string(p.Speed)},
		{params.FieldTab, tab},
		{params.FieldTVChannels, p.TVChannels},
	}
}

// Encode assembles the URL string for p without validating it.
//
//	{base}?location={postcode}#/?{key}={value}&...
func (g *Generator) Encode(p params.ParameterSet) string {
	var b strings.Builder
	base := g.baseURL
	if !strings.Contains(base, "://") {
		base = "https://" + strings.TrimPrefix(base, "//")
	}
	b.WriteString(base)
	b.WriteString("?location=")
	b.WriteString(Escape(params.PostcodeForURL(p.Postcode)))
	b.WriteString("#/")

	sep := "?"
	for _, e := range fragment(p) {
		if e.value == "" {
			continue
		}
		b.WriteString(sep)
		b.WriteString(e.key)
		b.WriteByte('=')
		b.WriteString(Escape(e.value))
		sep = "&"
	}
	return b.String()
}

func (g *Generator) encode(p params.ParameterSet) Result {
	raw := g.Encode(p)
	if err := checkURL(raw); err != nil {
		res := Failed("Failed to generate valid URL: " + err.Error())
		res.ParametersUsed = p.Used()
		return res
	}

	missing := p.MissingOptional()
	return Result{
		Success:         true,
		Message:         summary(p),
		URL:             raw,
		ParametersUsed:  p.Used(),
		MissingOptional: missing,
		Suggestions:     suggest(p),
	}
}

// checkURL requires an absolute http(s) URL with a host.
func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &params.ValidationError{Kind: params.MalformedURL, Value: raw,
			Reason: fmt.Sprintf("invalid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &params.ValidationError{Kind: params.MalformedURL, Value: raw,
			Reason: "URL scheme should be 'http' or 'https'"}
	}
	if u.Host == "" {
		return &params.ValidationError{Kind: params.MalformedURL, Value: raw,
			Reason: "URL host is empty"}
	}
	return nil
}

// ─── Percent-encoding ─────────────────────────────────────────────────────────

const upperhex = "0123456789ABCDEF"

// Escape percent-encodes every byte except ASCII letters, digits, "-._~" and
// "/". Spaces become %20 and '+' becomes %2B, matching what the comparison
// site's client-side router decodes.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~', c == '/':
		return true
	}
	return false
}
