package urlgen_test

import (
	"encoding/json"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

func boolPtr(b bool) *bool { return &b }

// ─── Failure paths ────────────────────────────────────────────────────────────

func TestGenerateEmptyPostcode(t *testing.T) {
	r := urlgen.New("").GenerateRaw(params.Raw{Postcode: ""})
	if r.Success {
		t.Fatal("expected failure for empty postcode")
	}
	if !strings.Contains(r.Message, "Postcode is required") {
		t.Errorf("message: %q", r.Message)
	}
	if !strings.HasPrefix(r.Message, "Invalid parameters: ") {
		t.Errorf("message prefix: %q", r.Message)
	}
	if r.URL != "" {
		t.Errorf("URL should be absent on failure, got %q", r.URL)
	}
	if len(r.ParametersUsed) != 0 || len(r.Suggestions) != 0 {
		t.Errorf("failure should carry no params or suggestions: %+v", r)
	}
}

func TestGenerateInvalidPostcode(t *testing.T) {
	r := urlgen.New("").GenerateRaw(params.Raw{Postcode: "INVALID"})
	if r.Success {
		t.Fatal("expected failure for INVALID postcode")
	}
	if !strings.Contains(r.Message, "Invalid UK postcode format") {
		t.Errorf("message should name postcode format: %q", r.Message)
	}
}

func TestGenerateInvalidSpeed(t *testing.T) {
	r := urlgen.New("").GenerateRaw(params.Raw{Postcode: "E14 9WB", Speed: "200Mb"})
	if r.Success {
		t.Fatal("expected failure for 200Mb")
	}
	if !strings.Contains(r.Message, "200Mb") || !strings.Contains(r.Message, "speedInMb") {
		t.Errorf("message should name the invalid speed: %q", r.Message)
	}
}

func TestGenerateMalformedBaseURL(t *testing.T) {
	for _, base := range []string{"ftp://example.com/packages", "https:///packages", "https://bad host/packages"} {
		r := urlgen.New(base).GenerateRaw(params.Raw{Postcode: "E14 9WB", Speed: "30Mb"})
		if r.Success {
			t.Errorf("base %q: expected failure", base)
			continue
		}
		if !strings.HasPrefix(r.Message, "Failed to generate valid URL: ") {
			t.Errorf("base %q: message %q", base, r.Message)
		}
		if r.ParametersUsed["speedInMb"] != "30Mb" {
			t.Errorf("base %q: parameters should be echoed, got %v", base, r.ParametersUsed)
		}
	}
}

func TestFailureEncodesEmptySequences(t *testing.T) {
	cases := map[string]urlgen.Result{
		"invalid input": urlgen.New("").GenerateRaw(params.Raw{Postcode: "INVALID"}),
		"malformed URL": urlgen.New("ftp://example.com/packages").GenerateRaw(params.Raw{Postcode: "E14 9WB"}),
	}
	for name, r := range cases {
		if r.Success {
			t.Errorf("%s: expected failure", name)
			continue
		}
		b, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("%s: marshal: %v", name, err)
		}
		for _, want := range []string{`"missing_optional":[]`, `"suggestions":[]`} {
			if !strings.Contains(string(b), want) {
				t.Errorf("%s: expected %s in %s", name, want, b)
			}
		}
	}
}

// ─── Success paths ────────────────────────────────────────────────────────────

func TestGeneratePostcodeOnly(t *testing.T) {
	r := urlgen.New("").GenerateRaw(params.Raw{Postcode: "E14 9WB"})
	if !r.Success {
		t.Fatalf("expected success, got %q", r.Message)
	}
	want := "https://broadband.justmovein.co/packages?location=E14%2B9WB#/" +
		"?matryoshkaSpeed=Broadband&productType=broadband&sortBy=Recommended&tab=alldeals"
	if r.URL != want {
		t.Errorf("URL:\n  expected: %s\n  got:      %s", want, r.URL)
	}
	wantMissing := []string{"speedInMb", "contractLength", "phoneCalls", "productType", "sortBy"}
	if !reflect.DeepEqual(r.MissingOptional, wantMissing) {
		t.Errorf("MissingOptional: expected %v, got %v", wantMissing, r.MissingOptional)
	}
	if r.Message != "Generated URL for postcode E14 9WB" {
		t.Errorf("Message: %q", r.Message)
	}
	if len(r.Suggestions) != 3 {
		t.Errorf("expected 3 suggestions, got %v", r.Suggestions)
	}
}

func TestGenerateAllFilters(t *testing.T) {
	r := urlgen.New("").GenerateRaw(params.Raw{
		Postcode:       "E14 9WB",
		Speed:          "100Mb",
		ContractLength: "12 months",
		PhoneCalls:     "Evening and Weekend",
		ProductType:    "broadband,phone",
		Providers:      params.Providers{"Hyperoptic"},
		SortBy:         "Avg. Monthly Cost",
	})
	if !r.Success {
		t.Fatalf("expected success, got %q", r.Message)
	}
	for _, want := range []string{"location=E14%2B9WB", "speedInMb=100Mb", "contractLength=12%20months",
		"providers=Hyperoptic", "phoneCalls=Evening%20and%20Weekend", "productType=broadband%2Cphone",
		"sortBy=Avg.%20Monthly%20Cost"} {
		if !strings.Contains(r.URL, want) {
			t.Errorf("URL missing %q: %s", want, r.URL)
		}
	}
	if len(r.MissingOptional) != 0 {
		t.Errorf("expected no missing fields, got %v", r.MissingOptional)
	}
	wantMsg := "Generated URL for postcode E14 9WB with filters: speed: 100Mb, contract: 12 months, " +
		"providers: Hyperoptic, type: broadband,phone"
	if r.Message != wantMsg {
		t.Errorf("Message:\n  expected: %s\n  got:      %s", wantMsg, r.Message)
	}
	if len(r.Suggestions) != 0 {
		t.Errorf("expected no suggestions, got %v", r.Suggestions)
	}
}

func TestFragmentKeyOrder(t *testing.T) {
	r := urlgen.New("https://example.com/p").GenerateRaw(params.Raw{
		Postcode:        "M1 1AA",
		Speed:           "55Mb",
		ContractLength:  "18 months",
		PhoneCalls:      "Anytime",
		ProductType:     "broadband,phone,tv",
		Providers:       params.Providers{"BT", "Sky"},
		CurrentProvider: "Virgin",
		NewLine:         boolPtr(true),
		SortBy:          "Speed",
		AddressID:       "123",
		OpenProduct:     "abc",
		TVChannels:      "sports",
	})
	if !r.Success {
		t.Fatalf("expected success, got %q", r.Message)
	}
	_, frag, ok := strings.Cut(r.URL, "#/?")
	if !ok {
		t.Fatalf("no fragment query in %s", r.URL)
	}
	var keys []string
	for _, kv := range strings.Split(frag, "&") {
		k, _, _ := strings.Cut(kv, "=")
		keys = append(keys, k)
	}
	want := []string{"addressId", "contractLength", "currentProvider", "matryoshkaSpeed", "newLine",
		"openProduct", "phoneCalls", "productType", "providers", "sortBy", "speedInMb", "tab", "tvChannels"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("fragment key order:\n  expected: %v\n  got:      %v", want, keys)
	}
	if !strings.Contains(frag, "newLine=NewLine") {
		t.Errorf("newLine should encode as NewLine: %s", frag)
	}
	if !strings.Contains(frag, "providers=BT%2CSky") {
		t.Errorf("providers should be comma-joined: %s", frag)
	}
}

func TestNewLineFalseIsOmitted(t *testing.T) {
	r := urlgen.New("").GenerateRaw(params.Raw{Postcode: "E14 9WB", NewLine: boolPtr(false)})
	if strings.Contains(r.URL, "newLine") {
		t.Errorf("newLine=false should be omitted: %s", r.URL)
	}
}

func TestNoEmptyKeys(t *testing.T) {
	r := urlgen.New("").GenerateRaw(params.Raw{Postcode: "SW10 9PA"})
	if strings.Contains(r.URL, "=&") || strings.HasSuffix(r.URL, "=") {
		t.Errorf("URL contains empty key: %s", r.URL)
	}
	for _, k := range []string{"addressId", "openProduct", "tvChannels", "providers"} {
		if strings.Contains(r.URL, k+"=") {
			t.Errorf("empty %s should be dropped: %s", k, r.URL)
		}
	}
}

func TestGeneratedURLParses(t *testing.T) {
	r := urlgen.New("").GenerateRaw(params.Raw{Postcode: "e14 9wb", SortBy: "First Year Cost"})
	u, err := url.Parse(r.URL)
	if err != nil {
		t.Fatalf("url.Parse: %v", err)
	}
	if got := u.Query().Get("location"); got != "E14+9WB" {
		t.Errorf("location: expected E14+9WB, got %q", got)
	}
	if !strings.Contains(u.Fragment, "sortBy=First Year Cost") {
		t.Errorf("decoded fragment: %q", u.Fragment)
	}
}

func TestBaseURLWithoutScheme(t *testing.T) {
	r := urlgen.New("broadband.example.com/packages").GenerateRaw(params.Raw{Postcode: "E14 9WB"})
	if !r.Success {
		t.Fatalf("expected success, got %q", r.Message)
	}
	if !strings.HasPrefix(r.URL, "https://broadband.example.com/packages?location=") {
		t.Errorf("expected https scheme to be added: %s", r.URL)
	}
}

// ─── Determinism & concurrency ────────────────────────────────────────────────

func TestGenerateIsIdempotent(t *testing.T) {
	p, err := params.Build(params.Raw{Postcode: "SW10 9PA", Providers: params.Providers{"Sky", "BT"}, Speed: "30Mb"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g := urlgen.New("")
	a, b := g.Generate(p), g.Generate(p)
	if a.URL != b.URL {
		t.Errorf("URLs differ:\n  %s\n  %s", a.URL, b.URL)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("results differ between identical calls")
	}
}

func TestGenerateValidatesHandBuiltSet(t *testing.T) {
	r := urlgen.New("").Generate(params.ParameterSet{Postcode: "e149wb", SortBy: params.SortBy("Cheapest")})
	if r.Success {
		t.Fatal("expected hand-built set with bad sortBy to fail")
	}
	r = urlgen.New("").Generate(params.ParameterSet{Postcode: "e149wb"})
	if !r.Success || !strings.Contains(r.URL, "E14%2B9WB") {
		t.Errorf("hand-built set should be normalized: %+v", r)
	}
}

func TestGenerateConcurrent(t *testing.T) {
	g := urlgen.New("")
	want := g.GenerateRaw(params.Raw{Postcode: "E14 9WB", Speed: "55Mb"}).URL

	var wg sync.WaitGroup
	errs := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := g.GenerateRaw(params.Raw{Postcode: "E14 9WB", Speed: "55Mb"}).URL; got != want {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("concurrent result differs: %s", got)
	}
}

// ─── Suggestions ──────────────────────────────────────────────────────────────

func TestSuggestionsCapped(t *testing.T) {
	cases := []params.Raw{
		{Postcode: "E14 9WB"},
		{Postcode: "E14 9WB", Speed: "10Mb"},
		{Postcode: "E14 9WB", Speed: "10Mb", ContractLength: "24 months"},
		{Postcode: "E14 9WB", Speed: "10Mb", ContractLength: "24 months", Providers: params.Providers{"BT"}},
		{Postcode: "E14 9WB", Speed: "10Mb", ContractLength: "24 months", Providers: params.Providers{"BT"}, SortBy: "Usage"},
	}
	wantLens := []int{3, 3, 2, 1, 0}
	for i, raw := range cases {
		r := urlgen.New("").GenerateRaw(raw)
		if len(r.Suggestions) > 3 {
			t.Errorf("case %d: more than 3 suggestions: %v", i, r.Suggestions)
		}
		if len(r.Suggestions) != wantLens[i] {
			t.Errorf("case %d: expected %d suggestions, got %v", i, wantLens[i], r.Suggestions)
		}
	}
}

func TestSuggestionRuleOrder(t *testing.T) {
	r := urlgen.New("").GenerateRaw(params.Raw{Postcode: "E14 9WB", ContractLength: "12 months"})
	if len(r.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %v", r.Suggestions)
	}
	if !strings.Contains(r.Suggestions[0], "speed") ||
		!strings.Contains(r.Suggestions[1], "providers") ||
		!strings.Contains(r.Suggestions[2], "First Year Cost") {
		t.Errorf("unexpected order: %v", r.Suggestions)
	}
}

// ─── Escape ───────────────────────────────────────────────────────────────────

func TestEscape(t *testing.T) {
	cases := map[string]string{
		"E14+9WB":           "E14%2B9WB",
		"12 months":         "12%20months",
		"Avg. Monthly Cost": "Avg.%20Monthly%20Cost",
		"broadband,phone":   "broadband%2Cphone",
		"a/b~c_d-e":         "a/b~c_d-e",
		"£":                 "%C2%A3",
	}
	for in, want := range cases {
		if got := urlgen.Escape(in); got != want {
			t.Errorf("Escape(%q): expected %q, got %q", in, want, got)
		}
	}
}
