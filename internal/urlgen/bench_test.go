// Benchmarks for URL generation. Run with:
//
//	go test ./internal/urlgen/ -bench=. -benchmem
package urlgen_test

import (
	"testing"

	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

func fullRaw() params.Raw {
	yes := true
	return params.Raw{
		Postcode:        "sw1a1aa",
		Speed:           "100Mb",
		ContractLength:  "24 months",
		PhoneCalls:      "Evening and Weekend",
		ProductType:     "broadband,phone,tv",
		Providers:       params.Providers{"BT", "Sky", "Virgin Media"},
		CurrentProvider: "TalkTalk",
		NewLine:         &yes,
		SortBy:          "Avg. Monthly Cost",
	}
}

func BenchmarkGenerateRawPostcodeOnly(b *testing.B) {
	g := urlgen.New("")
	raw := params.Raw{Postcode: "E14 9WB"}
	b.ReportAllocs()
	for b.Loop() {
		if r := g.GenerateRaw(raw); !r.Success {
			b.Fatal(r.Message)
		}
	}
}

func BenchmarkGenerateRawAllFilters(b *testing.B) {
	g := urlgen.New("")
	raw := fullRaw()
	b.ReportAllocs()
	for b.Loop() {
		if r := g.GenerateRaw(raw); !r.Success {
			b.Fatal(r.Message)
		}
	}
}

func BenchmarkGenerateRawInvalid(b *testing.B) {
	g := urlgen.New("")
	raw := params.Raw{Postcode: "NOT A POSTCODE", Speed: "1Gb"}
	b.ReportAllocs()
	for b.Loop() {
		if r := g.GenerateRaw(raw); r.Success {
			b.Fatal("expected failure")
		}
	}
}

func BenchmarkGenerateParallel(b *testing.B) {
	g := urlgen.New("")
	raw := fullRaw()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = g.GenerateRaw(raw)
		}
	})
}
