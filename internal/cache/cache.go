// Package cache memoizes URL generation results in an in-process
// ristretto cache keyed by the normalized parameter set.
package cache

import (
	"maps"
	"slices"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

// Generator wraps a urlgen.Generator with a result cache. Only successful
// results are cached; failures are cheap to recompute and carry the
// caller's raw input in their messages.
type Generator struct {
	gen    *urlgen.Generator
	c      *ristretto.Cache[string, urlgen.Result]
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cached generator holding up to size results.
// size <= 0 disables caching; every call goes straight to gen.
func New(gen *urlgen.Generator, size int) (*Generator, error) {
	g := &Generator{gen: gen}
	if size <= 0 {
		return g, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, urlgen.Result]{
		NumCounters: int64(size) * 10, // ~10x expected items
		MaxCost:     int64(size),
		BufferItems: 64,
		// cost is an entry count, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	g.c = c
	return g, nil
}

// BaseURL reports the base URL of the wrapped generator.
func (g *Generator) BaseURL() string { return g.gen.BaseURL() }

// GenerateRaw satisfies the same contract as urlgen.Generator.GenerateRaw.
func (g *Generator) GenerateRaw(raw params.Raw) urlgen.Result {
	res, _ := g.Lookup(raw)
	return res
}

// Lookup generates the result for raw and reports whether it came from
// the cache.
func (g *Generator) Lookup(raw params.Raw) (urlgen.Result, bool) {
	if g.c == nil {
		return g.gen.GenerateRaw(raw), false
	}
	set, err := params.Build(raw)
	if err != nil {
		g.misses.Add(1)
		return g.gen.GenerateRaw(raw), false
	}
	key := set.Key()
	if res, ok := g.c.Get(key); ok {
		g.hits.Add(1)
		return clone(res), true
	}
	g.misses.Add(1)
	res := g.gen.Generate(set)
	if res.Success {
		g.c.Set(key, clone(res), 1)
		g.c.Wait()
	}
	return res, false
}

// Hits returns the number of lookups served from the cache.
func (g *Generator) Hits() int64 { return g.hits.Load() }

// Misses returns the number of lookups that ran the generator.
func (g *Generator) Misses() int64 { return g.misses.Load() }

// Close releases the cache. The Generator must not be used afterwards.
func (g *Generator) Close() {
	if g.c != nil {
		g.c.Close()
	}
}

// clone copies the mutable parts of a result so cached values are never
// shared with callers.
func clone(r urlgen.Result) urlgen.Result {
	used := maps.Clone(r.ParametersUsed)
	if p, ok := used[params.FieldProviders].([]string); ok {
		used[params.FieldProviders] = slices.Clone(p)
	}
	r.ParametersUsed = used
	r.MissingOptional = slices.Clone(r.MissingOptional)
	r.Suggestions = slices.Clone(r.Suggestions)
	return r
}
