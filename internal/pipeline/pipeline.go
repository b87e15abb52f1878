// Package pipeline reads generation requests as JSONL, runs them through a
// generator with bounded concurrency, and writes results back as JSONL,
// the canonical pipe format.
package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

// maxLine bounds a single JSONL record.
const maxLine = 1024 * 1024

// Request is one parsed input line. Err is set when the line could not be
// decoded; such requests still produce an output line.
type Request struct {
	Line int
	Raw  params.Raw
	Err  error
}

// Generator is the part of urlgen.Generator (or its cached wrapper) the
// pipeline needs.
type Generator interface {
	GenerateRaw(raw params.Raw) urlgen.Result
}

// ReadRequests reads JSONL records from r. Blank lines and lines starting
// with "//" are skipped. A malformed line becomes a Request carrying Err
// rather than aborting the read.
func ReadRequests(r io.Reader) ([]Request, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var reqs []Request
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		req := Request{Line: lineNum}
		if err := json.Unmarshal([]byte(line), &req.Raw); err != nil {
			req.Err = fmt.Errorf("line %d: invalid JSON: %w", lineNum, err)
		}
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no requests read from input (is stdin empty?)")
	}
	return reqs, nil
}

// Generate runs every request through gen with at most concurrency in
// flight and returns the items in input order. It stops early only if ctx
// is cancelled.
func Generate(ctx context.Context, gen Generator, reqs []Request, concurrency int) ([]model.BatchItem, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	items := make([]model.BatchItem, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, req := range reqs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = model.BatchItem{Line: req.Line, Result: generate(gen, req)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func generate(gen Generator, req Request) urlgen.Result {
	if req.Err != nil {
		return urlgen.Failed("Invalid input: " + req.Err.Error())
	}
	return gen.GenerateRaw(req.Raw)
}

// WriteJSONL writes one BatchItem per line to w.
func WriteJSONL(w io.Writer, items []model.BatchItem) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}

// Failures counts unsuccessful items.
func Failures(items []model.BatchItem) int {
	n := 0
	for _, it := range items {
		if !it.Result.Success {
			n++
		}
	}
	return n
}

// IsTTY returns true if stdin is a terminal (not a pipe).
func IsTTY() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
