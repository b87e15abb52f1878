package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

func TestOutputWriterDefault(t *testing.T) {
	globalFlags.Out = ""
	w, closeFn, err := outputWriter(os.Stdout)
	if err != nil {
		t.Fatalf("outputWriter default: %v", err)
	}
	if w != os.Stdout {
		t.Fatalf("expected stdout writer passthrough")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("default closer should be nil error, got: %v", err)
	}
}

func TestOutputWriterFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.txt")
	globalFlags.Out = p
	t.Cleanup(func() { globalFlags.Out = "" })

	w, closeFn, err := outputWriter(os.Stdout)
	if err != nil {
		t.Fatalf("outputWriter file: %v", err)
	}
	if w == os.Stdout {
		t.Fatalf("expected file writer, got stdout")
	}
	if err := closeFn(); err != nil {
		t.Fatalf("closing output writer: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
}

func TestOutputWriterBadPath(t *testing.T) {
	globalFlags.Out = filepath.Join(t.TempDir(), "missing", "out.txt")
	t.Cleanup(func() { globalFlags.Out = "" })

	if _, _, err := outputWriter(os.Stdout); err == nil {
		t.Fatal("expected error for unwritable --out path")
	}
}

func TestResolveFormat(t *testing.T) {
	t.Cleanup(func() { globalFlags.Format = "" })

	globalFlags.Format = ""
	if got := resolveFormat(""); got != "table" {
		t.Errorf("empty: expected table, got %q", got)
	}
	if got := resolveFormat("yaml"); got != "yaml" {
		t.Errorf("config: expected yaml, got %q", got)
	}
	globalFlags.Format = "json"
	if got := resolveFormat("yaml"); got != "json" {
		t.Errorf("flag should win over config, got %q", got)
	}
}

func TestBuildGenerationResultItems(t *testing.T) {
	ok := buildGenerationResult("url", urlgen.Result{Success: true, URL: "https://example.com"})
	if ok.Kind != model.KindGeneration || ok.Stats.Items != 1 {
		t.Errorf("success: unexpected envelope %+v", ok)
	}
	failed := buildGenerationResult("url", urlgen.Failed("Invalid parameters: x"))
	if failed.Stats.Items != 0 {
		t.Errorf("failure: expected 0 items, got %d", failed.Stats.Items)
	}
	if r, isPtr := failed.Data.(*urlgen.Result); !isPtr || r.Success {
		t.Errorf("Data: expected *urlgen.Result failure, got %#v", failed.Data)
	}
}

func TestBuildBatchResultWarnsOnFailures(t *testing.T) {
	items := []model.BatchItem{
		{Line: 1, Result: urlgen.Result{Success: true}},
		{Line: 2, Result: urlgen.Failed("Invalid parameters: Postcode is required")},
	}
	r := buildBatchResult("url --batch", items)
	if r.Stats.Items != 2 {
		t.Errorf("Items: expected 2, got %d", r.Stats.Items)
	}
	if len(r.Warnings) != 1 || r.Warnings[0] != "line 2: Invalid parameters: Postcode is required" {
		t.Errorf("Warnings: got %q", r.Warnings)
	}
}
