package cmd

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/derickschaefer/bbcompare/internal/urlgen"
)

func TestParseLLMTopicsDefaultIsStart(t *testing.T) {
	got, err := parseLLMTopics("")
	if err != nil {
		t.Fatalf("parseLLMTopics: %v", err)
	}
	want := []string{"start"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("default topics mismatch: got %v want %v", got, want)
	}
}

func TestParseLLMTopicsAll(t *testing.T) {
	got, err := parseLLMTopics("all")
	if err != nil {
		t.Fatalf("parseLLMTopics: %v", err)
	}
	if len(got) != len(topicRegistry) {
		t.Fatalf("all topics size mismatch: got %d want %d", len(got), len(topicRegistry))
	}
	for i, tpc := range topicRegistry {
		if got[i] != tpc.Name {
			t.Fatalf("topic index %d mismatch: got %q want %q", i, got[i], tpc.Name)
		}
	}
}

func TestParseLLMTopicsList(t *testing.T) {
	got, err := parseLLMTopics(" toc, tools ,")
	if err != nil {
		t.Fatalf("parseLLMTopics: %v", err)
	}
	want := []string{"toc", "tools"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseLLMTopicsUnknown(t *testing.T) {
	if _, err := parseLLMTopics("toc,pipeline"); err == nil {
		t.Fatal("expected error for unknown topic")
	}
}

func TestBuildLLMDocOnlyRequestedTopics(t *testing.T) {
	doc := buildLLMDoc([]string{"toc", "version"})
	if _, ok := doc["toc"]; !ok {
		t.Error("expected toc section")
	}
	if _, ok := doc["version_detail"]; !ok {
		t.Error("expected version_detail section")
	}
	if _, ok := doc["parameters"]; ok {
		t.Error("parameters was not requested")
	}
}

func TestLLMExamplesAreGenerated(t *testing.T) {
	ex := buildExamples()["examples"].([]map[string]any)
	if len(ex) == 0 {
		t.Fatal("expected examples")
	}
	first := ex[0]["result"].(urlgen.Result)
	if !first.Success || !strings.Contains(first.URL, "location=E14%2B9WW") {
		t.Errorf("first example: unexpected result %+v", first)
	}
	last := ex[len(ex)-1]["result"].(urlgen.Result)
	if last.Success {
		t.Error("invalid speed example should fail")
	}
}

func TestLLMDocIsValidJSON(t *testing.T) {
	topics, _ := parseLLMTopics("all")
	b, err := json.Marshal(buildLLMDoc(topics))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !json.Valid(b) {
		t.Fatal("document is not valid JSON")
	}
}
