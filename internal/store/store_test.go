package store_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/store"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// testDB opens a fresh isolated database in t.TempDir().
// It is closed and deleted automatically when the test ends.
func testDB(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makeSearch(name, postcode string) model.SavedSearch {
	return model.SavedSearch{
		Name:   name,
		Params: params.Raw{Postcode: postcode, Speed: "100Mb"},
	}
}

func makeEntry(postcode string, ok bool) model.HistoryEntry {
	return model.HistoryEntry{Source: "cli", Postcode: postcode, Success: ok}
}

// ─── Open / Path ──────────────────────────────────────────────────────────────

func TestOpenCreatesDB(t *testing.T) {
	s := testDB(t)
	if s.Path() == "" {
		t.Error("Path() should return the db path after open")
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open with nested path: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path: expected %q, got %q", path, s.Path())
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.PutSearch(makeSearch("home", "E14 9WB")); err != nil {
		t.Fatalf("PutSearch: %v", err)
	}
	_ = s.Close()

	s2, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, found, _ := s2.GetSearch("home"); !found {
		t.Error("saved search should survive reopen")
	}
}

// ─── Saved Searches ───────────────────────────────────────────────────────────

func TestPutGetSearch(t *testing.T) {
	s := testDB(t)
	saved, err := s.PutSearch(makeSearch("Home", "E14 9WB"))
	if err != nil {
		t.Fatalf("PutSearch: %v", err)
	}
	if saved.ID == "" {
		t.Error("PutSearch should assign an ID")
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Error("PutSearch should stamp CreatedAt and UpdatedAt")
	}

	got, found, err := s.GetSearch("home")
	if err != nil {
		t.Fatalf("GetSearch: %v", err)
	}
	if !found {
		t.Fatal("expected search to be found by case-folded name")
	}
	if got.Name != "Home" {
		t.Errorf("Name: expected Home, got %q", got.Name)
	}
	if got.Params.Postcode != "E14 9WB" || got.Params.Speed != "100Mb" {
		t.Errorf("Params not preserved: %+v", got.Params)
	}
}

func TestGetSearchByID(t *testing.T) {
	s := testDB(t)
	saved, _ := s.PutSearch(makeSearch("office", "SW1A 1AA"))

	got, found, err := s.GetSearch(saved.ID)
	if err != nil {
		t.Fatalf("GetSearch: %v", err)
	}
	if !found || got.Name != "office" {
		t.Errorf("lookup by ID failed: found=%v got=%+v", found, got)
	}
}

func TestGetSearchNotFound(t *testing.T) {
	s := testDB(t)
	_, found, err := s.GetSearch("missing")
	if err != nil {
		t.Fatalf("GetSearch: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
}

func TestPutSearchRequiresName(t *testing.T) {
	s := testDB(t)
	if _, err := s.PutSearch(makeSearch("   ", "E14 9WB")); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestPutSearchReplaceKeepsIdentity(t *testing.T) {
	s := testDB(t)
	first, _ := s.PutSearch(makeSearch("home", "E14 9WB"))
	second, err := s.PutSearch(makeSearch("HOME", "M1 1AE"))
	if err != nil {
		t.Fatalf("PutSearch: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID changed on replace: %q → %q", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("CreatedAt should be preserved on replace")
	}

	list, _ := s.ListSearches()
	if len(list) != 1 {
		t.Fatalf("expected 1 search after replace, got %d", len(list))
	}
	if list[0].Params.Postcode != "M1 1AE" {
		t.Errorf("Params not replaced: %+v", list[0].Params)
	}
}

func TestListSearchesOrderedByName(t *testing.T) {
	s := testDB(t)
	for _, n := range []string{"work", "Home", "mum"} {
		if _, err := s.PutSearch(makeSearch(n, "E14 9WB")); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListSearches()
	if err != nil {
		t.Fatalf("ListSearches: %v", err)
	}
	want := []string{"Home", "mum", "work"}
	if len(list) != len(want) {
		t.Fatalf("expected %d searches, got %d", len(want), len(list))
	}
	for i, w := range want {
		if list[i].Name != w {
			t.Errorf("[%d]: expected %q, got %q", i, w, list[i].Name)
		}
	}
}

func TestListSearchesEmpty(t *testing.T) {
	s := testDB(t)
	list, err := s.ListSearches()
	if err != nil {
		t.Fatalf("ListSearches: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
}

func TestRecordRun(t *testing.T) {
	s := testDB(t)
	_, _ = s.PutSearch(makeSearch("home", "E14 9WB"))
	if err := s.RecordRun("home", "https://example.com/x"); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	got, _, _ := s.GetSearch("home")
	if got.LastURL != "https://example.com/x" {
		t.Errorf("LastURL: got %q", got.LastURL)
	}

	if err := s.RecordRun("nope", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSearch(t *testing.T) {
	s := testDB(t)
	saved, _ := s.PutSearch(makeSearch("home", "E14 9WB"))
	_, _ = s.PutSearch(makeSearch("work", "EC1A 1BB"))

	if err := s.DeleteSearch(saved.ID); err != nil {
		t.Fatalf("DeleteSearch by ID: %v", err)
	}
	if err := s.DeleteSearch("WORK"); err != nil {
		t.Fatalf("DeleteSearch by name: %v", err)
	}
	list, _ := s.ListSearches()
	if len(list) != 0 {
		t.Errorf("expected 0 searches, got %d", len(list))
	}
	if err := s.DeleteSearch("home"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

// ─── History ──────────────────────────────────────────────────────────────────

func TestAppendHistoryAssignsIDAndTime(t *testing.T) {
	s := testDB(t)
	e, err := s.AppendHistory(makeEntry("E14 9WB", true))
	if err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if e.ID == "" || e.At.IsZero() {
		t.Errorf("expected ID and At to be set: %+v", e)
	}
}

func TestListHistoryNewestFirst(t *testing.T) {
	s := testDB(t)
	for i := 0; i < 5; i++ {
		if _, err := s.AppendHistory(makeEntry(fmt.Sprintf("PC%d", i), true)); err != nil {
			t.Fatal(err)
		}
	}
	all, err := s.ListHistory(0)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(all))
	}
	if all[0].Postcode != "PC4" || all[4].Postcode != "PC0" {
		t.Errorf("wrong order: first=%q last=%q", all[0].Postcode, all[4].Postcode)
	}

	limited, _ := s.ListHistory(2)
	if len(limited) != 2 || limited[0].Postcode != "PC4" || limited[1].Postcode != "PC3" {
		t.Errorf("limit 2: got %+v", limited)
	}
}

func TestPruneHistory(t *testing.T) {
	s := testDB(t)
	for i := 0; i < 10; i++ {
		_, _ = s.AppendHistory(makeEntry(fmt.Sprintf("PC%d", i), i%2 == 0))
	}
	removed, err := s.PruneHistory(3)
	if err != nil {
		t.Fatalf("PruneHistory: %v", err)
	}
	if removed != 7 {
		t.Errorf("removed: expected 7, got %d", removed)
	}
	left, _ := s.ListHistory(0)
	if len(left) != 3 || left[2].Postcode != "PC7" {
		t.Errorf("expected newest 3 kept, got %+v", left)
	}

	removed, _ = s.PruneHistory(5)
	if removed != 0 {
		t.Errorf("prune below size should remove nothing, removed %d", removed)
	}
}

func TestClearHistory(t *testing.T) {
	s := testDB(t)
	_, _ = s.AppendHistory(makeEntry("E14 9WB", true))
	_, _ = s.PutSearch(makeSearch("home", "E14 9WB"))

	if err := s.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	h, _ := s.ListHistory(0)
	if len(h) != 0 {
		t.Errorf("expected empty history, got %d", len(h))
	}
	if _, found, _ := s.GetSearch("home"); !found {
		t.Error("saved searches should survive ClearHistory")
	}
	// sequence keys keep working after the bucket is recreated
	if _, err := s.AppendHistory(makeEntry("M1 1AE", true)); err != nil {
		t.Fatalf("AppendHistory after clear: %v", err)
	}
}

// ─── Stats ────────────────────────────────────────────────────────────────────

func TestStatsEmpty(t *testing.T) {
	s := testDB(t)
	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != len(store.AllBuckets) {
		t.Errorf("expected %d buckets, got %d", len(store.AllBuckets), len(stats))
	}
	for _, bs := range stats {
		if bs.Count != 0 {
			t.Errorf("bucket %q: expected 0 rows on fresh db, got %d", bs.Name, bs.Count)
		}
	}
}

func TestStatsCountsRows(t *testing.T) {
	s := testDB(t)
	_, _ = s.PutSearch(makeSearch("home", "E14 9WB"))
	_, _ = s.PutSearch(makeSearch("work", "EC1A 1BB"))
	_, _ = s.AppendHistory(makeEntry("E14 9WB", true))

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	byName := make(map[string]int)
	for _, bs := range stats {
		byName[bs.Name] = bs.Count
		if bs.Count > 0 && bs.Bytes == 0 {
			t.Errorf("bucket %q: non-empty bucket should report bytes", bs.Name)
		}
	}
	if byName["searches"] != 2 {
		t.Errorf("searches: expected 2, got %d", byName["searches"])
	}
	if byName["history"] != 1 {
		t.Errorf("history: expected 1, got %d", byName["history"])
	}
}

func TestClearAll(t *testing.T) {
	s := testDB(t)
	_, _ = s.PutSearch(makeSearch("home", "E14 9WB"))
	_, _ = s.AppendHistory(makeEntry("E14 9WB", true))

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	searches, _ := s.ListSearches()
	history, _ := s.ListHistory(0)
	if len(searches) != 0 || len(history) != 0 {
		t.Errorf("ClearAll: searches=%d history=%d (both should be 0)", len(searches), len(history))
	}
}

// ─── Isolation ────────────────────────────────────────────────────────────────

func TestEachTestGetsIsolatedDB(t *testing.T) {
	s1 := testDB(t)
	_, _ = s1.PutSearch(makeSearch("home", "E14 9WB"))

	s2 := testDB(t)
	_, found, err := s2.GetSearch("home")
	if err != nil {
		t.Fatalf("GetSearch on s2: %v", err)
	}
	if found {
		t.Error("s2 should not see data written to s1")
	}
}
