package vectorindex

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestIndex_InsertDimensionMismatch(t *testing.T) {
	idx, err := New(3)
	if err != nil {
		t.Fatal(err)
	}
	err = idx.Insert("a", "content", []float32{1, 0}, nil)
	var dimErr *DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
	if dimErr.Got != 2 || dimErr.Want != 3 {
		t.Errorf("DimensionError fields: %+v", dimErr)
	}
	if idx.Size() != 0 {
		t.Error("failed insert should not change size")
	}
}

func TestIndex_InsertDuplicateID(t *testing.T) {
	idx, _ := New(2)
	if err := idx.Insert("a", "", []float32{1, 0}, nil); err != nil {
		t.Fatal(err)
	}
	err := idx.Insert("a", "", []float32{0, 1}, nil)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if idx.Size() != 1 {
		t.Errorf("size after duplicate insert: %d", idx.Size())
	}
}

func TestIndex_SearchEmpty(t *testing.T) {
	idx, _ := New(3)
	results, err := idx.Search([]float32{1, 0, 0}, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty index should return empty results, got %d", len(results))
	}
}

func TestIndex_SearchKnownSimilarities(t *testing.T) {
	idx, _ := New(3)
	if err := idx.Insert("a", "first", []float32{1, 0, 0}, nil); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert("b", "second", []float32{0, 1, 0}, nil); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert("c", "third", []float32{0.9, 0.1, 0}, nil); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search([]float32{1, 0, 0}, 2, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "c" {
		t.Errorf("expected order [a c], got [%s %s]", results[0].ID, results[1].ID)
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("a similarity = %f, want 1.0", results[0].Score)
	}
	if math.Abs(results[1].Score-0.993884) > 1e-3 {
		t.Errorf("c similarity = %f, want ~0.994", results[1].Score)
	}
}

func TestIndex_SearchThreshold(t *testing.T) {
	idx, _ := New(2)
	_ = idx.Insert("x", "", []float32{1, 0}, nil)
	_ = idx.Insert("y", "", []float32{0, 1}, nil)
	results, err := idx.Search([]float32{1, 0}, 10, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "x" {
		t.Errorf("threshold should filter orthogonal vector: %v", results)
	}
}

func TestIndex_GetByIDAndDelete(t *testing.T) {
	idx, _ := New(2)
	_ = idx.Insert("a", "alpha", []float32{1, 0}, map[string]interface{}{"n": 1})
	_ = idx.Insert("b", "beta", []float32{0, 1}, nil)

	e, ok := idx.GetByID("a")
	if !ok || e.Content != "alpha" {
		t.Errorf("GetByID: %+v, %v", e, ok)
	}
	if _, ok := idx.GetByID("missing"); ok {
		t.Error("expected miss for unknown id")
	}

	if err := idx.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Errorf("size after delete: %d", idx.Size())
	}
	// Position map is rebuilt; remaining id still resolves.
	if e, ok := idx.GetByID("b"); !ok || e.Content != "beta" {
		t.Errorf("GetByID after delete: %+v, %v", e, ok)
	}
	if err := idx.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIndex_Clear(t *testing.T) {
	idx, _ := New(2)
	_ = idx.Insert("a", "", []float32{1, 0}, nil)
	idx.Clear()
	if idx.Size() != 0 {
		t.Errorf("size after clear: %d", idx.Size())
	}
	if _, ok := idx.GetByID("a"); ok {
		t.Error("cleared entry should not resolve")
	}
}

func TestCosineSimilarity_ZeroMagnitude(t *testing.T) {
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero-magnitude similarity = %f, want 0", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("mismatched lengths similarity = %f, want 0", got)
	}
}

func TestIndex_SaveLoad(t *testing.T) {
	idx, _ := New(3)
	_ = idx.Insert("a", "alpha text", []float32{1, 0, 0}, map[string]interface{}{"source": "a.txt"})
	_ = idx.Insert("b", "beta text", []float32{0, 1, 0}, nil)

	path := filepath.Join(t.TempDir(), "index.bin")
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, _ := New(3)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded size: %d", loaded.Size())
	}
	e, ok := loaded.GetByID("a")
	if !ok || e.Content != "alpha text" {
		t.Errorf("loaded entry: %+v, %v", e, ok)
	}
	if e.Metadata["source"] != "a.txt" {
		t.Errorf("loaded metadata: %v", e.Metadata)
	}
	results, err := loaded.Search([]float32{1, 0, 0}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Errorf("search after load: %v", results)
	}
}

func TestIndex_LoadMissingFile(t *testing.T) {
	idx, _ := New(3)
	if err := idx.Load(filepath.Join(t.TempDir(), "absent.bin")); err != nil {
		t.Errorf("missing file should not error: %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("size: %d", idx.Size())
	}
}

func TestIndex_LoadDimensionMismatch(t *testing.T) {
	idx, _ := New(2)
	_ = idx.Insert("a", "", []float32{1, 0}, nil)
	path := filepath.Join(t.TempDir(), "index.bin")
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	other, _ := New(3)
	if err := other.Load(path); err == nil {
		t.Error("expected dimension mismatch error")
	}
}
