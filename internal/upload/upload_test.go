package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestKindForExt(t *testing.T) {
	tests := []struct {
		ext  string
		want Kind
	}{
		{".pdf", KindPDF},
		{".PDF", KindPDF},
		{".png", KindImage},
		{".jpg", KindImage},
		{".jpeg", KindImage},
		{".gif", KindImage},
		{".txt", KindDocument},
		{".docx", KindDocument},
		{"", KindDocument},
	}
	for _, tt := range tests {
		if got := KindForExt(tt.ext); got != tt.want {
			t.Errorf("KindForExt(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Save("report.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected non-empty ID")
	}
	if rec.Kind != KindPDF {
		t.Errorf("kind = %q, want %q", rec.Kind, KindPDF)
	}
	if rec.SizeByte != int64(len("pdf bytes")) {
		t.Errorf("size = %d, want %d", rec.SizeByte, len("pdf bytes"))
	}
	if filepath.Base(filepath.Dir(rec.Path)) != string(KindPDF) {
		t.Errorf("file stored outside kind dir: %s", rec.Path)
	}

	data, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("stored %q, want %q", data, "pdf bytes")
	}

	got, ok := s.Get(rec.ID)
	if !ok {
		t.Fatal("Get should find saved upload")
	}
	if got.Name != "report.pdf" {
		t.Errorf("name = %q, want %q", got.Name, "report.pdf")
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Save("note.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}

	if err := s.Delete(rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(rec.Path); !os.IsNotExist(err) {
		t.Error("file should be removed from disk")
	}
	if _, ok := s.Get(rec.ID); ok {
		t.Error("Get should miss after delete")
	}
	if err := s.Delete(rec.ID); err == nil {
		t.Error("second delete should error")
	}
}
