// Package upload stores files received through the HTTP API on disk,
// sorted into per-kind subdirectories, and tracks enough metadata to
// find them again by ID.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind classifies an uploaded file by its extension.
type Kind string

const (
	KindPDF      Kind = "pdfs"
	KindImage    Kind = "images"
	KindDocument Kind = "documents"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// KindForExt maps a file extension to its storage kind.
func KindForExt(ext string) Kind {
	ext = strings.ToLower(ext)
	switch {
	case ext == ".pdf":
		return KindPDF
	case imageExts[ext]:
		return KindImage
	default:
		return KindDocument
	}
}

// File describes a stored upload.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Kind     Kind   `json:"kind"`
	SizeByte int64  `json:"size_bytes"`
}

// Store saves uploads under a base directory.
type Store struct {
	dir    string
	logger *zap.Logger

	mu    sync.RWMutex
	files map[string]File
}

// NewStore creates the base directory and its kind subdirectories.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	for _, kind := range []Kind{KindPDF, KindImage, KindDocument} {
		if err := os.MkdirAll(filepath.Join(dir, string(kind)), 0755); err != nil {
			return nil, fmt.Errorf("create upload directory: %w", err)
		}
	}
	return &Store{
		dir:    dir,
		logger: logger,
		files:  make(map[string]File),
	}, nil
}

// Save writes the upload to disk under a fresh ID and returns its record.
// The original filename is kept only in metadata; the on-disk name is the
// ID plus the original extension.
func (s *Store) Save(name string, r io.Reader) (File, error) {
	ext := strings.ToLower(filepath.Ext(name))
	kind := KindForExt(ext)
	id := uuid.New().String()
	path := filepath.Join(s.dir, string(kind), id+ext)

	f, err := os.Create(path)
	if err != nil {
		return File{}, fmt.Errorf("create upload file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return File{}, fmt.Errorf("write upload file: %w", err)
	}

	rec := File{ID: id, Name: name, Path: path, Kind: kind, SizeByte: size}
	s.mu.Lock()
	s.files[id] = rec
	s.mu.Unlock()

	s.logger.Info("upload stored",
		zap.String("id", id),
		zap.String("name", name),
		zap.String("kind", string(kind)),
		zap.Int64("size", size))
	return rec, nil
}

// Get returns the record for an upload ID.
func (s *Store) Get(id string) (File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.files[id]
	return rec, ok
}

// Delete removes an upload from disk and from the store.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	rec, ok := s.files[id]
	delete(s.files, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("upload not found: %s", id)
	}
	if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}

// Count returns the number of tracked uploads.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
