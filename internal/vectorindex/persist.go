package vectorindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Save persists the index to path. Directory is created if needed. Format:
// dimension (4), n (4), then per entry: idLen (4), id, contentLen (4),
// content, metaLen (4), metadata JSON, vector (dimension*4 bytes). The
// format is internal and carries no compatibility guarantee.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(idx.dimension)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(idx.entries))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, e := range idx.entries {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %q: %w", e.ID, err)
		}
		for _, field := range [][]byte{[]byte(e.ID), []byte(e.Content), meta} {
			if err := binary.Write(f, binary.LittleEndian, uint32(len(field))); err != nil {
				return fmt.Errorf("write field length: %w", err)
			}
			if _, err := f.Write(field); err != nil {
				return fmt.Errorf("write field: %w", err)
			}
		}
		if _, err := f.Write(float32SliceToBytes(e.Embedding)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the index from path and replaces the in-memory contents.
// Dimensions must match. A missing file is not an error; the index is left
// unchanged.
func (idx *Index) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimension: %w", err)
	}
	if int(dim) != idx.dimension {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, idx.dimension)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	entries := make([]Entry, 0, n)
	byID := make(map[string]int, n)
	vecBuf := make([]byte, idx.dimension*4)
	for i := uint32(0); i < n; i++ {
		id, err := readField(f)
		if err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		content, err := readField(f)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}
		metaRaw, err := readField(f)
		if err != nil {
			return fmt.Errorf("read metadata: %w", err)
		}
		var meta map[string]interface{}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &meta); err != nil {
				return fmt.Errorf("unmarshal metadata for %q: %w", id, err)
			}
		}
		if meta == nil {
			meta = map[string]interface{}{}
		}
		if _, err := io.ReadFull(f, vecBuf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		byID[string(id)] = len(entries)
		entries = append(entries, Entry{
			ID:        string(id),
			Content:   string(content),
			Embedding: bytesToFloat32Slice(vecBuf),
			Metadata:  meta,
		})
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = entries
	idx.byID = byID
	return nil
}

func readField(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
