package storage

import (
	"io/fs"
	"path/filepath"
)

// DiskUsageBytes returns the total size in bytes of all regular files
// under root. Unreadable entries are skipped.
func DiskUsageBytes(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
