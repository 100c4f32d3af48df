// Package fsutil holds the file-writing discipline shared by the snapshot
// store and the version rewriters: content is written to a temporary file
// next to the target and renamed over it, so the target is either left
// untouched or fully replaced.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultPerm is used when creating a file that did not exist before.
const DefaultPerm os.FileMode = 0o644

// WriteFileAtomic replaces path with data. When path already exists its
// permission bits are kept and perm is ignored.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp := TempName(path)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing temp file %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("syncing temp file %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing temp file %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// TempName returns a unique sibling path for path: ".<base>.<uuid>.tmp".
func TempName(path string) string {
	base := filepath.Base(path)
	return filepath.Join(filepath.Dir(path), "."+base+"."+uuid.NewString()+".tmp")
}
