package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempFilePrefix marks the staging files of in-flight slot writes. Keys with
// this prefix are rejected so a slot can never be mistaken for one.
const TempFilePrefix = "itt-tmp-"

// writeFileAtomic replaces filename with data through a synced temp file in the
// same directory. An existing file keeps its mode; new files get perm.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	if info, statErr := os.Stat(filename); statErr == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to stage slot write: %w", err)
	}
	staged := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(staged)
		}
	}()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write staged slot: %w", err)
	}

	if err = os.Chmod(staged, perm); err != nil {
		return fmt.Errorf("failed to chmod staged slot: %w", err)
	}
	if err = os.Rename(staged, filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the rename to disk where the platform allows opening directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
