package datafile

import (
	"fmt"
	"os"

	"cyclerprep/internal/faults"
	"cyclerprep/internal/fileutil"
)

// Replace writes data over path through a temporary file. The replacement
// is refused when it is smaller than the file it replaces, since adding
// columns can only grow an export.
func Replace(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat export: %w", err)
	}
	return ReplaceAtLeast(path, data, info.Size())
}

// ReplaceAtLeast is Replace with an explicit floor, for replacements of a
// file whose content was cleaned in memory first.
func ReplaceAtLeast(path string, data []byte, floor int64) error {
	return fileutil.WriteAtomic(path, data, func(_ string, size int64) error {
		if size < floor {
			return faults.Errorf(faults.ErrUnsafeReplacement, "replace",
				"replacement has %d bytes, expected at least %d", size, floor)
		}
		return nil
	})
}

// Write encodes f and replaces path with it, guarded by the size check.
func (f *File) Write(path string) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	return Replace(path, data)
}
