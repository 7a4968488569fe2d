package prepare

import (
	"fmt"
	"path/filepath"
	"strings"

	"cyclerprep/internal/fileutil"
)

const copySuffix = "_prep"

// CopyName returns the working copy name for path: "<root>_prep<ext>".
func CopyName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + copySuffix + ext
}

// IsWorkingCopy reports whether path is named like a working copy.
func IsWorkingCopy(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), copySuffix)
}

// WorkingCopy returns the file to prepare. With overwrite it is path itself;
// otherwise path is copied to CopyName(path), replacing any earlier copy.
func WorkingCopy(path string, overwrite bool) (string, error) {
	if overwrite {
		return path, nil
	}
	dst := CopyName(path)
	if _, err := fileutil.CopyFileVerified(path, dst); err != nil {
		return "", fmt.Errorf("create working copy %s: %w", dst, err)
	}
	return dst, nil
}
