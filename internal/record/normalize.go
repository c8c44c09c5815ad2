package record

import (
	"path/filepath"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizePath returns the identity key used for dedup and resume: a cleaned
// path in Unicode NFC, case folded when caseInsensitive is set.
func NormalizePath(path string, caseInsensitive bool) string {
	if path == "" {
		return ""
	}
	key := norm.NFC.String(filepath.Clean(path))
	if caseInsensitive {
		// Casers keep state, so one per call.
		key = cases.Fold().String(key)
	}
	return key
}
