package constants

import "strings"

// AllowedExtensions holds the allowed file extensions for rate
// confirmation ingestion. Only text PDFs are supported; scanned images
// are rejected at the upload boundary.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt reports whether a normalized extension is ingestible.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[ext]
	return ok
}
