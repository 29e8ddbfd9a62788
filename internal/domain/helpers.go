package domain

import "strings"

// CompressionSuffixes lists index encodings in order of preference.
func CompressionSuffixes() []string {
	return []string{".xz", ".gz", ".zst", ".bz2", ""}
}

// FlatFilename turns a URI into the file name used inside the lists
// directory: scheme and credentials dropped, slashes replaced by '_'.
func FlatFilename(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		uri = uri[i+3:]
	}
	if i := strings.Index(uri, "@"); i >= 0 && i < strings.Index(uri+"/", "/") {
		uri = uri[i+1:]
	}
	uri = strings.TrimLeft(uri, "/")
	return strings.ReplaceAll(uri, "/", "_")
}
