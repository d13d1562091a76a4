// Package fileutil provides small path and file helpers shared by the
// converter and runner.
package fileutil

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// IsFilePath returns true if the string looks like a file path rather
// than a bare name.
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsURL reports whether s is an absolute URL with an explicit scheme.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// RelativeTo returns path relative to root using forward slashes, or
// ok=false when path is not inside root.
func RelativeTo(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// StripExtension removes the final extension from a file name.
func StripExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
