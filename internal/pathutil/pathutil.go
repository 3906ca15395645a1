// Package pathutil normalizes the repository-relative paths used as
// catalog keys. Every adapter funnels tool-reported paths through here so
// the same file always lands under the same key.
package pathutil

import "strings"

// NormalizeFilePath canonicalizes a repository-relative file path.
// It collapses duplicate slashes, strips "./" prefixes and trailing
// slashes. The result is stable: normalizing twice yields the same value.
func NormalizeFilePath(path string) string {
	p := strings.TrimSpace(path)
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.TrimSuffix(p, "/")
	return p
}

// NormalizeDirPath canonicalizes a repository-relative directory path.
// The repository root maps to ".".
func NormalizeDirPath(path string) string {
	p := NormalizeFilePath(path)
	if p == "" || p == "." {
		return "."
	}
	return p
}

// IsRepoRelative reports whether a normalized path stays inside the
// repository. Absolute paths, home references, parent escapes and
// Windows-style separators are all rejected.
func IsRepoRelative(path string) bool {
	if path == "" {
		return false
	}
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "~") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	if len(path) >= 2 && path[1] == ':' {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
