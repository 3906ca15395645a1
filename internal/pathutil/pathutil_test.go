package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeFilePath tests path canonicalization.
func TestNormalizeFilePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "plain path", path: "src/main.go", want: "src/main.go"},
		{name: "dot slash prefix", path: "./src/main.go", want: "src/main.go"},
		{name: "repeated dot slash", path: "././src/main.go", want: "src/main.go"},
		{name: "duplicate slashes", path: "src//pkg///main.go", want: "src/pkg/main.go"},
		{name: "trailing slash", path: "src/pkg/", want: "src/pkg"},
		{name: "surrounding whitespace", path: "  src/main.go ", want: "src/main.go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFilePath(tt.path))
		})
	}
}

// TestNormalizeFilePathIdempotent checks that a second pass is a no-op.
func TestNormalizeFilePathIdempotent(t *testing.T) {
	paths := []string{"./a//b/c/", "a/b/c", "././x.go", "  x//y  "}
	for _, p := range paths {
		once := NormalizeFilePath(p)
		assert.Equal(t, once, NormalizeFilePath(once), "path %q", p)
	}
}

// TestNormalizeDirPath tests root handling.
func TestNormalizeDirPath(t *testing.T) {
	assert.Equal(t, ".", NormalizeDirPath(""))
	assert.Equal(t, ".", NormalizeDirPath("."))
	assert.Equal(t, ".", NormalizeDirPath("./"))
	assert.Equal(t, "src/pkg", NormalizeDirPath("src/pkg/"))
}

// TestIsRepoRelative tests rejection of paths that escape the repository.
func TestIsRepoRelative(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "relative file", path: "src/main.go", want: true},
		{name: "root dir", path: ".", want: true},
		{name: "absolute", path: "/etc/passwd", want: false},
		{name: "home", path: "~/notes.txt", want: false},
		{name: "parent escape", path: "../secrets.env", want: false},
		{name: "embedded parent escape", path: "src/../../x", want: false},
		{name: "backslash", path: "src\\main.go", want: false},
		{name: "drive letter", path: "C:/repo/file.cs", want: false},
		{name: "empty", path: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRepoRelative(tt.path))
		})
	}
}
