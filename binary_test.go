package difftar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBinaryPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"image.png", true},
		{"lib/deep/nested/photo.JPEG", true},
		{"module.wasm", true},
		{"binding.node", true},
		{"archive.tar", true},
		{"index.js", false},
		{"package.json", false},
		{"README", false},
		{".gitignore", false},
		{"noext", false},
		{"", false},
		{"trailing.", false},
		{"dir.png/readme.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBinaryPath(tt.path))
		})
	}
}

func TestIsBinaryExtension_CaseInsensitiveRoundTrip(t *testing.T) {
	for _, ext := range GetBinaryExtensions() {
		assert.Truef(t, IsBinaryExtension(ext), "extension %q", ext)
		assert.Truef(t, IsBinaryExtension(strings.ToUpper(ext)), "extension %q uppercased", ext)
		assert.Falsef(t, IsBinaryExtension("."+ext), "extension %q with leading dot", ext)
	}

	assert.False(t, IsBinaryExtension(""))
	assert.False(t, IsBinaryExtension("js"))
}

func TestGetBinaryExtensions_IndependentCopy(t *testing.T) {
	exts := GetBinaryExtensions()
	assert.Contains(t, exts, "wasm")
	assert.Contains(t, exts, "node")

	for i := range exts {
		exts[i] = "txt"
	}
	assert.True(t, IsBinaryExtension("png"))
	assert.False(t, IsBinaryExtension("txt"))
}

func TestShouldPrintPatch(t *testing.T) {
	assert.True(t, ShouldPrintPatch("index.js", nil))
	assert.False(t, ShouldPrintPatch("image.png", nil))
	assert.False(t, ShouldPrintPatch("image.png", &DiffOptions{}))
	assert.True(t, ShouldPrintPatch("image.png", &DiffOptions{Text: true}))
	assert.True(t, ShouldPrintPatch("index.js", &DiffOptions{Text: true}))
}
