package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello", "hello"},
		{"inner run", "hello   world", "hello world"},
		{"mixed whitespace", "a \t\n b", "a b"},
		{"leading run", "  hello", " hello"},
		{"trailing run", "hello \n", "hello "},
		{"zero-width space", "a\u200bb", "a b"},
		{"only whitespace", " \t\u200b ", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollapseWhitespace(tt.in))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "hello world", NormalizeText("  hello \u200b world\n"))
	assert.Equal(t, "", NormalizeText(" \t "))
}

func TestIsEmptyOrWhitespace(t *testing.T) {
	assert.True(t, IsEmptyOrWhitespace(""))
	assert.True(t, IsEmptyOrWhitespace(" \n\t"))
	assert.True(t, IsEmptyOrWhitespace("\u200b"))
	assert.False(t, IsEmptyOrWhitespace(" x "))
}
