package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRejectsEmptyDocument(t *testing.T) {
	_, err := Parse("")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseRejectsOversizedDocument(t *testing.T) {
	_, err := Parse(strings.Repeat("a", MaxHTMLSize+1))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseStripsDenylistedTags(t *testing.T) {
	tree, err := Parse(`<html><head><title>x</title></head><body>
		<script>var a = 1;</script>
		<style>p { color: red }</style>
		<noscript>enable js</noscript>
		<iframe src="x"></iframe>
		<!-- comment -->
		<p>kept</p>
	</body></html>`)
	require.NoError(t, err)
	tree.InitNodes()

	for _, node := range tree.Nodes {
		assert.False(t, IgnoredTag(node.TagName()), "tag %q should be stripped", node.TagName())
		if node.IsText() {
			assert.NotContains(t, node.Text(), "var a")
			assert.NotContains(t, node.Text(), "color")
			assert.NotContains(t, node.Text(), "comment")
		}
	}
}

func TestParseRootIsHTMLElement(t *testing.T) {
	tree, err := Parse("<html><body><p>x</p></body></html>")
	require.NoError(t, err)
	tree.InitNodes()
	assert.Equal(t, "html", tree.Root.TagName())
	assert.Nil(t, tree.Root.Parent)
}

func TestIgnoredTag(t *testing.T) {
	for _, tag := range []string{"script", "style", "head", "noscript", "iframe"} {
		assert.True(t, IgnoredTag(tag))
	}
	assert.False(t, IgnoredTag("div"))
	assert.False(t, IgnoredTag("p"))
}

func TestDetectCharsetDefaultsToUTF8(t *testing.T) {
	assert.NotEmpty(t, DetectCharset([]byte("<html><body>héllo</body></html>")))
}
