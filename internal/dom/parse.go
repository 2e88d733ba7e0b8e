package dom

import (
	"bytes"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion.
const MaxHTMLSize = 10 * 1024 * 1024

// ignoredTags are removed entirely during parsing, subtree included.
var ignoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"head":     true,
	"noscript": true,
	"iframe":   true,
}

// IgnoredTag reports whether name is on the parser's denylist.
func IgnoredTag(name string) bool { return ignoredTags[name] }

// DetectCharset detects the charset of raw HTML bytes, defaulting to utf-8.
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// Parse parses HTML text into a Tree with charset detection. Denylist tags
// (script, style, head, noscript, iframe) are removed with their subtrees,
// and comment nodes are dropped. Node wrappers are not built yet; call
// Tree.InitNodes next.
func Parse(htmlText string) (*Tree, error) {
	if len(htmlText) == 0 {
		return nil, &ParseError{Reason: "empty document"}
	}
	if len(htmlText) > MaxHTMLSize {
		return nil, &ParseError{Reason: "document exceeds maximum size"}
	}

	data := []byte(htmlText)
	detected := DetectCharset(data)

	var doc *html.Node
	var err error
	utf8Reader, csErr := charset.NewReader(bytes.NewReader(data), detected)
	if csErr != nil {
		// Fallback to direct parsing.
		doc, err = html.Parse(strings.NewReader(htmlText))
	} else {
		doc, err = html.Parse(utf8Reader)
	}
	if err != nil {
		return nil, &ParseError{Reason: "malformed document", Err: err}
	}

	stripParsed(doc, func(n *html.Node) bool {
		return n.Type == html.CommentNode ||
			(n.Type == html.ElementNode && ignoredTags[n.Data])
	})

	root := findRootElement(doc)
	if root == nil {
		return nil, &ParseError{Reason: "document has no root element"}
	}

	return &Tree{doc: doc, parsedRoot: root}, nil
}

// stripParsed removes every parse node matching the predicate, together with
// its subtree.
func stripParsed(doc *html.Node, match func(*html.Node) bool) {
	var toRemove []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if match(c) {
				toRemove = append(toRemove, c)
				continue
			}
			walk(c)
		}
	}
	walk(doc)
	for _, n := range toRemove {
		n.Parent.RemoveChild(n)
	}
}

// findRootElement returns the <html> element of a parsed document.
func findRootElement(doc *html.Node) *html.Node {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
