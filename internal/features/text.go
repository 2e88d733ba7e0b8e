package features

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/halcyon-data/domgraph/internal/dom"
)

// Tokenize lowercases the text, splits punctuation into separate tokens and
// breaks on whitespace.
func Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text) + 8)
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '\u200b':
			b.WriteByte(' ')
		default:
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

// tokenizeNode applies the word cutoff from the root-context options.
func tokenizeNode(n *dom.Node, opts Options) []string {
	tokens := Tokenize(n.Text())
	if opts.CutoffWords > 0 && len(tokens) > opts.CutoffWords {
		tokens = tokens[:opts.CutoffWords]
	}
	return tokens
}

// truncateToken applies the token-length cutoff, in runes.
func truncateToken(tok string, cutoff int) string {
	if cutoff <= 0 {
		return tok
	}
	runes := []rune(tok)
	if len(runes) <= cutoff {
		return tok
	}
	return string(runes[:cutoff])
}

// WordIdentifiers emits dense word-token ids per node, padded to the global
// maximum word count. The vocabulary is grown during Prepare and finalized
// by RootContext.Freeze.
type WordIdentifiers struct{}

func (WordIdentifiers) Name() string { return "word_identifiers" }

func (WordIdentifiers) ColumnLabels(root *RootContext) []string {
	out := make([]string, root.MaxNumWords)
	for i := range out {
		out[i] = "word_" + strconv.Itoa(i)
	}
	return out
}

func (WordIdentifiers) Dimension(root *RootContext) int { return root.MaxNumWords }

func (WordIdentifiers) Prepare(n *dom.Node, root *RootContext) {
	if !n.IsText() {
		return
	}
	tokens := tokenizeNode(n, root.Options)
	root.GrowMaxNumWords(len(tokens))
	for _, tok := range tokens {
		root.AddWord(tok)
	}
}

func (WordIdentifiers) Compute(n *dom.Node, pc *PageContext) []float64 {
	root := pc.Root
	out := make([]float64, root.MaxNumWords)
	if !n.IsText() {
		return out
	}
	for i, tok := range tokenizeNode(n, root.Options) {
		if i >= root.MaxNumWords {
			break
		}
		out[i] = float64(root.WordID(tok))
	}
	return out
}

// CharIdentifiers emits dense character ids per node: MaxNumWords tokens of
// MaxWordLen characters each, zero-padded.
type CharIdentifiers struct{}

func (CharIdentifiers) Name() string { return "char_identifiers" }

func (CharIdentifiers) ColumnLabels(root *RootContext) []string {
	out := make([]string, root.MaxNumWords*root.MaxWordLen)
	for i := range out {
		out[i] = "char_" + strconv.Itoa(i/max(root.MaxWordLen, 1)) + "_" + strconv.Itoa(i%max(root.MaxWordLen, 1))
	}
	return out
}

func (CharIdentifiers) Dimension(root *RootContext) int {
	return root.MaxNumWords * root.MaxWordLen
}

func (CharIdentifiers) Prepare(n *dom.Node, root *RootContext) {
	if !n.IsText() {
		return
	}
	tokens := tokenizeNode(n, root.Options)
	root.GrowMaxNumWords(len(tokens))
	for _, tok := range tokens {
		tok = truncateToken(tok, root.Options.CutoffWordLength)
		runes := []rune(tok)
		root.GrowMaxWordLen(len(runes))
		for _, r := range runes {
			root.AddChar(r)
		}
	}
}

func (CharIdentifiers) Compute(n *dom.Node, pc *PageContext) []float64 {
	root := pc.Root
	out := make([]float64, root.MaxNumWords*root.MaxWordLen)
	if !n.IsText() {
		return out
	}
	for i, tok := range tokenizeNode(n, root.Options) {
		if i >= root.MaxNumWords {
			break
		}
		tok = truncateToken(tok, root.Options.CutoffWordLength)
		for j, r := range []rune(tok) {
			if j >= root.MaxWordLen {
				break
			}
			out[i*root.MaxWordLen+j] = float64(root.CharID(r))
		}
	}
	return out
}

