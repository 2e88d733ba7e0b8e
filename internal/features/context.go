package features

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/halcyon-data/domgraph/internal/dom"
)

// Options echo the cutoff configuration a root context was built under.
// Merging contexts with different options is a hard error.
type Options struct {
	// CutoffWords limits how many words of each node are preserved;
	// 0 preserves all.
	CutoffWords int `json:"cutoff_words"`

	// CutoffWordLength limits how many characters of each token are
	// preserved; 0 preserves all.
	CutoffWordLength int `json:"cutoff_word_length"`
}

// ConfigMismatchError reports root contexts built under different cutoff
// configurations, which makes their statistics incompatible.
type ConfigMismatchError struct {
	Option string
	A, B   int
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("root context option %s does not match (%d vs %d)",
		e.Option, e.A, e.B)
}

// RootContext holds statistics scoped to all pages. It is mutated only
// during the prepare phase, merged from parallel-worker partials, and
// frozen before any compute call.
type RootContext struct {
	// Pages are identifiers of pages already used for preparation. Guards
	// idempotence of the prepare phase.
	Pages map[string]bool `json:"pages"`

	// Chars is every character seen in prepared nodes, keyed as one-rune
	// strings.
	Chars map[string]bool `json:"chars"`

	// Words is every token seen in prepared nodes.
	Words map[string]bool `json:"words"`

	// MaxWordLen is the length of the longest (cutoff-truncated) token.
	MaxWordLen int `json:"max_word_len"`

	// MaxNumWords is the word count of the longest node, up to CutoffWords.
	MaxNumWords int `json:"max_num_words"`

	Options Options `json:"options"`

	frozen  bool
	charIDs map[rune]int
	wordIDs map[string]int
}

// NewRootContext creates an empty, accumulating root context.
func NewRootContext(opts Options) *RootContext {
	return &RootContext{
		Pages:   make(map[string]bool),
		Chars:   make(map[string]bool),
		Words:   make(map[string]bool),
		Options: opts,
	}
}

// HasPage reports whether a page was already prepared against this context.
func (c *RootContext) HasPage(id string) bool { return c.Pages[id] }

// MarkPage records a page as prepared.
func (c *RootContext) MarkPage(id string) {
	c.requireAccumulating()
	c.Pages[id] = true
}

// AddChar records a character seen during preparation.
func (c *RootContext) AddChar(r rune) {
	c.requireAccumulating()
	c.Chars[string(r)] = true
}

// AddWord records a token seen during preparation.
func (c *RootContext) AddWord(w string) {
	c.requireAccumulating()
	c.Words[w] = true
}

// GrowMaxWordLen raises the running token-length maximum.
func (c *RootContext) GrowMaxWordLen(n int) {
	c.requireAccumulating()
	if n > c.MaxWordLen {
		c.MaxWordLen = n
	}
}

// GrowMaxNumWords raises the running word-count maximum.
func (c *RootContext) GrowMaxNumWords(n int) {
	c.requireAccumulating()
	if n > c.MaxNumWords {
		c.MaxNumWords = n
	}
}

// MergeWith folds another context's statistics into this one: sets are
// unioned and maxima are taken element-wise. Both contexts must have been
// built under identical options.
func (c *RootContext) MergeWith(other *RootContext) error {
	c.requireAccumulating()
	if c.Options.CutoffWords != other.Options.CutoffWords {
		return &ConfigMismatchError{
			Option: "cutoff_words",
			A:      c.Options.CutoffWords,
			B:      other.Options.CutoffWords,
		}
	}
	if c.Options.CutoffWordLength != other.Options.CutoffWordLength {
		return &ConfigMismatchError{
			Option: "cutoff_word_length",
			A:      c.Options.CutoffWordLength,
			B:      other.Options.CutoffWordLength,
		}
	}
	for p := range other.Pages {
		c.Pages[p] = true
	}
	for ch := range other.Chars {
		c.Chars[ch] = true
	}
	for w := range other.Words {
		c.Words[w] = true
	}
	if other.MaxWordLen > c.MaxWordLen {
		c.MaxWordLen = other.MaxWordLen
	}
	if other.MaxNumWords > c.MaxNumWords {
		c.MaxNumWords = other.MaxNumWords
	}
	return nil
}

// Freeze finalizes the character and word dictionaries and transitions the
// context from Accumulating to Frozen. Idempotent.
func (c *RootContext) Freeze() {
	if c.frozen {
		return
	}
	chars := make([]string, 0, len(c.Chars))
	for ch := range c.Chars {
		chars = append(chars, ch)
	}
	sort.Strings(chars)
	c.charIDs = make(map[rune]int, len(chars))
	for i, ch := range chars {
		// Ids start at 1; 0 is reserved for unknown and padding.
		c.charIDs[[]rune(ch)[0]] = i + 1
	}

	words := make([]string, 0, len(c.Words))
	for w := range c.Words {
		words = append(words, w)
	}
	sort.Strings(words)
	c.wordIDs = make(map[string]int, len(words))
	for i, w := range words {
		c.wordIDs[w] = i + 1
	}

	c.frozen = true
}

// Frozen reports whether the dictionaries are finalized.
func (c *RootContext) Frozen() bool { return c.frozen }

// CharID returns the dense id of a character, or 0 when unknown.
func (c *RootContext) CharID(r rune) int {
	c.requireFrozen()
	return c.charIDs[r]
}

// WordID returns the dense id of a token, or 0 when unknown.
func (c *RootContext) WordID(w string) int {
	c.requireFrozen()
	return c.wordIDs[w]
}

// Describe returns summary counts for logging.
func (c *RootContext) Describe() map[string]int {
	return map[string]int{
		"pages":         len(c.Pages),
		"chars":         len(c.Chars),
		"words":         len(c.Words),
		"max_num_words": c.MaxNumWords,
		"max_word_len":  c.MaxWordLen,
	}
}

func (c *RootContext) requireFrozen() {
	if !c.frozen {
		panic("features: compute against an accumulating root context; call Freeze first")
	}
}

func (c *RootContext) requireAccumulating() {
	if c.frozen {
		panic("features: root context is frozen; prepare-phase mutation is not allowed")
	}
}

// Save persists the root context as JSON at path.
func (c *RootContext) Save(path string) error {
	data, err := sonic.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode root context: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadRootContext reads a persisted root context. A missing file means
// "start from empty": it returns a fresh accumulating context with the
// given options.
func LoadRootContext(path string, opts Options) (*RootContext, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewRootContext(opts), nil
	}
	if err != nil {
		return nil, err
	}
	ctx := NewRootContext(opts)
	if err := sonic.Unmarshal(data, ctx); err != nil {
		return nil, fmt.Errorf("decode root context %s: %w", path, err)
	}
	if ctx.Options.CutoffWords != opts.CutoffWords {
		return nil, &ConfigMismatchError{
			Option: "cutoff_words",
			A:      ctx.Options.CutoffWords,
			B:      opts.CutoffWords,
		}
	}
	if ctx.Options.CutoffWordLength != opts.CutoffWordLength {
		return nil, &ConfigMismatchError{
			Option: "cutoff_word_length",
			A:      ctx.Options.CutoffWordLength,
			B:      opts.CutoffWordLength,
		}
	}
	return ctx, nil
}

// Predicate decides which nodes belong to a page context. Node inclusion
// and descendant traversal are independent, supporting both "exclude
// subtree" and "exclude node but keep children" policies.
type Predicate interface {
	IncludeNode(*dom.Node) bool
	IncludeDescendants(*dom.Node) bool
}

// IncludeAll is the default predicate.
type IncludeAll struct{}

func (IncludeAll) IncludeNode(*dom.Node) bool        { return true }
func (IncludeAll) IncludeDescendants(*dom.Node) bool { return true }

// PageContext holds everything needed to compute one page's features. It is
// destroyed after the page is processed and never persisted.
type PageContext struct {
	Root *RootContext
	Tree *dom.Tree

	pred     Predicate
	nodes    []*dom.Node
	maxDepth int
}

// NewPageContext creates a page context over a built (and filtered) tree.
func NewPageContext(root *RootContext, tree *dom.Tree, pred Predicate) *PageContext {
	if pred == nil {
		pred = IncludeAll{}
	}
	return &PageContext{Root: root, Tree: tree, pred: pred}
}

// Nodes returns the memoized filtered node list. On first call it assigns
// DatasetIndex in iteration order; nodes excluded by the predicate keep
// NoDatasetIndex.
func (pc *PageContext) Nodes() []*dom.Node {
	if pc.nodes != nil {
		return pc.nodes
	}
	for _, n := range pc.Tree.Nodes {
		n.DatasetIndex = dom.NoDatasetIndex
	}
	pc.nodes = make([]*dom.Node, 0, len(pc.Tree.Nodes))
	pc.collect(pc.Tree.Root)
	for i, n := range pc.nodes {
		n.DatasetIndex = dom.DatasetIndex(i)
	}
	return pc.nodes
}

func (pc *PageContext) collect(n *dom.Node) {
	if pc.pred.IncludeNode(n) {
		pc.nodes = append(pc.nodes, n)
	}
	if !pc.pred.IncludeDescendants(n) {
		return
	}
	for _, c := range n.Children {
		pc.collect(c)
	}
}

// MaxDepth returns the page's maximum node depth, memoized.
func (pc *PageContext) MaxDepth() int {
	if pc.maxDepth == 0 {
		for _, n := range pc.Nodes() {
			if d := n.Depth(); d > pc.maxDepth {
				pc.maxDepth = d
			}
		}
		if pc.maxDepth == 0 {
			pc.maxDepth = 1
		}
	}
	return pc.maxDepth
}
