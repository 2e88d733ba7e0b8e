package dom

import "fmt"

// ParseError indicates the underlying HTML parser could not recover from a
// malformed input. It is fatal for the page and propagated, not retried.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LabelResolutionError indicates a gold-label index path does not resolve to
// any current DOM node. It carries the label key and the offending path so a
// label/DOM mismatch can be diagnosed per page.
type LabelResolutionError struct {
	LabelKey string
	Path     []int
	Reason   string
}

func (e *LabelResolutionError) Error() string {
	return fmt.Sprintf("label %q: cannot resolve index path %v: %s",
		e.LabelKey, e.Path, e.Reason)
}
