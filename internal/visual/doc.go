// Package visual loads per-node visual attributes produced by the external
// browser extraction tool.
//
// The input is a JSON document keyed by XPath segments. Every entry must be
// consumed by exactly one DOM node; an unused entry or an element-id
// mismatch means the extraction tool and the current HTML have drifted and
// is fatal.
package visual
