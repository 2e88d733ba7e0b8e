// Package dom models an HTML page as a filtered, indexed tree of nodes.
//
// The pipeline is: Parse (charset detection, denylist tag and comment
// stripping), InitNodes (pre-order traversal, DeepIndex assignment),
// FilterNodes (whitespace-only text removal), InitLabels (gold-label
// attachment via index paths against the unfiltered children), and optional
// structural enrichment (friend cycles, visual nearest neighbors).
//
// Built on specialized libraries:
//   - golang.org/x/net/html: low-level HTML parse tree
//   - chardet + x/net/html/charset: automatic charset detection
//   - gonum spatial/kdtree: visual nearest-neighbor search
//
// Two index namespaces exist and must never be conflated: DeepIndex is the
// stable pre-order position assigned at build time and survives filtering;
// DatasetIndex is assigned per feature context over the filtered node list
// and is what edge construction uses.
package dom
