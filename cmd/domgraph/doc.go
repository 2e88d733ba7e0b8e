// Command domgraph runs the two-phase feature extraction pipeline over
// JSON-annotated page dumps: prepare accumulates shared dictionaries across
// every page, then compute persists one graph sample per page in parallel.
package main
