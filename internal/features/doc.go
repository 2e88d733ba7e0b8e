// Package features implements the two-tier feature context and the
// two-phase feature pipeline.
//
// A RootContext aggregates statistics across all pages ever processed
// (character and word vocabularies, running maxima) and is persisted
// between runs. A PageContext is ephemeral, scoped to one page, and holds
// the filtered node list plus page-local caches.
//
// Every feature follows the prepare/compute contract: Prepare scans nodes
// to grow root-context statistics; Freeze finalizes dictionaries; Compute
// is a pure function of the node, the page context and the frozen root
// context. Computing against an accumulating root context is a programming
// error and panics.
package features
