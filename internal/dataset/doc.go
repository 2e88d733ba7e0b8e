// Package dataset orchestrates per-page feature extraction and caching.
//
// For every page it builds the DOM graph, validates the shared label map,
// runs the feature pipeline's prepare and compute phases, assembles the
// node feature matrix, label vector and edge list, and persists the
// resulting sample to a cache slot keyed by page identity.
//
// The prepare phase mutates the shared root context and is therefore
// sequential by construction: no parallel API exists for it. The compute
// phase is embarrassingly parallel across pages; workers share only the
// read-only frozen root context and write to disjoint cache slots.
package dataset
