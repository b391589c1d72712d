// Package session tracks which source is currently indexed and gates
// ingestion and queries on that state.
//
// A Session starts Empty. Ingesting non-empty text under a new label moves
// it to Indexed(label); ingesting under the current label is skipped. Old
// chunks stay in the namespace when the label changes, so sources
// accumulate until Clear is called. Queries in the Empty state fail with
// ErrNothingIndexed before any external service is contacted.
//
// Operations on one Session are serialized; separate Sessions are
// independent.
package session
