// Package ingestion turns source text into indexed chunks.
//
// The Pipeline type manages the ingestion workflow:
//   - Chunking the text with provenance
//   - Generating embeddings in batches on a worker pool
//   - Upserting all chunks into the index in a single call
//
// Ingestion is all-or-nothing from the caller's view: nothing is written to
// the index unless every batch was embedded. LoadFile and LoadBytes read
// plain text, Markdown and PDF sources.
package ingestion
