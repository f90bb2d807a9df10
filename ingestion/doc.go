// Package ingestion provides pipeline orchestration for saving memories.
//
// The Pipeline type manages the save workflow for memories, including:
//   - Validating and adding memories to storage
//   - Generating embeddings asynchronously
//
// Storage is synchronous so duplicate detection surfaces to the caller;
// embedding runs on a worker pool and its errors are logged rather than
// failing the save, leaving unembedded memories for a later backfill.
package ingestion
