// Package storage defines the persistence interfaces for Recall.
//
// MemoryRepository is the single repository: saved memories with their
// embeddings, a content-hash index for duplicate detection, and a date
// index for range queries. The badger subpackage provides the production
// implementation; serialization helpers here convert between core types
// and their binary representation.
package storage
