// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"bytes"
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// MemoryRepository implements storage.MemoryRepository for BadgerDB.
type MemoryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MemoryRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository(backend *Backend) (*MemoryRepository, error) {
	idSeq, err := backend.GetSequence(memoryIDSeq)
	if err != nil {
		return nil, err
	}

	return &MemoryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *MemoryRepository) Close() error {
	return r.idSeq.Release()
}

// AddMemories adds one or more memories to storage.
func (r *MemoryRepository) AddMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, memory := range memories {
			if memory.ContentHash == 0 {
				memory.ContentHash = core.ContentHash(memory.URL, memory.Text)
			}

			// Reject an identical capture saved earlier.
			hashKey := makeMemoryHashKey(memory.ContentHash)
			if _, err := tx.Get(hashKey); err == nil {
				return storage.ErrDuplicateContent
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			memory.Id = core.ID(nextID)

			if memory.CreatedAt.IsZero() {
				memory.CreatedAt = time.Now().UTC()
			}
			memory.UpdatedAt = memory.CreatedAt
			if memory.Domain == "" {
				memory.Domain = core.DeriveDomain(memory.URL)
			}
			memory.Tags = core.NormalizeTags(memory.Tags)

			key := makeMemoryKey(memory.Id)
			if err := tx.Set(key, storage.MarshalMemory(memory)); err != nil {
				return err
			}

			dateKey := makeMemoryDateKey(memory.CreatedAt, memory.Id)
			if err := tx.Set(dateKey, storage.MarshalID(memory.Id)); err != nil {
				return err
			}

			if err := tx.Set(hashKey, storage.MarshalID(memory.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return memories, err
}

// UpdateMemories updates existing memories.
func (r *MemoryRepository) UpdateMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, memory := range memories {
			key := makeMemoryKey(memory.Id)

			old, err := r.readMemory(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			memory.UpdatedAt = time.Now().UTC()
			memory.Tags = core.NormalizeTags(memory.Tags)

			// Content edits change the hash; keep the index in step.
			newHash := core.ContentHash(memory.URL, memory.Text)
			if newHash != old.ContentHash {
				if err := tx.Delete(makeMemoryHashKey(old.ContentHash)); err != nil {
					return err
				}
				memory.ContentHash = newHash
				if err := tx.Set(makeMemoryHashKey(newHash), storage.MarshalID(memory.Id)); err != nil {
					return err
				}
			}

			if err := tx.Set(key, storage.MarshalMemory(memory)); err != nil {
				return err
			}

			if !old.CreatedAt.Equal(memory.CreatedAt) {
				if err := tx.Delete(makeMemoryDateKey(old.CreatedAt, old.Id)); err != nil {
					return err
				}
				if err := tx.Set(makeMemoryDateKey(memory.CreatedAt, memory.Id), storage.MarshalID(memory.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return memories, err
}

// DeleteMemories removes memories and their indices by ID.
func (r *MemoryRepository) DeleteMemories(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeMemoryKey(id)

			memory, err := r.readMemory(tx, key)
			if err != nil {
				return err
			}
			if memory == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeMemoryDateKey(memory.CreatedAt, memory.Id)); err != nil {
				return err
			}
			if err := tx.Delete(makeMemoryHashKey(memory.ContentHash)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetMemory retrieves a single memory by ID.
func (r *MemoryRepository) GetMemory(ctx context.Context, id core.ID) (*core.Memory, error) {
	var result *core.Memory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readMemory(tx, makeMemoryKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindByContentHash retrieves the memory with the given content hash.
func (r *MemoryRepository) FindByContentHash(ctx context.Context, hash core.ID) (*core.Memory, error) {
	var result *core.Memory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMemoryHashKey(hash))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = r.readMemory(tx, makeMemoryKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindAll retrieves memories matching the filter, newest first.
func (r *MemoryRepository) FindAll(ctx context.Context, filter *storage.Filter) ([]*core.Memory, error) {
	var results []*core.Memory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		results, err = r.scanMemories(tx, filter)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Memory) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return results, nil
}

// GetRecentMemories retrieves up to limit memories, newest first.
func (r *MemoryRepository) GetRecentMemories(ctx context.Context, limit int) ([]*core.Memory, error) {
	var results []*core.Memory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the last possible date index key and walk backwards.
		startKey := makePartialMemoryDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(memoryDatePrefix + ":")

		count := 0
		for iter.Seek(startKey); iter.Valid() && count < limit; iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			memory, err := r.readMemory(tx, makeMemoryKey(id))
			if err != nil {
				return err
			}
			if memory != nil {
				results = append(results, memory)
				count++
			}
		}
		return nil
	}, false)

	return results, err
}

// GetMemoriesByDateRange retrieves memories created within [start, end).
func (r *MemoryRepository) GetMemoriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.Memory, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.Memory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialMemoryDateKey(start)
		endKey := makePartialMemoryDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if bytes.Compare(key, endKey) > 0 {
				break
			}

			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			memory, err := r.readMemory(tx, makeMemoryKey(id))
			if err != nil {
				return err
			}
			if memory != nil {
				results = append(results, memory)
			}
		}
		return nil
	}, false)

	return results, err
}

// SearchText scores memories against query terms with lexical matching.
func (r *MemoryRepository) SearchText(ctx context.Context, terms string, filter *storage.Filter, limit int) ([]*core.ScoredMemory, error) {
	queryWords := tokenizeAndFilter(terms)
	if len(queryWords) == 0 {
		return nil, nil
	}

	var scored []*core.ScoredMemory
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		candidates, err := r.scanMemories(tx, filter)
		if err != nil {
			return err
		}
		for _, memory := range candidates {
			if score := lexicalScore(memory, queryWords); score > 0 {
				scored = append(scored, &core.ScoredMemory{
					Memory:       memory,
					KeywordScore: score,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(scored, func(a, b *core.ScoredMemory) int {
		if a.KeywordScore > b.KeywordScore {
			return -1
		}
		if a.KeywordScore < b.KeywordScore {
			return 1
		}
		return 0
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// UpdateEmbedding stores a vector and its model tag on a memory.
func (r *MemoryRepository) UpdateEmbedding(ctx context.Context, id core.ID, vector []float32, model string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMemoryKey(id)
		memory, err := r.readMemory(tx, key)
		if err != nil {
			return err
		}
		if memory == nil {
			return storage.ErrNotFound
		}

		memory.Embedding = vector
		memory.EmbeddingModel = model
		memory.EmbeddingGeneratedAt = time.Now().UTC()
		memory.UpdatedAt = memory.EmbeddingGeneratedAt

		if err := tx.Set(key, storage.MarshalMemory(memory)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// EmbeddingStats reports vector coverage across all memories.
func (r *MemoryRepository) EmbeddingStats(ctx context.Context) (*storage.EmbeddingStats, error) {
	stats := &storage.EmbeddingStats{ByModel: make(map[string]int)}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		memories, err := r.scanMemories(tx, nil)
		if err != nil {
			return err
		}
		for _, memory := range memories {
			stats.Total++
			if memory.HasEmbedding() {
				stats.WithEmbedding++
				stats.ByModel[memory.EmbeddingModel]++
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	stats.WithoutEmbedding = stats.Total - stats.WithEmbedding
	if stats.Total > 0 {
		stats.CoveragePercent = math.Round(float64(stats.WithEmbedding) / float64(stats.Total) * 100)
	}
	return stats, nil
}

// Count returns the total number of stored memories.
func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(memoryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if isIndexKey(iter.Item().Key()) {
				continue
			}
			count++
		}
		return nil
	}, false)
	return count, err
}

// scanMemories iterates all primary records, returning those matching
// the filter. Index keys share the record prefix and are skipped.
func (r *MemoryRepository) scanMemories(tx *badger.Txn, filter *storage.Filter) ([]*core.Memory, error) {
	var results []*core.Memory

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(memoryPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		if isIndexKey(item.Key()) {
			continue
		}

		var memory *core.Memory
		if err := item.Value(func(val []byte) error {
			var err error
			memory, err = storage.UnmarshalMemory(val)
			return err
		}); err != nil {
			return nil, err
		}
		if memory == nil || !matchesFilter(memory, filter) {
			continue
		}
		results = append(results, memory)
	}
	return results, nil
}

func isIndexKey(key []byte) bool {
	return bytes.Equal(key, []byte(memoryIDSeq)) ||
		bytes.HasPrefix(key, []byte(memoryDatePrefix+":")) ||
		bytes.HasPrefix(key, []byte(memoryHashPrefix+":"))
}

func matchesFilter(m *core.Memory, f *storage.Filter) bool {
	if f == nil {
		return true
	}
	if f.ExcludeID != 0 && m.Id == f.ExcludeID {
		return false
	}
	if f.Date != nil && !f.Date.Contains(m.CreatedAt) {
		return false
	}
	if f.Domain != "" && !strings.Contains(strings.ToLower(m.URL), strings.ToLower(f.Domain)) {
		return false
	}
	if f.Model != "" && m.EmbeddingModel != f.Model {
		return false
	}
	if f.HasEmbedding != nil && m.HasEmbedding() != *f.HasEmbedding {
		return false
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, tag := range m.Tags {
				if strings.EqualFold(tag, want) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *MemoryRepository) readMemory(tx *badger.Txn, key []byte) (*core.Memory, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var memory *core.Memory
	err = item.Value(func(val []byte) error {
		var err error
		memory, err = storage.UnmarshalMemory(val)
		return err
	})
	return memory, err
}
