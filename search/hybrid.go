// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/similarity"
)

// Hybrid fusion weights. Vector similarity dominates; lexical matching
// acts as a tiebreaker and surfaces exact-term hits the vectors miss.
const (
	vectorWeight  = 0.7
	keywordWeight = 0.3

	// Raw lexical scores are divided by this before fusion so they land
	// roughly in the same 0..1 band as cosine similarities.
	keywordNorm = 10.0
)

// hybridSearch runs the vector and lexical legs independently, each
// over-fetching to limit*2 candidates, then merges by memory ID with a
// weighted combination of the two scores.
func (s *Searcher) hybridSearch(ctx context.Context, embedding []float32, model string, parsed core.ParsedQuery, limit int, monitor Monitor) (*Result, error) {
	fetch := limit * 2

	vectorHits, err := s.rankByVector(ctx, embedding, vectorFilter(parsed, model), fetch)
	if err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(idsOf(vectorHits))

	terms := parsed.SemanticTerms
	keywordHits, err := s.memories.SearchText(ctx, terms, lexicalFilter(parsed), fetch)
	if err != nil {
		return nil, err
	}
	monitor.AfterKeywordSearch(idsOf(keywordHits))

	merged := make([]core.ScoredMemory, 0, len(vectorHits)+len(keywordHits))
	byID := make(map[core.ID]int, len(vectorHits))

	for _, hit := range vectorHits {
		byID[hit.Memory.Id] = len(merged)
		merged = append(merged, core.ScoredMemory{
			Memory:        hit.Memory,
			Similarity:    hit.Similarity,
			VectorScore:   hit.Similarity,
			CombinedScore: hit.Similarity * vectorWeight,
		})
	}

	for _, hit := range keywordHits {
		normalized := hit.KeywordScore / keywordNorm
		if idx, ok := byID[hit.Memory.Id]; ok {
			merged[idx].KeywordScore = normalized
			merged[idx].CombinedScore = merged[idx].VectorScore*vectorWeight + normalized*keywordWeight
			continue
		}
		merged = append(merged, core.ScoredMemory{
			Memory:        hit.Memory,
			KeywordScore:  normalized,
			CombinedScore: normalized * keywordWeight,
		})
	}

	similarity.RankCombined(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	results := make([]*core.ScoredMemory, len(merged))
	for i := range merged {
		results[i] = &merged[i]
	}
	monitor.Finish(results)

	method := MethodLocal
	if model == core.EmbeddingModelRemote {
		method = MethodRemote
	}
	return &Result{
		Memories:   results,
		SearchType: "hybrid",
		Method:     method,
		Parsed:     parsed,
	}, nil
}
