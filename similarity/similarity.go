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

package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/poiesic/recall/core"
)

// Cosine computes the cosine similarity between two vectors in [-1, 1].
// Nil or empty vectors score zero, as does any vector with zero
// magnitude. Vectors of different lengths are a caller bug and return
// ErrDimensionMismatch.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// Round rounds a score to two decimal places for presentation.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// Normalize scales v to unit length in place and returns it. A zero
// vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var mag float64
	for _, x := range v {
		mag += float64(x) * float64(x)
	}
	if mag == 0 {
		return v
	}
	inv := 1 / math.Sqrt(mag)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Rank sorts scored memories by similarity, highest first. Ties keep
// their relative order.
func Rank(items []core.ScoredMemory) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Similarity > items[j].Similarity
	})
}

// RankCombined sorts scored memories by combined score, highest first.
func RankCombined(items []core.ScoredMemory) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CombinedScore > items[j].CombinedScore
	})
}
