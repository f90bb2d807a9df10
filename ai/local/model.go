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

package local

import (
	"encoding/binary"
	"strings"
	"unicode"

	"github.com/go-crypt/x/blake2b"

	"github.com/poiesic/recall/similarity"
)

// model is the in-process sentence encoder. Each token is mapped to a
// deterministic pseudo-random vector seeded from its hash, token vectors
// are mean-pooled, and the result is scaled to unit length. Identical
// text always encodes to an identical vector, and texts sharing tokens
// land measurably closer than unrelated ones.
type model struct {
	dims int
}

func loadModel(dims int) (*model, error) {
	// Hashing through blake2b validates the digest configuration once
	// up front rather than on the first encode.
	if _, err := blake2b.New(8, nil); err != nil {
		return nil, err
	}
	return &model{dims: dims}, nil
}

// encode turns text into a unit-length vector of m.dims values.
func (m *model) encode(text string) []float32 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		tokens = []string{text}
	}

	pooled := make([]float32, m.dims)
	for _, tok := range tokens {
		tv := m.tokenVector(tok)
		for i, v := range tv {
			pooled[i] += v
		}
	}
	inv := 1 / float32(len(tokens))
	for i := range pooled {
		pooled[i] *= inv
	}

	return similarity.Normalize(pooled)
}

// tokenVector expands a token's hash into m.dims values in [-1, 1) with
// a linear congruential generator.
func (m *model) tokenVector(token string) []float32 {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(token))
	seed := binary.LittleEndian.Uint64(h.Sum(nil))

	vec := make([]float32, m.dims)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(seed%2000)/1000.0 - 1.0
	}
	return vec
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
