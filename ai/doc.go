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


// Package ai provides abstractions for the embedding services used in Recall.
//
// The central interface is Embedder, which turns text into fixed-length
// vectors for semantic similarity search. Two implementations ship with
// the module:
//
//   - ai/local: an in-process hashed-token model that works offline with
//     no configuration, producing 384-dimension vectors
//   - ai/openai: a remote implementation backed by the OpenAI embeddings
//     API, producing 1536-dimension vectors of higher quality
//
// ai/mock provides test doubles so business logic can be exercised
// without a model or network access.
//
// Vectors from different models live in unrelated spaces and must never
// be compared; the Model tag recorded alongside each embedding is the
// guard for that.
//
// Error classification matters to callers: ErrNotConfigured and
// ErrInvalidCredential are actionable by the user, ErrRateLimited and
// ErrUpstream are transient, and search falls back across embedders on
// any of them.
package ai
