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

// Package search implements natural-language search over saved memories.
//
// A search runs in stages: the query text is parsed into semantic terms
// and structured filters (date range, domain, tags), an embedding
// backend is selected, the terms are embedded, and candidate memories
// are ranked by cosine similarity against the query vector. When the
// requested or resolved backend cannot embed, the searcher degrades to
// lexical matching rather than failing, so a search always produces
// what results it can.
//
// Three retrieval modes are supported:
//
//   - Semantic: pure vector ranking with a minimum similarity cutoff.
//   - Hybrid: vector and lexical legs fused with a weighted score,
//     which favors vector similarity but lets exact term matches
//     surface results the embedding space misses.
//   - Keyword: lexical matching only, used when no embedding backend
//     is available or when explicitly requested.
//
// Vector comparison only makes sense within one embedding model, so all
// candidate filtering is model-scoped: a query embedded remotely is
// never compared against locally generated vectors.
package search
