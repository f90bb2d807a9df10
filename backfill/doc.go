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

// Package backfill regenerates embeddings for stored memories.
//
// Memories can end up without an embedding when they were saved while no
// backend was available, or with a stale one after switching embedding
// models. A backfill run walks the candidates sequentially, embeds each
// memory's title and text, and stores the resulting vector under the
// backend's model tag. Individual failures are counted and skipped so
// one bad memory never aborts the run. Remote embedding calls are
// throttled between memories.
package backfill
