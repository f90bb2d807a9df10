// Package similarity provides vector comparison primitives for ranking
// memories: cosine similarity, unit-length normalization, and stable
// score-ordered sorts.
package similarity
