package core

import (
	"encoding/binary"
	"net/url"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated from database sequences; content hashes reuse the same type.
type ID uint64

// ContentHash generates a deterministic ID from a memory's source URL and text
// using BLAKE2b hashing. Identical captures produce identical hashes, which is
// how duplicate saves are detected.
func ContentHash(url, text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(url))
	h.Write([]byte{'\n'})
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Embedding model tags identifying which backend produced a stored vector.
const (
	EmbeddingModelLocal  = "local"
	EmbeddingModelRemote = "remote"
)

// Embedding dimensions per backend. A stored vector's length must match
// exactly one of these.
const (
	LocalDimensions  = 384
	RemoteDimensions = 1536
)

// Memory is a saved text snippet with its source, tags and optional
// vector embedding.
type Memory struct {
	Id          ID
	Title       string
	Text        string
	URL         string
	Domain      string // derived from URL at save time
	Context     string // surrounding page text captured with the snippet
	Tags        []string
	ContentHash ID // BLAKE2b hash of URL+text, used for duplicate detection
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Embedding fields, populated by the embedding backends.
	Embedding            []float32
	EmbeddingModel       string // EmbeddingModelLocal, EmbeddingModelRemote or ""
	EmbeddingGeneratedAt time.Time
}

// HasEmbedding reports whether the memory carries a stored vector.
func (m *Memory) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// EmbeddingText is the canonical text a memory is embedded from: title
// and body joined so both contribute to the vector.
func (m *Memory) EmbeddingText() string {
	title := strings.TrimSpace(m.Title)
	text := strings.TrimSpace(m.Text)
	switch {
	case title == "":
		return text
	case text == "":
		return title
	}
	return title + ". " + text
}

// DeriveDomain extracts the hostname from a source URL.
// On parse failure the raw string is returned so substring matching
// still has something to work with.
func DeriveDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// NormalizeTags lowercases, trims and de-duplicates tags, preserving the
// order of first occurrence.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		cleaned := strings.ToLower(strings.TrimSpace(tag))
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		result = append(result, cleaned)
	}
	return result
}

// DateRange is an inclusive pair of instants used for date filtering.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ParsedQuery is the structured form of a natural-language search query.
type ParsedQuery struct {
	// SemanticTerms is the residual query after structured filters and
	// filler words are stripped. Never empty for a non-empty query:
	// falls back to OriginalQuery when cleaning empties it.
	SemanticTerms string
	Date          *DateRange
	Type          string // content type keyword, advisory only
	Domain        string
	Tags          []string
	OriginalQuery string
}

// ScoredMemory is a memory paired with relevance scores from ranking.
// Similarity is the cosine similarity rounded to two decimals; the
// remaining fields are populated in hybrid mode.
type ScoredMemory struct {
	Memory        *Memory
	Similarity    float64
	VectorScore   float64
	KeywordScore  float64
	CombinedScore float64
}
