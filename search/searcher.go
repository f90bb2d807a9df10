package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/query"
	"github.com/poiesic/recall/similarity"
	"github.com/poiesic/recall/storage"
)

const (
	defaultLimit     = 50
	defaultThreshold = 0.3
)

// Searcher coordinates natural-language search over saved memories:
// query parsing, embedding backend selection with fallback, vector
// ranking, and optional hybrid fusion with lexical scores.
type Searcher struct {
	memories storage.MemoryRepository
	remote   ai.Embedder
	local    ai.Embedder
	parser   *query.Parser

	threshold float64
	limit     int
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithThreshold overrides the minimum similarity for vector results.
func WithThreshold(threshold float64) Option {
	return func(s *Searcher) error {
		s.threshold = threshold
		return nil
	}
}

// WithLimit overrides the default maximum result count.
func WithLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit > 0 {
			s.limit = limit
		}
		return nil
	}
}

// WithParser overrides the query parser, used by tests to fix the clock.
func WithParser(p *query.Parser) Option {
	return func(s *Searcher) error {
		if p != nil {
			s.parser = p
		}
		return nil
	}
}

// NewSearcher creates a new searcher over the given repository and
// embedding backends.
func NewSearcher(
	memories storage.MemoryRepository,
	remote ai.Embedder,
	local ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if memories == nil {
		return nil, ErrRepositoryRequired
	}
	if remote == nil || local == nil {
		return nil, ErrEmbedderRequired
	}

	parser, err := query.NewParser()
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		memories:  memories,
		remote:    remote,
		local:     local,
		parser:    parser,
		threshold: defaultThreshold,
		limit:     defaultLimit,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Request describes one search invocation.
type Request struct {
	// Query is the natural-language query text.
	Query string

	// Method selects the embedding backend; MethodAuto resolves by
	// availability.
	Method Method

	// Hybrid fuses vector and lexical scores when set.
	Hybrid bool

	// Limit caps the result count; zero means the searcher default.
	Limit int
}

// Result is the outcome of a search, including what the query parsed
// into and which path actually served it.
type Result struct {
	Memories []*core.ScoredMemory

	// SearchType is "semantic", "hybrid" or "keyword".
	SearchType string

	// Method is the embedding backend that served the search, or
	// MethodKeyword when no embedding was involved.
	Method Method

	Parsed core.ParsedQuery
}

// Search runs a natural-language search.
func (s *Searcher) Search(ctx context.Context, req Request) (*Result, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs a search with observation hooks. The monitor
// receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor Monitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.limit
	}

	monitor.Start(req.Query)

	parsed := s.parser.Parse(req.Query)
	monitor.AfterParse(parsed)
	s.logger.Debug("parsed query",
		"terms", parsed.SemanticTerms,
		"domain", parsed.Domain,
		"tags", parsed.Tags,
		"hasDate", parsed.Date != nil)

	method, err := s.resolveMethod(ctx, req.Method)
	if err != nil {
		return nil, err
	}
	monitor.MethodResolved(method)

	if method == MethodKeyword {
		return s.keywordSearch(ctx, parsed, limit, monitor)
	}

	embedder := s.local
	if method == MethodRemote {
		embedder = s.remote
	}

	embedding, err := embedder.EmbedText(ctx, parsed.SemanticTerms)
	if err != nil {
		// Embedding trouble never fails the search outright; lexical
		// matching still works.
		s.logger.Warn("query embedding failed, falling back to keyword search",
			"method", method, "err", err)
		monitor.Fallback(err)
		return s.keywordSearch(ctx, parsed, limit, monitor)
	}

	if req.Hybrid && parsed.SemanticTerms != "" {
		return s.hybridSearch(ctx, embedding, embedder.Model(), parsed, limit, monitor)
	}
	return s.vectorSearch(ctx, embedding, embedder.Model(), method, parsed, limit, monitor)
}

// resolveMethod maps MethodAuto onto the best available backend and
// verifies that an explicitly requested backend can serve.
func (s *Searcher) resolveMethod(ctx context.Context, m Method) (Method, error) {
	switch m {
	case MethodAuto, "":
		if s.remote.Ready(ctx) == nil {
			return MethodRemote, nil
		}
		if s.local.Ready(ctx) == nil {
			return MethodLocal, nil
		}
		return MethodKeyword, nil
	case MethodRemote:
		if err := s.remote.Ready(ctx); err != nil {
			return "", err
		}
		return MethodRemote, nil
	case MethodLocal, MethodKeyword:
		return m, nil
	default:
		return "", ErrUnknownMethod
	}
}

// vectorFilter narrows candidates to memories whose vectors are
// comparable with the query embedding, plus the parsed structured
// filters. The parsed type is advisory and deliberately absent here.
func vectorFilter(parsed core.ParsedQuery, model string) *storage.Filter {
	embedded := true
	return &storage.Filter{
		Date:         parsed.Date,
		Domain:       parsed.Domain,
		Tags:         parsed.Tags,
		HasEmbedding: &embedded,
		Model:        model,
	}
}

// lexicalFilter carries the structured filters without constraining on
// embeddings, for keyword legs.
func lexicalFilter(parsed core.ParsedQuery) *storage.Filter {
	return &storage.Filter{
		Date:   parsed.Date,
		Domain: parsed.Domain,
		Tags:   parsed.Tags,
	}
}

func (s *Searcher) vectorSearch(ctx context.Context, embedding []float32, model string, method Method, parsed core.ParsedQuery, limit int, monitor Monitor) (*Result, error) {
	scored, err := s.rankByVector(ctx, embedding, vectorFilter(parsed, model), limit)
	if err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(idsOf(scored))
	monitor.Finish(scored)

	return &Result{
		Memories:   scored,
		SearchType: "semantic",
		Method:     method,
		Parsed:     parsed,
	}, nil
}

// rankByVector scores all comparable memories against the query
// embedding, keeps those at or above the threshold, and returns the top
// results ordered by similarity.
func (s *Searcher) rankByVector(ctx context.Context, embedding []float32, filter *storage.Filter, limit int) ([]*core.ScoredMemory, error) {
	candidates, err := s.memories.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	scored := make([]core.ScoredMemory, 0, len(candidates))
	for _, memory := range candidates {
		sim, err := similarity.Cosine(embedding, memory.Embedding)
		if err != nil {
			// Comparable-model filtering should make this impossible;
			// a mismatch signals corrupted data.
			return nil, err
		}
		sim = similarity.Round(sim)
		if sim < s.threshold {
			continue
		}
		scored = append(scored, core.ScoredMemory{
			Memory:      memory,
			Similarity:  sim,
			VectorScore: sim,
		})
	}

	similarity.Rank(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]*core.ScoredMemory, len(scored))
	for i := range scored {
		results[i] = &scored[i]
	}
	return results, nil
}

func (s *Searcher) keywordSearch(ctx context.Context, parsed core.ParsedQuery, limit int, monitor Monitor) (*Result, error) {
	terms := parsed.SemanticTerms
	if terms == "" {
		terms = parsed.OriginalQuery
	}

	scored, err := s.memories.SearchText(ctx, terms, lexicalFilter(parsed), limit)
	if err != nil {
		return nil, err
	}
	monitor.AfterKeywordSearch(idsOf(scored))
	monitor.Finish(scored)

	return &Result{
		Memories:   scored,
		SearchType: "keyword",
		Method:     MethodKeyword,
		Parsed:     parsed,
	}, nil
}

// SimilarTo finds memories most similar to an existing one, compared
// within the same embedding model and excluding the source itself. There
// is no similarity threshold; the nearest limit memories are returned
// however distant.
func (s *Searcher) SimilarTo(ctx context.Context, id core.ID, limit int) ([]*core.ScoredMemory, error) {
	if limit <= 0 {
		limit = 10
	}

	source, err := s.memories.GetMemory(ctx, id)
	if err != nil {
		return nil, err
	}
	if !source.HasEmbedding() {
		return nil, ErrNoEmbedding
	}

	embedded := true
	filter := &storage.Filter{
		HasEmbedding: &embedded,
		Model:        source.EmbeddingModel,
		ExcludeID:    id,
	}
	candidates, err := s.memories.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	scored := make([]core.ScoredMemory, 0, len(candidates))
	for _, memory := range candidates {
		sim, err := similarity.Cosine(source.Embedding, memory.Embedding)
		if err != nil {
			return nil, err
		}
		scored = append(scored, core.ScoredMemory{
			Memory:     memory,
			Similarity: similarity.Round(sim),
		})
	}

	similarity.Rank(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]*core.ScoredMemory, len(scored))
	for i := range scored {
		results[i] = &scored[i]
	}
	return results, nil
}

func idsOf(scored []*core.ScoredMemory) []core.ID {
	ids := make([]core.ID, len(scored))
	for i, sm := range scored {
		ids[i] = sm.Memory.Id
	}
	return ids
}
