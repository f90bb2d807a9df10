package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

func newTestRepo(t *testing.T) storage.MemoryRepository {
	t.Helper()
	repo, backend, err := NewInMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func sampleMemory(url, title, text string) *core.Memory {
	return &core.Memory{
		Title: title,
		Text:  text,
		URL:   url,
		Tags:  []string{"testing"},
	}
}

func TestMemoryBasics(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	memory := sampleMemory("https://github.com/golang/go", "Go repository", "The Go programming language source")

	added, err := repo.AddMemories(ctx, memory)
	if err != nil {
		t.Fatalf("Failed to add memory: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("Expected 1 memory, got %d", len(added))
	}
	if added[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added[0].Domain != "github.com" {
		t.Fatalf("Expected derived domain github.com, got %q", added[0].Domain)
	}
	if added[0].ContentHash == 0 {
		t.Fatal("Expected content hash to be set")
	}
	if added[0].CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be set")
	}

	retrieved, err := repo.GetMemory(ctx, added[0].Id)
	if err != nil {
		t.Fatalf("Failed to get memory: %v", err)
	}
	if retrieved.Title != "Go repository" {
		t.Fatalf("Expected 'Go repository', got %q", retrieved.Title)
	}

	if _, err := repo.GetMemory(ctx, 99999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateContentRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := sampleMemory("https://example.com/a", "First", "identical text")
	if _, err := repo.AddMemories(ctx, first); err != nil {
		t.Fatalf("Failed to add memory: %v", err)
	}

	dup := sampleMemory("https://example.com/a", "Second", "identical text")
	if _, err := repo.AddMemories(ctx, dup); !errors.Is(err, storage.ErrDuplicateContent) {
		t.Fatalf("Expected ErrDuplicateContent, got %v", err)
	}

	found, err := repo.FindByContentHash(ctx, first.ContentHash)
	if err != nil {
		t.Fatalf("Failed to find by content hash: %v", err)
	}
	if found.Id != first.Id {
		t.Fatalf("Expected memory %d, got %d", first.Id, found.Id)
	}
}

func TestUpdateMemoryReindexes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	memory := sampleMemory("https://example.com/post", "Original", "original text")
	if _, err := repo.AddMemories(ctx, memory); err != nil {
		t.Fatalf("Failed to add memory: %v", err)
	}
	oldHash := memory.ContentHash

	memory.Text = "edited text"
	if _, err := repo.UpdateMemories(ctx, memory); err != nil {
		t.Fatalf("Failed to update memory: %v", err)
	}
	if memory.ContentHash == oldHash {
		t.Fatal("Expected content hash to change after edit")
	}

	if _, err := repo.FindByContentHash(ctx, oldHash); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected old hash to be unindexed, got %v", err)
	}
	found, err := repo.FindByContentHash(ctx, memory.ContentHash)
	if err != nil {
		t.Fatalf("Failed to find by new hash: %v", err)
	}
	if found.Text != "edited text" {
		t.Fatalf("Expected edited text, got %q", found.Text)
	}

	missing := sampleMemory("https://example.com/x", "X", "x")
	missing.Id = 4242
	if _, err := repo.UpdateMemories(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMemory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	memory := sampleMemory("https://example.com/del", "Delete me", "soon gone")
	if _, err := repo.AddMemories(ctx, memory); err != nil {
		t.Fatalf("Failed to add memory: %v", err)
	}

	if err := repo.DeleteMemories(ctx, memory.Id); err != nil {
		t.Fatalf("Failed to delete memory: %v", err)
	}
	if _, err := repo.GetMemory(ctx, memory.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
	if _, err := repo.FindByContentHash(ctx, memory.ContentHash); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected hash index cleaned up, got %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected 0 memories, got %d", count)
	}
}

func TestDateRangeAndRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m := sampleMemory("https://example.com/p", "Post", "text")
		m.URL = m.URL + string(rune('a'+i))
		m.Text = m.Text + string(rune('a'+i))
		m.CreatedAt = base.AddDate(0, 0, i)
		if _, err := repo.AddMemories(ctx, m); err != nil {
			t.Fatalf("Failed to add memory %d: %v", i, err)
		}
	}

	inRange, err := repo.GetMemoriesByDateRange(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 4))
	if err != nil {
		t.Fatalf("Failed date range query: %v", err)
	}
	if len(inRange) != 3 {
		t.Fatalf("Expected 3 memories in range, got %d", len(inRange))
	}
	for i := 1; i < len(inRange); i++ {
		if inRange[i].CreatedAt.Before(inRange[i-1].CreatedAt) {
			t.Fatal("Expected ascending order from date index")
		}
	}

	recent, err := repo.GetRecentMemories(ctx, 2)
	if err != nil {
		t.Fatalf("Failed recent query: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent memories, got %d", len(recent))
	}
	if !recent[0].CreatedAt.Equal(base.AddDate(0, 0, 4)) {
		t.Fatalf("Expected newest first, got %v", recent[0].CreatedAt)
	}
}

func TestFindAllFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	gh := sampleMemory("https://github.com/a/b", "React hooks", "hooks guide")
	gh.Tags = []string{"react", "javascript"}
	so := sampleMemory("https://stackoverflow.com/q/1", "Go channels", "channel tricks")
	so.Tags = []string{"go"}
	so.Embedding = make([]float32, core.LocalDimensions)
	so.Embedding[0] = 1
	so.EmbeddingModel = core.EmbeddingModelLocal

	if _, err := repo.AddMemories(ctx, gh, so); err != nil {
		t.Fatalf("Failed to add memories: %v", err)
	}

	byDomain, err := repo.FindAll(ctx, &storage.Filter{Domain: "github.com"})
	if err != nil {
		t.Fatalf("Failed domain filter: %v", err)
	}
	if len(byDomain) != 1 || byDomain[0].Id != gh.Id {
		t.Fatalf("Expected only the github memory, got %d results", len(byDomain))
	}

	byTag, err := repo.FindAll(ctx, &storage.Filter{Tags: []string{"javascript", "python"}})
	if err != nil {
		t.Fatalf("Failed tag filter: %v", err)
	}
	if len(byTag) != 1 || byTag[0].Id != gh.Id {
		t.Fatalf("Expected tag overlap match, got %d results", len(byTag))
	}

	embedded := true
	withVec, err := repo.FindAll(ctx, &storage.Filter{HasEmbedding: &embedded})
	if err != nil {
		t.Fatalf("Failed embedding filter: %v", err)
	}
	if len(withVec) != 1 || withVec[0].Id != so.Id {
		t.Fatalf("Expected only the embedded memory, got %d results", len(withVec))
	}

	excluded, err := repo.FindAll(ctx, &storage.Filter{ExcludeID: gh.Id})
	if err != nil {
		t.Fatalf("Failed exclude filter: %v", err)
	}
	if len(excluded) != 1 || excluded[0].Id != so.Id {
		t.Fatalf("Expected exclusion of %d, got %d results", gh.Id, len(excluded))
	}
}

func TestSearchText(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	titleHit := sampleMemory("https://example.com/1", "Docker networking deep dive", "container basics")
	textHit := sampleMemory("https://example.com/2", "Notes", "we discussed docker briefly")
	miss := sampleMemory("https://example.com/3", "Gardening", "tomato plants")

	if _, err := repo.AddMemories(ctx, titleHit, textHit, miss); err != nil {
		t.Fatalf("Failed to add memories: %v", err)
	}

	results, err := repo.SearchText(ctx, "docker", nil, 10)
	if err != nil {
		t.Fatalf("Failed text search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(results))
	}
	if results[0].Memory.Id != titleHit.Id {
		t.Fatal("Expected title match ranked above text match")
	}
	if results[0].KeywordScore <= results[1].KeywordScore {
		t.Fatal("Expected descending keyword scores")
	}

	none, err := repo.SearchText(ctx, "the a an", nil, 10)
	if err != nil {
		t.Fatalf("Failed stop-word search: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Expected no results for stop-word-only query, got %d", len(none))
	}
}

func TestSearchTextMatchesContext(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	contextHit := sampleMemory("https://example.com/1", "Field notes", "raptor migration counts")
	contextHit.Context = "saved while researching kestrels"
	textHit := sampleMemory("https://example.com/2", "More notes", "kestrels hover before striking")

	if _, err := repo.AddMemories(ctx, contextHit, textHit); err != nil {
		t.Fatalf("Failed to add memories: %v", err)
	}

	results, err := repo.SearchText(ctx, "kestrels", nil, 10)
	if err != nil {
		t.Fatalf("Failed text search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(results))
	}
	if results[0].Memory.Id != textHit.Id {
		t.Fatal("Expected text match ranked above context match")
	}
	if results[1].Memory.Id != contextHit.Id {
		t.Fatal("Expected context-only match to be found")
	}
	if results[1].KeywordScore >= results[0].KeywordScore {
		t.Fatal("Expected context hit to score below text hit")
	}
}

func TestUpdateEmbeddingAndStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := sampleMemory("https://example.com/a", "A", "alpha")
	b := sampleMemory("https://example.com/b", "B", "beta")
	if _, err := repo.AddMemories(ctx, a, b); err != nil {
		t.Fatalf("Failed to add memories: %v", err)
	}

	vec := make([]float32, core.LocalDimensions)
	vec[0] = 1
	if err := repo.UpdateEmbedding(ctx, a.Id, vec, core.EmbeddingModelLocal); err != nil {
		t.Fatalf("Failed to update embedding: %v", err)
	}
	if err := repo.UpdateEmbedding(ctx, 8888, vec, core.EmbeddingModelLocal); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	stored, err := repo.GetMemory(ctx, a.Id)
	if err != nil {
		t.Fatalf("Failed to get memory: %v", err)
	}
	if !stored.HasEmbedding() || stored.EmbeddingModel != core.EmbeddingModelLocal {
		t.Fatal("Expected embedding and model tag stored")
	}
	if stored.EmbeddingGeneratedAt.IsZero() {
		t.Fatal("Expected EmbeddingGeneratedAt stamped")
	}

	stats, err := repo.EmbeddingStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Total != 2 || stats.WithEmbedding != 1 || stats.WithoutEmbedding != 1 {
		t.Fatalf("Unexpected stats: %+v", stats)
	}
	if stats.ByModel[core.EmbeddingModelLocal] != 1 {
		t.Fatalf("Expected 1 local embedding, got %d", stats.ByModel[core.EmbeddingModelLocal])
	}
	if stats.CoveragePercent != 50 {
		t.Fatalf("Expected 50%% coverage, got %v", stats.CoveragePercent)
	}
}
