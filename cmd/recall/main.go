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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/backfill"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/settings"
)

func main() {
	app := &cli.App{
		Name:  "recall",
		Usage: "Semantic search over saved web snippets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the memory database directory",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the settings file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Save a memory",
				ArgsUsage: "[text]",
				Action:    addCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Title of the memory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Source URL the text was captured from",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag to attach (repeatable)",
					},
					&cli.StringFlag{
						Name:  "context",
						Usage: "Surrounding page text",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search saved memories with a natural-language query",
				ArgsUsage: "query...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "method",
						Aliases: []string{"m"},
						Usage:   "Embedding method (auto, remote, local, keyword)",
						Value:   "auto",
					},
					&cli.BoolFlag{
						Name:  "hybrid",
						Usage: "Fuse vector and keyword scores",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				},
			},
			{
				Name:      "similar",
				Usage:     "Find memories similar to an existing one",
				ArgsUsage: "id",
				Action:    similarCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				},
			},
			{
				Name:   "recent",
				Usage:  "List the most recently saved memories",
				Action: recentCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				},
			},
			{
				Name:   "backfill",
				Usage:  "Generate embeddings for memories saved without one",
				Action: backfillCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "method",
						Aliases: []string{"m"},
						Usage:   "Embedding method (auto, remote, local)",
						Value:   "auto",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Regenerate embeddings for every memory",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show embedding coverage statistics",
				Action: statsCommand,
			},
			{
				Name:      "configure",
				Usage:     "Set or clear the OpenAI API key",
				ArgsUsage: "[api-key]",
				Action:    configureCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Remove the stored API key",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadSettings reads the settings file named by the --config flag, or
// the default location when the flag is absent.
func loadSettings(c *cli.Context) (*settings.Settings, string, error) {
	path := c.String("config")
	if path == "" {
		var err error
		path, err = settings.DefaultPath()
		if err != nil {
			return nil, "", err
		}
	}
	s, err := settings.Load(path)
	if err != nil {
		return nil, "", err
	}
	return s, path, nil
}

// openStore wires up a store from flags and settings. The --db flag
// wins over the settings file, which wins over the default location.
func openStore(c *cli.Context) (*recall.Store, error) {
	s, _, err := loadSettings(c)
	if err != nil {
		return nil, err
	}

	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = s.DatabasePath
	}
	if dbPath == "" {
		dbPath, err = settings.DefaultDatabasePath()
		if err != nil {
			return nil, err
		}
	}

	return recall.Open(dbPath, recall.WithAPIKey(s.OpenAIAPIKey))
}

func addCommand(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("text is required")
	}

	store, err := openStore(c)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	saved, err := store.Save(context.Background(), &core.Memory{
		Title:   c.String("title"),
		Text:    text,
		URL:     c.String("url"),
		Context: c.String("context"),
		Tags:    c.StringSlice("tag"),
	})
	if err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}

	fmt.Printf("saved memory %d: %s\n", saved[0].Id, saved[0].Title)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	method, err := search.ParseMethod(c.String("method"))
	if err != nil {
		return err
	}

	store, err := openStore(c)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	result, err := store.Search(context.Background(), search.Request{
		Query:  query,
		Method: method,
		Hybrid: c.Bool("hybrid"),
		Limit:  c.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "%d results (%s search via %s)\n\n",
		len(result.Memories), result.SearchType, result.Method)
	for _, sm := range result.Memories {
		printScored(sm, result.SearchType == "hybrid")
	}
	return nil
}

func similarCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("memory id is required")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid memory id %q", c.Args().First())
	}

	store, err := openStore(c)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	results, err := store.SimilarTo(context.Background(), core.ID(id), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("similarity search failed: %w", err)
	}

	for _, sm := range results {
		printScored(sm, false)
	}
	return nil
}

func recentCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	memories, err := store.Memories().GetRecentMemories(context.Background(), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list memories: %w", err)
	}

	for _, m := range memories {
		fmt.Printf("[%d] %s  (%s, %s)\n", m.Id, m.Title, m.Domain, m.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func backfillCommand(c *cli.Context) error {
	method, err := search.ParseMethod(c.String("method"))
	if err != nil {
		return err
	}

	store, err := openStore(c)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	report, err := store.Backfill(context.Background(), backfill.Options{
		Method: method,
		Force:  c.Bool("force"),
	})
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	fmt.Printf("backfill complete: %d processed, %d failed of %d (model %s)\n",
		report.Processed, report.Failed, report.Total, report.Model)
	return nil
}

func statsCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Printf("memories:          %d\n", stats.Total)
	fmt.Printf("with embedding:    %d\n", stats.WithEmbedding)
	fmt.Printf("without embedding: %d\n", stats.WithoutEmbedding)
	fmt.Printf("coverage:          %.1f%%\n", stats.CoveragePercent)
	for model, count := range stats.ByModel {
		fmt.Printf("  %s: %d\n", model, count)
	}
	return nil
}

func configureCommand(c *cli.Context) error {
	s, path, err := loadSettings(c)
	if err != nil {
		return err
	}

	if c.Bool("clear") {
		s.OpenAIAPIKey = ""
		if err := s.Save(path); err != nil {
			return err
		}
		fmt.Println("API key cleared")
		return nil
	}

	apiKey := strings.TrimSpace(c.Args().First())
	if apiKey == "" {
		return fmt.Errorf("api-key is required (or pass --clear)")
	}

	store, err := openStore(c)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	// The key is only persisted once the remote backend accepts it.
	if err := store.Configure(context.Background(), apiKey); err != nil {
		return fmt.Errorf("API key rejected: %w", err)
	}

	s.OpenAIAPIKey = apiKey
	if err := s.Save(path); err != nil {
		return err
	}
	fmt.Println("API key verified and saved")
	return nil
}

func printScored(sm *core.ScoredMemory, hybrid bool) {
	m := sm.Memory
	if hybrid {
		fmt.Printf("[%d] %s  (combined %.2f, vector %.2f, keyword %.2f)\n",
			m.Id, m.Title, sm.CombinedScore, sm.VectorScore, sm.KeywordScore)
	} else if sm.Similarity > 0 || sm.KeywordScore == 0 {
		fmt.Printf("[%d] %s  (similarity %.2f)\n", m.Id, m.Title, sm.Similarity)
	} else {
		fmt.Printf("[%d] %s  (keyword %.1f)\n", m.Id, m.Title, sm.KeywordScore)
	}
	if m.URL != "" {
		fmt.Printf("     %s\n", m.URL)
	}
	if len(m.Tags) > 0 {
		fmt.Printf("     tags: %s\n", strings.Join(m.Tags, ", "))
	}
	fmt.Println()
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
