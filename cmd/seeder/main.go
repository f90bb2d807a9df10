package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/core"
)

// Sample snippets a browser extension might have captured. Each entry is
// title|url|tags|text.
var snippets = []string{
	"Understanding goroutine leaks|https://dev.to/gopher/goroutine-leaks|go|A goroutine blocked forever on a channel receive is never collected; always give workers an exit path.",
	"React hooks rules|https://react.dev/reference/rules-of-hooks|react,javascript|Hooks must be called at the top level of a component, never inside loops or conditions.",
	"Postgres index types|https://www.postgresql.org/docs/current/indexes-types.html|postgresql,database|B-tree handles equality and range queries; GIN suits full-text search and jsonb containment.",
	"Docker layer caching|https://docs.docker.com/build/cache/|docker|Order Dockerfile instructions from least to most frequently changing to maximize cache hits.",
	"The cost of context switching|https://medium.com/eng/context-switching|productivity|Every interruption costs around twenty minutes of refocusing time, research on knowledge work suggests.",
	"Kubernetes liveness probes|https://kubernetes.io/docs/tasks/configure-pod-container/configure-liveness-readiness-startup-probes/|kubernetes|A failing liveness probe restarts the container; a failing readiness probe only removes it from endpoints.",
	"Rust ownership in practice|https://doc.rust-lang.org/book/ch04-00-understanding-ownership.html|rust|Each value has a single owner; moves transfer ownership and borrows lend access without taking it.",
	"CSS grid vs flexbox|https://css-tricks.com/css-grid-vs-flexbox/|css|Grid is for two-dimensional layout, flexbox for one-dimensional flow; they compose well together.",
	"Designing idempotent APIs|https://stackoverflow.com/questions/45016234/idempotent-api|api,design|Retried requests must not duplicate side effects; idempotency keys make POST safe to retry.",
	"Vector embeddings explained|https://www.youtube.com/watch?v=embed101|machine learning|Embeddings map text into a vector space where semantic similarity becomes geometric closeness.",
	"SQLite write-ahead logging|https://sqlite.org/wal.html|sql,database|WAL mode lets readers proceed during writes by appending changes to a separate log file.",
	"Python asyncio pitfalls|https://medium.com/python/asyncio-pitfalls|python|Blocking calls inside a coroutine stall the whole event loop; offload them to an executor.",
	"TCP slow start|https://en.wikipedia.org/wiki/TCP_congestion_control|networking|The congestion window doubles every round trip until loss is detected, then backs off.",
	"A quiet place to think|https://example.com/essays/quiet|writing|Deep work needs long uninterrupted blocks; the calendar is the first tool to fix, not the editor.",
	"Terraform state locking|https://developer.hashicorp.com/terraform/language/state/locking|terraform,aws|Remote state backends lock during writes so concurrent applies cannot corrupt state.",
	"Node streams back-pressure|https://nodejs.org/en/learn/modules/backpressuring-in-streams|node,javascript|Respect the return value of write; pausing the source when the sink is full prevents memory bloat.",
	"BadgerDB value log|https://dgraph.io/blog/post/badger/|database,go|Keys live in an LSM tree while large values go to a value log, keeping compactions cheap.",
	"The two generals problem|https://en.wikipedia.org/wiki/Two_Generals%27_Problem|distributed systems|No protocol over an unreliable channel can guarantee agreement; timeouts only bound the uncertainty.",
	"Caching strategies compared|https://dev.to/arch/caching-strategies|redis,design|Cache-aside keeps the cache passive; write-through trades write latency for read consistency.",
	"Why tests should fail first|https://martinfowler.com/bliki/TestDrivenDevelopment.html|testing|A test that has never failed proves nothing; watch it fail before making it pass.",
}

var seedFileName = flag.String("src", "", "file of seed data, one title|url|tags|text line per memory")
var dbPath = flag.String("db", "./recall_db", "database directory")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// parseLine splits a title|url|tags|text line into a memory.
func parseLine(line string) (*core.Memory, error) {
	parts := strings.SplitN(line, "|", 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("malformed seed line %q", line)
	}
	var tags []string
	if parts[2] != "" {
		tags = strings.Split(parts[2], ",")
	}
	return &core.Memory{
		Title: parts[0],
		URL:   parts[1],
		Tags:  tags,
		Text:  parts[3],
	}, nil
}

func main() {
	store, err := recall.Open(*dbPath)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	ctx := context.Background()

	var source iter.Seq[string]
	if *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(snippets)
	}

	count := 0
	for line := range source {
		if strings.TrimSpace(line) == "" {
			continue
		}
		memory, err := parseLine(line)
		if err != nil {
			slog.Error("skipping seed line", "err", err)
			continue
		}
		if _, err := store.Save(ctx, memory); err != nil {
			slog.Error("failed to save memory", "title", memory.Title, "err", err)
			continue
		}
		count++
	}

	slog.Info("seeding complete", "memories", count)
}
