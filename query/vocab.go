package query

import "regexp"

// Content type keywords. Scanned in table order; the first keyword found
// as a substring of the lowercased query fixes the type.
type typeEntry struct {
	kind     string
	keywords []string
}

var typeTable = []typeEntry{
	{"article", []string{"article", "articles", "post", "posts", "blog", "blogs"}},
	{"image", []string{"image", "images", "picture", "pictures", "photo", "photos", "screenshot", "screenshots"}},
	{"code", []string{"code", "snippet", "snippets", "function", "class", "script"}},
	{"quote", []string{"quote", "quotes", "saying", "sayings"}},
	{"tutorial", []string{"tutorial", "tutorials", "guide", "guides", "how-to", "howto"}},
	{"note", []string{"note", "notes", "memo", "memos"}},
	{"video", []string{"video", "videos", "youtube"}},
	{"link", []string{"link", "links", "bookmark", "bookmarks"}},
}

// Known source domains. Scanned in list order; first match wins.
type domainEntry struct {
	pattern *regexp.Regexp
	domain  string
}

var domainTable = []domainEntry{
	{regexp.MustCompile(`(?i)github\.com`), "github.com"},
	{regexp.MustCompile(`(?i)stackoverflow\.com`), "stackoverflow.com"},
	{regexp.MustCompile(`(?i)medium\.com`), "medium.com"},
	{regexp.MustCompile(`(?i)dev\.to`), "dev.to"},
	{regexp.MustCompile(`(?i)youtube\.com`), "youtube.com"},
	{regexp.MustCompile(`(?i)twitter\.com`), "twitter.com"},
	{regexp.MustCompile(`(?i)reddit\.com`), "reddit.com"},
}

// Bare-name fallbacks checked when no full domain pattern matched.
var bareDomainTable = []struct {
	name   string
	domain string
}{
	{"github", "github.com"},
	{"stackoverflow", "stackoverflow.com"},
	{"medium", "medium.com"},
}

// Technology and topic vocabulary for tag extraction. Every term appearing
// as a substring of the lowercased query is kept, in vocabulary order.
var techTerms = []string{
	"javascript", "python", "java", "c++", "rust", "go", "typescript",
	"react", "vue", "angular", "node", "express", "django", "flask",
	"docker", "kubernetes", "aws", "azure", "gcp",
	"machine learning", "ai", "deep learning", "neural network",
	"database", "sql", "mongodb", "redis", "postgresql",
}

// Filler words dropped from semantic terms.
var fillerWords = map[string]bool{
	"show": true, "me": true, "find": true, "get": true, "the": true,
	"a": true, "an": true, "i": true, "saved": true, "from": true,
	"that": true, "about": true, "on": true, "my": true, "all": true,
	"any": true, "some": true,
}
