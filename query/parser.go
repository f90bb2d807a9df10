// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package query

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/poiesic/recall/core"
)

// Parser turns natural-language queries into structured filters plus the
// residual semantic search terms. A zero-configured parser uses the wall
// clock and the rule-based date extractor.
type Parser struct {
	now   func() time.Time
	dates DateExtractor
}

// Option configures a Parser.
type Option func(*Parser) error

// WithClock overrides the time source used to resolve relative dates.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) error {
		if now == nil {
			return ErrNilClock
		}
		p.now = now
		return nil
	}
}

// WithDateExtractor overrides the date expression extractor.
func WithDateExtractor(ex DateExtractor) Option {
	return func(p *Parser) error {
		if ex == nil {
			return ErrNilExtractor
		}
		p.dates = ex
		return nil
	}
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{
		now:   time.Now,
		dates: NewNaturalDateExtractor(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Parse extracts date, type, domain, and tag filters from the query and
// strips the matched expressions to leave the semantic search terms.
// Detection always runs against the full original query; stripping never
// affects what a later stage can see. A blank query yields a zero result.
func (p *Parser) Parse(q string) core.ParsedQuery {
	if strings.TrimSpace(q) == "" {
		return core.ParsedQuery{OriginalQuery: q}
	}

	lower := strings.ToLower(q)
	matches := p.dates.Extract(q, p.now())

	date := resolveDateRange(matches, lower, p.now())
	typ := extractType(lower)
	domain := extractDomain(lower)
	tags := extractTags(lower)

	return core.ParsedQuery{
		SemanticTerms: semanticTerms(q, matches, date != nil, typ, domain),
		Date:          date,
		Type:          typ,
		Domain:        domain,
		Tags:          tags,
		OriginalQuery: q,
	}
}

// resolveDateRange maps extracted date expressions onto a concrete range.
// Two expressions form an explicit span. A single expression resolves
// through the relative-phrase table first, otherwise bounds its day.
func resolveDateRange(matches []DateMatch, lower string, now time.Time) *core.DateRange {
	if len(matches) == 0 {
		return nil
	}
	if len(matches) >= 2 {
		start, end := matches[0].Time, matches[1].Time
		if end.Before(start) {
			start, end = end, start
		}
		return &core.DateRange{Start: startOfDay(start), End: endOfDay(end)}
	}
	for _, rel := range relativePhrases {
		for _, phrase := range rel.phrases {
			if strings.Contains(lower, phrase) {
				r := rel.build(now)
				return &r
			}
		}
	}
	r := dayRange(matches[0].Time)
	return &r
}

func extractType(lower string) string {
	for _, entry := range typeTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.kind
			}
		}
	}
	return ""
}

func extractDomain(lower string) string {
	for _, entry := range domainTable {
		if entry.pattern.MatchString(lower) {
			return entry.domain
		}
	}
	for _, entry := range bareDomainTable {
		if strings.Contains(lower, entry.name) {
			return entry.domain
		}
	}
	return ""
}

func extractTags(lower string) []string {
	var tags []string
	for _, term := range techTerms {
		if strings.Contains(lower, term) {
			tags = append(tags, term)
		}
	}
	return tags
}

// semanticTerms strips recognized date, type, and domain expressions and
// filler words from the query. If stripping consumes everything, the
// original query is returned so the caller always has something to embed.
func semanticTerms(q string, matches []DateMatch, hasDate bool, typ, domain string) string {
	clean := q

	if hasDate {
		for _, m := range matches {
			clean = strings.Replace(clean, m.Text, "", 1)
		}
		for _, re := range datePhrasePatterns {
			clean = re.ReplaceAllString(clean, "")
		}
	}

	if typ != "" {
		for _, re := range typeStripPatterns[typ] {
			clean = re.ReplaceAllString(clean, "")
		}
	}

	if domain != "" {
		bare, _, _ := strings.Cut(domain, ".")
		clean = wordPattern(bare).ReplaceAllString(clean, "")
	}

	tokens := tokenize(strings.ToLower(clean))
	kept := tokens[:0]
	for _, tok := range tokens {
		if !fillerWords[tok] {
			kept = append(kept, tok)
		}
	}

	terms := strings.Join(kept, " ")
	if terms == "" {
		return q
	}
	return terms
}

// tokenize splits on any run of non-alphanumeric characters.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
}

var (
	datePhrasePatterns []*regexp.Regexp
	typeStripPatterns  map[string][]*regexp.Regexp
)

func init() {
	for _, phrase := range allDatePhrases {
		datePhrasePatterns = append(datePhrasePatterns,
			regexp.MustCompile(`(?i)`+regexp.QuoteMeta(phrase)))
	}
	typeStripPatterns = make(map[string][]*regexp.Regexp, len(typeTable))
	for _, entry := range typeTable {
		pats := make([]*regexp.Regexp, 0, len(entry.keywords))
		for _, kw := range entry.keywords {
			pats = append(pats, wordPattern(kw))
		}
		typeStripPatterns[entry.kind] = pats
	}
}
