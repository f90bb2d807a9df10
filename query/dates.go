package query

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/poiesic/recall/core"
)

// DateMatch is a date expression located in query text: the matched span
// and the instant it resolved to.
type DateMatch struct {
	Index int
	Text  string
	Time  time.Time
}

// DateExtractor locates natural-language date expressions in text.
// Implementations return matches in document order.
type DateExtractor interface {
	Extract(text string, base time.Time) []DateMatch
}

// NaturalDateExtractor recognizes the fixed relative-date phrases and
// falls back to rule-based parsing for everything else (explicit dates,
// weekday names, deictic expressions).
type NaturalDateExtractor struct {
	w *when.Parser
}

// NewNaturalDateExtractor creates an extractor with the English and
// common rule sets.
func NewNaturalDateExtractor() *NaturalDateExtractor {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &NaturalDateExtractor{w: w}
}

var _ DateExtractor = (*NaturalDateExtractor)(nil)

// Extract returns the date expressions found in text. A relative phrase
// from the fixed table matches first and resolves to the base instant;
// the caller turns it into a concrete range. Otherwise the rule parser
// is applied repeatedly to pick up multiple expressions.
func (e *NaturalDateExtractor) Extract(text string, base time.Time) []DateMatch {
	lower := strings.ToLower(text)
	for _, phrase := range allDatePhrases {
		if idx := strings.Index(lower, phrase); idx >= 0 {
			return []DateMatch{{
				Index: idx,
				Text:  text[idx : idx+len(phrase)],
				Time:  base,
			}}
		}
	}

	var matches []DateMatch
	offset := 0
	for range 3 {
		result, err := e.w.Parse(text[offset:], base)
		if err != nil || result == nil {
			break
		}
		matches = append(matches, DateMatch{
			Index: offset + result.Index,
			Text:  result.Text,
			Time:  result.Time,
		})
		offset += result.Index + len(result.Text)
		if offset >= len(text) {
			break
		}
	}
	return matches
}

// Relative-date phrases, paired with their range builders. Evaluated in
// this priority order against the lowercased query; first match wins.
type relativePhrase struct {
	phrases []string
	build   func(now time.Time) core.DateRange
}

var relativePhrases = []relativePhrase{
	{[]string{"last month", "past month"}, lastMonthRange},
	{[]string{"this month", "current month"}, thisMonthRange},
	{[]string{"this week", "current week"}, thisWeekRange},
	{[]string{"last week", "past week"}, lastWeekRange},
	{[]string{"last 7 days", "past 7 days"}, last7DaysRange},
	{[]string{"last 30 days", "past 30 days"}, last30DaysRange},
	{[]string{"yesterday"}, yesterdayRange},
	{[]string{"today"}, todayRange},
}

// allDatePhrases is the complete phrase list, used both by the extractor
// and when stripping date expressions out of the semantic terms.
var allDatePhrases = []string{
	"last month", "this month", "past month", "current month",
	"last week", "this week", "past week", "current week",
	"yesterday", "today", "last 7 days", "past 7 days",
	"last 30 days", "past 30 days",
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}

func dayRange(t time.Time) core.DateRange {
	return core.DateRange{Start: startOfDay(t), End: endOfDay(t)}
}

func lastMonthRange(now time.Time) core.DateRange {
	return core.DateRange{
		Start: time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location()),
		// Day zero normalizes to the last day of the previous month.
		End: time.Date(now.Year(), now.Month(), 0, 23, 59, 59, 0, now.Location()),
	}
}

func thisMonthRange(now time.Time) core.DateRange {
	return core.DateRange{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		End:   time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, 0, now.Location()),
	}
}

// Weeks start on Sunday (weekday 0), matching the source data's calendar
// conventions.

func thisWeekRange(now time.Time) core.DateRange {
	return core.DateRange{
		Start: startOfDay(now.AddDate(0, 0, -int(now.Weekday()))),
		End:   endOfDay(now),
	}
}

func lastWeekRange(now time.Time) core.DateRange {
	end := endOfDay(now.AddDate(0, 0, -int(now.Weekday())-1))
	return core.DateRange{
		Start: startOfDay(end.AddDate(0, 0, -6)),
		End:   end,
	}
}

func last7DaysRange(now time.Time) core.DateRange {
	return core.DateRange{Start: startOfDay(now.AddDate(0, 0, -7)), End: now}
}

func last30DaysRange(now time.Time) core.DateRange {
	return core.DateRange{Start: startOfDay(now.AddDate(0, 0, -30)), End: now}
}

func yesterdayRange(now time.Time) core.DateRange {
	return dayRange(now.AddDate(0, 0, -1))
}

func todayRange(now time.Time) core.DateRange {
	return dayRange(now)
}
