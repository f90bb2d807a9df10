package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeRanges(t *testing.T) {
	// fixedNow is Friday, March 15 2024.

	t.Run("last month", func(t *testing.T) {
		r := lastMonthRange(fixedNow)
		assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), r.Start)
		// 2024 is a leap year.
		assert.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC), r.End)
	})

	t.Run("last month across year boundary", func(t *testing.T) {
		jan := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)
		r := lastMonthRange(jan)
		assert.Equal(t, time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, time.Date(2023, time.December, 31, 23, 59, 59, 0, time.UTC), r.End)
	})

	t.Run("this month", func(t *testing.T) {
		r := thisMonthRange(fixedNow)
		assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC), r.End)
	})

	t.Run("this week starts sunday", func(t *testing.T) {
		r := thisWeekRange(fixedNow)
		assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, time.Date(2024, time.March, 15, 23, 59, 59, 999_000_000, time.UTC), r.End)
	})

	t.Run("last week is previous sunday through saturday", func(t *testing.T) {
		r := lastWeekRange(fixedNow)
		assert.Equal(t, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, time.Date(2024, time.March, 9, 23, 59, 59, 999_000_000, time.UTC), r.End)
	})

	t.Run("last week when today is sunday", func(t *testing.T) {
		sunday := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
		r := lastWeekRange(sunday)
		assert.Equal(t, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, time.Date(2024, time.March, 9, 23, 59, 59, 999_000_000, time.UTC), r.End)
	})

	t.Run("last 7 days", func(t *testing.T) {
		r := last7DaysRange(fixedNow)
		assert.Equal(t, time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, fixedNow, r.End)
	})

	t.Run("last 30 days", func(t *testing.T) {
		r := last30DaysRange(fixedNow)
		assert.Equal(t, time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, fixedNow, r.End)
	})

	t.Run("yesterday", func(t *testing.T) {
		r := yesterdayRange(fixedNow)
		assert.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, time.Date(2024, time.March, 14, 23, 59, 59, 999_000_000, time.UTC), r.End)
	})

	t.Run("today", func(t *testing.T) {
		r := todayRange(fixedNow)
		assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, time.Date(2024, time.March, 15, 23, 59, 59, 999_000_000, time.UTC), r.End)
	})
}

func TestNaturalDateExtractorPhrases(t *testing.T) {
	ex := NewNaturalDateExtractor()

	t.Run("relative phrase resolves to base time", func(t *testing.T) {
		matches := ex.Extract("react articles from last week", fixedNow)
		require.Len(t, matches, 1)
		assert.Equal(t, "last week", matches[0].Text)
		assert.Equal(t, 20, matches[0].Index)
		assert.Equal(t, fixedNow, matches[0].Time)
	})

	t.Run("phrase matching is case insensitive", func(t *testing.T) {
		matches := ex.Extract("Notes From Yesterday", fixedNow)
		require.Len(t, matches, 1)
		assert.Equal(t, "Yesterday", matches[0].Text)
	})

	t.Run("no dates", func(t *testing.T) {
		assert.Empty(t, ex.Extract("rust ownership explained", fixedNow))
	})
}

func TestPhraseTableCoversAllBuilders(t *testing.T) {
	// Every builder phrase must also appear in the strip list, or the
	// cleaned query would retain date words.
	strip := make(map[string]bool, len(allDatePhrases))
	for _, p := range allDatePhrases {
		strip[p] = true
	}
	for _, rel := range relativePhrases {
		for _, p := range rel.phrases {
			assert.True(t, strip[p], "phrase %q missing from strip list", p)
		}
	}
}
