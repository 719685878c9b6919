package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metafilter/internal/filter"
	"metafilter/internal/models"
)

func s(v string) *string { return &v }

func newsSite() *models.Metadata {
	return &models.Metadata{
		URL:         s("https://example.com/news"),
		SiteName:    s("Example.com"),
		Title:       s("Daily Headlines"),
		Description: s("Stories about technology"),
		Keywords:    []string{"news", "ai"},
		Author:      s("Jane Roe"),
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	t.Run("returns empty for empty records and empty query", func(t *testing.T) {
		t.Parallel()

		got := filter.Filter(nil, "")

		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("returns empty for empty records with a query", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, filter.Filter([]*models.Metadata{}, "anything"))
		assert.Empty(t, filter.Filter(nil, "foo, bar"))
	})

	t.Run("matches period-stripped site name", func(t *testing.T) {
		t.Parallel()

		md := newsSite()

		assert.Equal(t, []*models.Metadata{md}, filter.Filter([]*models.Metadata{md}, "example"))
		assert.Empty(t, filter.Filter([]*models.Metadata{md}, "sports"))
	})

	t.Run("matches domain with or without periods", func(t *testing.T) {
		t.Parallel()

		md := &models.Metadata{SiteName: s("example.com")}
		records := []*models.Metadata{md}

		assert.Len(t, filter.Filter(records, "examplecom"), 1)
		assert.Len(t, filter.Filter(records, "example.com"), 1)
		assert.Len(t, filter.Filter(records, "EXAMPLE.COM"), 1)
	})

	t.Run("strips hyphens from the query", func(t *testing.T) {
		t.Parallel()

		md := &models.Metadata{SiteName: s("mysite")}

		assert.Len(t, filter.Filter([]*models.Metadata{md}, "my-site"), 1)
	})

	t.Run("strips periods from the query", func(t *testing.T) {
		t.Parallel()

		md := &models.Metadata{Title: s("nodejs handbook")}

		assert.Len(t, filter.Filter([]*models.Metadata{md}, "node.js"), 1)
	})

	t.Run("matches keyword contained in the query", func(t *testing.T) {
		t.Parallel()

		md := &models.Metadata{Keywords: []string{"ai"}}

		assert.Len(t, filter.Filter([]*models.Metadata{md}, "ai-powered"), 1)
		assert.Len(t, filter.Filter([]*models.Metadata{md}, "ai"), 1)
		assert.Empty(t, filter.Filter([]*models.Metadata{md}, "a"))
	})

	t.Run("does not case fold keywords", func(t *testing.T) {
		t.Parallel()

		md := &models.Metadata{Keywords: []string{"Go"}}

		assert.Empty(t, filter.Filter([]*models.Metadata{md}, "go"))
		assert.Empty(t, filter.Filter([]*models.Metadata{md}, "Go"))
	})

	t.Run("ignores absent fields and empty keywords", func(t *testing.T) {
		t.Parallel()

		md := &models.Metadata{Keywords: []string{}}

		assert.Empty(t, filter.Filter([]*models.Metadata{md, nil}, "anything"))
	})

	t.Run("unions multi-term matches without duplicates", func(t *testing.T) {
		t.Parallel()

		a := &models.Metadata{Title: s("foo and bar")}
		b := &models.Metadata{Title: s("bar only")}

		got := filter.Filter([]*models.Metadata{a, b}, "foo bar")

		assert.Equal(t, []*models.Metadata{a, b}, got)
	})

	t.Run("orders multi-term results by first discovery", func(t *testing.T) {
		t.Parallel()

		a := &models.Metadata{Title: s("alpha")}
		b := &models.Metadata{Title: s("beta")}

		got := filter.Filter([]*models.Metadata{a, b}, "beta,alpha")

		assert.Equal(t, []*models.Metadata{b, a}, got)
	})

	t.Run("deduplicates by identity not by value", func(t *testing.T) {
		t.Parallel()

		a := &models.Metadata{Title: s("same")}
		b := &models.Metadata{Title: s("same")}

		got := filter.Filter([]*models.Metadata{a, b, a}, "same same")

		require.Len(t, got, 2)
		assert.Same(t, a, got[0])
		assert.Same(t, b, got[1])
	})

	t.Run("comma terms keep their inner spaces", func(t *testing.T) {
		t.Parallel()

		phrase := &models.Metadata{Description: s("we love bar baz")}
		split := &models.Metadata{Description: s("baz then bar")}

		got := filter.Filter([]*models.Metadata{phrase, split}, "foo, bar baz")

		assert.Equal(t, []*models.Metadata{phrase}, got)
	})

	t.Run("applies punctuation retry to each term", func(t *testing.T) {
		t.Parallel()

		md := &models.Metadata{SiteName: s("mysite")}

		assert.Len(t, filter.Filter([]*models.Metadata{md}, "unrelated my-site"), 1)
	})

	t.Run("empty query falls through to matching", func(t *testing.T) {
		t.Parallel()

		withTitle := &models.Metadata{Title: s("anything")}
		bare := &models.Metadata{Keywords: []string{"go"}}

		got := filter.Filter([]*models.Metadata{withTitle, bare}, "")

		assert.Equal(t, []*models.Metadata{withTitle}, got)
	})

	t.Run("trailing comma yields an empty term", func(t *testing.T) {
		t.Parallel()

		md := &models.Metadata{Author: s("someone")}

		assert.Len(t, filter.Filter([]*models.Metadata{md}, "nomatch,"), 1)
	})

	t.Run("is deterministic and never fabricates records", func(t *testing.T) {
		t.Parallel()

		records := []*models.Metadata{
			newsSite(),
			{Title: s("Sports Weekly"), Keywords: []string{"sports"}},
			{URL: s("https://blog.my-site.dev"), Author: s("Ann")},
		}

		first := filter.Filter(records, "news, sports")
		second := filter.Filter(records, "news, sports")

		assert.Equal(t, first, second)
		for _, md := range first {
			assert.Contains(t, records, md)
		}
	})

	t.Run("does not modify input records", func(t *testing.T) {
		t.Parallel()

		md := newsSite()
		before := *md
		before.Keywords = append([]string(nil), md.Keywords...)

		_ = filter.Filter([]*models.Metadata{md}, "Example.com ai-news")

		assert.Equal(t, before, *md)
	})
}

func TestTerms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  []string
	}{
		{"foo", []string{"foo"}},
		{"foo bar", []string{"foo", "bar"}},
		{"foo, bar baz", []string{"foo", " bar baz"}},
		{"a,", []string{"a", ""}},
		{"", []string{""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, filter.Terms(tt.query), "query %q", tt.query)
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	md := newsSite()

	assert.True(t, filter.Match(md, "jane"))
	assert.True(t, filter.Match(md, "https://examplecom/news"))
	assert.False(t, filter.Match(md, "Jane"))
	assert.False(t, filter.Match(nil, "jane"))
}
