package sparql

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb-query/kb-query-go/pkg/models"
)

var testNamespaces = map[string]string{
	"kb":      "http://example.org/kb#",
	"dcterms": "http://purl.org/dc/terms/",
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"xsd":     "http://www.w3.org/2001/XMLSchema#",
}

func TestStructuredBuild(t *testing.T) {
	b := NewStructuredBuilder(0)

	query, err := b.Build(&models.ParsedQuery{
		EntityType: "Meeting",
		Filters:    map[string]string{"hasAttendee": "John Smith"},
	}, testNamespaces)
	require.NoError(t, err)

	assert.Contains(t, query, "SELECT DISTINCT ?item ?title ?created")
	assert.Contains(t, query, "?item a kb:Meeting .")
	assert.Contains(t, query, "?item kb:hasAttendee kb:person/John_Smith .")
	assert.Contains(t, query, "OPTIONAL {")
	assert.Contains(t, query, "ORDER BY DESC(?created)")
	assert.Contains(t, query, "LIMIT 100")
	assert.NoError(t, Validate(query))
}

func TestStructuredBuildPersonAliases(t *testing.T) {
	b := NewStructuredBuilder(0)

	query, err := b.Build(&models.ParsedQuery{
		EntityType: "Todo",
		Filters:    map[string]string{"assignedTo": "me"},
	}, testNamespaces)
	require.NoError(t, err)

	assert.Contains(t, query, "?item kb:assignedTo kb:person/Me .")
	assert.Contains(t, query, "SELECT DISTINCT ?item ?description ?due ?completed")
}

func TestStructuredBuildLiteralFilter(t *testing.T) {
	b := NewStructuredBuilder(0)

	query, err := b.Build(&models.ParsedQuery{
		EntityType: "Document",
		Filters:    map[string]string{"hasTag": "project"},
	}, testNamespaces)
	require.NoError(t, err)

	assert.Contains(t, query, `?item kb:hasTag "project" .`)
}

func TestStructuredBuildTemporal(t *testing.T) {
	b := NewStructuredBuilder(0)

	t.Run("single date", func(t *testing.T) {
		query, err := b.Build(&models.ParsedQuery{
			EntityType: "Meeting",
			Temporal:   map[string]string{"date": "2024-01-15"},
		}, testNamespaces)
		require.NoError(t, err)
		assert.Contains(t, query, `FILTER(DATE(?created) = "2024-01-15"^^xsd:date)`)
	})

	t.Run("date range", func(t *testing.T) {
		query, err := b.Build(&models.ParsedQuery{
			EntityType: "Meeting",
			Temporal:   map[string]string{"start": "2024-01-01", "end": "2024-01-07"},
		}, testNamespaces)
		require.NoError(t, err)
		assert.Contains(t, query, `?created >= "2024-01-01"^^xsd:date`)
		assert.Contains(t, query, `?created <= "2024-01-07"^^xsd:date`)
	})
}

func TestStructuredBuildOrderingAndLimit(t *testing.T) {
	b := NewStructuredBuilder(25)

	query, err := b.Build(&models.ParsedQuery{
		EntityType: "Document",
		OrderBy:    "title",
		OrderDir:   "ASC",
		Limit:      5,
	}, testNamespaces)
	require.NoError(t, err)

	assert.Contains(t, query, "ORDER BY ASC(?title)")
	assert.True(t, strings.HasSuffix(query, "LIMIT 5"))
}

func TestParseTemporal(t *testing.T) {
	// a Wednesday
	now := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)

	t.Run("today", func(t *testing.T) {
		got := ParseTemporal("meetings today", now)
		assert.Equal(t, map[string]string{"date": "2024-01-17"}, got)
	})

	t.Run("yesterday", func(t *testing.T) {
		got := ParseTemporal("notes from yesterday", now)
		assert.Equal(t, map[string]string{"date": "2024-01-16"}, got)
	})

	t.Run("this week", func(t *testing.T) {
		got := ParseTemporal("meetings this week", now)
		assert.Equal(t, map[string]string{"start": "2024-01-15", "end": "2024-01-21"}, got)
	})

	t.Run("last week", func(t *testing.T) {
		got := ParseTemporal("meetings last week", now)
		assert.Equal(t, map[string]string{"start": "2024-01-08", "end": "2024-01-14"}, got)
	})

	t.Run("last month", func(t *testing.T) {
		got := ParseTemporal("documents last month", now)
		assert.Equal(t, map[string]string{"start": "2023-12-01", "end": "2023-12-31"}, got)
	})

	t.Run("explicit date", func(t *testing.T) {
		got := ParseTemporal("meetings on 2024-03-05", now)
		assert.Equal(t, map[string]string{"date": "2024-03-05"}, got)
	})

	t.Run("none", func(t *testing.T) {
		assert.Nil(t, ParseTemporal("all meetings", now))
	})
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"top 5 meetings", 5},
		{"first 10 documents", 10},
		{"show 3 results", 3},
		{"all meetings", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLimit(tt.query), "query %q", tt.query)
	}
}

func TestParseOrdering(t *testing.T) {
	by, dir := ParseOrdering("latest meetings")
	assert.Equal(t, "created", by)
	assert.Equal(t, "DESC", dir)

	by, dir = ParseOrdering("oldest notes")
	assert.Equal(t, "created", by)
	assert.Equal(t, "ASC", dir)

	by, dir = ParseOrdering("documents alphabetical")
	assert.Equal(t, "title", by)
	assert.Equal(t, "ASC", dir)

	by, dir = ParseOrdering("plain query")
	assert.Empty(t, by)
	assert.Empty(t, dir)
}
