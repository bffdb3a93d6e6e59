package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb-query/kb-query-go/pkg/models"
)

func mustPattern(t *testing.T, id, template string) *models.Pattern {
	t.Helper()
	p, err := models.NewPattern(models.Pattern{
		ID:             id,
		Kind:           models.PatternKindProperty,
		Template:       template,
		SPARQLTemplate: "SELECT ?item WHERE { ?item ?p ?v }",
		Examples:       []string{"example"},
		Confidence:     0.85,
	})
	require.NoError(t, err)
	return p
}

func testGrammar(t *testing.T) *models.Grammar {
	t.Helper()
	patterns := []*models.Pattern{
		mustPattern(t, "pattern_000", "meetings with {person}"),
		mustPattern(t, "pattern_001", "{person}'s meetings"),
		mustPattern(t, "pattern_002", "documents tagged {tag}"),
	}
	g, err := models.NewGrammar(patterns, "abcdef123456", nil)
	require.NoError(t, err)
	return g
}

func TestExactMatch(t *testing.T) {
	m := NewMatcher(0, nil)
	g := testGrammar(t)

	matches := m.FindMatches("meetings with John Smith", g)
	require.Len(t, matches, 1)

	match := matches[0]
	assert.Equal(t, "pattern_000", match.Pattern.ID)
	assert.Equal(t, 1.0, match.Confidence)
	assert.Equal(t, models.MatchExact, match.MatchType)
	assert.Equal(t, map[string]string{"person": "John Smith"}, match.Entities)
}

func TestPossessiveMatch(t *testing.T) {
	m := NewMatcher(0, nil)
	g := testGrammar(t)

	t.Run("with apostrophe", func(t *testing.T) {
		matches := m.FindMatches("Sarah's meetings", g)
		require.NotEmpty(t, matches)
		assert.Equal(t, "pattern_001", matches[0].Pattern.ID)
		assert.Equal(t, "Sarah", matches[0].Entities["person"])
	})

	t.Run("apostrophe optional", func(t *testing.T) {
		matches := m.FindMatches("Sarahs meetings", g)
		require.NotEmpty(t, matches)
		assert.Equal(t, "pattern_001", matches[0].Pattern.ID)
		assert.Equal(t, models.MatchExact, matches[0].MatchType)
	})
}

func TestCasePreservation(t *testing.T) {
	m := NewMatcher(0, nil)
	g := testGrammar(t)

	matches := m.FindMatches("MEETINGS WITH john smith", g)
	require.NotEmpty(t, matches)
	assert.Equal(t, models.MatchExact, matches[0].MatchType)
	assert.Equal(t, "john smith", matches[0].Entities["person"])
}

func TestFuzzyMatch(t *testing.T) {
	m := NewMatcher(0, nil)
	g := testGrammar(t)

	matches := m.FindMatches("meetigns with John Smith", g)
	require.NotEmpty(t, matches)

	match := matches[0]
	assert.Equal(t, models.MatchFuzzy, match.MatchType)
	assert.Greater(t, match.Confidence, 0.7)
	assert.Less(t, match.Confidence, 1.0)
	assert.Equal(t, "John Smith", match.Entities["person"])
}

func TestMultiWordEntity(t *testing.T) {
	m := NewMatcher(0, nil)
	g := testGrammar(t)

	matches := m.FindMatches("meetings with Jean Claude van Damme", g)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Jean Claude van Damme", matches[0].Entities["person"])
}

func TestNoMatch(t *testing.T) {
	m := NewMatcher(0, nil)
	g := testGrammar(t)

	matches := m.FindMatches("quantum flux capacitor readings", g)
	assert.Empty(t, matches)

	// the suggestion path must not crash on zero-overlap input
	suggestions := m.SuggestCorrections("quantum flux capacitor readings", g)
	assert.LessOrEqual(t, len(suggestions), 5)
}

func TestMatchOrdering(t *testing.T) {
	m := NewMatcher(0, nil)
	g := testGrammar(t)

	matches := m.FindMatches("meetings with Sarah", g)
	require.NotEmpty(t, matches)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence, matches[i].Confidence)
	}
	assert.Equal(t, 1.0, matches[0].Confidence)
}

func TestExtractEntities(t *testing.T) {
	m := NewMatcher(0, nil)
	pattern := mustPattern(t, "p", "documents tagged {tag}")

	entities := m.ExtractEntities("documents tagged urgent", pattern)
	assert.Equal(t, map[string]string{"tag": "urgent"}, entities)
}

func TestSuggestCorrections(t *testing.T) {
	m := NewMatcher(0, nil)

	patterns := []*models.Pattern{
		{
			ID:             "pattern_000",
			Kind:           models.PatternKindProperty,
			Template:       "meetings with {person}",
			SPARQLTemplate: "SELECT ?m WHERE { ?m ?p ?v }",
			Examples:       []string{"meetings with John Smith", "meetings with Sarah", "meetings with me"},
			Confidence:     0.85,
			Keywords:       []string{"meetings"},
		},
		{
			ID:             "pattern_001",
			Kind:           models.PatternKindProperty,
			Template:       "documents tagged {tag}",
			SPARQLTemplate: "SELECT ?d WHERE { ?d ?p ?v }",
			Examples:       []string{"documents tagged project"},
			Confidence:     0.80,
			Keywords:       []string{"documents", "tagged"},
		},
	}
	g, err := models.NewGrammar(patterns, "abcdef123456", nil)
	require.NoError(t, err)

	t.Run("keyword overlap yields examples", func(t *testing.T) {
		suggestions := m.SuggestCorrections("meetings sometime", g)
		assert.Contains(t, suggestions, "meetings with John Smith")
		assert.Contains(t, suggestions, "meetings with Sarah")
	})

	t.Run("deduplicated and capped", func(t *testing.T) {
		suggestions := m.SuggestCorrections("meetings documents tagged", g)
		seen := make(map[string]bool)
		for _, s := range suggestions {
			assert.False(t, seen[s], "duplicate suggestion %q", s)
			seen[s] = true
		}
		assert.LessOrEqual(t, len(suggestions), 5)
	})
}

func TestTemplateToRegex(t *testing.T) {
	re, err := templateToRegex("meetings with {person}")
	require.NoError(t, err)

	assert.True(t, re.MatchString("meetings with Bob"))
	assert.True(t, re.MatchString("Meetings With Bob"))
	assert.False(t, re.MatchString("meetings with"))
	assert.False(t, re.MatchString("my meetings with Bob today maybe not"))

	groups := re.FindStringSubmatch("meetings with Ana Maria")
	require.Len(t, groups, 2)
	assert.Equal(t, "Ana Maria", groups[1])
}
