package sparql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb-query/kb-query-go/pkg/models"
)

const sampleTemplate = `SELECT ?meeting ?person_name
WHERE {
  ?meeting a <http://example.org/kb#Meeting> .
  ?meeting <http://example.org/kb#hasAttendee> ?person .
  ?person <http://xmlns.com/foaf/0.1/name> ?person_name .
  FILTER (lcase(str(?person_name)) = lcase("{person}"))
}`

func sampleMatch(entities map[string]string) *models.MatchResult {
	return &models.MatchResult{
		Pattern: &models.Pattern{
			ID:             "pattern_000",
			Kind:           models.PatternKindProperty,
			Template:       "meetings with {person}",
			SPARQLTemplate: sampleTemplate,
			Examples:       []string{"meetings with John Smith"},
			Confidence:     0.85,
		},
		Confidence: 1.0,
		Entities:   entities,
		MatchType:  models.MatchExact,
	}
}

func TestBuildQuery(t *testing.T) {
	b := NewBuilder(map[string]string{"kb": "http://example.org/kb#"}, nil)

	query, err := b.BuildQuery(sampleMatch(map[string]string{"person": "John Smith"}), nil, "")
	require.NoError(t, err)

	assert.Contains(t, query.QueryText, `lcase("John Smith")`)
	assert.Contains(t, query.QueryText, "PREFIX kb: <http://example.org/kb#>")
	assert.NotContains(t, query.QueryText, "{person}")
	assert.Equal(t, []string{"meeting", "person_name"}, query.Variables)
	assert.NoError(t, Validate(query.QueryText))
}

func TestBuildQueryEscaping(t *testing.T) {
	b := NewBuilder(nil, nil)

	query, err := b.BuildQuery(sampleMatch(map[string]string{"person": `O"Brien \ co`}), nil, "")
	require.NoError(t, err)
	assert.Contains(t, query.QueryText, `O\"Brien \\ co`)
}

func TestBuildQueryUnresolvedPlaceholder(t *testing.T) {
	b := NewBuilder(nil, nil)

	_, err := b.BuildQuery(sampleMatch(map[string]string{}), nil, "")
	require.Error(t, err)

	var se *SPARQLError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, "{person}")
}

func TestBuildQuerySingleGraph(t *testing.T) {
	b := NewBuilder(nil, nil)

	query, err := b.BuildQuery(sampleMatch(map[string]string{"person": "Sarah"}), nil, "http://example.org/graphs/main")
	require.NoError(t, err)

	assert.Contains(t, query.QueryText, "GRAPH <http://example.org/graphs/main> {")
	assert.NotContains(t, query.QueryText, "UNION")
	assert.NoError(t, Validate(query.QueryText))
}

func TestBuildQueryMultipleGraphs(t *testing.T) {
	b := NewBuilder(nil, nil)
	graphs := []string{"http://example.org/graphs/a", "http://example.org/graphs/b"}

	query, err := b.BuildQuery(sampleMatch(map[string]string{"person": "Sarah"}), graphs, "")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(query.QueryText, "UNION"))
	assert.Equal(t, 2, strings.Count(query.QueryText, "GRAPH <"))
	for _, g := range graphs {
		assert.Contains(t, query.QueryText, "GRAPH <"+g+"> {")
	}
	// each GRAPH block must reproduce the triple body
	assert.Equal(t, 2, strings.Count(query.QueryText, "?meeting a <http://example.org/kb#Meeting>"))
	assert.NoError(t, Validate(query.QueryText))
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `plain`},
		{`say "hi"`, `say \"hi\"`},
		{"line\nbreak", `line\nbreak`},
		{`back\slash`, `back\\slash`},
		{"tab\there", `tab\there`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeString(tt.in))
	}
}

func TestExtractVariables(t *testing.T) {
	t.Run("explicit select", func(t *testing.T) {
		vars := ExtractVariables("SELECT ?a ?b WHERE { ?a ?p ?c . }")
		assert.Equal(t, []string{"a", "b"}, vars)
	})

	t.Run("select star collects all first-seen", func(t *testing.T) {
		vars := ExtractVariables("SELECT * WHERE { ?x ?p ?y . ?y ?q ?x . }")
		assert.Equal(t, []string{"x", "p", "y", "q"}, vars)
	})

	t.Run("duplicates removed", func(t *testing.T) {
		vars := ExtractVariables("SELECT ?a ?a ?b WHERE { }")
		assert.Equal(t, []string{"a", "b"}, vars)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"valid select", "SELECT ?x WHERE { ?x a ?y }", false},
		{"valid ask", "ASK { ?x a ?y }", false},
		{"no query form", "FROM somewhere", true},
		{"select without where", "SELECT ?x { ?x a ?y }", true},
		{"unbalanced braces", "SELECT ?x WHERE { ?x a ?y", true},
		{"unbalanced parens", "SELECT ?x WHERE { FILTER (true }", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptimize(t *testing.T) {
	query := `SELECT ?m
WHERE {
  FILTER (lcase(str(?v)) = "x")
  ?m a <http://example.org/kb#Meeting> .
  ?m <http://example.org/kb#hasTag> ?v .
}`
	optimized := Optimize(query)

	filterIdx := strings.Index(optimized, "FILTER")
	lastTriple := strings.LastIndex(optimized, "?m <http://example.org/kb#hasTag> ?v .")
	assert.Greater(t, filterIdx, lastTriple, "FILTER must follow triple patterns")
	assert.NoError(t, Validate(optimized))

	t.Run("no-op without filters", func(t *testing.T) {
		q := "SELECT ?x WHERE {\n  ?x a ?y .\n}"
		assert.Equal(t, q, Optimize(q))
	})
}

func TestAddLimit(t *testing.T) {
	query := "SELECT ?x WHERE {\n  ?x a ?y .\n}"

	limited := AddLimit(query, 10)
	assert.True(t, strings.HasSuffix(limited, "LIMIT 10"))

	relimited := AddLimit(limited, 20)
	assert.True(t, strings.HasSuffix(relimited, "LIMIT 20"))
	assert.Equal(t, 1, strings.Count(relimited, "LIMIT"))
}

func TestEstimateComplexity(t *testing.T) {
	simple := "SELECT ?x WHERE {\n  ?x a ?y .\n}"
	assert.Equal(t, 1, EstimateComplexity(simple))

	withFilter := simple + "\nFILTER (true)"
	assert.Equal(t, 2, EstimateComplexity(withFilter))

	withOptional := "SELECT ?x WHERE {\n  ?x a ?y .\n  OPTIONAL { ?x ?p ?z }\n}"
	assert.Equal(t, 2, EstimateComplexity(withOptional))

	heavy := `SELECT (COUNT(?x) AS ?n) WHERE {
  ?a ?p ?b .
  ?b ?p ?c .
  ?c ?p ?d .
  ?d ?p ?e .
  ?e ?p ?f .
  ?f ?p ?g .
  OPTIONAL { ?x ?p ?z }
  FILTER (?n > 0)
}`
	assert.Equal(t, 5, EstimateComplexity(heavy))
}
