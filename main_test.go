package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb-query/kb-query-go/pkg/config"
)

const testTurtle = `
@prefix kb: <http://example.org/kb#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

kb:Meeting a owl:Class ;
    rdfs:label "Meeting" .

kb:Person a owl:Class ;
    rdfs:label "Person" .

kb:hasAttendee a owl:ObjectProperty ;
    rdfs:domain kb:Meeting ;
    rdfs:range kb:Person .
`

// createTestServer creates a server backed by a temporary ontology with no
// external endpoint configured
func createTestServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.ttl")
	require.NoError(t, os.WriteFile(path, []byte(testTurtle), 0o644))

	cfg := config.Default()
	cfg.Ontology.Path = path
	cfg.Cache.Enabled = false

	server, err := NewServer(cfg)
	require.NoError(t, err, "Failed to create server")
	t.Cleanup(func() { _ = server.grammarCache.Close() })
	return server
}

func TestParseRunFlags(t *testing.T) {
	flags := parseRunFlags([]string{"--format", "csv", "--sparql", "--config", "/tmp/c.yaml"})
	assert.Equal(t, "csv", flags.format)
	assert.True(t, flags.showSPARQL)
	assert.Equal(t, "/tmp/c.yaml", flags.configPath)

	flags = parseRunFlags(nil)
	assert.Empty(t, flags.format)
	assert.False(t, flags.showSPARQL)
}
