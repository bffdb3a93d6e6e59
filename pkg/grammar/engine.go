package grammar

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kb-query/kb-query-go/pkg/cache"
	"github.com/kb-query/kb-query-go/pkg/models"
	"github.com/kb-query/kb-query-go/pkg/ontology"
	"github.com/kb-query/kb-query-go/utils"
)

// GrammarError indicates that a grammar could not be loaded or assembled.
// Fatal to orchestrator construction.
type GrammarError struct {
	Path    string
	Message string
	Err     error
}

func (e *GrammarError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("grammar error for %s: %s", e.Path, e.Message)
	}
	return "grammar error: " + e.Message
}

func (e *GrammarError) Unwrap() error {
	return e.Err
}

// Engine loads grammars: parse ontology, generate patterns, or restore a
// previously generated grammar from the cache keyed on the ontology content
// hash.
type Engine struct {
	parser    *ontology.Parser
	generator *Generator
	cache     cache.Cache
	logger    *utils.Logger
}

// NewEngine creates a grammar engine. The cache is optional; pass nil to
// always regenerate.
func NewEngine(c cache.Cache, logger *utils.Logger) *Engine {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Engine{
		parser:    ontology.NewParser(),
		generator: NewGenerator(logger),
		cache:     c,
		logger:    logger.WithComponent("grammar"),
	}
}

// OntologyHash returns the cache-key hash of ontology content: the first 12
// hex characters of its sha256 digest.
func OntologyHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:12]
}

// LoadGrammar loads or generates the grammar for an ontology file. A cached
// grammar for the same content hash is restored verbatim; otherwise the file
// is parsed, patterns are generated, and the result is stored back into the
// cache.
func (e *Engine) LoadGrammar(ontologyPath string) (*models.Grammar, error) {
	raw, err := os.ReadFile(ontologyPath)
	if err != nil {
		return nil, &GrammarError{Path: ontologyPath, Message: "reading ontology file", Err: err}
	}

	hash := OntologyHash(raw)
	cacheKey := "grammar_" + hash

	if e.cache != nil {
		if g := e.fromCache(cacheKey); g != nil {
			e.logger.Info("grammar restored from cache",
				utils.F("hash", hash), utils.F("patterns", len(g.Patterns)))
			return g, nil
		}
	}

	parsed, err := e.parser.Parse(string(raw))
	if err != nil {
		return nil, &GrammarError{Path: ontologyPath, Message: "parsing ontology", Err: err}
	}

	patterns, err := e.generator.Generate(parsed)
	if err != nil {
		return nil, &GrammarError{Path: ontologyPath, Message: "generating patterns", Err: err}
	}

	g, err := models.NewGrammar(patterns, hash, parsed.Namespaces)
	if err != nil {
		return nil, &GrammarError{Path: ontologyPath, Message: "assembling grammar", Err: err}
	}

	if e.cache != nil {
		if data, marshalErr := json.Marshal(g); marshalErr == nil {
			if putErr := e.cache.Put(cacheKey, data); putErr != nil {
				e.logger.Warn("caching grammar failed", utils.F("error", putErr.Error()))
			}
		}
	}

	e.logger.Info("grammar generated",
		utils.F("hash", hash), utils.F("patterns", len(g.Patterns)))
	return g, nil
}

// fromCache restores a grammar from the cache, or returns nil on miss or on
// an unreadable entry. A corrupt entry is not fatal: the grammar is simply
// regenerated.
func (e *Engine) fromCache(key string) *models.Grammar {
	data, ok, err := e.cache.Get(key)
	if err != nil {
		e.logger.Warn("grammar cache read failed", utils.F("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	var g models.Grammar
	if err := json.Unmarshal(data, &g); err != nil {
		e.logger.Warn("discarding corrupt cached grammar", utils.F("key", key))
		return nil
	}
	return &g
}
