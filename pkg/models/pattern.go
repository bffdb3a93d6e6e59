package models

import (
	"regexp"
	"strings"
	"time"
)

// PatternKind distinguishes property-anchored patterns from class-existence
// patterns. Class-existence patterns have no placeholder (their SPARQL carries
// an always-true filter instead), so the placeholder invariant is waived for
// them.
type PatternKind string

const (
	PatternKindProperty PatternKind = "property"
	PatternKindClass    PatternKind = "class"
)

var placeholderRe = regexp.MustCompile(`\{([^}]+)\}`)

// stop words excluded from pattern keywords
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "a": {}, "an": {},
}

// Pattern pairs a natural-language template with a SPARQL template derived
// from one ontology element. Immutable once validated.
type Pattern struct {
	ID             string            `json:"id"`
	Kind           PatternKind       `json:"kind"`
	Template       string            `json:"template"`
	SPARQLTemplate string            `json:"sparql_template"`
	EntityTypes    map[string]string `json:"entity_types,omitempty"` // placeholder name -> expected range URI
	Examples       []string          `json:"examples"`
	Confidence     float64           `json:"confidence"`
	DomainClass    string            `json:"domain_class"`
	Property       string            `json:"property,omitempty"` // empty for class-existence patterns
	Keywords       []string          `json:"keywords,omitempty"`
}

// NewPattern builds a pattern, derives its keyword list, and validates it.
func NewPattern(p Pattern) (*Pattern, error) {
	p.Keywords = extractKeywords(p.Template)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the pattern invariants.
func (p *Pattern) Validate() error {
	if p.ID == "" {
		return newValidationError("id", "pattern ID cannot be empty")
	}
	if p.Kind != PatternKindClass && !placeholderRe.MatchString(p.Template) {
		return newValidationError("template", "pattern %s has no entity placeholders", p.ID)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return newValidationError("confidence", "pattern %s confidence must be between 0.0 and 1.0", p.ID)
	}
	if len(p.Examples) == 0 {
		return newValidationError("examples", "pattern %s must have at least one example", p.ID)
	}
	if strings.TrimSpace(p.SPARQLTemplate) == "" {
		return newValidationError("sparql_template", "pattern %s must have a SPARQL template", p.ID)
	}
	return nil
}

// Placeholders returns the placeholder names in template order.
func (p *Pattern) Placeholders() []string {
	matches := placeholderRe.FindAllStringSubmatch(p.Template, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// extractKeywords returns the significant lowercase words of a template:
// placeholders removed, stop words and words of length <= 2 dropped.
func extractKeywords(template string) []string {
	text := placeholderRe.ReplaceAllString(template, "")
	var keywords []string
	for _, word := range strings.Fields(text) {
		word = strings.ToLower(strings.TrimSpace(word))
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

// Grammar is the complete pattern set for one ontology version.
// Superseded wholesale when the ontology file changes; never mutated.
type Grammar struct {
	Patterns     []*Pattern        `json:"patterns"`
	OntologyHash string            `json:"ontology_hash"`
	Namespaces   map[string]string `json:"namespaces"`
	CreatedAt    time.Time         `json:"created_at"`
}

// NewGrammar builds and validates a grammar.
func NewGrammar(patterns []*Pattern, hash string, namespaces map[string]string) (*Grammar, error) {
	g := &Grammar{
		Patterns:     patterns,
		OntologyHash: hash,
		Namespaces:   namespaces,
		CreatedAt:    time.Now(),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the grammar invariants.
func (g *Grammar) Validate() error {
	if len(g.Patterns) == 0 {
		return newValidationError("patterns", "grammar must contain at least one pattern")
	}
	if g.OntologyHash == "" {
		return newValidationError("ontology_hash", "grammar must have an ontology hash")
	}
	seen := make(map[string]struct{}, len(g.Patterns))
	for _, p := range g.Patterns {
		if _, dup := seen[p.ID]; dup {
			return newValidationError("patterns", "grammar contains duplicate pattern ID %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// PatternByID returns the pattern with the given id, or nil.
func (g *Grammar) PatternByID(id string) *Pattern {
	for _, p := range g.Patterns {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PatternsByKeyword returns patterns whose keyword list contains the word.
func (g *Grammar) PatternsByKeyword(keyword string) []*Pattern {
	keyword = strings.ToLower(keyword)
	var out []*Pattern
	for _, p := range g.Patterns {
		for _, k := range p.Keywords {
			if k == keyword {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
