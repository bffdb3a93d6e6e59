package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kb-query/kb-query-go/pkg/models"
	"github.com/kb-query/kb-query-go/utils"
)

const foafNameURI = "http://xmlns.com/foaf/0.1/name"

// GeneratorConfig holds the confidence priors assigned to generated patterns.
// These are heuristic constants, kept configurable rather than hard-coded.
type GeneratorConfig struct {
	ObjectConfidence   float64
	DatatypeConfidence float64
	ClassConfidence    float64
}

// DefaultGeneratorConfig returns the standard confidence priors.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		ObjectConfidence:   0.85,
		DatatypeConfidence: 0.80,
		ClassConfidence:    0.80,
	}
}

// Generator derives query patterns from ontology structure using
// naming-convention heuristics. Output is deterministic: properties and
// classes are processed in sorted URI order so pattern ids are stable
// across runs on the same ontology.
type Generator struct {
	cfg    GeneratorConfig
	logger *utils.Logger
}

// NewGenerator creates a generator with default confidence priors.
func NewGenerator(logger *utils.Logger) *Generator {
	return NewGeneratorWithConfig(DefaultGeneratorConfig(), logger)
}

// NewGeneratorWithConfig creates a generator with explicit confidence priors.
func NewGeneratorWithConfig(cfg GeneratorConfig, logger *utils.Logger) *Generator {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Generator{cfg: cfg, logger: logger.WithComponent("grammar")}
}

// Generate produces the full pattern list for a parsed ontology:
// property-anchored patterns for every property with a domain, plus one
// class-existence pattern per non-abstract class.
func (g *Generator) Generate(ont *models.ParsedOntology) ([]*models.Pattern, error) {
	var patterns []*models.Pattern
	nextID := 0

	assignID := func() string {
		id := fmt.Sprintf("pattern_%03d", nextID)
		nextID++
		return id
	}

	for _, uri := range sortedKeys(ont.Properties) {
		prop := ont.Properties[uri]
		if prop.Domain == "" || prop.LocalName == "" {
			continue
		}
		if _, ok := ont.Classes[prop.Domain]; !ok {
			continue
		}
		propPatterns, err := g.propertyPatterns(prop, assignID)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, propPatterns...)
	}

	for _, uri := range sortedKeys(ont.Classes) {
		cls := ont.Classes[uri]
		if strings.HasPrefix(cls.LocalName, "_") {
			continue
		}
		p, err := g.classPattern(cls, assignID())
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	g.logger.Info("generated query patterns",
		utils.F("patterns", len(patterns)),
		utils.F("classes", len(ont.Classes)),
		utils.F("properties", len(ont.Properties)))
	return patterns, nil
}

// propertyPatterns emits one pattern per inferred connector phrase, plus a
// possessive variant for person-like ranges.
func (g *Generator) propertyPatterns(prop *models.OntologyProperty, assignID func() string) ([]*models.Pattern, error) {
	domainName := strings.ToLower(models.LocalName(prop.Domain))
	domainPlural := Pluralize(domainName)
	placeholder := placeholderName(prop)
	confidence := g.cfg.DatatypeConfidence
	if prop.PropertyType == models.PropertyTypeObject {
		confidence = g.cfg.ObjectConfidence
	}
	sparql := g.sparqlTemplate(prop, domainName, placeholder)

	var patterns []*models.Pattern
	for _, connector := range inferConnectors(prop.LocalName) {
		template := fmt.Sprintf("%s %s {%s}", domainPlural, connector, placeholder)
		p, err := models.NewPattern(models.Pattern{
			ID:             assignID(),
			Kind:           models.PatternKindProperty,
			Template:       template,
			SPARQLTemplate: sparql,
			EntityTypes:    map[string]string{placeholder: prop.Range},
			Examples:       propertyExamples(domainPlural, connector, prop.Range, false),
			Confidence:     confidence,
			DomainClass:    prop.Domain,
			Property:       prop.URI,
		})
		if err != nil {
			return nil, fmt.Errorf("generating pattern for %s: %w", prop.URI, err)
		}
		patterns = append(patterns, p)
	}

	if models.IsPersonRange(prop.Range) {
		template := fmt.Sprintf("{%s}'s %s", placeholder, domainPlural)
		p, err := models.NewPattern(models.Pattern{
			ID:             assignID(),
			Kind:           models.PatternKindProperty,
			Template:       template,
			SPARQLTemplate: sparql,
			EntityTypes:    map[string]string{placeholder: prop.Range},
			Examples:       propertyExamples(domainPlural, "", prop.Range, true),
			Confidence:     confidence,
			DomainClass:    prop.Domain,
			Property:       prop.URI,
		})
		if err != nil {
			return nil, fmt.Errorf("generating possessive pattern for %s: %w", prop.URI, err)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// classPattern emits the bare class-existence pattern ("meetings",
// "all meetings"). It has no placeholder; the SPARQL carries an always-true
// filter so the builder path stays uniform.
func (g *Generator) classPattern(cls *models.OntologyClass, id string) (*models.Pattern, error) {
	plural := Pluralize(strings.ToLower(cls.LocalName))
	itemVar := strings.ToLower(cls.LocalName)
	sparql := fmt.Sprintf(`SELECT ?%s
WHERE {
  ?%s a <%s> .
  FILTER (true)
}`, itemVar, itemVar, cls.URI)
	p, err := models.NewPattern(models.Pattern{
		ID:             id,
		Kind:           models.PatternKindClass,
		Template:       plural,
		SPARQLTemplate: sparql,
		Examples:       []string{plural, "all " + plural, "show " + plural},
		Confidence:     g.cfg.ClassConfidence,
		DomainClass:    cls.URI,
	})
	if err != nil {
		return nil, fmt.Errorf("generating class pattern for %s: %w", cls.URI, err)
	}
	return p, nil
}

// sparqlTemplate renders the SPARQL for a property pattern. Object
// properties resolve the entity through its foaf:name; datatype properties
// filter the literal value directly. Matching is case-insensitive on both
// sides.
func (g *Generator) sparqlTemplate(prop *models.OntologyProperty, domainVar, placeholder string) string {
	rangeVar := placeholder
	if rangeVar == domainVar {
		rangeVar += "2"
	}
	if prop.PropertyType == models.PropertyTypeObject {
		return fmt.Sprintf(`SELECT ?%s ?%s_name
WHERE {
  ?%s a <%s> .
  ?%s <%s> ?%s .
  ?%s <%s> ?%s_name .
  FILTER (lcase(str(?%s_name)) = lcase("{%s}"))
}`, domainVar, rangeVar,
			domainVar, prop.Domain,
			domainVar, prop.URI, rangeVar,
			rangeVar, foafNameURI, rangeVar,
			rangeVar, placeholder)
	}
	return fmt.Sprintf(`SELECT ?%s
WHERE {
  ?%s a <%s> .
  ?%s <%s> ?%s .
  FILTER (lcase(str(?%s)) = lcase("{%s}"))
}`, domainVar,
		domainVar, prop.Domain,
		domainVar, prop.URI, rangeVar,
		rangeVar, placeholder)
}

// placeholderName picks the placeholder for a property pattern: the range
// class name for object properties ("person"), the property base name with
// its has/is prefix stripped for datatype properties ("tag" from hasTag).
func placeholderName(prop *models.OntologyProperty) string {
	if prop.PropertyType == models.PropertyTypeObject && prop.Range != "" {
		return strings.ToLower(models.LocalName(prop.Range))
	}
	name := strings.ToLower(prop.LocalName)
	switch {
	case strings.HasPrefix(name, "has") && len(name) > 3:
		return name[3:]
	case strings.HasPrefix(name, "is") && len(name) > 2:
		return name[2:]
	default:
		if name == "" {
			return "value"
		}
		return name
	}
}

// inferConnectors derives natural-language connector phrases from a property
// local name. Special predicates are consulted first, then camelCase
// decomposition against the preposition table, then recognized suffixes.
// Falls back to the bare lower-cased name when no rule fires.
func inferConnectors(localName string) []string {
	var connectors []string

	if special, ok := specialPredicateConnectors[localName]; ok {
		connectors = append(connectors, special...)
	}

	words := decomposeCamelCase(localName)
	if len(words) > 0 {
		first := strings.ToLower(words[0])
		if base, ok := prepositionConnectors[first]; ok {
			if len(words) > 1 {
				noun := strings.ToLower(strings.Join(words[1:], " "))
				for _, bp := range base {
					connectors = append(connectors, bp+" "+noun)
				}
			} else {
				connectors = append(connectors, base...)
			}
		}

		switch {
		case strings.HasSuffix(localName, "By"):
			verb := strings.ToLower(localName[:len(localName)-2])
			connectors = append(connectors, verb+" by", "is "+verb+" by")
		case strings.HasSuffix(localName, "To"):
			verb := strings.ToLower(localName[:len(localName)-2])
			connectors = append(connectors, verb+" to", "is "+verb+" to")
		case strings.HasSuffix(localName, "In"):
			verb := strings.ToLower(localName[:len(localName)-2])
			connectors = append(connectors, verb+" in", "appears in", "found in")
		}
	}

	if len(connectors) == 0 {
		connectors = append(connectors, strings.ToLower(strings.Join(words, " ")))
	}
	return dedupe(connectors)
}

// propertyExamples builds example utterances with representative values by
// range type.
func propertyExamples(domainPlural, connector, rangeURI string, possessive bool) []string {
	var values []string
	switch {
	case models.IsPersonRange(rangeURI):
		values = []string{"John Smith", "Sarah Chen", "me"}
	case models.IsDateRange(rangeURI):
		values = []string{"today", "last week", "2024-01-01"}
	default:
		values = []string{"example", "project"}
	}

	examples := make([]string, 0, len(values))
	for _, v := range values {
		if possessive {
			examples = append(examples, fmt.Sprintf("%s's %s", v, domainPlural))
		} else {
			examples = append(examples, fmt.Sprintf("%s %s %s", domainPlural, connector, v))
		}
	}
	return examples
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func sortedKeys[M map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
