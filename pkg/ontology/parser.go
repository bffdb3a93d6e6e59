// Package ontology parses OWL ontologies in Turtle format into the class and
// property records consumed by the pattern generator. It covers the subset of
// Turtle that schema declarations use: @prefix directives, rdf:type (and the
// "a" shorthand), predicate-object lists with ";" and ",", IRIs, prefixed
// names, and quoted literals.
package ontology

import (
	"fmt"
	"os"
	"strings"

	"github.com/kb-query/kb-query-go/pkg/models"
)

// Well-known vocabulary IRIs recognized during parsing.
const (
	iriRDFType          = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	iriOWLClass         = "http://www.w3.org/2002/07/owl#Class"
	iriOWLObjectProp    = "http://www.w3.org/2002/07/owl#ObjectProperty"
	iriOWLDatatypeProp  = "http://www.w3.org/2002/07/owl#DatatypeProperty"
	iriRDFSClass        = "http://www.w3.org/2000/01/rdf-schema#Class"
	iriRDFSDomain       = "http://www.w3.org/2000/01/rdf-schema#domain"
	iriRDFSRange        = "http://www.w3.org/2000/01/rdf-schema#range"
	iriRDFSLabel        = "http://www.w3.org/2000/01/rdf-schema#label"
	iriRDFSComment      = "http://www.w3.org/2000/01/rdf-schema#comment"
	iriRDFSSubClassOf   = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
)

// ParseError reports an unparsable ontology. Fatal to orchestrator
// initialization; never retried.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("ontology parse failed: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("ontology parse failed: %s", e.Message)
}

// Parser parses Turtle ontology files.
type Parser struct{}

// NewParser creates a Turtle ontology parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses an ontology file.
func (p *Parser) ParseFile(path string) (*models.ParsedOntology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error()}
	}
	parsed, err := p.Parse(string(data))
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return parsed, nil
}

// Parse parses Turtle ontology content.
func (p *Parser) Parse(content string) (*models.ParsedOntology, error) {
	tokens, err := tokenize(content)
	if err != nil {
		return nil, err
	}

	result := &models.ParsedOntology{
		Classes:    make(map[string]*models.OntologyClass),
		Properties: make(map[string]*models.OntologyProperty),
		Namespaces: make(map[string]string),
	}

	statements, err := splitStatements(tokens, result.Namespaces)
	if err != nil {
		return nil, err
	}

	for _, st := range statements {
		if err := p.applyStatement(st, result); err != nil {
			return nil, err
		}
	}

	// Link properties to their domain classes.
	for uri, prop := range result.Properties {
		if prop.Domain == "" {
			continue
		}
		if cls, ok := result.Classes[prop.Domain]; ok {
			cls.Properties = append(cls.Properties, uri)
		}
	}

	return result, nil
}

// statement is one subject with its expanded predicate-object pairs.
type statement struct {
	subject string
	pairs   [][2]string // predicate IRI, object (IRI or literal value)
}

func (p *Parser) applyStatement(st statement, result *models.ParsedOntology) error {
	// First pass over the pairs to find the rdf:type of the subject.
	var isClass, isObjectProp, isDatatypeProp bool
	for _, pair := range st.pairs {
		if pair[0] != iriRDFType {
			continue
		}
		switch pair[1] {
		case iriOWLClass, iriRDFSClass:
			isClass = true
		case iriOWLObjectProp:
			isObjectProp = true
		case iriOWLDatatypeProp:
			isDatatypeProp = true
		}
	}

	switch {
	case isClass:
		cls := result.Classes[st.subject]
		if cls == nil {
			cls = &models.OntologyClass{
				URI:       st.subject,
				LocalName: models.LocalName(st.subject),
			}
			result.Classes[st.subject] = cls
		}
		for _, pair := range st.pairs {
			switch pair[0] {
			case iriRDFSLabel:
				cls.Label = pair[1]
			case iriRDFSComment:
				cls.Comment = pair[1]
			case iriRDFSSubClassOf:
				cls.ParentURIs = append(cls.ParentURIs, pair[1])
			}
		}
		if cls.Label == "" {
			cls.Label = cls.LocalName
		}

	case isObjectProp, isDatatypeProp:
		prop := result.Properties[st.subject]
		if prop == nil {
			prop = &models.OntologyProperty{
				URI:       st.subject,
				LocalName: models.LocalName(st.subject),
			}
			result.Properties[st.subject] = prop
		}
		if isObjectProp {
			prop.PropertyType = models.PropertyTypeObject
		} else {
			prop.PropertyType = models.PropertyTypeDatatype
		}
		for _, pair := range st.pairs {
			switch pair[0] {
			case iriRDFSDomain:
				prop.Domain = pair[1]
			case iriRDFSRange:
				prop.Range = pair[1]
			case iriRDFSLabel:
				prop.Label = pair[1]
			case iriRDFSComment:
				prop.Comment = pair[1]
			}
		}
	}
	return nil
}

// splitStatements consumes the token stream, recording @prefix directives and
// grouping remaining tokens into expanded statements.
func splitStatements(tokens []token, namespaces map[string]string) ([]statement, error) {
	var statements []statement
	i := 0
	for i < len(tokens) {
		tok := tokens[i]

		// @prefix pre: <iri> .
		if tok.kind == tokKeyword && (tok.text == "@prefix" || strings.EqualFold(tok.text, "PREFIX")) {
			if i+2 >= len(tokens) {
				return nil, &ParseError{Message: "truncated prefix directive"}
			}
			name := strings.TrimSuffix(tokens[i+1].text, ":")
			iri := tokens[i+2]
			if iri.kind != tokIRI {
				return nil, &ParseError{Message: fmt.Sprintf("prefix %q is not bound to an IRI", name)}
			}
			if name != "" {
				namespaces[name] = iri.text
			}
			i += 3
			if i < len(tokens) && tokens[i].kind == tokPunct && tokens[i].text == "." {
				i++
			}
			continue
		}

		// Statement: subject predicate object (";" predicate object)* "."
		end := i
		depth := 0
		for end < len(tokens) {
			t := tokens[end]
			if t.kind == tokPunct {
				switch t.text {
				case "[", "(":
					depth++
				case "]", ")":
					depth--
				}
				if t.text == "." && depth == 0 {
					break
				}
			}
			end++
		}
		if end == i {
			i++
			continue
		}

		st, err := parseStatement(tokens[i:end], namespaces)
		if err != nil {
			return nil, err
		}
		if st != nil {
			statements = append(statements, *st)
		}
		i = end + 1
	}
	return statements, nil
}

func parseStatement(tokens []token, namespaces map[string]string) (*statement, error) {
	if len(tokens) < 3 {
		return nil, nil // blank-node shorthand or stray punctuation; not schema content
	}

	subject, ok := resolveTerm(tokens[0], namespaces)
	if !ok {
		return nil, nil
	}
	st := &statement{subject: subject}

	i := 1
	for i < len(tokens) {
		if tokens[i].kind == tokPunct && tokens[i].text == ";" {
			i++
			continue
		}
		if i+1 >= len(tokens) {
			break
		}
		pred, ok := resolveTerm(tokens[i], namespaces)
		if !ok {
			// Skip anonymous or unsupported constructs up to the next ";".
			for i < len(tokens) && !(tokens[i].kind == tokPunct && tokens[i].text == ";") {
				i++
			}
			continue
		}
		i++
		// Object list separated by ",".
		for i < len(tokens) {
			obj, ok := resolveTerm(tokens[i], namespaces)
			if ok {
				st.pairs = append(st.pairs, [2]string{pred, obj})
			}
			i++
			if i < len(tokens) && tokens[i].kind == tokPunct && tokens[i].text == "," {
				i++
				continue
			}
			break
		}
	}
	return st, nil
}

// resolveTerm maps a token to a full IRI or literal value.
func resolveTerm(t token, namespaces map[string]string) (string, bool) {
	switch t.kind {
	case tokIRI:
		return t.text, true
	case tokLiteral:
		return t.text, true
	case tokKeyword:
		if t.text == "a" {
			return iriRDFType, true
		}
		// Prefixed name
		if idx := strings.Index(t.text, ":"); idx != -1 {
			prefix, local := t.text[:idx], t.text[idx+1:]
			if ns, ok := namespaces[prefix]; ok {
				return ns + local, true
			}
			return t.text, true
		}
		return "", false
	default:
		return "", false
	}
}
