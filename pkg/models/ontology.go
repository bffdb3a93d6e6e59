package models

import "strings"

// PropertyType represents the type of an ontology property
type PropertyType string

const (
	PropertyTypeObject   PropertyType = "object"
	PropertyTypeDatatype PropertyType = "datatype"
)

// OntologyClass represents a class (concept) declared in an OWL ontology
type OntologyClass struct {
	URI        string   `json:"uri"`
	LocalName  string   `json:"local_name"`
	Label      string   `json:"label,omitempty"`
	Comment    string   `json:"comment,omitempty"`
	ParentURIs []string `json:"parent_uris,omitempty"`
	Properties []string `json:"properties,omitempty"` // URIs of properties with this class as domain
}

// OntologyProperty represents a property (relationship or attribute) declared
// in an OWL ontology. A property without a domain cannot anchor a query
// pattern and is skipped by the generator.
type OntologyProperty struct {
	URI          string       `json:"uri"`
	LocalName    string       `json:"local_name"`
	PropertyType PropertyType `json:"property_type"`
	Domain       string       `json:"domain,omitempty"`
	Range        string       `json:"range,omitempty"`
	Label        string       `json:"label,omitempty"`
	Comment      string       `json:"comment,omitempty"`
}

// ParsedOntology is the parse result consumed by the pattern generator:
// classes and properties keyed by URI plus the prefix-to-namespace map.
type ParsedOntology struct {
	Classes    map[string]*OntologyClass    `json:"classes"`
	Properties map[string]*OntologyProperty `json:"properties"`
	Namespaces map[string]string            `json:"namespaces"`
}

// LocalName extracts the fragment or last path segment of a URI.
// Handles "#", "/" and prefixed names like "kb:hasAttendee".
func LocalName(uri string) string {
	if uri == "" {
		return ""
	}
	if idx := strings.LastIndex(uri, "#"); idx != -1 {
		return uri[idx+1:]
	}
	if idx := strings.LastIndex(uri, "/"); idx != -1 {
		return uri[idx+1:]
	}
	if idx := strings.LastIndex(uri, ":"); idx != -1 {
		return uri[idx+1:]
	}
	return uri
}

// IsPersonRange reports whether a range URI denotes a person-like class.
func IsPersonRange(rangeURI string) bool {
	return strings.Contains(rangeURI, "Person")
}

// IsDateRange reports whether a range URI denotes a date or datetime type.
func IsDateRange(rangeURI string) bool {
	return strings.Contains(rangeURI, "Date") || strings.Contains(rangeURI, "date")
}
