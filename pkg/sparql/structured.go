package sparql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kb-query/kb-query-go/pkg/models"
)

// DefaultLimit is the result cap applied when a parsed query carries none.
const DefaultLimit = 100

// StructuredBuilder assembles SPARQL from a ParsedQuery record instead of a
// pattern template: type constraint, per-filter triples, temporal FILTERs,
// and type-specific projections and OPTIONAL blocks.
type StructuredBuilder struct {
	defaultLimit int
}

// NewStructuredBuilder creates a structured builder. A non-positive limit
// selects the default.
func NewStructuredBuilder(defaultLimit int) *StructuredBuilder {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &StructuredBuilder{defaultLimit: defaultLimit}
}

// personReferenceProperties name filters whose value is a person reference
// resolved to a URI rather than matched as a literal.
var personReferenceProperties = map[string]struct{}{
	"hasAttendee": {},
	"assignedTo":  {},
	"hasAuthor":   {},
}

// Build renders a parsed query into SPARQL text.
func (b *StructuredBuilder) Build(pq *models.ParsedQuery, namespaces map[string]string) (string, error) {
	var sb strings.Builder

	prefixes := buildPrefixes(namespaces)
	if prefixes != "" {
		sb.WriteString(prefixes)
		sb.WriteString("\n")
	}

	sb.WriteString(b.buildSelect(pq))
	sb.WriteString("\nWHERE {\n")
	sb.WriteString(b.buildWhere(pq, namespaces))
	sb.WriteString("\n}")

	if order := b.buildOrderBy(pq); order != "" {
		sb.WriteString("\n" + order)
	}

	limit := pq.Limit
	if limit <= 0 {
		limit = b.defaultLimit
	}
	sb.WriteString(fmt.Sprintf("\nLIMIT %d", limit))

	query := sb.String()
	if err := Validate(query); err != nil {
		return "", err
	}
	return query, nil
}

func buildPrefixes(namespaces map[string]string) string {
	b := NewBuilder(namespaces, nil)
	return strings.TrimSuffix(b.addNamespaces(""), "\n")
}

func (b *StructuredBuilder) buildSelect(pq *models.ParsedQuery) string {
	variables := []string{"?item"}
	switch pq.EntityType {
	case "Meeting", "DailyNote", "Document":
		variables = append(variables, "?title", "?created")
	case "Person":
		variables = append(variables, "?name", "?email")
	case "Todo":
		variables = append(variables, "?description", "?due", "?completed")
	}
	return "SELECT DISTINCT " + strings.Join(variables, " ")
}

func (b *StructuredBuilder) buildWhere(pq *models.ParsedQuery, namespaces map[string]string) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("  ?item a %s .", fullURI(pq.EntityType, namespaces)))

	for _, prop := range sortedFilterKeys(pq.Filters) {
		value := pq.Filters[prop]
		propURI := fullURI(prop, namespaces)
		if _, isPerson := personReferenceProperties[prop]; isPerson {
			parts = append(parts, fmt.Sprintf("  ?item %s %s .", propURI, personURI(value)))
		} else {
			parts = append(parts, fmt.Sprintf("  ?item %s \"%s\" .", propURI, EscapeString(value)))
		}
	}

	parts = append(parts, b.buildTemporal(pq.Temporal)...)

	if optional := b.buildOptional(pq.EntityType); optional != "" {
		parts = append(parts, "  OPTIONAL {\n"+optional+"\n  }")
	}
	return strings.Join(parts, "\n")
}

func (b *StructuredBuilder) buildTemporal(temporal map[string]string) []string {
	if len(temporal) == 0 {
		return nil
	}
	if date, ok := temporal["date"]; ok {
		return []string{
			"  ?item dcterms:created ?created .",
			fmt.Sprintf("  FILTER(DATE(?created) = \"%s\"^^xsd:date)", date),
		}
	}
	start, hasStart := temporal["start"]
	end, hasEnd := temporal["end"]
	if hasStart && hasEnd {
		return []string{
			"  ?item dcterms:created ?created .",
			fmt.Sprintf("  FILTER(?created >= \"%s\"^^xsd:date && ?created <= \"%s\"^^xsd:date)", start, end),
		}
	}
	return nil
}

func (b *StructuredBuilder) buildOptional(entityType string) string {
	var parts []string
	switch entityType {
	case "Meeting", "DailyNote", "Document":
		parts = append(parts,
			"    ?item dcterms:title ?title .",
			"    ?item dcterms:created ?created .")
	case "Person":
		parts = append(parts,
			"    ?item foaf:name ?name .",
			"    ?item foaf:mbox ?email .")
	case "Todo":
		parts = append(parts,
			"    ?item kb:description ?description .",
			"    ?item kb:due ?due .",
			"    ?item kb:isCompleted ?completed .")
	}
	return strings.Join(parts, "\n")
}

func (b *StructuredBuilder) buildOrderBy(pq *models.ParsedQuery) string {
	if pq.OrderBy != "" {
		dir := pq.OrderDir
		if dir == "" {
			dir = "ASC"
		}
		return fmt.Sprintf("ORDER BY %s(?%s)", dir, pq.OrderBy)
	}
	switch pq.EntityType {
	case "Meeting", "DailyNote":
		// newest first for time-based entities
		return "ORDER BY DESC(?created)"
	}
	return ""
}

// fullURI converts a local name to an angle-bracketed URI or a kb-prefixed
// name.
func fullURI(localName string, namespaces map[string]string) string {
	if strings.HasPrefix(localName, "http") {
		return "<" + localName + ">"
	}
	if _, ok := namespaces["kb"]; ok {
		return "kb:" + localName
	}
	return localName
}

// personURI resolves a person name to a URI reference, with "me" as a
// literal alias for the canonical self entity.
func personURI(name string) string {
	if strings.EqualFold(name, "me") {
		return "kb:person/Me"
	}
	return "kb:person/" + strings.ReplaceAll(name, " ", "_")
}

// sortedFilterKeys keeps triple order deterministic regardless of map
// iteration order.
func sortedFilterKeys(filters map[string]string) []string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
