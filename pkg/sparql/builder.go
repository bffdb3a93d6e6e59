// Package sparql renders matched patterns and structured parsed queries into
// syntactically valid SPARQL 1.1 text, with namespace prefixing, graph
// scoping, limits, validation, and a syntactic optimization pass.
package sparql

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kb-query/kb-query-go/pkg/models"
	"github.com/kb-query/kb-query-go/utils"
)

var (
	varRe          = regexp.MustCompile(`\?(\w+)`)
	selectClauseRe = regexp.MustCompile(`(?is)SELECT\s+(.*?)\s+WHERE`)
	trailingLimit  = regexp.MustCompile(`(?i)\s+LIMIT\s+\d+\s*$`)
	whereOpenRe    = regexp.MustCompile(`(?i)WHERE\s*\{`)
)

// Builder renders matched patterns into SPARQL using template substitution.
type Builder struct {
	namespaces map[string]string
	logger     *utils.Logger
}

// NewBuilder creates a builder carrying the grammar's namespace map.
func NewBuilder(namespaces map[string]string, logger *utils.Logger) *Builder {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Builder{namespaces: namespaces, logger: logger.WithComponent("sparql")}
}

// BuildQuery renders a match into a validated SPARQL query: placeholder
// substitution with escaping, namespace prefixing, optional graph scoping,
// variable extraction, and structural validation.
func (b *Builder) BuildQuery(match *models.MatchResult, namedGraphs []string, defaultGraph string) (*models.SPARQLQuery, error) {
	pattern := match.Pattern
	query := pattern.SPARQLTemplate

	for name, value := range match.Entities {
		query = strings.ReplaceAll(query, "{"+name+"}", EscapeString(value))
	}
	for _, name := range pattern.Placeholders() {
		if strings.Contains(query, "{"+name+"}") {
			return nil, &SPARQLError{
				Message: fmt.Sprintf("unresolved placeholder {%s}", name),
				Query:   query,
			}
		}
	}

	query = b.addNamespaces(query)

	if len(namedGraphs) > 0 || defaultGraph != "" {
		query = wrapGraphs(query, namedGraphs, defaultGraph)
	}

	if err := Validate(query); err != nil {
		return nil, err
	}

	return &models.SPARQLQuery{
		QueryText:           query,
		Variables:           ExtractVariables(query),
		EstimatedComplexity: EstimateComplexity(query),
	}, nil
}

// EscapeString escapes a value for inclusion in a SPARQL string literal.
// Backslash goes first so already-escaped characters are not double-escaped.
func EscapeString(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	value = strings.ReplaceAll(value, "\n", `\n`)
	value = strings.ReplaceAll(value, "\r", `\r`)
	value = strings.ReplaceAll(value, "\t", `\t`)
	return value
}

// addNamespaces prepends a PREFIX declaration for each namespace not already
// declared in the query. Prefixes are emitted in sorted order so output is
// deterministic.
func (b *Builder) addNamespaces(query string) string {
	if len(b.namespaces) == 0 {
		return query
	}
	prefixes := make([]string, 0, len(b.namespaces))
	for prefix := range b.namespaces {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	var lines []string
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		decl := "PREFIX " + prefix + ":"
		if strings.Contains(query, decl) {
			continue
		}
		lines = append(lines, fmt.Sprintf("PREFIX %s: <%s>", prefix, b.namespaces[prefix]))
	}
	if len(lines) == 0 {
		return query
	}
	return strings.Join(lines, "\n") + "\n" + query
}

// wrapGraphs wraps the WHERE body in GRAPH clauses: one GRAPH block for a
// single graph, a UNION of per-graph blocks each reproducing the body for
// multiple graphs. The default graph is queried first.
func wrapGraphs(query string, namedGraphs []string, defaultGraph string) string {
	loc := whereOpenRe.FindStringIndex(query)
	if loc == nil {
		return query
	}
	closeIdx := strings.LastIndex(query, "}")
	if closeIdx <= loc[1] {
		return query
	}
	body := strings.TrimSpace(query[loc[1]:closeIdx])

	var graphs []string
	if defaultGraph != "" {
		graphs = append(graphs, defaultGraph)
	}
	graphs = append(graphs, namedGraphs...)
	if len(graphs) == 0 {
		return query
	}

	var newBody string
	if len(graphs) == 1 {
		newBody = fmt.Sprintf("\n  GRAPH <%s> {\n    %s\n  }\n", graphs[0], indentLines(body, "    "))
	} else {
		blocks := make([]string, 0, len(graphs))
		for _, g := range graphs {
			blocks = append(blocks, fmt.Sprintf("  {\n    GRAPH <%s> {\n      %s\n    }\n  }", g, indentLines(body, "      ")))
		}
		newBody = "\n" + strings.Join(blocks, "\n  UNION\n") + "\n"
	}
	return query[:loc[0]] + "WHERE {" + newBody + "}" + query[closeIdx+1:]
}

// indentLines re-indents the continuation lines of an already-trimmed block.
func indentLines(block, indent string) string {
	lines := strings.Split(block, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "\n")
}

// ExtractVariables returns the projection variables of a query. SELECT *
// collects every distinct ?var in the whole query in first-seen order;
// otherwise only the SELECT clause is scanned.
func ExtractVariables(query string) []string {
	m := selectClauseRe.FindStringSubmatch(query)
	if m == nil {
		return nil
	}
	scan := m[1]
	if strings.Contains(scan, "*") {
		scan = query
	}
	var variables []string
	seen := make(map[string]struct{})
	for _, match := range varRe.FindAllStringSubmatch(scan, -1) {
		name := match[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		variables = append(variables, name)
	}
	return variables
}

// Validate performs structural validation: a query form keyword, a WHERE
// clause when SELECT is used, balanced braces, balanced parentheses.
func Validate(query string) error {
	upper := strings.ToUpper(query)

	hasForm := false
	for _, form := range []string{"SELECT", "CONSTRUCT", "ASK", "DESCRIBE"} {
		if strings.Contains(upper, form) {
			hasForm = true
			break
		}
	}
	if !hasForm {
		return &SPARQLError{Message: "missing query form keyword", Query: query}
	}
	if strings.Contains(upper, "SELECT") && !strings.Contains(upper, "WHERE") {
		return &SPARQLError{Message: "SELECT query missing WHERE clause", Query: query}
	}
	if strings.Count(query, "{") != strings.Count(query, "}") {
		return &SPARQLError{Message: "unbalanced braces", Query: query}
	}
	if strings.Count(query, "(") != strings.Count(query, ")") {
		return &SPARQLError{Message: "unbalanced parentheses", Query: query}
	}
	return nil
}

// Optimize reorders the WHERE block so triple-pattern lines precede FILTER
// lines; all other lines keep their relative position. A no-op when either
// kind is absent.
func Optimize(query string) string {
	lines := strings.Split(query, "\n")
	var filters, triples, other []string

	inWhere := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.Contains(strings.ToUpper(trimmed), "WHERE"):
			inWhere = true
			other = append(other, line)
		case inWhere && strings.HasPrefix(trimmed, "FILTER"):
			filters = append(filters, line)
		case inWhere && (strings.HasPrefix(trimmed, "?") || strings.HasPrefix(trimmed, "<")):
			triples = append(triples, line)
		default:
			other = append(other, line)
		}
	}
	if len(filters) == 0 || len(triples) == 0 {
		return query
	}

	whereIdx := -1
	for i, line := range other {
		if strings.Contains(strings.ToUpper(line), "WHERE") {
			whereIdx = i
			break
		}
	}
	if whereIdx == -1 {
		return query
	}

	result := make([]string, 0, len(lines))
	result = append(result, other[:whereIdx+1]...)
	result = append(result, triples...)
	result = append(result, filters...)
	result = append(result, other[whereIdx+1:]...)
	return strings.Join(result, "\n")
}

// AddLimit replaces any trailing LIMIT with a new one placed after the final
// closing brace. Idempotent: applying it twice leaves a single LIMIT.
func AddLimit(query string, limit int) string {
	query = trailingLimit.ReplaceAllString(query, "")
	query = strings.TrimRight(query, " \t\n")
	if !strings.HasSuffix(query, "}") {
		if idx := strings.LastIndex(query, "}"); idx != -1 {
			query = query[:idx+1]
		}
	}
	return fmt.Sprintf("%s\nLIMIT %d", query, limit)
}

// EstimateComplexity scores a query from 1 (simple) to 5 (complex) from its
// triple count and use of FILTER, OPTIONAL, and aggregates.
func EstimateComplexity(query string) int {
	complexity := 1

	triples := countTriples(query)
	if triples > 3 {
		complexity++
	}
	if triples > 5 {
		complexity++
	}

	upper := strings.ToUpper(query)
	if strings.Contains(upper, "FILTER") {
		complexity++
	}
	if strings.Contains(upper, "OPTIONAL") {
		complexity++
	}
	for _, fn := range []string{"COUNT", "SUM", "AVG", "MIN", "MAX"} {
		if strings.Contains(upper, fn) {
			complexity++
			break
		}
	}

	if complexity > 5 {
		return 5
	}
	return complexity
}

// countTriples counts lines that look like triple patterns: subject position
// starting with ? or <, terminated by a dot.
func countTriples(query string) int {
	count := 0
	for _, line := range strings.Split(query, "\n") {
		trimmed := strings.TrimSpace(line)
		if (strings.HasPrefix(trimmed, "?") || strings.HasPrefix(trimmed, "<")) &&
			strings.HasSuffix(trimmed, ".") {
			count++
		}
	}
	return count
}
