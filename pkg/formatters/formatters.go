// Package formatters renders SPARQL results into output text. Each format is
// a stateless pure function; the factory dispatches on a format tag.
package formatters

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/kb-query/kb-query-go/pkg/endpoint"
)

// FormatFunc renders a result to text.
type FormatFunc func(result *endpoint.Result) (string, error)

var registry = map[string]FormatFunc{
	"json":   formatJSON,
	"csv":    formatCSV,
	"table":  formatTable,
	"text":   formatText,
	"turtle": formatTurtle,
	"ttl":    formatTurtle,
}

// New returns the formatter for a format tag.
func New(format string) (FormatFunc, error) {
	f, ok := registry[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown format type: %s", format)
	}
	return f, nil
}

// Formats lists the supported format tags in sorted order.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// headers returns the column order: declared variables when present,
// otherwise the sorted keys of the first row.
func headers(result *endpoint.Result) []string {
	if len(result.Variables) > 0 {
		return result.Variables
	}
	if len(result.Bindings) == 0 {
		return nil
	}
	cols := make([]string, 0, len(result.Bindings[0]))
	for name := range result.Bindings[0] {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func formatJSON(result *endpoint.Result) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding results as JSON: %w", err)
	}
	return string(data), nil
}

func formatCSV(result *endpoint.Result) (string, error) {
	cols := headers(result)
	if len(cols) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(cols); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range result.Bindings {
		record := make([]string, len(cols))
		for i, col := range cols {
			record[i] = row[col].Value
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("writing CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.String(), nil
}

func formatTable(result *endpoint.Result) (string, error) {
	if result.Boolean != nil {
		return fmt.Sprintf("Result: %t", *result.Boolean), nil
	}
	if len(result.Bindings) == 0 {
		return "No results found.", nil
	}

	cols := headers(result)
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(cols)
	table.SetAutoWrapText(false)
	for _, row := range result.Bindings {
		record := make([]string, len(cols))
		for i, col := range cols {
			record[i] = row[col].Value
		}
		table.Append(record)
	}
	table.Render()
	return buf.String(), nil
}

func formatText(result *endpoint.Result) (string, error) {
	if result.Boolean != nil {
		return fmt.Sprintf("Result: %t", *result.Boolean), nil
	}
	if len(result.Bindings) == 0 {
		return "No results found.", nil
	}

	cols := headers(result)
	var sb strings.Builder
	for i, row := range result.Bindings {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, col := range cols {
			fmt.Fprintf(&sb, "%s: %s\n", col, row[col].Value)
		}
	}
	fmt.Fprintf(&sb, "\n%d result(s) found\n", len(result.Bindings))
	return sb.String(), nil
}

func formatTurtle(result *endpoint.Result) (string, error) {
	if len(result.Bindings) == 0 {
		return "", nil
	}

	lines := []string{
		"@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .",
		"@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .",
		"",
	}
	cols := headers(result)
	for i, row := range result.Bindings {
		subject := fmt.Sprintf("_:result%d", i)
		for _, col := range cols {
			value := row[col]
			if value.Type == "uri" {
				lines = append(lines, fmt.Sprintf("%s rdf:value <%s> .", subject, value.Value))
			} else {
				lines = append(lines, fmt.Sprintf("%s rdfs:label %q .", subject, value.Value))
			}
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}
