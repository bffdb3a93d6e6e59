package sparql

import "fmt"

// SPARQLError indicates that query text could not be built or failed
// structural validation. It carries a snippet of the offending query; a
// build failure is a generator bug and is never silently degraded into a
// partially correct query.
type SPARQLError struct {
	Message string
	Query   string
}

func (e *SPARQLError) Error() string {
	if e.Query == "" {
		return "sparql error: " + e.Message
	}
	snippet := e.Query
	if len(snippet) > 100 {
		snippet = snippet[:100] + "..."
	}
	return fmt.Sprintf("sparql error: %s: %s", e.Message, snippet)
}
