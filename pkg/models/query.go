package models

import (
	"strings"
	"time"
)

// MatchType tags how a pattern was matched.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchFuzzy   MatchType = "fuzzy"
	MatchPartial MatchType = "partial"
)

// MatchResult is one scored pattern match for a query. Transient; a new set
// is produced per query and never persisted.
type MatchResult struct {
	Pattern    *Pattern          `json:"pattern"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities"` // placeholder name -> value, original casing
	MatchType  MatchType         `json:"match_type"`
}

// Validate checks the match result invariants.
func (m *MatchResult) Validate() error {
	if m.Confidence < 0 || m.Confidence > 1 {
		return newValidationError("confidence", "match confidence must be between 0.0 and 1.0")
	}
	switch m.MatchType {
	case MatchExact, MatchFuzzy, MatchPartial:
	default:
		return newValidationError("match_type", "invalid match type: %s", m.MatchType)
	}
	return nil
}

// SPARQLQuery is a generated query with structural metadata.
type SPARQLQuery struct {
	QueryText           string   `json:"query_text"`
	Variables           []string `json:"variables"`
	EstimatedComplexity int      `json:"estimated_complexity"`
	OptimizationApplied bool     `json:"optimization_applied"`
}

// Validate checks that the query text is non-blank.
func (q *SPARQLQuery) Validate() error {
	if strings.TrimSpace(q.QueryText) == "" {
		return newValidationError("query_text", "SPARQL query text cannot be empty")
	}
	return nil
}

// ParsedQuery is the structured form consumed by the structured-clause SPARQL
// builder: an entity type plus extracted filters and modifiers.
type ParsedQuery struct {
	EntityType string            `json:"entity_type"`
	Filters    map[string]string `json:"filters"`
	Temporal   map[string]string `json:"temporal,omitempty"` // "date" or "start"/"end", ISO dates
	Limit      int               `json:"limit,omitempty"`
	OrderBy    string            `json:"order_by,omitempty"`
	OrderDir   string            `json:"order_dir,omitempty"` // ASC or DESC
}

// QueryRequest carries one natural-language query through the orchestrator.
type QueryRequest struct {
	RequestID    string   `json:"request_id,omitempty"`
	InputText    string   `json:"input_text"`
	Debug        bool     `json:"debug,omitempty"`
	ShowSPARQL   bool     `json:"show_sparql,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	NamedGraphs  []string `json:"named_graphs,omitempty"`
	DefaultGraph string   `json:"default_graph,omitempty"`
	Format       string   `json:"format,omitempty"`
}

// Validate checks the request invariants.
func (r *QueryRequest) Validate() error {
	if strings.TrimSpace(r.InputText) == "" {
		return newValidationError("input_text", "query input cannot be empty")
	}
	if r.Limit < 0 {
		return newValidationError("limit", "limit must be positive")
	}
	return nil
}

// DebugInfo carries per-match diagnostics attached to a response on request.
type DebugInfo struct {
	MatchedTemplate  string            `json:"matched_template"`
	Confidence       float64           `json:"confidence"`
	MatchType        MatchType         `json:"match_type"`
	Entities         map[string]string `json:"entities"`
	PatternID        string            `json:"pattern_id"`
	SPARQLComplexity int               `json:"sparql_complexity"`
}

// QueryResponse is the result of processing one QueryRequest. A failed match
// is a normal outcome carried here, not an error.
type QueryResponse struct {
	RequestID    string        `json:"request_id,omitempty"`
	Success      bool          `json:"success"`
	SPARQLQuery  string        `json:"sparql_query,omitempty"`
	Results      any           `json:"results,omitempty"`
	ElapsedTime  time.Duration `json:"elapsed_time"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Suggestions  []string      `json:"suggestions,omitempty"`
	Debug        *DebugInfo    `json:"debug,omitempty"`
}

// AuthType enumerates endpoint authentication schemes.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
)

// Endpoint is the configuration for an external SPARQL endpoint.
type Endpoint struct {
	Name      string            `json:"name" yaml:"name"`
	URL       string            `json:"url" yaml:"url"`
	AuthType  AuthType          `json:"auth_type" yaml:"auth_type"`
	Username  string            `json:"username,omitempty" yaml:"username"`
	Password  string            `json:"password,omitempty" yaml:"password"`
	Token     string            `json:"token,omitempty" yaml:"token"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers"`
	TimeoutSeconds int          `json:"timeout_seconds,omitempty" yaml:"timeout_seconds"`
}

// Validate checks the endpoint configuration.
func (e *Endpoint) Validate() error {
	if e.URL == "" {
		return newValidationError("url", "endpoint URL cannot be empty")
	}
	switch e.AuthType {
	case "", AuthNone:
	case AuthBasic:
		if e.Username == "" || e.Password == "" {
			return newValidationError("auth", "basic auth requires username and password")
		}
	case AuthBearer:
		if e.Token == "" {
			return newValidationError("auth", "bearer auth requires a token")
		}
	default:
		return newValidationError("auth_type", "invalid auth type: %s", e.AuthType)
	}
	if e.TimeoutSeconds < 0 {
		return newValidationError("timeout_seconds", "timeout must be positive")
	}
	return nil
}
