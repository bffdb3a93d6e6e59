// Package endpoint is the HTTP client for SPARQL-protocol endpoints. It is
// an external collaborator of the query pipeline: the core never conflates
// an execution failure here with a failure to generate a query.
package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kb-query/kb-query-go/pkg/models"
	"github.com/kb-query/kb-query-go/utils"
)

const defaultTimeout = 30 * time.Second

// BindingValue is one bound value in a SPARQL result.
type BindingValue struct {
	Type     string `json:"type"` // uri, literal, bnode
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"lang,omitempty"`
}

// BindingRow is a single result row of variable bindings.
type BindingRow map[string]BindingValue

// Result is a parsed SPARQL query result.
type Result struct {
	Variables []string      `json:"variables"`
	Bindings  []BindingRow  `json:"bindings"`
	Boolean   *bool         `json:"boolean,omitempty"` // ASK queries
	Duration  time.Duration `json:"duration"`
}

// Client executes SPARQL queries over the SPARQL 1.1 protocol.
type Client struct {
	endpoint   models.Endpoint
	httpClient *http.Client
	logger     *utils.Logger
}

// NewClient creates a client for an endpoint configuration.
func NewClient(ep models.Endpoint, logger *utils.Logger) (*Client, error) {
	if err := ep.Validate(); err != nil {
		return nil, fmt.Errorf("invalid endpoint configuration: %w", err)
	}
	if logger == nil {
		logger = utils.GetLogger()
	}
	timeout := defaultTimeout
	if ep.TimeoutSeconds > 0 {
		timeout = time.Duration(ep.TimeoutSeconds) * time.Second
	}
	return &Client{
		endpoint:   ep,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithComponent("endpoint"),
	}, nil
}

// Execute runs a query and parses the SPARQL JSON results: tabular bindings
// for SELECT, a boolean for ASK.
func (c *Client) Execute(ctx context.Context, query string) (*Result, error) {
	data := url.Values{}
	data.Set("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.URL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")
	c.applyAuth(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &EndpointError{Endpoint: c.endpoint.Name, Message: "failed to execute query", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &EndpointError{Endpoint: c.endpoint.Name, StatusCode: resp.StatusCode, Message: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EndpointError{Endpoint: c.endpoint.Name, Message: "failed to read response body", Err: err}
	}

	var sparqlResult struct {
		Head struct {
			Vars []string `json:"vars"`
		} `json:"head"`
		Results struct {
			Bindings []map[string]struct {
				Type     string `json:"type"`
				Value    string `json:"value"`
				Datatype string `json:"datatype,omitempty"`
				Lang     string `json:"xml:lang,omitempty"`
			} `json:"bindings"`
		} `json:"results"`
		Boolean *bool `json:"boolean,omitempty"`
	}
	if err := json.Unmarshal(body, &sparqlResult); err != nil {
		return nil, fmt.Errorf("failed to parse query results: %w", err)
	}

	result := &Result{
		Variables: sparqlResult.Head.Vars,
		Bindings:  make([]BindingRow, 0, len(sparqlResult.Results.Bindings)),
		Boolean:   sparqlResult.Boolean,
		Duration:  time.Since(start),
	}
	for _, binding := range sparqlResult.Results.Bindings {
		row := make(BindingRow, len(binding))
		for varName, value := range binding {
			row[varName] = BindingValue{
				Type:     value.Type,
				Value:    value.Value,
				Datatype: value.Datatype,
				Lang:     value.Lang,
			}
		}
		result.Bindings = append(result.Bindings, row)
	}

	c.logger.Debug("query executed",
		utils.F("endpoint", c.endpoint.Name),
		utils.F("rows", len(result.Bindings)),
		utils.F("duration_ms", time.Since(start).Milliseconds()))
	return result, nil
}

// TestConnection probes the endpoint with a minimal ASK query.
func (c *Client) TestConnection(ctx context.Context) bool {
	result, err := c.Execute(ctx, "ASK { ?s ?p ?o }")
	if err != nil {
		c.logger.Warn("endpoint connection test failed",
			utils.F("endpoint", c.endpoint.Name),
			utils.F("error", err.Error()))
		return false
	}
	return result.Boolean != nil
}

func (c *Client) applyAuth(req *http.Request) {
	switch c.endpoint.AuthType {
	case models.AuthBasic:
		req.SetBasicAuth(c.endpoint.Username, c.endpoint.Password)
	case models.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.endpoint.Token)
	}
	for name, value := range c.endpoint.Headers {
		req.Header.Set(name, value)
	}
}
