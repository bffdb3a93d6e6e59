// Package query orchestrates the pipeline: grammar lifecycle, pattern
// matching, SPARQL building, and optional endpoint execution behind a single
// ProcessQuery call.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kb-query/kb-query-go/pkg/cache"
	"github.com/kb-query/kb-query-go/pkg/endpoint"
	"github.com/kb-query/kb-query-go/pkg/grammar"
	"github.com/kb-query/kb-query-go/pkg/matcher"
	"github.com/kb-query/kb-query-go/pkg/models"
	"github.com/kb-query/kb-query-go/pkg/sparql"
	"github.com/kb-query/kb-query-go/utils"
)

// Options configures a Service.
type Options struct {
	OntologyPath        string
	Cache               cache.Cache      // optional grammar cache
	Client              *endpoint.Client // optional SPARQL endpoint
	SimilarityThreshold float64
	Logger              *utils.Logger
}

// Service is the query orchestrator. A grammar load failure is fatal at
// construction; after that the service is immutable and safe for concurrent
// use.
type Service struct {
	grammar *models.Grammar
	matcher *matcher.Matcher
	builder *sparql.Builder
	client  *endpoint.Client
	logger  *utils.Logger
}

// NewService loads the grammar for the given ontology and wires the
// pipeline.
func NewService(opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}

	engine := grammar.NewEngine(opts.Cache, logger)
	g, err := engine.LoadGrammar(opts.OntologyPath)
	if err != nil {
		return nil, fmt.Errorf("initializing query service: %w", err)
	}

	return &Service{
		grammar: g,
		matcher: matcher.NewMatcher(opts.SimilarityThreshold, logger),
		builder: sparql.NewBuilder(g.Namespaces, logger),
		client:  opts.Client,
		logger:  logger.WithComponent("query"),
	}, nil
}

// Grammar returns the loaded grammar.
func (s *Service) Grammar() *models.Grammar {
	return s.grammar
}

// ProcessQuery turns one natural-language request into a response. Unmatched
// input is a normal failure response carrying suggestions, never an error;
// the returned error covers only an invalid request.
func (s *Service) ProcessQuery(req *models.QueryRequest) (*models.QueryResponse, error) {
	resp, _, err := s.process(req)
	return resp, err
}

// ProcessAndExecute processes the request and, when an endpoint client is
// configured, runs the generated query and attaches its results. An
// execution failure is reported distinctly from a generation failure.
func (s *Service) ProcessAndExecute(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	resp, queryText, err := s.process(req)
	if err != nil || !resp.Success || s.client == nil {
		return resp, err
	}

	result, execErr := s.client.Execute(ctx, queryText)
	if execErr != nil {
		resp.Success = false
		resp.ErrorMessage = "query execution failed: " + execErr.Error()
		return resp, nil
	}
	resp.Results = result
	return resp, nil
}

func (s *Service) process(req *models.QueryRequest) (*models.QueryResponse, string, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, "", err
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	matches := s.matcher.FindMatches(req.InputText, s.grammar)
	if len(matches) == 0 {
		suggestions := s.matcher.SuggestCorrections(req.InputText, s.grammar)
		s.logger.Info("no pattern matched",
			utils.F("request_id", requestID),
			utils.F("suggestions", len(suggestions)))
		return &models.QueryResponse{
			RequestID:    requestID,
			Success:      false,
			ErrorMessage: "could not understand query: " + req.InputText,
			Suggestions:  suggestions,
			ElapsedTime:  time.Since(start),
		}, "", nil
	}

	best := matches[0]
	built, err := s.builder.BuildQuery(best, req.NamedGraphs, req.DefaultGraph)
	if err != nil {
		s.logger.Error("query build failed", err,
			utils.F("request_id", requestID),
			utils.F("pattern_id", best.Pattern.ID))
		return &models.QueryResponse{
			RequestID:    requestID,
			Success:      false,
			ErrorMessage: err.Error(),
			ElapsedTime:  time.Since(start),
		}, "", nil
	}

	// the line-level reorder must not touch GRAPH-wrapped bodies
	if len(req.NamedGraphs) == 0 && req.DefaultGraph == "" {
		if optimized := sparql.Optimize(built.QueryText); optimized != built.QueryText {
			built.QueryText = optimized
			built.OptimizationApplied = true
		}
	}
	if req.Limit > 0 {
		built.QueryText = sparql.AddLimit(built.QueryText, req.Limit)
	}

	resp := &models.QueryResponse{
		RequestID:   requestID,
		Success:     true,
		ElapsedTime: time.Since(start),
	}
	if req.ShowSPARQL || req.Debug {
		resp.SPARQLQuery = built.QueryText
	}
	if req.Debug {
		resp.Debug = &models.DebugInfo{
			MatchedTemplate:  best.Pattern.Template,
			Confidence:       best.Confidence,
			MatchType:        best.MatchType,
			Entities:         best.Entities,
			PatternID:        best.Pattern.ID,
			SPARQLComplexity: built.EstimatedComplexity,
		}
	}

	s.logger.Debug("query processed",
		utils.F("request_id", requestID),
		utils.F("pattern_id", best.Pattern.ID),
		utils.F("match_type", string(best.MatchType)),
		utils.F("confidence", best.Confidence))
	return resp, built.QueryText, nil
}

// SuggestQueries completes partial input using pattern keywords and
// examples. Capped at ten, first-seen order.
func (s *Service) SuggestQueries(partial string) []string {
	input := strings.ToLower(strings.TrimSpace(partial))
	if input == "" {
		return nil
	}

	var suggestions []string
	seen := make(map[string]struct{})
	for _, pattern := range s.grammar.Patterns {
		for _, keyword := range pattern.Keywords {
			if strings.HasPrefix(keyword, input) || strings.Contains(keyword, input) {
				for _, example := range pattern.Examples[:1] {
					if _, dup := seen[example]; !dup {
						seen[example] = struct{}{}
						suggestions = append(suggestions, example)
					}
				}
				break
			}
		}
		if len(suggestions) == 10 {
			break
		}
	}
	return suggestions
}

// ListPatterns renders the available patterns with up to two examples each,
// optionally filtered by domain class substring.
func (s *Service) ListPatterns(classFilter string) []string {
	filter := strings.ToLower(classFilter)
	var lines []string
	for _, pattern := range s.grammar.Patterns {
		if filter != "" && !strings.Contains(strings.ToLower(pattern.DomainClass), filter) {
			continue
		}
		lines = append(lines, "Pattern: "+pattern.Template)
		examples := pattern.Examples
		if len(examples) > 2 {
			examples = examples[:2]
		}
		for _, example := range examples {
			lines = append(lines, "  Example: "+example)
		}
	}
	return lines
}
