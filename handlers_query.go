package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kb-query/kb-query-go/pkg/endpoint"
	"github.com/kb-query/kb-query-go/pkg/formatters"
	"github.com/kb-query/kb-query-go/pkg/models"
	"github.com/kb-query/kb-query-go/utils"
)

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleQuery processes a natural language query. The query is executed
// against the configured endpoint when one is set, otherwise only the
// generated SPARQL is returned.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.Limit == 0 {
		req.Limit = s.config.Query.DefaultLimit
	}

	var resp *models.QueryResponse
	var err error
	if s.config.Endpoint.URL != "" {
		resp, err = s.service.ProcessAndExecute(r.Context(), &req)
	} else {
		req.ShowSPARQL = true
		resp, err = s.service.ProcessQuery(&req)
	}
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			writeBadRequestResponse(w, err.Error())
			return
		}
		s.logger.Error("Query processing failed", err, utils.F("request_id", req.RequestID))
		writeInternalServerErrorResponse(w, "")
		return
	}

	if req.Format != "" && !strings.EqualFold(req.Format, "json") {
		if result, ok := resp.Results.(*endpoint.Result); ok {
			formatFunc, err := formatters.New(req.Format)
			if err != nil {
				writeBadRequestResponse(w, err.Error())
				return
			}
			rendered, err := formatFunc(result)
			if err != nil {
				writeInternalServerErrorResponse(w, fmt.Sprintf("Formatting results: %v", err))
				return
			}
			resp.Results = rendered
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// handleListPatterns lists the query patterns derived from the ontology,
// optionally filtered by domain class
func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	class := r.URL.Query().Get("class")
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"patterns": s.service.ListPatterns(class),
	})
}

// handleSuggest suggests example queries for a partial input
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("q")
	if strings.TrimSpace(partial) == "" {
		writeBadRequestResponse(w, "Query parameter 'q' is required")
		return
	}

	suggestions := s.service.SuggestQueries(partial)
	limit := parseLimit(r, len(suggestions))
	if limit < len(suggestions) {
		suggestions = suggestions[:limit]
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
	})
}

// handleVersion returns the server version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"version": kbQueryVersion,
	})
}

// handleListFormats returns the supported result output formats
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"formats": formatters.Formats(),
	})
}
