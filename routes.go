package main

// setupRoutes registers the HTTP routes with API versioning.
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.errorRecoveryMiddleware)

	// Health check (no version)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.versionMiddleware("v1"))

	// Query processing
	v1.HandleFunc("/query", s.handleQuery).Methods("POST")

	// Pattern introspection
	v1.HandleFunc("/patterns", s.handleListPatterns).Methods("GET")

	// Query suggestions
	v1.HandleFunc("/suggest", s.handleSuggest).Methods("GET")

	// System endpoints
	v1.HandleFunc("/version", s.handleVersion).Methods("GET")
	v1.HandleFunc("/formats", s.handleListFormats).Methods("GET")
}
