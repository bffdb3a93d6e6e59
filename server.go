package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/kb-query/kb-query-go/pkg/cache"
	"github.com/kb-query/kb-query-go/pkg/config"
	"github.com/kb-query/kb-query-go/pkg/query"
	"github.com/kb-query/kb-query-go/utils"
	"github.com/rs/cors"
)

// Server exposes the query service over HTTP.
type Server struct {
	router       *mux.Router
	service      *query.Service
	config       *config.Config
	grammarCache cache.Cache
	logger       *utils.Logger
}

// NewServer wires the query service and routes from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	svc, grammarCache, err := newQueryService(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	s := &Server{
		router:       mux.NewRouter(),
		service:      svc,
		config:       cfg,
		grammarCache: grammarCache,
		logger:       utils.GetLogger().WithComponent("http"),
	}
	s.setupRoutes()
	return s, nil
}

// Shutdown releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- s.grammarCache.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runServer starts the HTTP server and blocks until an interrupt signal
// triggers a graceful shutdown.
func runServer(cfg *config.Config) {
	server, err := NewServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      c.Handler(server.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting kb-query server on port %s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
