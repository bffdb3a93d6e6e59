// Entry point for the kb-query CLI
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kb-query/kb-query-go/pkg/cache"
	"github.com/kb-query/kb-query-go/pkg/config"
	"github.com/kb-query/kb-query-go/pkg/endpoint"
	"github.com/kb-query/kb-query-go/pkg/formatters"
	"github.com/kb-query/kb-query-go/pkg/models"
	"github.com/kb-query/kb-query-go/pkg/query"
	"github.com/kb-query/kb-query-go/utils"
)

const kbQueryVersion = "v0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printHelp()
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printHelp()
		return
	case "--version", "-v":
		fmt.Println("kb-query version:", kbQueryVersion)
		return
	case "--query", "-q":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: --query requires the query text")
			os.Exit(1)
		}
		runQuery(args[1], parseRunFlags(args[2:]))
		return
	case "--patterns":
		class := ""
		if len(args) > 1 {
			class = args[1]
		}
		runPatterns(class, parseRunFlags(args[1:]))
		return
	case "--interactive", "-i":
		runInteractive(parseRunFlags(args[1:]))
		return
	case "--server":
		port := ""
		if len(args) > 1 && !strings.HasPrefix(args[1], "--") {
			port = args[1]
		}
		runServerCommand(port, parseRunFlags(args[1:]))
		return
	default:
		fmt.Fprintln(os.Stderr, "Unknown argument. Use --help for usage.")
		os.Exit(1)
	}
}

// runFlags are the optional flags shared by the CLI subcommands.
type runFlags struct {
	configPath string
	format     string
	showSPARQL bool
}

func parseRunFlags(args []string) runFlags {
	var flags runFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				flags.configPath = args[i+1]
				i++
			}
		case "--format", "-f":
			if i+1 < len(args) {
				flags.format = args[i+1]
				i++
			}
		case "--sparql":
			flags.showSPARQL = true
		}
	}
	return flags
}

// mustLoadConfig loads configuration from the given path, falling back to
// ./config.yaml when present, and configures the global logger from it.
func mustLoadConfig(path string) *config.Config {
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := utils.GetLogger()
	logger.SetLevel(utils.ParseLogLevel(cfg.LogLevel))
	logger.SetFormat(cfg.LogFormat)
	return cfg
}

// newQueryService wires the cache, optional endpoint client and query
// service from configuration. The returned cache must be closed by the
// caller.
func newQueryService(cfg *config.Config) (*query.Service, cache.Cache, error) {
	logger := utils.GetLogger()

	var grammarCache cache.Cache
	if cfg.Cache.Enabled {
		sqliteCache, err := cache.NewSQLite(cfg.Cache.Path)
		if err != nil {
			logger.Warn("Grammar cache unavailable, falling back to memory",
				utils.F("path", cfg.Cache.Path), utils.F("error", err.Error()))
			grammarCache = cache.NewMemory()
		} else {
			grammarCache = sqliteCache
		}
	} else {
		grammarCache = cache.NewMemory()
	}

	var client *endpoint.Client
	if cfg.Endpoint.URL != "" {
		var err error
		client, err = endpoint.NewClient(cfg.Endpoint, logger)
		if err != nil {
			_ = grammarCache.Close()
			return nil, nil, fmt.Errorf("configuring endpoint client: %w", err)
		}
	}

	svc, err := query.NewService(query.Options{
		OntologyPath:        cfg.Ontology.Path,
		Cache:               grammarCache,
		Client:              client,
		SimilarityThreshold: cfg.Query.SimilarityThreshold,
		Logger:              logger,
	})
	if err != nil {
		_ = grammarCache.Close()
		return nil, nil, err
	}
	return svc, grammarCache, nil
}

func runQuery(text string, flags runFlags) {
	cfg := mustLoadConfig(flags.configPath)
	svc, grammarCache, err := newQueryService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer grammarCache.Close()

	format := flags.format
	if format == "" {
		format = cfg.Query.DefaultFormat
	}

	if err := processAndPrint(svc, cfg, text, format, flags.showSPARQL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// processAndPrint runs one query through the service and writes the outcome
// to stdout.
func processAndPrint(svc *query.Service, cfg *config.Config, text, format string, showSPARQL bool) error {
	req := &models.QueryRequest{
		InputText:  text,
		ShowSPARQL: showSPARQL,
		Limit:      cfg.Query.DefaultLimit,
	}

	var resp *models.QueryResponse
	var err error
	if cfg.Endpoint.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		resp, err = svc.ProcessAndExecute(ctx, req)
	} else {
		// No endpoint configured: translate only, always show the SPARQL
		req.ShowSPARQL = true
		resp, err = svc.ProcessQuery(req)
	}
	if err != nil {
		return err
	}

	if !resp.Success {
		fmt.Println("Could not understand the query:", resp.ErrorMessage)
		if len(resp.Suggestions) > 0 {
			fmt.Println("Did you mean:")
			for _, suggestion := range resp.Suggestions {
				fmt.Println("  -", suggestion)
			}
		}
		return nil
	}

	if resp.SPARQLQuery != "" {
		fmt.Println(resp.SPARQLQuery)
	}

	if result, ok := resp.Results.(*endpoint.Result); ok {
		formatFunc, err := formatters.New(format)
		if err != nil {
			return err
		}
		rendered, err := formatFunc(result)
		if err != nil {
			return fmt.Errorf("formatting results: %w", err)
		}
		fmt.Println(rendered)
	}
	return nil
}

func runPatterns(class string, flags runFlags) {
	if strings.HasPrefix(class, "--") {
		class = ""
	}
	cfg := mustLoadConfig(flags.configPath)
	svc, grammarCache, err := newQueryService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer grammarCache.Close()

	for _, line := range svc.ListPatterns(class) {
		fmt.Println(line)
	}
}

func runInteractive(flags runFlags) {
	cfg := mustLoadConfig(flags.configPath)
	svc, grammarCache, err := newQueryService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer grammarCache.Close()

	format := flags.format
	if format == "" {
		format = cfg.Query.DefaultFormat
	}
	showSPARQL := flags.showSPARQL

	fmt.Println("kb-query interactive shell", kbQueryVersion)
	fmt.Println("Type a question, or 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("kb> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "exit", "quit":
			return
		case "help":
			printShellHelp()
		case "patterns":
			class := ""
			if len(fields) > 1 {
				class = fields[1]
			}
			for _, patternLine := range svc.ListPatterns(class) {
				fmt.Println(patternLine)
			}
		case "suggest":
			partial := strings.TrimSpace(strings.TrimPrefix(line, "suggest"))
			if partial == "" {
				fmt.Println("Usage: suggest <partial query>")
				continue
			}
			suggestions := svc.SuggestQueries(partial)
			if len(suggestions) == 0 {
				fmt.Println("No suggestions.")
				continue
			}
			for _, suggestion := range suggestions {
				fmt.Println("  -", suggestion)
			}
		case "sparql":
			showSPARQL = !showSPARQL
			fmt.Println("Show SPARQL:", showSPARQL)
		case "format":
			if len(fields) < 2 {
				fmt.Println("Available formats:", strings.Join(formatters.Formats(), ", "))
				continue
			}
			if _, err := formatters.New(fields[1]); err != nil {
				fmt.Println("Error:", err)
				continue
			}
			format = fields[1]
			fmt.Println("Output format:", format)
		default:
			if err := processAndPrint(svc, cfg, line, format, showSPARQL); err != nil {
				fmt.Println("Error:", err)
			}
		}
	}
}

func runServerCommand(port string, flags runFlags) {
	cfg := mustLoadConfig(flags.configPath)
	if port != "" {
		cfg.Server.Port = port
	}
	runServer(cfg)
}

func printShellHelp() {
	fmt.Println("Commands:")
	fmt.Println("  patterns [class]     List query patterns, optionally filtered by class")
	fmt.Println("  suggest <partial>    Suggest completions for a partial query")
	fmt.Println("  sparql               Toggle printing of the generated SPARQL")
	fmt.Println("  format [name]        Set the output format, or list formats")
	fmt.Println("  exit, quit           Leave the shell")
	fmt.Println("Anything else is processed as a natural language query.")
}

func printHelp() {
	fmt.Println("Usage:")
	fmt.Println("  --query <text>       Translate (and execute) a natural language query")
	fmt.Println("  --patterns [class]   List the query patterns derived from the ontology")
	fmt.Println("  --interactive        Start an interactive query shell")
	fmt.Println("  --server [port]      Start the HTTP server (default port: 8080)")
	fmt.Println("  -h, --help, help     Show this help message")
	fmt.Println("  -v, --version        Show the kb-query version")
	fmt.Println("Options:")
	fmt.Println("  --config <path>      Configuration file (default: ./config.yaml if present)")
	fmt.Println("  --format <name>      Result output format (json, csv, table, text, turtle)")
	fmt.Println("  --sparql             Print the generated SPARQL query")
}
