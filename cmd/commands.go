package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gloo-search-gateway/internal/api/handlers"
	"gloo-search-gateway/internal/api/routes"
	"gloo-search-gateway/internal/auth"
	"gloo-search-gateway/internal/config"
	"gloo-search-gateway/internal/models"
	"gloo-search-gateway/internal/services"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout      = 30 * time.Second
	writeTimeoutSlack    = 10 * time.Second
	defaultCLIMaxTokens  = services.DefaultMaxTokens
	errQueryRequiredText = "query must not be empty"
)

// app holds what every subcommand needs once credentials are validated.
type app struct {
	out     io.Writer
	noColor bool

	cfg    *config.Config
	logger zerolog.Logger
	tokens *auth.CredentialCache
	search *services.SearchClient
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "gloo-search",
		Short: "Semantic search and RAG over the Gloo content index",
		Long: `Semantic search and RAG over the Gloo content index.

Examples:
  gloo-search search "How can I know my purpose?" 5
  gloo-search filter "purpose" "Article,Video" 10
  gloo-search rag "How can I know my purpose?" 3
  gloo-search server 3000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(a.searchCmd(), a.filterCmd(), a.ragCmd(), a.serverCmd())
	return root
}

// setup loads configuration and builds the shared token cache and search
// client. It fails with config.ErrMissingCredentials before any network call.
func (a *app) setup(server bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		printCredentialsHint()
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(cfg.Log.Level, server)
	a.tokens = auth.NewCredentialCache(auth.CredentialCacheConfig{
		ClientID:     cfg.Gloo.ClientID,
		ClientSecret: cfg.Gloo.ClientSecret,
		TokenURL:     cfg.Gloo.TokenURL,
		Timeout:      cfg.Gloo.TokenTimeout,
	}, a.logger)
	a.search = services.NewSearchClient(a.tokens, services.SearchClientConfig{
		SearchURL: cfg.Gloo.SearchURL,
		Tenant:    cfg.Gloo.Tenant,
		Timeout:   cfg.Gloo.RequestTimeout,
	}, a.logger)
	return nil
}

func (a *app) completionClient(maxTokens int) *services.CompletionClient {
	return services.NewCompletionClient(a.tokens, services.CompletionClientConfig{
		CompletionsURL: a.cfg.Gloo.CompletionsURL,
		MaxTokens:      maxTokens,
		Timeout:        a.cfg.Gloo.RequestTimeout,
	}, a.logger)
}

// newLogger writes JSON to stdout for the server and human-readable lines to
// stderr for the one-shot commands.
func newLogger(level string, server bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if server {
		return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func requireQuery(q string) (string, error) {
	if strings.TrimSpace(q) == "" {
		return "", errors.New(errQueryRequiredText)
	}
	return q, nil
}

func splitTypes(s string) []string {
	var types []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// --- search ---

func (a *app) searchCmd() *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "search <query> [limit]",
		Short: "Run a semantic search and print the results",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := requireQuery(args[0])
			if err != nil {
				return err
			}
			order, err := services.ParseSortOrder(sortBy)
			if err != nil {
				return err
			}
			if err := a.setup(false); err != nil {
				return err
			}

			limit := models.NormalizeLimit(optionalArg(args, 1), models.DefaultSearchLimit)
			fmt.Fprintf(a.out, "Searching for: '%s'\n", query)
			fmt.Fprintf(a.out, "Limit: %d results\n\n", limit)

			resp, err := a.search.Search(cmd.Context(), query, limit, order)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			printResults(a.out, resp.Data)
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(services.SortRelevance), "result order: relevance or certainty")
	return cmd
}

// --- filter ---

func (a *app) filterCmd() *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "filter <query> <types> [limit]",
		Short: "Search and keep only the given comma-separated content types",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := requireQuery(args[0])
			if err != nil {
				return err
			}
			order, err := services.ParseSortOrder(sortBy)
			if err != nil {
				return err
			}
			if err := a.setup(false); err != nil {
				return err
			}

			types := splitTypes(args[1])
			limit := models.NormalizeLimit(optionalArg(args, 2), models.DefaultSearchLimit)
			fmt.Fprintf(a.out, "Searching for: '%s'\n", query)
			fmt.Fprintf(a.out, "Content types: %s\n", strings.Join(types, ", "))
			fmt.Fprintf(a.out, "Limit: %d\n\n", limit)

			resp, err := a.search.Search(cmd.Context(), query, limit, order)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			printFiltered(a.out, services.FilterByContentType(resp.Data, types))
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(services.SortRelevance), "result order: relevance or certainty")
	return cmd
}

// --- rag ---

func (a *app) ragCmd() *cobra.Command {
	var (
		maxTokens    int
		systemPrompt string
	)

	cmd := &cobra.Command{
		Use:   "rag <query> [limit]",
		Short: "Answer a question from search results with the completion API",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := requireQuery(args[0])
			if err != nil {
				return err
			}
			if err := a.setup(false); err != nil {
				return err
			}

			limit := models.NormalizeLimit(optionalArg(args, 1), models.DefaultRAGLimit)
			fmt.Fprintf(a.out, "RAG Search for: '%s'\n\n", query)

			rag := services.NewRAGOrchestrator(a.search, a.completionClient(maxTokens), services.RAGOptions{
				MaxSnippets:        a.cfg.RAG.MaxSnippets,
				MaxCharsPerSnippet: a.cfg.RAG.MaxCharsPerSnippet,
				OnStage:            a.printStage,
			}, a.logger)

			resp, err := rag.Answer(cmd.Context(), query, limit, systemPrompt)
			if err != nil {
				return fmt.Errorf("RAG failed: %w", err)
			}
			if len(resp.Sources) == 0 {
				fmt.Fprintln(a.out, "No results found.")
				return nil
			}

			printRAGResponse(a.out, resp)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxTokens, "max-tokens", defaultCLIMaxTokens, "max_tokens sent to the completion API")
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "override the default system prompt")
	return cmd
}

func (a *app) printStage(stage services.Stage, count int) {
	switch stage {
	case services.StageSearching:
		printStep(a.out, "Step 1: Searching for relevant content...")
	case services.StageExtracting:
		fmt.Fprintf(a.out, "Found %d results\n\n", count)
		printStep(a.out, "Step 2: Extracting snippets...")
	case services.StageGenerating:
		fmt.Fprintf(a.out, "Extracted %d snippets\n\n", count)
		printStep(a.out, "Step 3: Generating response with context...")
		fmt.Fprintln(a.out)
	}
}

// --- server ---

func (a *app) serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [port]",
		Short: "Run the HTTP proxy and serve the frontend",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(true); err != nil {
				return err
			}
			if len(args) == 1 {
				port, err := strconv.Atoi(args[0])
				if err != nil || port <= 0 || port > 65535 {
					return fmt.Errorf("invalid port %q", args[0])
				}
				a.cfg.Server.Port = port
			}
			return a.runServer(cmd.Context())
		},
	}
}

func (a *app) newRouter() *gin.Engine {
	if a.cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	rag := services.NewRAGOrchestrator(a.search, a.completionClient(a.cfg.RAG.MaxTokens), services.RAGOptions{
		MaxSnippets:        a.cfg.RAG.MaxSnippets,
		MaxCharsPerSnippet: a.cfg.RAG.MaxCharsPerSnippet,
	}, a.logger)
	h := handlers.NewHandlers(a.search, rag, a.tokens, a.cfg.Frontend.Dir, a.logger)

	router := gin.New()
	routes.SetupRoutes(router, h, a.logger)
	return router
}

// serverWriteTimeout covers the slowest RAG request: one token refresh, one
// search and one completion, each at its own timeout.
func serverWriteTimeout(g config.GlooConfig) time.Duration {
	return g.TokenTimeout + 2*g.RequestTimeout + writeTimeoutSlack
}

func (a *app) runServer(ctx context.Context) error {
	logger := a.logger
	logger.Info().Msg("Starting Gloo search gateway")

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:        a.newRouter(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   serverWriteTimeout(a.cfg.Gloo),
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("host", a.cfg.Server.Host).
			Int("port", a.cfg.Server.Port).
			Str("frontend_dir", a.cfg.Frontend.Dir).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Server shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	logger.Info().Msg("Server exited")
	printSuccess(os.Stderr, "Server stopped")
	return nil
}
