package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cbcsl/cbcsl/internal/core/config"
	"github.com/cbcsl/cbcsl/internal/core/logging"
	"github.com/cbcsl/cbcsl/internal/server"
)

const defaultServePort = 8080

var (
	servePort   int
	serveAPIKey string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve resolved streams and listings over HTTP",
	Long: `Start an HTTP server that resolves CBC streams on request, for IPTV players
and scripts that cannot run cbcsl themselves.

Examples:
  cbcsl serve                  # Start server on port 8080
  cbcsl serve --port 9000      # Start server on port 9000
  cbcsl serve --backend legacy # Use another API generation

Endpoints:
  GET /api/health              # Health check
  GET /api/resolve?id=ID       # Resolve an ID or watch URL to its stream
  GET /api/live                # Live and upcoming events
  GET /api/replays             # Recent replays
  GET /play/:id                # Redirect to the stream
  GET /live.m3u                # Live events as an M3U playlist`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP listen port (default: 8080)")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "require this key in X-API-Key or ?key=")
	serveCmd.Flags().StringVarP(&proxySpec, "proxy", "p", "", "proxy for API requests")
	serveCmd.Flags().StringVar(&backend, "backend", "", "API generation (graphql|catalog|legacy)")
	serveCmd.Flags().BoolVar(&pinVariant, "pin-variant", false, "redirect to the best variant instead of the master playlist")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}

	// Resolve port and key (flag > config > default)
	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}
	if port == 0 {
		port = defaultServePort
	}
	apiKey := serveAPIKey
	if apiKey == "" {
		apiKey = cfg.Server.APIKey
	}

	log, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	if !config.Exists() {
		log.Warnw("config file not found, using defaults", "hint", "run 'cbcsl init' to create one")
	}

	p, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}
	srv := server.NewServer(port, apiKey, p, log)
	fmt.Fprintf(cmd.ErrOrStderr(), "cbcsl serving on http://localhost:%d (backend %s)\n", port, p.Client.Name())

	// Handle graceful shutdown
	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		log.Infow("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(shutdownCtx)
	}()

	return srv.Start()
}
