package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coder/quartz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cbcsl/cbcsl/internal/core/api"
	"github.com/cbcsl/cbcsl/internal/core/config"
	"github.com/cbcsl/cbcsl/internal/core/identifier"
	"github.com/cbcsl/cbcsl/internal/core/logging"
	"github.com/cbcsl/cbcsl/internal/core/pipeline"
	"github.com/cbcsl/cbcsl/internal/core/proxy"
	"github.com/cbcsl/cbcsl/internal/core/version"
)

var (
	proxySpec   string
	noRun       bool
	listLive    bool
	listReplays bool
	quality     string
	fullURLs    bool
	logLevel    string
	backend     string
	pinVariant  bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "cbcsl [id-or-url]",
	Short: "Watch CBC live and on-demand video with streamlink",
	Long: `Resolve a CBC media ID or watch-page URL to its stream and play it with streamlink.

Examples:
  cbcsl 9.6483640
  cbcsl https://www.cbc.ca/player/play/video/9.6483640
  cbcsl -n 9.6483640                 # print the stream URL instead of playing
  cbcsl -l                           # list live and upcoming events
  cbcsl -r -f                        # list replays with full watch URLs
  cbcsl -p socks5://127.0.0.1:1080 9.6483640`,
	Version:       version.Version,
	Args:          validateArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().StringVarP(&proxySpec, "proxy", "p", "", "proxy for API requests and the player (e.g., socks5://host:port)")
	rootCmd.Flags().BoolVarP(&noRun, "no-run", "n", false, "print the stream URL and headers instead of starting the player")
	rootCmd.Flags().BoolVarP(&listLive, "list", "l", false, "list live and upcoming events")
	rootCmd.Flags().BoolVarP(&listReplays, "replays", "r", false, "list recent replays")
	rootCmd.Flags().StringVarP(&quality, "quality", "q", "best", "stream quality passed to the player")
	rootCmd.Flags().BoolVarP(&fullURLs, "full-urls", "f", false, "print full watch URLs in listings")
	rootCmd.Flags().StringVar(&logLevel, "loglevel", "info", "player log level ("+strings.Join(config.PlayerLogLevels, "|")+")")
	rootCmd.Flags().StringVar(&backend, "backend", "", "API generation (graphql|catalog|legacy)")
	rootCmd.Flags().BoolVar(&pinVariant, "pin-variant", false, "pick the best variant from the master playlist before playing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")

	rootCmd.MarkFlagsMutuallyExclusive("list", "replays")

	registerFlagCompletions()
}

// Execute runs the root command with ctx, which is cancelled on Ctrl-C.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// validateArgs rejects bad identifiers before anything touches the network.
func validateArgs(cmd *cobra.Command, args []string) error {
	listing := listLive || listReplays
	switch {
	case listing && len(args) > 0:
		return errors.New("an ID cannot be combined with --list or --replays")
	case !listing && len(args) == 0:
		return errors.New("an ID or URL is required unless --list or --replays is given")
	case len(args) > 1:
		return fmt.Errorf("accepts at most 1 arg, received %d", len(args))
	case listing:
		return nil
	}

	cfg, err := settings(cmd)
	if err != nil {
		return err
	}
	return identifier.Validate(cfg.Generation(), args[0])
}

// settings merges the config file with the flags set on the command line.
func settings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.LoadOrDefault()
	flags := cmd.Flags()

	if flags.Changed("proxy") {
		cfg.Proxy = proxySpec
	}
	if flags.Changed("quality") || cfg.Quality == "" {
		cfg.Quality = quality
	}
	if flags.Changed("loglevel") || cfg.PlayerLogLevel == "" {
		cfg.PlayerLogLevel = logLevel
	}
	if flags.Changed("backend") {
		g, err := identifier.ParseGeneration(backend)
		if err != nil {
			return nil, err
		}
		cfg.Backend = string(g)
	}
	if flags.Changed("pin-variant") {
		cfg.PinVariant = pinVariant
	}
	if flags.Changed("full-urls") {
		cfg.FullURLs = fullURLs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := settings(cmd)
	if err != nil {
		return err
	}

	log, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	if !config.Exists() {
		log.Debugw("config file not found, using defaults", "path", config.SavePath())
	}

	p, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if listLive || listReplays {
		return p.List(ctx, listLive, cmd.OutOrStdout())
	}

	res, err := resolveWithSpinner(ctx, p, args[0], !verbose)
	if err != nil {
		return err
	}
	if noRun {
		return pipeline.WriteResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), res)
	}
	return p.Play(ctx, res)
}

func newPipeline(cfg *config.Config, log *zap.SugaredLogger) (*pipeline.Pipeline, error) {
	httpClient, err := proxy.NewHTTPClient(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	client, err := api.New(cfg.Generation(), api.Options{
		Origin:         cfg.Origin,
		HTTPClient:     httpClient,
		Logger:         log,
		LiveCategory:   cfg.LiveCategory,
		ReplayCategory: cfg.ReplayCategory,
		PageSize:       cfg.PageSize,
	})
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &pipeline.Pipeline{
		Client:     client,
		Fetcher:    api.NewFetcher(httpClient, log),
		Clock:      quartz.NewReal(),
		Location:   loc,
		Log:        log,
		PinVariant: cfg.PinVariant,
		FullURLs:   cfg.FullURLs,
		Player: pipeline.PlayerOptions{
			Executable: cfg.Player,
			LogLevel:   cfg.PlayerLogLevel,
			Proxy:      cfg.Proxy,
			Quality:    cfg.Quality,
		},
	}, nil
}
