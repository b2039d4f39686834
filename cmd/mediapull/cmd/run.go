package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/mediapull/internal/acquisition"
	"github.com/jmylchreest/mediapull/internal/audit"
	"github.com/jmylchreest/mediapull/internal/config"
	"github.com/jmylchreest/mediapull/internal/events"
	"github.com/jmylchreest/mediapull/internal/exporters"
	"github.com/jmylchreest/mediapull/internal/handlers"
	"github.com/jmylchreest/mediapull/internal/handlers/plugin"
	"github.com/jmylchreest/mediapull/internal/httpapi"
	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/internal/pipeline/core"
	acquisitionstage "github.com/jmylchreest/mediapull/internal/pipeline/stages/acquisition"
	"github.com/jmylchreest/mediapull/internal/pipeline/stages/export"
	"github.com/jmylchreest/mediapull/internal/pipeline/stages/filtering"
	"github.com/jmylchreest/mediapull/internal/pipeline/stages/organization"
	"github.com/jmylchreest/mediapull/internal/pipeline/stages/processing"
	"github.com/jmylchreest/mediapull/internal/ratelimit"
	"github.com/jmylchreest/mediapull/internal/scraper"
	"github.com/jmylchreest/mediapull/internal/scraper/authenticated"
	"github.com/jmylchreest/mediapull/internal/scraper/public"
	"github.com/jmylchreest/mediapull/internal/statestore"
	"github.com/jmylchreest/mediapull/internal/storage"
	"github.com/jmylchreest/mediapull/internal/version"
	"github.com/jmylchreest/mediapull/internal/workerpool"
	"github.com/jmylchreest/mediapull/pkg/httpclient"
)

// runCmd drives a single acquisition-to-export pass: resolve targets,
// scrape, filter, process, organize, and export, in that order.
var runCmd = &cobra.Command{
	Use:   "run [targets...]",
	Short: "Run the acquisition-to-export pipeline once",
	Long: `Run resolves every target (positional arguments, --targets-file,
config's targets.targets, and the legacy --user flag are all merged), scrapes
their posts, runs the filter chain, dispatches surviving posts to content
handlers, organizes the resulting output files, and exports run metadata.

With --dry-run (or executor.dry_run in config), Processing and Organization
are skipped: the run only resolves, scrapes, filters, and exports.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("targets-file", "", "path to a file with one target per line, overrides config")
	runCmd.Flags().String("user", "", "legacy single-user target, equivalent to u/<name>")
	runCmd.Flags().Bool("status-server", false, "serve /healthz, /metrics, /sessions/{id} for the run's duration, overrides config's httpapi.enabled")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := loadedConfig
	logger := slog.Default()

	rawTargets, err := resolveRawTargets(cmd, args, cfg)
	if err != nil {
		return err
	}

	sandbox, err := storage.NewSandbox(cfg.Storage.BaseDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	bus := events.NewBus(logger)
	bus.Subscribe("*", events.NewConsoleObserver(logger))

	limiter := ratelimit.NewCoordinator(logger)

	poolManager := workerpool.NewManager(logger)
	poolManager.Start(context.Background())
	defer poolManager.Stop()

	auditor, err := buildAuditor(cfg.Audit)
	if err != nil {
		return fmt.Errorf("initializing audit log: %w", err)
	}
	if auditor != nil {
		defer auditor.Close()
	}

	store, err := statestore.Open(statestore.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()

	httpFactory := httpclient.NewClientFactory(nil).WithLogger(logger)
	adapter := scraper.NewAdapter(buildScraper(cfg, httpFactory, limiter))

	resolver := acquisition.NewResolver(acquisition.ResolverConfig{
		DefaultListing: models.Listing(cfg.Scraper.ListingType),
		DefaultPeriod:  models.Period(cfg.Scraper.TimePeriod),
		HasAPIAuth:     cfg.Auth.HasCredentials(),
	})

	batch := acquisition.NewBatchProcessor(acquisition.BatchConfig{
		MaxConcurrent:    cfg.Targets.ConcurrentTargets,
		RateLimitDelay:   cfg.Scraper.SleepInterval,
		RetryAttempts:    cfg.Scraper.Retries,
		RetryDelay:       cfg.Scraper.RetryDelay,
		TimeoutPerTarget: cfg.Scraper.TargetTimeout,
		PostLimit:        cfg.Scraper.PostLimit,
	}, adapter, poolManager.Pool(models.PoolDownloads), bus)

	chain, err := buildFilterChain(cfg.Filter)
	if err != nil {
		return fmt.Errorf("building filter chain: %w", err)
	}

	registry := buildHandlerRegistry(httpFactory, limiter, sandbox)
	if cfg.Processing.EnablePlugins {
		pluginManager := plugin.NewManager(registry, cfg.Processing.PluginDirectories...)
		rejected, loadErr := pluginManager.LoadAll()
		if loadErr != nil {
			return fmt.Errorf("loading content-handler plugins: %w", loadErr)
		}
		for name, reason := range rejected {
			logger.Warn("rejected content-handler plugin", slog.String("plugin", name), slog.String("reason", reason))
		}
		defer func() {
			for _, err := range pluginManager.Shutdown() {
				logger.Warn("plugin shutdown error", slog.Any("error", err))
			}
		}()
	}

	deps := &core.Dependencies{
		RateLimiter:      limiter,
		Pools:            poolsOf(poolManager),
		Sandbox:          sandbox,
		EventBus:         bus,
		Logger:           logger,
		HandlerRegistry:  registry,
		ExporterRegistry: exporters.NewDefaultRegistry(),
		StateStore:       store,
	}

	formats, err := buildExportFormats(cfg.Export)
	if err != nil {
		return fmt.Errorf("building export formats: %w", err)
	}

	factory := core.NewFactory(deps, resolveErrorPolicy(cfg.Executor.ErrorHandling))
	factory.RegisterStage(acquisitionstage.NewConstructor(resolver, batch, rawTargets))
	factory.RegisterStage(filtering.NewConstructor(chain))
	if !cfg.Executor.DryRun {
		factory.RegisterStage(processing.NewConstructor())
		factory.RegisterStage(organization.NewConstructor(organization.Config{
			OrganizeBy:      cfg.Organization.OrganizeBy,
			CreateStructure: cfg.Organization.CreateStructure,
			MoveFiles:       cfg.Organization.MoveFiles,
		}))
	}
	factory.RegisterStage(export.NewConstructor(formats))

	executor, err := factory.Create()
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	if statusFlag, _ := cmd.Flags().GetBool("status-server"); statusFlag {
		cfg.HTTPAPI.Enabled = true
	}

	if cfg.HTTPAPI.Enabled {
		statusCfg := httpapi.DefaultConfig()
		statusCfg.Host = cfg.HTTPAPI.Host
		statusCfg.Port = cfg.HTTPAPI.Port
		statusServer := httpapi.NewServer(statusCfg,
			httpapi.Dependencies{RateLimiter: limiter, Pools: poolManager, Sessions: store}, logger)
		go func() {
			if err := statusServer.ListenAndServe(ctx); err != nil {
				logger.Error("status server stopped unexpectedly", slog.Any("error", err))
			}
		}()
	}

	pctx := models.NewContext(models.NewULID(), nil)
	pctx.SessionState = store

	if err := store.CreateSession(ctx, pctx.SessionID); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if err := store.UpdateStatus(pctx.SessionID, models.SessionRunning, nil); err != nil {
		return fmt.Errorf("marking session running: %w", err)
	}

	logger.Info("starting mediapull run",
		slog.String("session_id", pctx.SessionID.String()),
		slog.Int("target_count", len(rawTargets)),
		slog.Bool("dry_run", cfg.Executor.DryRun),
		slog.String("version", version.Version),
	)

	metrics, runErr := executor.Execute(ctx, pctx)

	endTime := time.Now().UTC()
	finalStatus := models.SessionCompleted
	if runErr != nil {
		finalStatus = models.SessionFailed
	}
	if err := store.UpdateStatus(pctx.SessionID, finalStatus, &endTime); err != nil {
		logger.Warn("failed to record final session status", slog.Any("error", err))
	}

	if auditor != nil {
		auditor.LogConfigEvent("validate", "pipeline_run", runErr == nil, pctx.SessionID.String())
	}
	if runErr != nil {
		return fmt.Errorf("pipeline run failed: %w", runErr)
	}

	logger.Info("run complete",
		slog.Int("posts_acquired", len(pctx.Posts)),
		slog.Duration("duration", metrics.Duration),
		slog.Bool("success", metrics.Success),
	)
	return nil
}

// resolveRawTargets merges positional args, --targets-file/--user flags,
// and the corresponding config keys into one deduplicated target list.
func resolveRawTargets(cmd *cobra.Command, args []string, cfg *config.Config) ([]string, error) {
	targetsFileFlag, _ := cmd.Flags().GetString("targets-file")
	legacyUser, _ := cmd.Flags().GetString("user")

	targetsFile := cfg.Targets.TargetsFile
	if targetsFileFlag != "" {
		targetsFile = targetsFileFlag
	}
	if legacyUser == "" {
		legacyUser = cfg.Targets.TargetUser
	}
	if legacyUser != "" && !strings.HasPrefix(legacyUser, "u/") && !strings.HasPrefix(legacyUser, "/u/") {
		legacyUser = "u/" + legacyUser
	}

	var fileTargets []string
	if targetsFile != "" {
		var err error
		fileTargets, err = acquisition.LoadTargetsFromFile(context.Background(), targetsFile)
		if err != nil {
			return nil, fmt.Errorf("loading targets file: %w", err)
		}
	}

	inline := append([]string{}, cfg.Targets.Targets...)
	inline = append(inline, args...)

	rawTargets := acquisition.MergeTargets(inline, fileTargets, legacyUser)
	if len(rawTargets) == 0 {
		return nil, fmt.Errorf("no targets specified: pass targets as arguments, set targets.targets in config, or use --targets-file/--user")
	}
	return rawTargets, nil
}

// buildAuditor constructs the security-event Auditor when a log file is
// configured; a run with no audit.log_file set runs without one.
func buildAuditor(cfg config.AuditConfig) (*audit.Auditor, error) {
	if cfg.LogFile == "" {
		return nil, nil
	}
	return audit.New(audit.Config{
		LogFile:        cfg.LogFile,
		MaxFileSize:    cfg.MaxFileSize.Int64(),
		BackupCount:    cfg.BackupCount,
		EnableDetector: cfg.EnableDetector,
	})
}

// buildScraper selects the authenticated transport when full OAuth2
// credentials are configured, falling back to the public transport.
func buildScraper(cfg *config.Config, httpFactory *httpclient.ClientFactory, limiter *ratelimit.Coordinator) scraper.Scraper {
	if cfg.Auth.HasCredentials() {
		return authenticated.New(authenticated.Credentials{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			Username:     cfg.Auth.Username,
			Password:     cfg.Auth.Password,
		}, limiter, cfg.Auth.UserAgent)
	}
	return public.New(httpFactory.CreateClientForService("public"), limiter, cfg.Auth.UserAgent)
}

// buildFilterChain turns config.FilterConfig into a filtering.Chain,
// parsing the RFC3339 date bounds here since that conversion is outside
// internal/config's Viper-decoded scope.
func buildFilterChain(cfg config.FilterConfig) (*filtering.Chain, error) {
	chain := &filtering.Chain{Composition: filtering.Composition(cfg.FilterComposition)}

	if cfg.MinScore != nil || cfg.MaxScore != nil {
		chain.Filters = append(chain.Filters, &filtering.ScoreFilter{Min: cfg.MinScore, Max: cfg.MaxScore})
	}

	if cfg.DateFrom != "" || cfg.DateTo != "" {
		var from, to time.Time
		var err error
		if cfg.DateFrom != "" {
			if from, err = time.Parse(time.RFC3339, cfg.DateFrom); err != nil {
				return nil, fmt.Errorf("parsing filter.date_from: %w", err)
			}
		}
		if cfg.DateTo != "" {
			if to, err = time.Parse(time.RFC3339, cfg.DateTo); err != nil {
				return nil, fmt.Errorf("parsing filter.date_to: %w", err)
			}
		}
		chain.Filters = append(chain.Filters, &filtering.DateFilter{From: from, To: to})
	}

	if len(cfg.KeywordsInclude) > 0 || len(cfg.KeywordsExclude) > 0 {
		chain.Filters = append(chain.Filters, &filtering.KeywordFilter{
			Include: cfg.KeywordsInclude,
			Exclude: cfg.KeywordsExclude,
		})
	}

	if len(cfg.DomainsAllow) > 0 || len(cfg.DomainsBlock) > 0 {
		chain.Filters = append(chain.Filters, &filtering.DomainFilter{
			Allow: cfg.DomainsAllow,
			Block: cfg.DomainsBlock,
		})
	}

	if len(cfg.MediaTypes) > 0 || len(cfg.ExcludeMediaTypes) > 0 || len(cfg.FileExtensions) > 0 || len(cfg.ExcludeFileExtensions) > 0 {
		chain.Filters = append(chain.Filters, &filtering.MediaTypeFilter{
			AllowTypes:      toPostTypes(cfg.MediaTypes),
			BlockTypes:      toPostTypes(cfg.ExcludeMediaTypes),
			AllowExtensions: cfg.FileExtensions,
			BlockExtensions: cfg.ExcludeFileExtensions,
		})
	}

	if cfg.NSFWMode != "" && cfg.NSFWMode != "include" {
		chain.Filters = append(chain.Filters, &filtering.NSFWFilter{Mode: filtering.NSFWMode(cfg.NSFWMode)})
	}

	if errs := chain.ValidateConfig(); len(errs) > 0 {
		return nil, errs[0]
	}
	return chain, nil
}

func toPostTypes(names []string) []models.PostType {
	types := make([]models.PostType, len(names))
	for i, n := range names {
		types[i] = models.PostType(n)
	}
	return types
}

// buildHandlerRegistry wires every content handler against the shared
// HTTP client factory, rate limiter, and sandbox.
func buildHandlerRegistry(httpFactory *httpclient.ClientFactory, limiter *ratelimit.Coordinator, sandbox *storage.Sandbox) *handlers.Registry {
	fetcher := handlers.NewFetcher(httpFactory.CreateClientForService("downloads"), limiter, sandbox)

	registry := handlers.NewRegistry()
	registry.Register(&handlers.ImageHandler{Fetcher: fetcher})
	registry.Register(&handlers.GalleryHandler{Fetcher: fetcher})
	registry.Register(&handlers.VideoHandler{Fetcher: fetcher})
	registry.Register(&handlers.TextHandler{Sandbox: sandbox})
	registry.Register(&handlers.ExternalHandler{Sandbox: sandbox})
	registry.Register(&handlers.CrosspostHandler{Sandbox: sandbox})
	registry.Register(&handlers.PollHandler{Sandbox: sandbox})
	return registry
}

// buildExportFormats turns config.ExportConfig into the FormatConfig
// list the export stage consumes, defaulting each format's destination
// to export.dir/<format-name>.
func buildExportFormats(cfg config.ExportConfig) ([]export.FormatConfig, error) {
	if len(cfg.Formats) == 0 {
		return nil, fmt.Errorf("export: at least one format must be configured")
	}

	formats := make([]export.FormatConfig, 0, len(cfg.Formats))
	for _, name := range cfg.Formats {
		exportCfg := exporters.Config{Destination: filepath.Join(cfg.Dir, name)}
		if opts, ok := cfg.FormatOptions[name]; ok {
			if compress, ok := opts["compress"].(bool); ok {
				exportCfg.Compress = compress
			}
			if pretty, ok := opts["pretty"].(bool); ok {
				exportCfg.Pretty = pretty
			}
			if dest, ok := opts["destination"].(string); ok && dest != "" {
				exportCfg.Destination = dest
			}
		}
		formats = append(formats, export.FormatConfig{Format: name, Config: exportCfg})
	}
	return formats, nil
}

// poolsOf adapts a workerpool.Manager's named AsyncPools to the
// core.Dependencies.Pools map, keyed by pool name so a stage that needs
// bounded concurrency (e.g. a future parallel content-handler dispatch)
// can look one up by name.
func poolsOf(m *workerpool.Manager) map[string]core.Pool {
	pools := make(map[string]core.Pool, 4)
	for _, name := range []models.PoolName{models.PoolAsync, models.PoolDownloads, models.PoolProcessing} {
		pools[string(name)] = m.Pool(name)
	}
	return pools
}

// resolveErrorPolicy maps config's halt/continue/skip vocabulary onto
// core.ErrorHandlingPolicy's halt/continue/skip-rest.
func resolveErrorPolicy(policy string) core.ErrorHandlingPolicy {
	switch policy {
	case "continue":
		return core.PolicyContinue
	case "skip":
		return core.PolicySkipRest
	default:
		return core.PolicyHalt
	}
}
