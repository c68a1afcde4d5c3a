// Package main provides the entry point for the grid-picks reconciler
// service: the scheduled job that advances race lifecycle, pulls results
// from OpenF1 and keeps scores and season stats current.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/grid-picks/internal/config"
	"github.com/yourusername/grid-picks/internal/database"
	"github.com/yourusername/grid-picks/internal/datasource"
	"github.com/yourusername/grid-picks/internal/health"
	"github.com/yourusername/grid-picks/internal/logger"
	"github.com/yourusername/grid-picks/internal/metrics"
	"github.com/yourusername/grid-picks/internal/repository"
	"github.com/yourusername/grid-picks/internal/scheduler"
	"github.com/yourusername/grid-picks/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(runOnceCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Grid Picks reconciliation service",
	Long: `Runs the grid-picks reconciliation loop: advances race statuses as
sessions start, fetches final classifications from OpenF1 once results have
settled, scores them and recomputes season stats.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Execute a single reconciliation pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("grid-picks reconciler %s (%s) built %s\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// deps holds everything the daemon and run-once modes share
type deps struct {
	cfg            *config.Config
	log            *logrus.Logger
	db             *database.DB
	reconciliation *service.ReconciliationService
}

func setup(ctx context.Context) (*deps, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	if cfg.IsProduction() {
		appLog.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repos, err := repository.NewRepositories(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.OpenF1.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.OpenF1.MaxRetries
	httpCfg.RateLimit = cfg.OpenF1.RateLimit
	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, appLog)

	source := datasource.NewOpenF1Client(
		httpClient,
		cfg.OpenF1.BaseURL,
		time.Duration(cfg.OpenF1.MeetingCacheTTLMinutes)*time.Minute,
		appLog,
	)

	stats := service.NewStatsService(repos.Race, repos.Pick, repos.Result, repos.Stats, appLog)
	reconciliation := service.NewReconciliationService(
		repos.Season, repos.Race, repos.Driver, repos.Pick, repos.Result,
		stats, source, appLog,
		time.Duration(cfg.Reconciliation.FetchTimeoutSeconds)*time.Second,
	)

	return &deps{cfg: cfg, log: appLog, db: db, reconciliation: reconciliation}, nil
}

func runDaemon() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := setup(ctx)
	if err != nil {
		return err
	}
	defer d.db.Close()

	d.log.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"environment": d.cfg.App.Environment,
	}).Info("Starting grid-picks reconciler")

	metrics.InitRegistry()

	sched := scheduler.NewScheduler(d.reconciliation, d.log)
	if err := sched.ScheduleReconciliation(d.cfg.Reconciliation.IntervalSeconds); err != nil {
		return err
	}

	var metricsServer *http.Server
	if d.cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(d.cfg.Metrics.Port)
		go func() {
			d.log.WithField("port", d.cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				d.log.WithError(err).Error("Metrics server error")
			}
		}()
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: "grid-picks-reconciler",
		Version:     Version,
		Commit:      GitCommit,
		Port:        d.cfg.Health.Port,
		Logger:      d.log,
		DB:          d.db,
		Scheduler:   sched,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	if err := sched.Start(); err != nil {
		return err
	}
	healthServer.SetReady(true)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	d.log.WithField("signal", sig.String()).Info("Shutting down")
	healthServer.SetReady(false)
	sched.Stop()
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	cancel()

	return nil
}

func runOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	d, err := setup(ctx)
	if err != nil {
		return err
	}
	defer d.db.Close()

	metrics.InitRegistry()

	report, err := d.reconciliation.Run(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
