// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/viewrec/internal/config"
	"github.com/tomtom215/viewrec/internal/logging"
	"github.com/tomtom215/viewrec/internal/recommend"
	"github.com/tomtom215/viewrec/internal/source"
	"github.com/tomtom215/viewrec/internal/supervisor"
	"github.com/tomtom215/viewrec/internal/supervisor/services"
)

// options holds the command-line flags.
type options struct {
	configPath  string
	once        bool
	user        string
	n           int
	importViews string
	importItems string
	publish     []string
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return fmt.Sprint(*s)
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// parseFlags parses args (without the program name).
func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := &options{}
	var publish stringList

	fs := flag.NewFlagSet("viewrec", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "path to config.yaml (default: CONFIG_PATH or ./config.yaml)")
	fs.BoolVar(&opts.once, "once", false, "train once, print recommendations as JSON and exit")
	fs.StringVar(&opts.user, "user", "", "with -once, print recommendations for this user only")
	fs.IntVar(&opts.n, "n", 0, "number of recommendations per user (0 uses ranking.default_n)")
	fs.StringVar(&opts.importViews, "import-views", "", "CSV of user_id,item_id[,signal] rows to load before starting")
	fs.StringVar(&opts.importItems, "import-items", "", "CSV of item_id,label rows to load before starting")
	fs.Var(&publish, "publish", "publish user:item[:signal] as an interaction event after startup (repeatable)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.user != "" && !opts.once {
		return nil, fmt.Errorf("-user requires -once")
	}
	if opts.n < 0 {
		return nil, fmt.Errorf("-n must be non-negative, got %d", opts.n)
	}
	if opts.once && len(publish) > 0 {
		return nil, fmt.Errorf("-publish cannot be combined with -once")
	}
	opts.publish = publish

	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logging.Fatal().Err(err).Msg("Invalid arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, opts)
	stop()
	if err != nil {
		logging.Fatal().Err(err).Msg("Viewrec stopped with an error")
	}
}

// run loads configuration, opens the data sources and runs either the
// one-shot batch or the supervised service.
func run(ctx context.Context, opts *options) error {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}

	logging.Init(cfg.Logging)
	logger := logging.Logger()

	logging.Info().
		Str("source", cfg.Source.Path).
		Bool("store", cfg.Store.Enabled).
		Str("transport", cfg.Events.Transport).
		Bool("events", cfg.Events.Enabled).
		Msg("Configuration loaded")

	db, err := source.Open(ctx, cfg.ToSourceConfig(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing interaction database")
		}
	}()

	if err := importCSV(ctx, db, opts); err != nil {
		return err
	}

	components, err := initEngine(cfg, db, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	if opts.once {
		return runOnce(ctx, components.Engine, opts, os.Stdout)
	}
	return serve(ctx, cfg, components.Engine, db, opts, logger)
}

// importCSV loads the -import-items and -import-views files, items first
// so labels exist before the first training run.
func importCSV(ctx context.Context, db *source.DB, opts *options) error {
	if opts.importItems != "" {
		n, err := db.ImportItemsCSV(ctx, opts.importItems)
		if err != nil {
			return fmt.Errorf("import items: %w", err)
		}
		logging.Info().Str("file", opts.importItems).Int64("rows", n).Msg("Imported item labels")
	}
	if opts.importViews != "" {
		n, err := db.ImportViewsCSV(ctx, opts.importViews)
		if err != nil {
			return fmt.Errorf("import views: %w", err)
		}
		logging.Info().Str("file", opts.importViews).Int64("rows", n).Msg("Imported interactions")
	}
	return nil
}

// serve runs the supervisor tree until ctx is canceled.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func serve(ctx context.Context, cfg *config.Config, engine *recommend.Engine, db *source.DB, opts *options, logger zerolog.Logger) error {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	var due <-chan struct{}
	var ev *EventComponents
	if cfg.Events.Enabled {
		ev, err = initEvents(cfg, engine, db, logger)
		if err != nil {
			return err
		}
		defer ev.Close()

		tree.AddIngestService(services.NewEventConsumerService(ev.Consumer))
		due = ev.Trigger.Due()
	} else if len(opts.publish) > 0 {
		return fmt.Errorf("-publish requires events.enabled")
	}

	tree.AddModelService(services.NewRetrainService(engine, services.RetrainServiceConfig{
		RestoreOnStartup: cfg.Store.Enabled && cfg.Training.RestoreOnStartup,
		TrainOnStartup:   cfg.Training.TrainOnStartup,
		TrainInterval:    cfg.Training.Interval,
	}, due, logger))

	if cfg.Metrics.Enabled {
		server := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           newMetricsRouter(cfg.Metrics.Path),
			ReadHeaderTimeout: 10 * time.Second,
		}
		tree.AddTelemetryService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("addr", cfg.Metrics.Addr).Str("path", cfg.Metrics.Path).Msg("Metrics listener configured")
	}

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	if ev != nil && len(opts.publish) > 0 {
		go publishOnReady(ctx, ev, opts.publish)
	}

	// suture sends exactly one value and never closes the channel
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	} else {
		serveErr = nil
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	if serveErr != nil {
		return fmt.Errorf("supervisor: %w", serveErr)
	}
	logging.Info().Msg("Viewrec stopped gracefully")
	return nil
}
