// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/showcase-sync/internal/clock/system"
	"github.com/JakeFAU/showcase-sync/internal/config"
	collyfetcher "github.com/JakeFAU/showcase-sync/internal/fetcher/colly"
	"github.com/JakeFAU/showcase-sync/internal/githost"
	"github.com/JakeFAU/showcase-sync/internal/id/uuid"
	"github.com/JakeFAU/showcase-sync/internal/ingest"
	"github.com/JakeFAU/showcase-sync/internal/publisher/pubsub"
	"github.com/JakeFAU/showcase-sync/internal/resolver"
	"github.com/JakeFAU/showcase-sync/internal/showcase"
	"github.com/JakeFAU/showcase-sync/internal/storage/gcs"
	"github.com/JakeFAU/showcase-sync/internal/storage/local"
	"github.com/JakeFAU/showcase-sync/internal/storage/memory"
	"github.com/JakeFAU/showcase-sync/internal/storage/postgres"
	"github.com/JakeFAU/showcase-sync/internal/worker"
)

// Options adjusts which services NewApp builds.
type Options struct {
	// DryRun keeps records in memory instead of connecting to Postgres.
	DryRun bool
}

// RecordStore is the persistence surface the app needs from a project store.
type RecordStore interface {
	showcase.RecordStore
	Ping(ctx context.Context) error
}

// App holds all the shared, long-lived services for the application.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	pipeline *ingest.Pipeline
	runner   *worker.Runner
	store    RecordStore
	closers  []func()
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Pipeline returns the record builder.
func (a *App) Pipeline() *ingest.Pipeline {
	return a.pipeline
}

// Runner returns the sync runner.
func (a *App) Runner() *worker.Runner {
	return a.runner
}

// Store returns the project store.
func (a *App) Store() RecordStore {
	return a.store
}

// NewApp builds every service from cfg. It fails fast if a configured
// dependency cannot be initialized.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	hosts := cfg.Hosts()
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
	})
	source := githost.New(fetcher, githost.Config{
		Hosts:           hosts,
		Token:           cfg.Source.Token,
		BranchesPerPage: cfg.Source.BranchesPerPage,
		MaxBranchPages:  cfg.Source.MaxBranchPages,
	}, logger.Named("githost"))
	res := resolver.New(source, resolver.Config{
		DescriptionFile: cfg.Source.DescriptionFile,
		ConfigFile:      cfg.Source.ConfigFile,
	}, logger.Named("resolver"))
	clock := system.New()
	a.pipeline = ingest.NewPipeline(res, ingest.NewAssembler(hosts, clock), logger.Named("pipeline"))

	if err := a.initStore(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	blobs, err := a.initBlobStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	publisher, err := a.initPublisher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.runner = worker.New(
		a.pipeline,
		a.store,
		blobs,
		publisher,
		cfg,
		clock,
		uuid.New(),
		worker.Config{
			VideoURL:       cfg.Event.VideoURL,
			DefaultTrack:   cfg.Event.DefaultTrack,
			Concurrency:    cfg.Worker.Concurrency,
			SnapshotPrefix: cfg.Storage.Prefix,
		},
		logger.Named("worker"),
	)
	logger.Info("application services initialized",
		zap.Bool("dry_run", opts.DryRun),
		zap.String("storage", cfg.Storage.Provider),
		zap.Bool("pubsub", cfg.PubSub.Enabled()),
	)
	return a, nil
}

func (a *App) initStore(ctx context.Context, opts Options) error {
	if opts.DryRun {
		a.logger.Info("dry run, records are kept in memory")
		a.store = memory.NewProjectStore()
		return nil
	}
	store, err := postgres.NewProjectStore(ctx, postgres.ProjectStoreConfig{
		DSN:      a.cfg.DB.DSN,
		Table:    a.cfg.DB.Table,
		MaxConns: a.cfg.DB.MaxConns,
		MinConns: a.cfg.DB.MinConns,
	})
	if err != nil {
		return fmt.Errorf("init project store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	return nil
}

// initBlobStore returns a nil interface when archiving is disabled.
func (a *App) initBlobStore(ctx context.Context) (showcase.BlobStore, error) {
	switch a.cfg.Storage.Provider {
	case config.StorageLocal:
		store, err := local.New(local.Config{BaseDir: a.cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local blob store: %w", err)
		}
		return store, nil
	case config.StorageGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Storage.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("init gcs blob store: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := store.Close(); err != nil {
				a.logger.Warn("close storage client", zap.Error(err))
			}
		})
		return store, nil
	default:
		return nil, nil
	}
}

// initPublisher returns a nil interface when Pub/Sub is not configured.
func (a *App) initPublisher(ctx context.Context) (showcase.Publisher, error) {
	if !a.cfg.PubSub.Enabled() {
		return nil, nil
	}
	pub, client, err := pubsub.NewFromConfig(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.TopicName)
	if err != nil {
		return nil, fmt.Errorf("init publisher: %w", err)
	}
	a.closers = append(a.closers, func() {
		pub.Stop()
		if err := client.Close(); err != nil {
			a.logger.Warn("close pubsub client", zap.Error(err))
		}
	})
	return pub, nil
}

// Close releases services in reverse initialization order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
