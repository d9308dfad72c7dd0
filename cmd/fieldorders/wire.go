package main

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/fieldorders/internal/adapter/driven/api"
	"github.com/ericfisherdev/fieldorders/internal/adapter/driven/imaging"
	sqliteadapter "github.com/ericfisherdev/fieldorders/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/fieldorders/internal/adapter/driven/tempfile"
	"github.com/ericfisherdev/fieldorders/internal/application"
	"github.com/ericfisherdev/fieldorders/internal/config"
)

// deps holds the adapters and services shared by every command.
type deps struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *sqliteadapter.DB
	client     *api.Client
	temp       *tempfile.Store
	compressor *imaging.Compressor
	sessions   *application.SessionService
	orders     *application.OrderService
}

func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*deps, error) {
	// Open database (dual reader/writer with WAL mode) and migrate.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("database ready", "path", cfg.DBPath, "schema_version", version)

	key, err := sqliteadapter.DeriveKey(cfg.SecretKey)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if !cfg.HasSecretKey() {
		logger.Warn("FIELDORDERS_SECRET_KEY not set, sessions and passwords will not be stored")
	}
	credentials := sqliteadapter.NewCredentialRepo(db, key)

	client, err := api.NewClient(cfg.BaseURL, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(logger))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	temp, err := tempfile.NewStore(cfg.TempDir, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &deps{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		client:     client,
		temp:       temp,
		compressor: imaging.NewCompressor(logger),
		sessions:   application.NewSessionService(client, credentials, logger),
		orders:     application.NewOrderService(client),
	}, nil
}

// pipeline builds a SignaturePipeline from the configured thresholds.
// observer may be nil.
func (d *deps) pipeline(observer application.StateObserver) *application.SignaturePipeline {
	opts := []application.PipelineOption{
		application.WithMinLength(d.cfg.SignatureMinLength),
		application.WithQuality(d.cfg.SignatureQuality),
		application.WithPipelineLogger(d.logger),
	}
	if observer != nil {
		opts = append(opts, application.WithObserver(observer))
	}
	return application.NewSignaturePipeline(d.client, d.temp, d.compressor, opts...)
}

// Close releases the database.
func (d *deps) Close() {
	if err := d.db.Close(); err != nil {
		d.logger.Error("error closing database", "error", err)
	}
}
