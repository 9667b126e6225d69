// Package app assembles the translation pipeline from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dialect-bridge/internal/config"
	"dialect-bridge/internal/generative"
	"dialect-bridge/internal/model"
	"dialect-bridge/internal/repository"
	"dialect-bridge/internal/security"
	"dialect-bridge/internal/service"
	"dialect-bridge/internal/storage"
	"dialect-bridge/internal/utils"
	"dialect-bridge/internal/utils/sql_translator"
)

// Components are the wired collaborators shared by the binaries.
type Components struct {
	RunID    string
	Rules    *sql_translator.SQLTranslationManager
	Sessions *service.DatabricksSessionFactory
	Sink     storage.Sink
	Metrics  *service.MetricsCollector
	Guard    *security.StatementGuard
	Pipeline *service.Pipeline
	History  *gorm.DB
}

// Options adjust what Build wires.
type Options struct {
	// OutputDir overrides output.dir for the directory sink.
	OutputDir string
	// Dialect forces the source dialect; empty or "auto" detects per file.
	Dialect string
	// Registerer receives pipeline metrics; nil uses the default registry.
	Registerer prometheus.Registerer
}

// Build wires the pipeline. Errors are AppErrors with CONFIG_ERROR or
// CONNECTION_FAILED codes.
func Build(ctx context.Context, cfg *config.Config, opts Options, logger *zap.Logger) (*Components, error) {
	c := &Components{
		RunID:    utils.NewRunID(),
		Sessions: service.NewDatabricksSessionFactory(cfg.WarehouseConfig(), logger),
		Guard:    security.NewStatementGuard(cfg.Security.MaxQueryLength),
	}

	rules, err := sql_translator.NewSQLTranslationManager(cfg.Translation.TargetFormat)
	if err != nil {
		return nil, utils.NewConfigError("invalid translation settings", err)
	}
	c.Rules = rules

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c.Metrics = service.NewMetricsCollector(reg)

	if c.Sink, err = newSink(cfg, opts.OutputDir, c.RunID); err != nil {
		return nil, utils.NewConfigError("invalid output settings", err)
	}

	dialect, err := forcedDialect(opts.Dialect, cfg.Translation.Dialect)
	if err != nil {
		return nil, utils.NewConfigError("invalid source dialect", err)
	}

	generator, err := newGeneratorFactory(ctx, cfg, rules.StorageFormat(), logger)
	if err != nil {
		return nil, utils.NewConfigError("invalid generative settings", err)
	}

	c.Pipeline = service.NewPipeline(c.Sessions, rules, c.Sink, service.PipelineOptions{
		Dialect:   dialect,
		PlanLines: cfg.Translation.PlanLines,
		RunID:     c.RunID,
	}, logger).
		WithGenerator(generator).
		WithMetrics(c.Metrics)

	if cfg.History.Enabled {
		db, err := config.InitDatabase(cfg, logger)
		if err != nil {
			return nil, utils.NewErrorBuilder(utils.ErrCodeHistoryFailed).WithCause(err).Build()
		}
		repo := repository.NewRunRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, utils.NewErrorBuilder(utils.ErrCodeHistoryFailed).WithMessage("history migration failed").WithCause(err).Build()
		}
		c.History = db
		c.Pipeline.WithRecorder(repo)
	}
	return c, nil
}

// Close releases the history database.
func (c *Components) Close() error {
	if c.History == nil {
		return nil
	}
	sqlDB, err := c.History.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newSink(cfg *config.Config, dirOverride, runID string) (storage.Sink, error) {
	switch cfg.Output.Sink {
	case "minio":
		return storage.NewMinIOSink(cfg.MinIOSinkConfig(), runID)
	default:
		dir := cfg.Output.Dir
		if dirOverride != "" {
			dir = dirOverride
		}
		return storage.NewDirSink(dir)
	}
}

func forcedDialect(flag, configured string) (model.Dialect, error) {
	name := flag
	if name == "" {
		name = configured
	}
	if name == "" || name == "auto" {
		return "", nil
	}
	return model.ParseDialect(name)
}

// newGeneratorFactory returns nil when generative translation is disabled.
func newGeneratorFactory(ctx context.Context, cfg *config.Config, format string, logger *zap.Logger) (service.GeneratorFactory, error) {
	gc := cfg.Generative
	switch gc.Backend {
	case "none":
		return nil, nil
	case "gemini":
		gemini, err := generative.NewGeminiTranslator(ctx, gc.GeminiAPIKey, gc.GeminiModel, format, logger)
		if err != nil {
			return nil, err
		}
		limited := generative.WithRateLimit(gemini, gc.RPS, gc.Burst)
		return func(generative.StatementExecutor) generative.Translator { return limited }, nil
	case "ai_query", "":
		return func(exec generative.StatementExecutor) generative.Translator {
			return generative.WithRateLimit(generative.NewAIQueryTranslator(exec, gc.Endpoint, format, logger), gc.RPS, gc.Burst)
		}, nil
	}
	return nil, fmt.Errorf("unknown generative backend %q", gc.Backend)
}
