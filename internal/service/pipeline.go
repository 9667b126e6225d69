package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"dialect-bridge/internal/generative"
	"dialect-bridge/internal/model"
	"dialect-bridge/internal/oracle"
	"dialect-bridge/internal/report"
	"dialect-bridge/internal/storage"
	"dialect-bridge/internal/utils"
	"dialect-bridge/internal/utils/sql_splitter"
)

const (
	// ReportName is the plain-text run report.
	ReportName = "processing_results.txt"
	// RunLogName is the structured run log.
	RunLogName = "processing_results.yaml"
)

// Progress receives per-unit progress as it happens.
type Progress interface {
	FileStarted(path string, dialect model.Dialect, units int)
	UnitStarted(index, total int, unit model.TranslationUnit)
	UnitFinished(index, total int, d model.Disposition)
}

// RunRecorder persists finished runs.
type RunRecorder interface {
	SaveRun(ctx context.Context, run model.RunReport) error
}

// GeneratorFactory builds the generative backend for a session. Returning nil
// disables the generative step.
type GeneratorFactory func(exec generative.StatementExecutor) generative.Translator

// PipelineOptions tune a Pipeline.
type PipelineOptions struct {
	// Dialect forces the source dialect; empty detects it per file.
	Dialect   model.Dialect
	PlanLines int
	// RunID names the run; empty generates one.
	RunID string
}

// Pipeline translates files one after another, holding one warehouse
// session per file.
type Pipeline struct {
	sessions  SessionFactory
	rules     RuleCatalog
	generator GeneratorFactory
	sink      storage.Sink
	recorder  RunRecorder
	progress  Progress
	metrics   *MetricsCollector
	options   PipelineOptions
	logger    *zap.Logger
}

// NewPipeline creates a pipeline. generator, recorder, progress and metrics
// are optional.
func NewPipeline(sessions SessionFactory, rules RuleCatalog, sink storage.Sink, options PipelineOptions, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		sessions: sessions,
		rules:    rules,
		sink:     sink,
		progress: noProgress{},
		options:  options,
		logger:   logger.Named("pipeline"),
	}
}

func (p *Pipeline) WithGenerator(factory GeneratorFactory) *Pipeline {
	p.generator = factory
	return p
}

func (p *Pipeline) WithRecorder(recorder RunRecorder) *Pipeline {
	p.recorder = recorder
	return p
}

func (p *Pipeline) WithProgress(progress Progress) *Pipeline {
	if progress != nil {
		p.progress = progress
	}
	return p
}

func (p *Pipeline) WithMetrics(metrics *MetricsCollector) *Pipeline {
	p.metrics = metrics
	return p
}

// Run processes every path in order and writes the run artifacts. A file or
// connection failure stops the run; the partial report is still written.
func (p *Pipeline) Run(ctx context.Context, paths []string) (model.RunReport, error) {
	run := model.RunReport{RunID: p.options.RunID, StartedAt: time.Now()}
	if run.RunID == "" {
		run.RunID = utils.NewRunID()
	}
	p.logger.Info("run started", zap.String("run_id", run.RunID), zap.Int("files", len(paths)))

	var runErr error
	for _, path := range paths {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		file, err := p.ProcessFile(ctx, path)
		if len(file.Dispositions) > 0 || err == nil {
			run.Files = append(run.Files, file)
		}
		if err != nil {
			runErr = err
			break
		}
	}
	run.FinishedAt = time.Now()

	if err := p.writeRunArtifacts(context.WithoutCancel(ctx), run); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			p.logger.Error("failed to write run artifacts", zap.Error(err))
		}
	}
	if p.recorder != nil {
		if err := p.recorder.SaveRun(context.WithoutCancel(ctx), run); err != nil {
			p.logger.Warn("failed to record run history", zap.String("run_id", run.RunID), zap.Error(err))
		}
	}

	p.logger.Info("run finished",
		zap.String("run_id", run.RunID),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
		zap.Error(runErr))
	return run, runErr
}

// ProcessFile translates one file and writes its translated output.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (model.FileResult, error) {
	dialect := DetectDialect(path, p.options.Dialect)
	result := model.FileResult{Path: path, Dialect: dialect}

	data, err := os.ReadFile(path)
	if err != nil {
		return result, utils.NewErrorBuilder(utils.ErrCodeInvalidRequest).
			WithMessage("cannot read input file").
			WithDetails(path).
			WithCause(err).
			Build()
	}

	units, extraction := sql_splitter.Units(string(data), sql_splitter.ForDialect(dialect, filepath.Base(path)))
	if len(extraction.Directives) > 0 {
		p.logger.Debug("dropped session directives", zap.String("file", path), zap.Strings("directives", extraction.Directives))
	}
	if len(units) == 0 {
		p.logger.Warn("no statements found", zap.String("file", path))
		return result, nil
	}

	dispositions, err := p.processUnits(ctx, path, dialect, units)
	result.Dispositions = dispositions
	if err != nil {
		return result, err
	}

	location, err := p.sink.Write(ctx, report.OutputName(path), []byte(report.RenderFileOutput(result)))
	if err != nil {
		return result, utils.NewErrorBuilder(utils.ErrCodeArtifactWriteFailed).WithDetails(path).WithCause(err).Build()
	}
	result.OutputPath = location
	return result, nil
}

// TranslateText translates in-memory SQL without writing artifacts.
func (p *Pipeline) TranslateText(ctx context.Context, origin, text string, dialect model.Dialect) (model.FileResult, error) {
	if dialect == "" {
		dialect = model.DialectHive
	}
	result := model.FileResult{Path: origin, Dialect: dialect}
	units, _ := sql_splitter.Units(text, sql_splitter.ForDialect(dialect, origin))
	if len(units) == 0 {
		return result, nil
	}
	dispositions, err := p.processUnits(ctx, origin, dialect, units)
	result.Dispositions = dispositions
	return result, err
}

// processUnits holds one session for the given units and releases it on
// every exit path.
func (p *Pipeline) processUnits(ctx context.Context, path string, dialect model.Dialect, units []model.TranslationUnit) ([]model.Disposition, error) {
	session, err := p.sessions.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			p.logger.Warn("failed to close session", zap.Error(err))
		}
	}()

	controller := p.controllerFor(session)
	p.progress.FileStarted(path, dialect, len(units))

	dispositions := make([]model.Disposition, 0, len(units))
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return dispositions, err
		}
		p.progress.UnitStarted(i+1, len(units), unit)
		d := controller.Process(ctx, unit)
		p.progress.UnitFinished(i+1, len(units), d)
		dispositions = append(dispositions, d)
	}
	return dispositions, nil
}

func (p *Pipeline) controllerFor(session Session) *EscalationController {
	validator := oracle.NewValidator(oracle.NewDatabricksExplainer(session), p.options.PlanLines, p.logger)
	var generator generative.Translator
	if p.generator != nil {
		generator = p.generator(session)
	}
	return NewEscalationController(validator, p.rules, generator, p.metrics, p.logger)
}

func (p *Pipeline) writeRunArtifacts(ctx context.Context, run model.RunReport) error {
	if _, err := p.sink.Write(ctx, ReportName, []byte(report.RenderReport(run))); err != nil {
		return utils.NewErrorBuilder(utils.ErrCodeArtifactWriteFailed).WithDetails(ReportName).WithCause(err).Build()
	}
	runLog, err := report.RenderYAML(run)
	if err != nil {
		return err
	}
	if _, err := p.sink.Write(ctx, RunLogName, runLog); err != nil {
		return utils.NewErrorBuilder(utils.ErrCodeArtifactWriteFailed).WithDetails(RunLogName).WithCause(err).Build()
	}
	return nil
}

// DetectDialect picks the source dialect of a file. A forced dialect wins;
// otherwise .sql files are Trino and everything else HiveQL.
func DetectDialect(path string, forced model.Dialect) model.Dialect {
	if forced != "" {
		return forced
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sql", ".trino":
		return model.DialectTrino
	default:
		return model.DialectHive
	}
}

// ErrNoInputs is returned when input discovery finds nothing.
var ErrNoInputs = errors.New("no input files found")

// DiscoverInputs lists *.hql and *.sql files in dir, sorted.
func DiscoverInputs(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.hql", "*.sql"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

type noProgress struct{}

func (noProgress) FileStarted(string, model.Dialect, int)      {}
func (noProgress) UnitStarted(int, int, model.TranslationUnit) {}
func (noProgress) UnitFinished(int, int, model.Disposition)    {}
