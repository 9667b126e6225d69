package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"dialect-bridge/internal/generative"
	"dialect-bridge/internal/model"
	"dialect-bridge/internal/utils/sql_translator"
)

const (
	attemptOriginal   = "original"
	attemptRules      = "rules"
	attemptGenerative = "generative"

	noteWidth = 200
)

var declaresRoutine = regexp.MustCompile(`(?im)^[ \t]*CREATE\s+(?:OR\s+REPLACE\s+)?(?:TEMPORARY\s+)?FUNCTION\b`)

// Oracle validates one statement. Every call is one round trip to the planner.
type Oracle interface {
	Validate(ctx context.Context, statement string) model.ValidationVerdict
}

// RuleCatalog resolves the rewrite engine for a source dialect.
type RuleCatalog interface {
	EngineFor(source model.Dialect) (*sql_translator.Engine, error)
}

// EscalationController walks one unit through original validation, rule
// rewriting and generative translation until the planner accepts a text.
type EscalationController struct {
	oracle    Oracle
	rules     RuleCatalog
	generator generative.Translator
	metrics   *MetricsCollector
	logger    *zap.Logger
}

// NewEscalationController wires the collaborators. A nil generator disables
// the generative step; a nil metrics collector records nothing.
func NewEscalationController(oracle Oracle, rules RuleCatalog, generator generative.Translator, metrics *MetricsCollector, logger *zap.Logger) *EscalationController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationController{
		oracle:    oracle,
		rules:     rules,
		generator: generator,
		metrics:   metrics,
		logger:    logger.Named("escalation"),
	}
}

// Process decides the disposition of one unit. It never returns an error:
// every collaborator failure ends up in the notes.
func (c *EscalationController) Process(ctx context.Context, unit model.TranslationUnit) model.Disposition {
	start := time.Now()
	d := c.process(ctx, unit)
	c.metrics.RecordDisposition(d, time.Since(start))
	c.logger.Debug("unit processed",
		zap.String("unit", unit.Identifier),
		zap.String("outcome", d.Outcome.String()),
		zap.Int("oracle_calls", d.OracleCalls),
		zap.Int("generative_calls", d.GenerativeCalls),
	)
	return d
}

func (c *EscalationController) process(ctx context.Context, unit model.TranslationUnit) model.Disposition {
	d := model.Disposition{Unit: unit}
	source := unit.SourceText

	if unit.IsUDFDefinitions() || declaresRoutine.MatchString(source) {
		d.AddNote("Function definitions are executed directly, no plan validation")
		d.Accept(model.OutcomeAsIs, source)
		return d
	}

	engine, err := c.rules.EngineFor(unit.Dialect)
	if err != nil {
		d.AddNote("No rewrite rules: %v", err)
		engine = nil
	}

	if reason, unsupported := sql_translator.KnownUnsupported(source); unsupported {
		d.AddNote("Skipped validation of original: %s", reason)
		d.LastDiagnostic = reason
	} else if c.validate(ctx, &d, attemptOriginal, source) {
		c.acceptOriginal(&d, engine)
		return d
	}

	if engine != nil {
		result := engine.Apply(source)
		for _, desc := range result.Descriptions() {
			d.AddNote("Rule: %s", desc)
		}
		for _, advisory := range result.Advisories {
			d.AddNote("Advisory: %s", advisory)
		}
		if result.Changed() {
			if c.validate(ctx, &d, attemptRules, result.Text) {
				d.Accept(model.OutcomeRuleFixed, result.Text)
				return d
			}
		} else {
			d.AddNote("No rewrite rule changed the text")
		}
	}

	c.tryGenerative(ctx, &d)
	return d
}

// acceptOriginal applies the always-on storage rules to an accepted original.
// Storage clauses sit outside the explained body, so the result is not
// validated again.
func (c *EscalationController) acceptOriginal(d *model.Disposition, engine *sql_translator.Engine) {
	if engine != nil {
		result := engine.ApplyTagged(d.Unit.SourceText, sql_translator.TagStorage)
		if result.Changed() {
			for _, desc := range result.Descriptions() {
				d.AddNote("Rule: %s", desc)
			}
			d.Accept(model.OutcomeRuleFixed, result.Text)
			return
		}
	}
	d.Accept(model.OutcomeAsIs, d.Unit.SourceText)
}

func (c *EscalationController) tryGenerative(ctx context.Context, d *model.Disposition) {
	if c.generator == nil {
		d.AddNote("Generative step skipped: %v", generative.ErrDisabled)
		d.Fail()
		return
	}

	d.GenerativeCalls++
	text, err := c.generator.Translate(ctx, generative.Request{
		SourceDialect: d.Unit.Dialect,
		TargetDialect: model.DialectDatabricks,
		Diagnostic:    d.LastDiagnostic,
		QueryText:     d.Unit.SourceText,
	})
	c.metrics.RecordGenerativeCall(c.generator.Name(), err)
	if err != nil {
		d.AddNote("Generative call %d (%s) failed: %s", d.GenerativeCalls, c.generator.Name(), clip(err.Error()))
		d.Fail()
		return
	}
	d.AddNote("Generative call %d (%s) returned a candidate", d.GenerativeCalls, c.generator.Name())

	if c.validate(ctx, d, attemptGenerative, text) {
		d.Accept(model.OutcomeAiConverted, text)
		return
	}
	d.Fail()
}

// validate runs one oracle call and records it on the disposition.
func (c *EscalationController) validate(ctx context.Context, d *model.Disposition, attempt, text string) bool {
	d.OracleCalls++
	verdict := c.oracle.Validate(ctx, text)
	c.metrics.RecordOracleCall(d.Unit.Dialect, attempt, verdict.Accepted)

	if verdict.Accepted {
		d.AddNote("Validation %d (%s): accepted", d.OracleCalls, attempt)
		return true
	}
	d.LastDiagnostic = verdict.Diagnostic
	d.AddNote("Validation %d (%s): rejected: %s", d.OracleCalls, attempt, clip(verdict.Diagnostic))
	return false
}

// clip keeps the first line of a diagnostic, bounded for notes.
func clip(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > noteWidth {
		s = s[:noteWidth] + "..."
	}
	return s
}
