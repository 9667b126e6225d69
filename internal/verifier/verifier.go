// Package verifier executes translated statements for real, after the
// planner accepted them, to catch failures that only show up at run time.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"dialect-bridge/internal/database/drivers/warehouses"
	"dialect-bridge/internal/model"
	"dialect-bridge/internal/security"
	"dialect-bridge/internal/utils/sql_splitter"
)

var createdKind = regexp.MustCompile(`(?i)CREATE\s+(?:OR\s+REPLACE\s+)?(?:TEMPORARY\s+)?(?:EXTERNAL\s+)?(TABLE|VIEW)\b`)

var routineStatement = regexp.MustCompile(`(?is)CREATE\s+(?:OR\s+REPLACE\s+)?FUNCTION\s+(\w+)\s*\([^)]*\)\s*RETURNS\s+\w+\s+RETURN\s+[^;]+`)

// Executor runs one statement on the warehouse.
type Executor interface {
	ExecuteQuery(ctx context.Context, sql string) (*warehouses.DatabricksQueryResult, error)
}

// FixtureLoader prepares source tables before translated statements run.
type FixtureLoader interface {
	Load(ctx context.Context, exec Executor) error
}

// Result is the execution outcome of one unit.
type Result struct {
	File    string        `json:"file" yaml:"file"`
	Unit    string        `json:"unit" yaml:"unit"`
	Success bool          `json:"success" yaml:"success"`
	Skipped bool          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Verifier runs the final text of every non-failed unit.
type Verifier struct {
	exec    Executor
	guard   *security.StatementGuard
	cleanup bool
	logger  *zap.Logger
}

// NewVerifier creates a verifier. With cleanup set, tables and functions
// created by the run are dropped before and after executing a file.
func NewVerifier(exec Executor, guard *security.StatementGuard, cleanup bool, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{exec: exec, guard: guard, cleanup: cleanup, logger: logger.Named("verifier")}
}

// Prepare loads fixtures ahead of verification.
func (v *Verifier) Prepare(ctx context.Context, loader FixtureLoader) error {
	if loader == nil {
		return nil
	}
	if err := loader.Load(ctx, v.exec); err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}
	return nil
}

// VerifyFile executes the accepted units of one file in order.
func (v *Verifier) VerifyFile(ctx context.Context, file model.FileResult) []Result {
	var (
		results []Result
		created []string
	)
	for _, d := range file.Dispositions {
		if !d.HasFinalText() {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}

		start := time.Now()
		result := Result{File: file.Path, Unit: d.Unit.Identifier}

		var (
			objects []string
			err     error
		)
		if d.Unit.IsUDFDefinitions() {
			objects, err = v.runRoutines(ctx, d.FinalText)
		} else {
			objects, err = v.runStatement(ctx, d)
		}
		created = append(created, objects...)

		result.Elapsed = time.Since(start)
		switch {
		case err == nil:
			result.Success = true
		case errors.Is(err, errSkipped):
			result.Skipped = true
			result.Error = "statement not executable: " + d.Unit.Identifier
		default:
			result.Error = err.Error()
		}
		v.logger.Debug("unit executed", zap.String("unit", result.Unit), zap.Bool("success", result.Success), zap.Duration("elapsed", result.Elapsed))
		results = append(results, result)
	}

	if v.cleanup {
		for i := len(created) - 1; i >= 0; i-- {
			v.drop(context.WithoutCancel(ctx), created[i])
		}
	}
	return results
}

var errSkipped = errors.New("skipped")

func (v *Verifier) runStatement(ctx context.Context, d model.Disposition) ([]string, error) {
	if err := v.guard.CheckExecutable(d.FinalText); err != nil {
		v.logger.Info("refusing to execute statement", zap.String("unit", d.Unit.Identifier), zap.Error(err))
		return nil, errSkipped
	}

	object := createdObject(d.FinalText)
	if object != "" && v.cleanup {
		v.drop(ctx, object)
	}
	if _, err := v.exec.ExecuteQuery(ctx, d.FinalText); err != nil {
		return nil, err
	}
	if object == "" {
		return nil, nil
	}
	return []string{object}, nil
}

// createdObject names the table or view a statement creates, e.g. "VIEW x".
func createdObject(text string) string {
	m := createdKind.FindStringSubmatch(text)
	name := sql_splitter.RelationName(text)
	if m == nil || name == "" {
		return ""
	}
	return strings.ToUpper(m[1]) + " " + name
}

// runRoutines executes every function stub separately and keeps going after
// a failure.
func (v *Verifier) runRoutines(ctx context.Context, text string) ([]string, error) {
	matches := routineStatement.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no function definitions found to execute")
	}

	var (
		created []string
		errs    []string
	)
	for _, m := range matches {
		if _, err := v.exec.ExecuteQuery(ctx, strings.TrimSpace(m[0])); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", m[1], err))
			continue
		}
		created = append(created, "FUNCTION "+m[1])
	}
	if len(errs) > 0 {
		return created, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return created, nil
}

func (v *Verifier) drop(ctx context.Context, object string) {
	if _, err := v.exec.ExecuteQuery(ctx, "DROP "+object+" IF EXISTS"); err != nil {
		v.logger.Debug("cleanup failed", zap.String("object", object), zap.Error(err))
	}
}
