package oracle

import (
	"context"
	"strings"

	"dialect-bridge/internal/database/drivers/warehouses"
)

// StatementExecutor runs one statement on the warehouse.
type StatementExecutor interface {
	ExecuteQuery(ctx context.Context, sql string) (*warehouses.DatabricksQueryResult, error)
}

var planningFailureMarkers = []string{
	"Error occurred during query planning",
	"org.apache.spark.sql.AnalysisException",
	"org.apache.spark.sql.catalyst.parser.ParseException",
}

// PlanningError is reported when EXPLAIN succeeds as a statement but its
// output describes an analysis or parse failure instead of a plan.
type PlanningError struct {
	Message string
}

func (e *PlanningError) Error() string {
	return e.Message
}

// DatabricksExplainer submits EXPLAIN statements through a SQL warehouse.
type DatabricksExplainer struct {
	executor StatementExecutor
}

// NewDatabricksExplainer creates an explainer over an executor
func NewDatabricksExplainer(executor StatementExecutor) *DatabricksExplainer {
	return &DatabricksExplainer{executor: executor}
}

// Explain implements PlanExplainer
func (e *DatabricksExplainer) Explain(ctx context.Context, body string) ([]string, error) {
	result, err := e.executor.ExecuteQuery(ctx, "EXPLAIN "+body)
	if err != nil {
		return nil, err
	}

	lines := result.Lines()
	for i, line := range lines {
		for _, marker := range planningFailureMarkers {
			if strings.Contains(line, marker) {
				return nil, &PlanningError{Message: strings.TrimSpace(strings.Join(lines[i:], "\n"))}
			}
		}
	}
	return lines, nil
}
