package warehouses

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StatementError reports a statement the warehouse finished unsuccessfully.
// Its message is the planner or analyzer diagnostic.
type StatementError struct {
	StatementID string
	State       string
	ErrorCode   string
	Message     string
}

func (e *StatementError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("statement %s", e.State)
	}
	return e.Message
}

// IsStatementError reports whether err is a finished-but-failed statement
// rather than a transport problem.
func IsStatementError(err error) bool {
	var se *StatementError
	return errors.As(err, &se)
}

// DatabricksStatementPoller handles polling for statement completion
type DatabricksStatementPoller struct {
	client       *DatabricksRESTClient
	pollInterval time.Duration
	maxAttempts  int
}

// NewDatabricksStatementPoller creates a new statement poller
func NewDatabricksStatementPoller(client *DatabricksRESTClient) *DatabricksStatementPoller {
	return &DatabricksStatementPoller{
		client:       client,
		pollInterval: 1 * time.Second,
		maxAttempts:  300, // 5 minutes max with 1s polling
	}
}

// ExecuteAndWait executes a statement and waits for completion
func (p *DatabricksStatementPoller) ExecuteAndWait(ctx context.Context, sql string) (*DatabricksQueryResult, error) {
	execution, err := p.client.ExecuteStatement(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	return p.waitForCompletion(ctx, execution)
}

// waitForCompletion polls until the statement reaches a terminal state
func (p *DatabricksStatementPoller) waitForCompletion(ctx context.Context, execution *DatabricksStatementExecution) (*DatabricksQueryResult, error) {
	attempts := 0

	for {
		switch execution.Status.State {
		case StateSucceeded:
			if execution.Result == nil {
				return &DatabricksQueryResult{}, nil
			}
			return execution.Result, nil
		case StateFailed, StateCanceled, StateClosed:
			se := &StatementError{StatementID: execution.StatementID, State: execution.Status.State}
			if execution.Status.Error != nil {
				se.ErrorCode = execution.Status.Error.ErrorCode
				se.Message = execution.Status.Error.Message
			}
			return nil, se
		case StatePending, StateRunning:
		default:
			return nil, fmt.Errorf("unknown statement state: %s", execution.Status.State)
		}

		attempts++
		if attempts > p.maxAttempts {
			p.cancel(execution.StatementID)
			return nil, fmt.Errorf("statement %s timeout after %d attempts", execution.StatementID, p.maxAttempts)
		}

		select {
		case <-ctx.Done():
			p.cancel(execution.StatementID)
			return nil, ctx.Err()
		case <-time.After(p.pollInterval):
		}

		next, err := p.client.GetStatementStatus(ctx, execution.StatementID)
		if err != nil {
			return nil, fmt.Errorf("failed to get statement status: %w", err)
		}
		execution = next
	}
}

// cancel is best effort; the statement is abandoned either way
func (p *DatabricksStatementPoller) cancel(statementID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = p.client.CancelStatement(ctx, statementID)
}

// SetPollInterval sets custom polling interval
func (p *DatabricksStatementPoller) SetPollInterval(interval time.Duration) {
	p.pollInterval = interval
}

// SetMaxAttempts sets maximum polling attempts
func (p *DatabricksStatementPoller) SetMaxAttempts(maxAttempts int) {
	p.maxAttempts = maxAttempts
}
