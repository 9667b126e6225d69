package warehouses

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DatabricksConfig holds Databricks configuration
type DatabricksConfig struct {
	WorkspaceURL   string // Databricks workspace URL or bare host
	Auth           DatabricksAuth
	WarehouseID    string // SQL Warehouse ID
	Catalog        string // Default catalog (optional)
	Schema         string // Default schema (optional)
	StartWarehouse bool   // start a stopped warehouse instead of failing
	StartTimeout   time.Duration
	WaitTimeout    time.Duration
	PollInterval   time.Duration
}

// HTTPPath returns the warehouse HTTP path used by JDBC/ODBC clients
func (c *DatabricksConfig) HTTPPath() string {
	return "/sql/1.0/warehouses/" + c.WarehouseID
}

// DatabricksDriver executes statements on one SQL warehouse
type DatabricksDriver struct {
	restClient *DatabricksRESTClient
	poller     *DatabricksStatementPoller
	config     *DatabricksConfig
	logger     *zap.Logger
}

// NewDatabricksDriver creates a new Databricks driver
func NewDatabricksDriver(ctx context.Context, config *DatabricksConfig, logger *zap.Logger) (*DatabricksDriver, error) {
	if config.WorkspaceURL == "" {
		return nil, fmt.Errorf("workspace URL is required")
	}
	if config.WarehouseID == "" {
		return nil, fmt.Errorf("warehouse ID is required")
	}

	tokens, err := NewTokenSource(ctx, config.WorkspaceURL, config.Auth)
	if err != nil {
		return nil, err
	}

	restClient, err := NewDatabricksRESTClient(config.WorkspaceURL, tokens, config.WarehouseID)
	if err != nil {
		return nil, err
	}
	restClient.SetDefaultNamespace(config.Catalog, config.Schema)
	if config.WaitTimeout > 0 {
		restClient.SetWaitTimeout(config.WaitTimeout)
	}

	poller := NewDatabricksStatementPoller(restClient)
	if config.PollInterval > 0 {
		poller.SetPollInterval(config.PollInterval)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &DatabricksDriver{
		restClient: restClient,
		poller:     poller,
		config:     config,
		logger:     logger.Named("databricks"),
	}, nil
}

// Client exposes the underlying REST client
func (d *DatabricksDriver) Client() *DatabricksRESTClient {
	return d.restClient
}

// Poller exposes the statement poller for tuning
func (d *DatabricksDriver) Poller() *DatabricksStatementPoller {
	return d.poller
}

// ExecuteQuery executes a SQL statement and waits for its first result chunk
func (d *DatabricksDriver) ExecuteQuery(ctx context.Context, sql string) (*DatabricksQueryResult, error) {
	return d.poller.ExecuteAndWait(ctx, sql)
}

// TestConnectionREST checks credentials and warehouse visibility
func (d *DatabricksDriver) TestConnectionREST(ctx context.Context) error {
	_, err := d.restClient.GetWarehouseStatus(ctx)
	return err
}

// EnsureRunning waits for the warehouse to accept statements, starting it
// first when it is stopped and StartWarehouse is set.
func (d *DatabricksDriver) EnsureRunning(ctx context.Context) error {
	status, err := d.restClient.GetWarehouseStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get warehouse status: %w", err)
	}
	d.logger.Debug("warehouse status",
		zap.String("warehouse_id", d.config.WarehouseID),
		zap.String("state", status.State))

	switch status.State {
	case WarehouseRunning:
		return nil
	case WarehouseDeleted:
		return fmt.Errorf("warehouse %s is deleted", d.config.WarehouseID)
	case WarehouseStopped, WarehouseStopping:
		if !d.config.StartWarehouse {
			return fmt.Errorf("warehouse %s is %s", d.config.WarehouseID, status.State)
		}
		d.logger.Info("starting warehouse", zap.String("warehouse_id", d.config.WarehouseID))
		if err := d.restClient.StartWarehouse(ctx); err != nil {
			return fmt.Errorf("failed to start warehouse: %w", err)
		}
	}

	timeout := d.config.StartTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	deadline := time.Now().Add(timeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.poller.pollInterval):
		}

		status, err = d.restClient.GetWarehouseStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to get warehouse status: %w", err)
		}
		if status.State == WarehouseRunning {
			d.logger.Info("warehouse running", zap.String("warehouse_id", d.config.WarehouseID))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("warehouse %s not running after %s (state %s)", d.config.WarehouseID, timeout, status.State)
		}
	}
}

// Close releases pooled connections
func (d *DatabricksDriver) Close() error {
	d.restClient.CloseIdleConnections()
	return nil
}
