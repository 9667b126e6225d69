package service

import (
	"context"

	"go.uber.org/zap"

	"dialect-bridge/internal/database/drivers/warehouses"
	"dialect-bridge/internal/utils"
)

// Session is a statement channel to the target warehouse held for one file.
type Session interface {
	ExecuteQuery(ctx context.Context, sql string) (*warehouses.DatabricksQueryResult, error)
	Close() error
}

// SessionFactory opens warehouse sessions.
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// DatabricksSessionFactory opens sessions on one SQL warehouse.
type DatabricksSessionFactory struct {
	config *warehouses.DatabricksConfig
	logger *zap.Logger
}

// NewDatabricksSessionFactory creates a factory for config.
func NewDatabricksSessionFactory(config *warehouses.DatabricksConfig, logger *zap.Logger) *DatabricksSessionFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatabricksSessionFactory{config: config, logger: logger}
}

// Open connects and waits until the warehouse accepts statements.
func (f *DatabricksSessionFactory) Open(ctx context.Context) (Session, error) {
	driver, err := warehouses.NewDatabricksDriver(ctx, f.config, f.logger)
	if err != nil {
		return nil, utils.NewConfigError("invalid Databricks connection settings", err)
	}
	if err := driver.EnsureRunning(ctx); err != nil {
		driver.Close()
		return nil, utils.NewConnectionError("warehouse "+f.config.WarehouseID+" is not available", err)
	}
	return driver, nil
}
