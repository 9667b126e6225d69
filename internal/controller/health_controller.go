package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WarehouseProbe reports whether the target warehouse accepts statements
type WarehouseProbe interface {
	TestConnectionREST(ctx context.Context) error
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

type HealthController struct {
	warehouse WarehouseProbe
	history   *gorm.DB
	version   string
}

// NewHealthController creates a health controller. Either dependency may be
// nil when it is not configured.
func NewHealthController(warehouse WarehouseProbe, history *gorm.DB, version string) *HealthController {
	return &HealthController{
		warehouse: warehouse,
		history:   history,
		version:   version,
	}
}

func (hc *HealthController) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Service:    "dialect-bridge",
		Version:    hc.version,
		Components: make(map[string]string),
	}

	if hc.warehouse != nil {
		if err := hc.warehouse.TestConnectionREST(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Components["warehouse"] = "unreachable: " + err.Error()
		} else {
			resp.Components["warehouse"] = "ok"
		}
	}

	if hc.history != nil {
		sqlDB, err := hc.history.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			resp.Status = "unhealthy"
			resp.Components["history"] = "unreachable: " + err.Error()
		} else {
			resp.Components["history"] = "ok"
		}
	}

	statusCode := http.StatusOK
	if resp.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, resp)
}
