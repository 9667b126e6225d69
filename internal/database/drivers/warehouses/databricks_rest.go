package warehouses

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DatabricksRESTClient implements the SQL Statement Execution and Warehouses APIs
type DatabricksRESTClient struct {
	baseURL     string // Databricks workspace URL
	httpClient  *http.Client
	tokens      oauth2.TokenSource
	warehouseID string
	catalog     string
	schema      string
	waitTimeout string
}

// NewDatabricksRESTClient creates a new Databricks REST client
func NewDatabricksRESTClient(workspaceURL string, tokens oauth2.TokenSource, warehouseID string) (*DatabricksRESTClient, error) {
	if workspaceURL == "" {
		return nil, fmt.Errorf("workspace URL is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if warehouseID == "" {
		return nil, fmt.Errorf("warehouse ID is required")
	}

	return &DatabricksRESTClient{
		baseURL:     NormalizeWorkspaceURL(workspaceURL),
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		tokens:      tokens,
		warehouseID: warehouseID,
		waitTimeout: "30s",
	}, nil
}

// NormalizeWorkspaceURL adds the https scheme to bare hosts and drops trailing slashes
func NormalizeWorkspaceURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host != "" && !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}

// SetDefaultNamespace sets the catalog and schema sent with every statement
func (c *DatabricksRESTClient) SetDefaultNamespace(catalog, schema string) {
	c.catalog = catalog
	c.schema = schema
}

// SetWaitTimeout sets how long the API blocks before returning a PENDING statement (5s-50s or 0s)
func (c *DatabricksRESTClient) SetWaitTimeout(d time.Duration) {
	c.waitTimeout = fmt.Sprintf("%ds", int(d.Seconds()))
}

// SetHTTPClient replaces the transport, mainly for tests
func (c *DatabricksRESTClient) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// WarehouseID returns the SQL warehouse the client submits to
func (c *DatabricksRESTClient) WarehouseID() string {
	return c.warehouseID
}

// ExecuteStatement submits a SQL statement
func (c *DatabricksRESTClient) ExecuteStatement(ctx context.Context, sql string) (*DatabricksStatementExecution, error) {
	payload := DatabricksStatementRequest{
		Statement:     sql,
		WarehouseID:   c.warehouseID,
		WaitTimeout:   c.waitTimeout,
		Disposition:   "INLINE",
		Format:        "JSON_ARRAY",
		OnWaitTimeout: "CONTINUE",
		Catalog:       c.catalog,
		Schema:        c.schema,
	}

	var execution DatabricksStatementExecution
	if err := c.do(ctx, http.MethodPost, "/api/2.0/sql/statements", payload, &execution); err != nil {
		return nil, err
	}
	return &execution, nil
}

// GetStatementStatus retrieves statement execution status and, once finished, its first result chunk
func (c *DatabricksRESTClient) GetStatementStatus(ctx context.Context, statementID string) (*DatabricksStatementExecution, error) {
	var execution DatabricksStatementExecution
	if err := c.do(ctx, http.MethodGet, "/api/2.0/sql/statements/"+statementID, nil, &execution); err != nil {
		return nil, err
	}
	return &execution, nil
}

// CancelStatement cancels a running statement
func (c *DatabricksRESTClient) CancelStatement(ctx context.Context, statementID string) error {
	return c.do(ctx, http.MethodPost, "/api/2.0/sql/statements/"+statementID+"/cancel", nil, nil)
}

// GetWarehouseStatus retrieves warehouse status
func (c *DatabricksRESTClient) GetWarehouseStatus(ctx context.Context) (*DatabricksWarehouseStatus, error) {
	var status DatabricksWarehouseStatus
	if err := c.do(ctx, http.MethodGet, "/api/2.0/sql/warehouses/"+c.warehouseID, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartWarehouse starts the SQL warehouse
func (c *DatabricksRESTClient) StartWarehouse(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/2.0/sql/warehouses/"+c.warehouseID+"/start", nil, nil)
}

// CloseIdleConnections releases pooled connections held by the transport
func (c *DatabricksRESTClient) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

func (c *DatabricksRESTClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.setAuthHeader(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var parsed DatabricksError
		if json.Unmarshal(raw, &parsed) == nil && parsed.Message != "" {
			apiErr.ErrorCode = parsed.ErrorCode
			apiErr.Message = parsed.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// setAuthHeader sets the bearer token from the configured token source
func (c *DatabricksRESTClient) setAuthHeader(req *http.Request) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}
	token.SetAuthHeader(req)
	return nil
}

// =============================================================================
// Databricks Data Structures
// =============================================================================

// DatabricksStatementRequest represents a statement request
type DatabricksStatementRequest struct {
	Statement     string `json:"statement"`
	WarehouseID   string `json:"warehouse_id"`
	WaitTimeout   string `json:"wait_timeout,omitempty"`
	OnWaitTimeout string `json:"on_wait_timeout,omitempty"`
	Disposition   string `json:"disposition,omitempty"`
	Format        string `json:"format,omitempty"`
	Catalog       string `json:"catalog,omitempty"`
	Schema        string `json:"schema,omitempty"`
}

// DatabricksStatementExecution represents statement execution response
type DatabricksStatementExecution struct {
	StatementID string                    `json:"statement_id"`
	Status      DatabricksStatementStatus `json:"status"`
	Manifest    *DatabricksResultManifest `json:"manifest,omitempty"`
	Result      *DatabricksQueryResult    `json:"result,omitempty"`
}

// Statement states reported by the API
const (
	StatePending   = "PENDING"
	StateRunning   = "RUNNING"
	StateSucceeded = "SUCCEEDED"
	StateFailed    = "FAILED"
	StateCanceled  = "CANCELED"
	StateClosed    = "CLOSED"
)

// DatabricksStatementStatus represents statement status
type DatabricksStatementStatus struct {
	State string           `json:"state"`
	Error *DatabricksError `json:"error,omitempty"`
}

// DatabricksQueryResult represents one inline result chunk
type DatabricksQueryResult struct {
	ChunkIndex int        `json:"chunk_index"`
	RowOffset  int64      `json:"row_offset"`
	RowCount   int64      `json:"row_count"`
	Data       [][]string `json:"data_array"`
}

// Lines flattens every cell of the result into text lines
func (r *DatabricksQueryResult) Lines() []string {
	if r == nil {
		return nil
	}
	var lines []string
	for _, row := range r.Data {
		for _, cell := range row {
			lines = append(lines, strings.Split(strings.TrimRight(cell, "\n"), "\n")...)
		}
	}
	return lines
}

// FirstCell returns the first column of the first row, or "" for an empty result
func (r *DatabricksQueryResult) FirstCell() string {
	if r == nil || len(r.Data) == 0 || len(r.Data[0]) == 0 {
		return ""
	}
	return r.Data[0][0]
}

// DatabricksResultManifest represents result manifest
type DatabricksResultManifest struct {
	Format          string                 `json:"format"`
	Schema          DatabricksResultSchema `json:"schema"`
	TotalRowCount   int64                  `json:"total_row_count"`
	TotalChunkCount int                    `json:"total_chunk_count"`
	Truncated       bool                   `json:"truncated"`
}

// DatabricksResultSchema represents result schema
type DatabricksResultSchema struct {
	ColumnCount int                `json:"column_count"`
	Columns     []DatabricksColumn `json:"columns"`
}

// DatabricksColumn represents a column definition
type DatabricksColumn struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
	Position int    `json:"position"`
}

// Warehouse states reported by the API
const (
	WarehouseRunning  = "RUNNING"
	WarehouseStarting = "STARTING"
	WarehouseStopped  = "STOPPED"
	WarehouseStopping = "STOPPING"
	WarehouseDeleted  = "DELETED"
)

// DatabricksWarehouseStatus represents warehouse status
type DatabricksWarehouseStatus struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ClusterSize string `json:"cluster_size"`
	State       string `json:"state"`
	AutoStop    int    `json:"auto_stop_mins"`
}

// DatabricksError represents an error payload
type DatabricksError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

// APIError is returned for non-success HTTP responses
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("unexpected status %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}
