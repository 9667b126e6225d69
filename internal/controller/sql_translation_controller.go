package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dialect-bridge/internal/middleware"
	"dialect-bridge/internal/model"
	"dialect-bridge/internal/report"
	"dialect-bridge/internal/service"
	"dialect-bridge/internal/utils"
	"dialect-bridge/internal/utils/sql_translator"
	"dialect-bridge/pkg/response"
)

// SQLTranslationController handles SQL dialect translation requests
type SQLTranslationController struct {
	service service.TranslationService
}

// SQLTranslationRequest is a request to translate one or more statements
type SQLTranslationRequest struct {
	SQL           string `json:"sql" binding:"required"`
	SourceDialect string `json:"sourceDialect"`
	// Name is used as the origin of the units, e.g. the script name
	Name string `json:"name"`
}

// SQLTranslationResponse carries every unit's disposition
type SQLTranslationResponse struct {
	SourceDialect model.Dialect       `json:"sourceDialect"`
	TargetDialect model.Dialect       `json:"targetDialect"`
	TranslatedSQL string              `json:"translatedSql"`
	Units         []model.Disposition `json:"units"`
	Summary       report.Tally        `json:"summary"`
}

// RulePreviewResponse shows what the rewrite rules alone would do
type RulePreviewResponse struct {
	OriginalSQL   string                       `json:"originalSql"`
	TranslatedSQL string                       `json:"translatedSql"`
	SourceDialect model.Dialect                `json:"sourceDialect"`
	Changed       bool                         `json:"changed"`
	AppliedRules  []sql_translator.AppliedRule `json:"appliedRules"`
	Advisories    []string                     `json:"advisories,omitempty"`
}

// NewSQLTranslationController creates a new SQL translation controller
func NewSQLTranslationController(svc service.TranslationService) *SQLTranslationController {
	return &SQLTranslationController{service: svc}
}

// TranslateSQL translates and validates every statement in the request
// @Router /api/v1/sql/translate [post]
func (stc *SQLTranslationController) TranslateSQL(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req SQLTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidRequest,
			"Invalid request body: "+err.Error(),
			"",
			correlationID,
		))
		return
	}

	source, ok := stc.sourceDialect(c, req.SourceDialect, correlationID)
	if !ok {
		return
	}

	result, err := stc.service.Translate(c.Request.Context(), req.Name, req.SQL, source)
	if err != nil {
		status, body := response.FromError(err, correlationID)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(SQLTranslationResponse{
		SourceDialect: source,
		TargetDialect: model.DialectDatabricks,
		TranslatedSQL: joinFinalTexts(result.Dispositions),
		Units:         result.Dispositions,
		Summary:       report.Summarize(result.Dispositions),
	}, correlationID))
}

// PreviewRules applies the rewrite rules without contacting the warehouse
// @Router /api/v1/sql/rules/preview [post]
func (stc *SQLTranslationController) PreviewRules(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req SQLTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidRequest,
			"Invalid request body: "+err.Error(),
			"",
			correlationID,
		))
		return
	}

	source, ok := stc.sourceDialect(c, req.SourceDialect, correlationID)
	if !ok {
		return
	}

	result, err := stc.service.PreviewRules(c.Request.Context(), req.SQL, source)
	if err != nil {
		status, body := response.FromError(err, correlationID)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(RulePreviewResponse{
		OriginalSQL:   req.SQL,
		TranslatedSQL: result.Text,
		SourceDialect: source,
		Changed:       result.Changed(),
		AppliedRules:  result.Applied,
		Advisories:    result.Advisories,
	}, correlationID))
}

// GetSupportedDialects returns the accepted source dialects
// @Router /api/v1/sql/dialects [get]
func (stc *SQLTranslationController) GetSupportedDialects(c *gin.Context) {
	c.JSON(http.StatusOK, response.SuccessResponse(stc.service.SupportedDialects(), middleware.GetCorrelationID(c)))
}

// GetStats returns running translation counters
// @Router /api/v1/sql/stats [get]
func (stc *SQLTranslationController) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, response.SuccessResponse(stc.service.Stats(), middleware.GetCorrelationID(c)))
}

// sourceDialect resolves the requested dialect, defaulting to HiveQL. It
// writes the error response itself.
func (stc *SQLTranslationController) sourceDialect(c *gin.Context, name, correlationID string) (model.Dialect, bool) {
	if strings.TrimSpace(name) == "" {
		return model.DialectHive, true
	}
	dialect, err := model.ParseDialect(name)
	if err == nil {
		for _, supported := range stc.service.SupportedDialects() {
			if supported == dialect {
				return dialect, true
			}
		}
	}
	c.JSON(http.StatusBadRequest, response.ErrorResponse(
		"UNSUPPORTED_SOURCE_DIALECT",
		"Source dialect '"+name+"' is not supported",
		"",
		correlationID,
	))
	return "", false
}

func joinFinalTexts(dispositions []model.Disposition) string {
	var parts []string
	for _, d := range dispositions {
		if d.HasFinalText() {
			parts = append(parts, strings.TrimRight(strings.TrimSpace(d.FinalText), ";")+";")
		}
	}
	return strings.Join(parts, "\n\n")
}
