package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialect-bridge/internal/utils"
)

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("translate: %w", utils.NewValidationError("SQL is empty", "input"))
	status, body := FromError(wrapped, "cid-1")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, body.Error)
	assert.False(t, body.Success)
	assert.Equal(t, utils.ErrCodeValidationFailed, body.Error.Code)
	assert.Equal(t, "SQL is empty", body.Error.Message)
	assert.Equal(t, "input", body.Error.Details)
	assert.Equal(t, "cid-1", body.CorrelationID)

	status, body = FromError(errors.New("disk on fire"), "cid-2")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, utils.ErrCodeInternalError, body.Error.Code)
	assert.NotContains(t, body.Error.Message, "disk")
}

func TestDefaultMessages(t *testing.T) {
	assert.Equal(t, "Unauthorized access", UnauthorizedResponse("", "").Error.Message)
	assert.Equal(t, "Forbidden access", ForbiddenResponse("", "").Error.Message)
	assert.Equal(t, "bad token", UnauthorizedResponse("bad token", "").Error.Message)

	ok := SuccessResponse([]string{"hive"}, "cid")
	assert.True(t, ok.Success)
	assert.Nil(t, ok.Error)
	assert.False(t, ok.Timestamp.IsZero())
}
