package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"dialect-bridge/internal/model"
)

func TestSaveRunRejectsMalformedID(t *testing.T) {
	repo := NewRunRepository(nil)
	err := repo.SaveRun(context.Background(), model.RunReport{RunID: "not-a-uuid"})
	assert.ErrorIs(t, err, ErrInvalidUUID)
}

func TestGetByIDRejectsMalformedID(t *testing.T) {
	repo := NewRunRepository(nil)
	_, err := repo.GetByID(context.Background(), "42")
	assert.ErrorIs(t, err, ErrInvalidUUID)
}
