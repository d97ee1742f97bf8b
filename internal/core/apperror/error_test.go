package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppError_ThroughWrapping(t *testing.T) {
	base := NewNotFound("product", "p-1")
	wrapped := fmt.Errorf("create line item: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, appErr.Code)
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestNewDuplicate_IsValidation(t *testing.T) {
	err := NewDuplicate("product", "sku", "SKU-1")
	assert.True(t, IsCode(err, CodeValidation))
	assert.Equal(t, "SKU-1", err.Details["value"])
}

func TestInsufficientStock_Details(t *testing.T) {
	err := NewInsufficientStock("p-1", 5, 2)
	assert.Equal(t, CodeInvalidState, err.Code)
	assert.Equal(t, int64(5), err.Details["requested"])
	assert.Equal(t, int64(2), err.Details["available"])
}

func TestError_IncludesCause(t *testing.T) {
	err := NewInternal(errors.New("conn reset"))
	assert.Contains(t, err.Error(), "conn reset")
	assert.ErrorIs(t, err, err.Err)
}
