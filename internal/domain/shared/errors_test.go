package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Refine(t *testing.T) {
	errWidgetNotFound := ErrNotFound.Refine("WIDGET_NOT_FOUND", "Widget not found")

	assert.True(t, errors.Is(errWidgetNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, errWidgetNotFound))
	assert.Equal(t, "NOT_FOUND", errWidgetNotFound.Kind())
	assert.Equal(t, "WIDGET_NOT_FOUND", errWidgetNotFound.Code)
	assert.Equal(t, "Widget not found", errWidgetNotFound.Error())

	wrapped := fmt.Errorf("loading widget: %w", errWidgetNotFound)
	assert.True(t, IsNotFound(wrapped))

	var de *DomainError
	assert.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "WIDGET_NOT_FOUND", de.Code)
}

func TestDomainError_SiblingsDoNotMatch(t *testing.T) {
	a := ErrNotFound.Refine("A_NOT_FOUND", "a")
	b := ErrNotFound.Refine("B_NOT_FOUND", "b")
	assert.False(t, errors.Is(a, b))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("receipt_id is required")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "VALIDATION_FAILED", err.Kind())
	assert.Equal(t, "receipt_id is required", err.Error())
	assert.False(t, IsNotFound(err))
}

func TestNewStoreError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreError("find order", cause)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "find order: Persistence is temporarily unavailable: connection refused", err.Error())

	var de *DomainError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "STORE_UNAVAILABLE", de.Code)

	assert.ErrorIs(t, NewStoreError("find order", nil), ErrStoreUnavailable)
}
