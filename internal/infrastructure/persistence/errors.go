package persistence

import (
	"errors"
	"strings"

	"github.com/marketsync/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// storeError wraps a driver failure unless it is already a domain error
func storeError(op string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewStoreError(op, err)
}

// isUniqueViolation reports whether err is a unique constraint violation.
// TranslateError covers postgres and sqlite; the string check covers raw drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
