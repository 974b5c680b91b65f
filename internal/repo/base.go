package repo

import (
	"context"
	"errors"

	"github.com/angelmondragon/shopeasy-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Conn exposes the raw connection so repositories can rebind to a transaction.
func (b Base) Conn() *gorm.DB {
	return b.db
}

// Translate maps a storage error onto the typed error surface. Typed errors
// raised by model hooks pass through untouched. Unique violations become
// conflicts only when conflictMsg is set.
func Translate(err error, op, conflictMsg string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, op+": not found")
	}
	if conflictMsg != "" && db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, conflictMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

// NotFound builds a typed not-found error for lookups that come back empty.
func NotFound(resource string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, resource+" not found")
}
