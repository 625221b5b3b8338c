package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("record not found")

// Base is embedded by the catalog and lead repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx returns the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Within rebinds the repository to an open transaction.
func (b Base) Within(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// First loads the first row matching query into dest and maps a miss to ErrNotFound.
func (b Base) First(ctx context.Context, dest any, query string, args ...any) error {
	err := b.DB(ctx).Where(query, args...).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Truncate caps an error message before it is stored in a text column.
func Truncate(msg string, max int) string {
	if max > 0 && len(msg) > max {
		return msg[:max]
	}
	return msg
}
