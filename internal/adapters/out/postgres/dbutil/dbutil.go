// Package dbutil holds GORM helpers shared by the repositories.
package dbutil

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate is the row lock taken by Lock* repository methods. Dialects
// without row locks (SQLite) ignore it.
func ForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// IsUniqueViolation reports whether err comes from a unique index. When
// constraint is given it must appear in the driver message; SQLite messages
// name the columns instead of the index, so pass the column there.
func IsUniqueViolation(err error, constraint ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	unique := errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if strings.Contains(msg, c) {
			return true
		}
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
