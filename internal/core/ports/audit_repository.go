package ports

import (
	"context"

	"dispatch/internal/core/domain/model/audit"
)

// AuditRepository is insert-only.
type AuditRepository interface {
	Append(ctx context.Context, record *audit.Record) error
}
