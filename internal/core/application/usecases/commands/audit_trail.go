package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

// recordAudit appends one audit record through repo. It is always called with
// a repository bound to the transaction of the mutation it describes.
func recordAudit(ctx context.Context, repo ports.AuditRepository, p audit.Params, now time.Time) error {
	rec, err := audit.NewRecord(kernel.NewUUID(), p, now)
	if err != nil {
		return err
	}
	return repo.Append(ctx, rec)
}
