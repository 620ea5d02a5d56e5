package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// IdentityProvider resolves the caller of the current request.
type IdentityProvider interface {
	IdentityFromContext(ctx context.Context) (kernel.Identity, bool)
}
