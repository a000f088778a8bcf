package checkout

import (
	"context"

	"github.com/google/uuid"
)

// Store persists registers between requests. Lock serialises commits per
// teller; it returns ErrBusy when another commit holds the lock.
type Store interface {
	Load(ctx context.Context, tellerID, ownerID uuid.UUID) (*Register, error)
	Save(ctx context.Context, reg *Register) error
	Lock(ctx context.Context, tellerID uuid.UUID) (unlock func(), err error)
}
