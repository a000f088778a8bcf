// Package session holds the authenticated principal of a single request.
// It is built from the access token by the auth middleware and passed down
// explicitly through context; nothing in the process keeps a current user.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/till_shop/pkg/tokens"
)

const (
	RoleOwner  = "owner"
	RoleTeller = "teller"
)

var (
	ErrNoSession  = errors.New("no session")
	ErrBadSession = errors.New("malformed session")
)

type Session struct {
	UserID  uuid.UUID `json:"user_id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Role    string    `json:"role"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`

	OwnerEmail string `json:"owner_email"`
}

func (s Session) IsOwner() bool  { return s.Role == RoleOwner }
func (s Session) IsTeller() bool { return s.Role == RoleTeller }

func FromClaims(c *tokens.AccessClaims) (Session, error) {
	if c == nil {
		return Session{}, ErrNoSession
	}
	uid, err := uuid.Parse(c.Subject)
	if err != nil {
		return Session{}, fmt.Errorf("%w: subject: %v", ErrBadSession, err)
	}
	oid, err := uuid.Parse(c.OwnerID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: owner_id: %v", ErrBadSession, err)
	}
	if c.Role != RoleOwner && c.Role != RoleTeller {
		return Session{}, fmt.Errorf("%w: role %q", ErrBadSession, c.Role)
	}
	return Session{UserID: uid, OwnerID: oid, Role: c.Role, Name: c.Name, Email: c.Email, OwnerEmail: c.OwnerEmail}, nil
}

type ctxKey struct{}

func IntoContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

func Require(ctx context.Context) (Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}
