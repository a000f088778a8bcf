package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/events"
	pkg_hash "github.com/Skotchmaster/till_shop/pkg/hash"
	jwthelp "github.com/Skotchmaster/till_shop/pkg/jwt"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/pkg/recordstore"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/pkg/tokens"
	"github.com/Skotchmaster/till_shop/services/auth/internal/repo"
	"github.com/Skotchmaster/till_shop/services/auth/internal/transport"
)

var (
	ErrValidation          = errors.New("validation")
	ErrConflict            = errors.New("user already exist")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrOwnerNotFound       = errors.New("owner not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrNotFound            = errors.New("user not found")
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	minPasswordLen = 6
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Events        events.Publisher

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	Profile      transport.Profile
}

func (h *AuthService) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AuthService) accessTTL() time.Duration {
	if h.AccessTTL > 0 {
		return h.AccessTTL
	}
	return DefaultAccessTTL
}

func (h *AuthService) refreshTTL() time.Duration {
	if h.RefreshTTL > 0 {
		return h.RefreshTTL
	}
	return DefaultRefreshTTL
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *AuthService) CreateAccessToken(p transport.Profile, accessExp time.Time) (string, error) {
	return tokens.SignAccess(tokens.AccessClaims{
		Role:       p.Role,
		OwnerID:    p.OwnerID.String(),
		Name:       p.Name,
		Email:      p.Email,
		OwnerEmail: p.OwnerEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(h.now()),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	}, h.JWTSecret)
}

func (h *AuthService) CreateRefreshToken(id string, refreshExp time.Time) (string, *models.RefreshToken, error) {
	jti := jwthelp.NewJTI()
	token, err := tokens.SignRefresh(id, jti, refreshExp, h.RefreshSecret)
	if err != nil {
		return "", nil, err
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return "", nil, err
	}
	return token, &models.RefreshToken{
		Token:     jwthelp.Sha256Hex(token),
		UserID:    userID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}, nil
}

// profile resolves the owner email that tellers carry in their session.
func (h *AuthService) profile(ctx context.Context, u *models.User) (transport.Profile, error) {
	p := transport.NewProfile(u)
	if u.Role == session.RoleOwner {
		p.OwnerEmail = u.Email
		return p, nil
	}
	owner, err := h.Repo.GetUserByID(ctx, u.OwnerID)
	if err != nil {
		return p, fmt.Errorf("load owner of %s: %w", u.ID, err)
	}
	p.OwnerEmail = owner.Email
	return p, nil
}

func validateRegister(in transport.RegisterRequest) error {
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		return fmt.Errorf("%w: email is invalid", ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	switch in.Role {
	case session.RoleOwner:
	case session.RoleTeller:
		if in.OwnerEmail == "" {
			return fmt.Errorf("%w: owner email is required for tellers", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: role must be owner or teller", ErrValidation)
	}
	return nil
}

func (h *AuthService) Register(ctx context.Context, in transport.RegisterRequest) (*transport.Profile, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.Email = NormalizeEmail(in.Email)
	in.OwnerEmail = NormalizeEmail(in.OwnerEmail)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	user := models.User{Email: in.Email, Name: in.Name, Role: in.Role}
	if in.Role == session.RoleTeller {
		owner, err := h.Repo.UserByEmail(ctx, in.OwnerEmail)
		if err != nil {
			if errors.Is(err, recordstore.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrOwnerNotFound, in.OwnerEmail)
			}
			return nil, err
		}
		if owner.Role != session.RoleOwner {
			return nil, fmt.Errorf("%w: %s is not an owner", ErrOwnerNotFound, in.OwnerEmail)
		}
		user.OwnerID = owner.ID
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user.PasswordHash = pwHash

	if err := h.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, ErrConflict
		}
		return nil, err
	}

	p, err := h.profile(ctx, &user)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, h.Events, events.TopicUsers, user.OwnerID.String(), map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID.String(),
		"owner_id": user.OwnerID.String(),
		"role":     user.Role,
		"email":    user.Email,
	})
	return &p, nil
}

// issue signs a token pair for u and returns the refresh record to persist.
func (h *AuthService) issue(ctx context.Context, u *models.User) (*LoginResult, *models.RefreshToken, error) {
	p, err := h.profile(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	accessExp := h.now().Add(h.accessTTL())
	accessToken, err := h.CreateAccessToken(p, accessExp)
	if err != nil {
		return nil, nil, err
	}
	refreshExp := h.now().Add(h.refreshTTL())
	refreshToken, record, err := h.CreateRefreshToken(u.ID.String(), refreshExp)
	if err != nil {
		return nil, nil, err
	}
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Profile:      p,
	}, record, nil
}

func (h *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := h.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	res, record, err := h.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := h.Repo.AddRefreshToken(ctx, record); err != nil {
		return nil, err
	}
	return res, nil
}

// Refresh spends a refresh token and issues a new pair. The access claims
// are rebuilt from the user row, so role or name changes apply on refresh.
func (h *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, h.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidRefreshToken)
	}
	user, err := h.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: user is gone", ErrInvalidRefreshToken)
		}
		return nil, err
	}

	res, next, err := h.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := h.Repo.RotateRefreshToken(ctx, claims.ID, refreshToken, next, h.now()); err != nil {
		if errors.Is(err, repo.ErrRefreshInvalid) {
			l.Warn("refresh_rejected", "jti", claims.ID)
			return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
		}
		return nil, err
	}
	return res, nil
}

func (h *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return h.Repo.LogOut(ctx, refreshToken)
}

func (h *AuthService) Me(ctx context.Context, s session.Session) (*transport.Profile, error) {
	u, err := h.Repo.GetUserByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p, err := h.profile(ctx, u)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *AuthService) Tellers(ctx context.Context, s session.Session) ([]transport.Profile, error) {
	users, err := h.Repo.Tellers(ctx, s.OwnerID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.Profile, 0, len(users))
	for i := range users {
		p := transport.NewProfile(&users[i])
		p.OwnerEmail = s.Email
		out = append(out, p)
	}
	return out, nil
}
