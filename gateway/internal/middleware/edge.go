package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/till_shop/pkg/jwt"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/pkg/tokens"
)

const (
	CtxUserID  = "user_id"
	CtxOwnerID = "owner_id"
	CtxRole    = "role"
)

// Authenticate turns away requests that carry neither a valid access token nor
// a refresh token. A request with only a refresh token is passed on so the
// service behind can rotate it.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "gateway.authenticate")

			if ck, err := c.Cookie(jwthelp.AccessCookie); err == nil && ck.Value != "" {
				claims, err := tokens.AccessClaimsFromToken(ck.Value, secret)
				if err == nil && claims != nil && claims.Subject != "" {
					c.Set(CtxUserID, claims.Subject)
					c.Set(CtxOwnerID, claims.OwnerID)
					c.Set(CtxRole, claims.Role)
					return next(c)
				}
			}

			if ck, err := c.Cookie(jwthelp.RefreshCookie); err == nil && ck.Value != "" {
				return next(c)
			}

			l.Warn("edge_auth_rejected", "status", 401, "reason", "no usable token")
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
	}
}

// RequireRole only judges requests whose access token was read at the edge;
// the rest are left to the service.
func RequireRole(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return next(c)
			}
			if !slices.Contains(required, role) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to see this page")
			}
			return next(c)
		}
	}
}
