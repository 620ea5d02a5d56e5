package http

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type identityKey struct{}

// Claims are the token fields the service reads. Tokens without sub come from
// the old single sign-on and map to legacy identities.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and implements
// ports.IdentityProvider for the request context.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Middleware rejects requests without a valid token with 401.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := a.identityFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			req := c.Request()
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), identityKey{}, identity)))
			return next(c)
		}
	}
}

func (a *Authenticator) IdentityFromContext(ctx context.Context) (kernel.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(kernel.Identity)
	if !ok || identity.IsZero() {
		return kernel.Identity{}, false
	}
	return identity, true
}

func (a *Authenticator) identityFromHeader(header string) (kernel.Identity, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return kernel.Identity{}, errs.ErrAuthRequired
	}
	claims, err := a.parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return kernel.Identity{}, errors.Join(errs.ErrAuthRequired, err)
	}

	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = strings.TrimSpace(claims.Email)
	}
	if sub := strings.TrimSpace(claims.Subject); sub != "" {
		return kernel.NewStructuredIdentity(sub, name)
	}
	identity, err := kernel.NewLegacyIdentity(name)
	if err != nil {
		return kernel.Identity{}, errors.Join(errs.ErrAuthRequired, err)
	}
	return identity, nil
}

func (a *Authenticator) parse(token string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// IssueToken signs claims with the authenticator's secret. Used by operator
// tooling and tests.
func (a *Authenticator) IssueToken(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
