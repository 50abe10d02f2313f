package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"slotbook/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const claimsContextKey = "claims"

var errUnauthorized = errors.New("missing or invalid bearer token")

// Claims is the bearer token payload. ClientID is the tenant every authenticated
// request is scoped to.
type Claims struct {
	ClientID int64  `json:"client_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenAuth issues and verifies HS256 bearer tokens.
type TokenAuth struct {
	secret []byte
	issuer string
}

func NewTokenAuth(secret, issuer string) *TokenAuth {
	return &TokenAuth{secret: []byte(secret), issuer: issuer}
}

// IssueToken signs a token for clientID. subject identifies the caller within the tenant.
func (a *TokenAuth) IssueToken(clientID int64, subject, role string, ttl time.Duration) (string, error) {
	if clientID <= 0 {
		return "", fmt.Errorf("client id must be positive")
	}
	if role != models.RoleClient && role != models.RoleStaff {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := time.Now()
	claims := Claims{
		ClientID: clientID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken verifies signature, issuer and expiry.
func (a *TokenAuth) ParseToken(raw string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, errors.New("invalid token")
	}
	if c.ClientID <= 0 {
		return nil, errors.New("token carries no client id")
	}
	return c, nil
}

// Middleware rejects requests without a valid bearer token and stores the claims on the context.
func (a *TokenAuth) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, errUnauthorized.Error())
			}
			claims, err := a.ParseToken(strings.TrimSpace(raw))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, errUnauthorized.Error()).SetInternal(err)
			}
			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

func claimsFrom(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// tenantID is the client the authenticated caller belongs to. Never taken from the request.
func tenantID(c echo.Context) (int64, error) {
	claims, ok := claimsFrom(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, errUnauthorized.Error())
	}
	return claims.ClientID, nil
}
