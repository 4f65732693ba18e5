// Package auth verifies the bearer tokens issued by the identity service.
package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Fiber locals keys set by Middleware.
const (
	LocalsUserID = "userID"
	LocalsClaims = "claims"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user id under "id", as the identity service signs it,
// plus the profile fields the chat core renders senders with.
type Claims struct {
	UserID string `json:"id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify returns the user id a valid token was issued to.
func (v *Verifier) Verify(token string) (string, error) {
	claims, err := v.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Parse validates token and returns its claims.
func (v *Verifier) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Issue signs a token for userID; used by tooling and tests.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	return v.IssueClaims(Claims{UserID: userID}, ttl)
}

// IssueClaims signs claims with an expiry ttl from now.
func (v *Verifier) IssueClaims(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(v.secret)
}

// Middleware rejects requests without a valid "Authorization: Bearer" token
// and stores the caller's id for UserID. Websocket upgrades may pass the
// token as the "token" query parameter instead.
func (v *Verifier) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearer(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "not authorized, no token")
		}
		claims, err := v.Parse(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "not authorized, token failed")
		}
		c.Locals(LocalsUserID, claims.UserID)
		c.Locals(LocalsClaims, claims)
		return c.Next()
	}
}

// UserID returns the authenticated caller set by Middleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsUserID).(string)
	return id
}

// ClaimsOf returns the verified claims set by Middleware, or nil.
func ClaimsOf(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(LocalsClaims).(*Claims)
	return claims
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
