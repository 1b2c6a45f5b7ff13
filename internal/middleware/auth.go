package middleware

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

const (
	claimsKey = "claims"
	authKey   = "auth"

	msgAuthRequired = "Authorization header required"
	msgInvalidToken = "Invalid or expired token"
	msgForbidden    = "Forbidden"
)

// Claims is the JWT payload issued to dashboard users.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for subject with the given role.
func SignToken(secret []byte, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret []byte, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// RequireBearer rejects requests without a bearer token before any upstream call.
// The token itself is opaque here; it is stored as a model.AuthContext for the handlers.
func RequireBearer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := model.AuthFromHeader(c.Get(fiber.HeaderAuthorization))
		if !auth.Authenticated() {
			return c.Status(fiber.StatusUnauthorized).JSON(model.Envelope{Message: msgAuthRequired})
		}
		c.Locals(authKey, auth)
		return c.Next()
	}
}

// AuthFrom returns the AuthContext stored by RequireBearer.
func AuthFrom(c *fiber.Ctx) model.AuthContext {
	auth, _ := c.Locals(authKey).(model.AuthContext)
	return auth
}

// RequireJWT verifies the bearer token signed with secret and stores its claims.
func RequireJWT(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := model.AuthFromHeader(c.Get(fiber.HeaderAuthorization))
		if !auth.Authenticated() {
			return c.Status(fiber.StatusUnauthorized).JSON(model.Envelope{Message: msgAuthRequired})
		}

		claims, err := ParseToken(secret, auth.Token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("rejected bearer token")
			return c.Status(fiber.StatusUnauthorized).JSON(model.Envelope{Message: msgInvalidToken})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by RequireJWT, or nil.
func ClaimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(claimsKey).(*Claims)
	return claims
}

// RequireRole allows the request only if the verified token carries one of roles.
// Roles compare case-insensitively. Must run after RequireJWT.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed = append(allowed, strings.ToLower(strings.TrimSpace(r)))
	}

	return func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil || !slices.Contains(allowed, strings.ToLower(claims.Role)) {
			return c.Status(fiber.StatusForbidden).JSON(model.Envelope{Message: msgForbidden})
		}
		return c.Next()
	}
}
