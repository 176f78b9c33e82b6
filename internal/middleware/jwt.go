package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"   // errors reports why a bearer token was rejected
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

var (
	errNoBearer      = errors.New("missing bearer token")
	errInvalidToken  = errors.New("invalid token")
	errInvalidClaims = errors.New("invalid claims")
)

// JWTAuth returns an Echo middleware that requires a valid HS256 Bearer
// token and injects the token's subject and role claims into the request
// context as "user_id" and "role".  Requests without a usable token are
// answered with 401 Unauthorized.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, secret); err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}
			return next(c)
		}
	}
}

// OptionalJWT is the lenient variant used on session routes: a valid token
// identifies the cart owner, anything else leaves the request anonymous.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_ = authenticate(c, secret) // anonymous on failure
			return next(c)
		}
	}
}

// authenticate parses the Authorization header and, on success, stores the
// subject and role claims in the context.
func authenticate(c echo.Context, secret string) error {
	// A valid header starts with "Bearer " followed by the JWT.
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return errNoBearer
	}
	raw := strings.TrimPrefix(auth, "Bearer ")

	// Parse with our secret, rejecting any non-HMAC signing method.
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return errInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return errInvalidClaims
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return errInvalidClaims
	}
	// Downstream code reads these via UserID / RequireRole.
	c.Set("user_id", sub)
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
	return nil
}
