package middleware

// identity.go holds the helper shared by handlers and the rate limiter for
// reading the authenticated subject that JWTAuth/OptionalJWT stored.

import "github.com/labstack/echo/v4"

// UserID returns the JWT subject of the current request, or "" when the
// request is anonymous.
func UserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok {
		return s
	}
	return ""
}
