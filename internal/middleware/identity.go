package middleware

// identity.go holds helpers shared across middleware files.

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// subject returns the caller's user id as a string taken from the JWT left
// in context by JWTAuth, or "anon" when there is none.  Numeric subjects
// decode as float64 and are printed without a fraction.
func subject(c echo.Context) string {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return "anon"
	}
	cl, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "anon"
	}
	switch v := cl["sub"].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	}
	return "anon"
}
