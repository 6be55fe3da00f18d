package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// UserID returns the id the auth middleware stored on the context, "" when
// the request was not authenticated.
func UserID(c echo.Context) string {
	uid, _ := c.Get(userIDKey).(string)
	return uid
}

// SetUserID is used by the auth middleware after claim verification.
func SetUserID(c echo.Context, uid string) {
	c.Set(userIDKey, uid)
}

// SubjectFromToken extracts the subject claim from the parsed echo-jwt token.
func SubjectFromToken(c echo.Context) (string, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return "", errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid jwt claims")
	}
	if s, ok := claims["sub"].(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("sub missing in claims")
}
