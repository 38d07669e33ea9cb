package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Identity is the shopping identity of a request: an authenticated user id,
// or a guest token for anonymous visitors. Exactly one side is set.
type Identity struct {
	UserID     uint
	Role       string
	GuestToken string
}

const identityKey = "identity"

// Resolve determines the request identity from the accessToken cookie,
// falling back to a guest uuid cookie it issues on first contact. It never
// rejects a request; gates come from RequireUser/RequireAdmin.
func Resolve(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var ident Identity

			if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
				if uid, role, err := parseAccessToken(cookie.Value, jwtSecret); err == nil {
					ident.UserID = uid
					ident.Role = role
				}
			}

			if ident.UserID == 0 {
				if ck, err := c.Cookie("guestToken"); err == nil && ck.Value != "" {
					ident.GuestToken = ck.Value
				} else {
					ident.GuestToken = uuid.NewString()
					c.SetCookie(&http.Cookie{
						Name:     "guestToken",
						Value:    ident.GuestToken,
						Path:     "/",
						HttpOnly: true,
						SameSite: http.SameSiteLaxMode,
						Expires:  time.Now().Add(30 * 24 * time.Hour),
					})
				}
			}

			c.Set(identityKey, ident)
			return next(c)
		}
	}
}

func IdentityFrom(c echo.Context) Identity {
	if v, ok := c.Get(identityKey).(Identity); ok {
		return v
	}
	return Identity{}
}

func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if IdentityFrom(c).UserID == 0 {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident := IdentityFrom(c)
		if ident.UserID == 0 {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		if ident.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin only")
		}
		return next(c)
	}
}

func parseAccessToken(tokenString string, secret []byte) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, "", err
	}
	if !token.Valid {
		return 0, "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid token claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, "", fmt.Errorf("invalid subject claim")
	}
	role, _ := claims["role"].(string)

	return uint(sub), role, nil
}
