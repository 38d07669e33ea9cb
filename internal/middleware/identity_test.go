package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func mintToken(t *testing.T, userID uint, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  float64(userID),
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func identityApp(handler echo.HandlerFunc, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	g := e.Group("", Resolve(testSecret))
	g.GET("/", handler, mw...)
	return e
}

func TestResolveIssuesGuestToken(t *testing.T) {
	var got Identity
	e := identityApp(func(c echo.Context) error {
		got = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Zero(t, got.UserID)
	require.NotEmpty(t, got.GuestToken)

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "guestToken" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	require.Equal(t, got.GuestToken, cookie.Value)
	require.True(t, cookie.HttpOnly)

	// The same cookie keeps the same identity, no new cookie issued.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, cookie.Value, got.GuestToken)
	require.Empty(t, rec.Result().Cookies())
}

func TestResolveParsesAccessToken(t *testing.T) {
	var got Identity
	e := identityApp(func(c echo.Context) error {
		got = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: mintToken(t, 7, "admin", time.Hour)})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, uint(7), got.UserID)
	require.Equal(t, "admin", got.Role)
	require.Empty(t, got.GuestToken)
}

func TestResolveRejectsBadTokensToGuest(t *testing.T) {
	var got Identity
	e := identityApp(func(c echo.Context) error {
		got = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	})

	for name, value := range map[string]string{
		"garbage": "not-a-jwt",
		"expired": mintToken(t, 7, "user", -time.Hour),
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: value})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Zero(t, got.UserID, name)
		require.NotEmpty(t, got.GuestToken, name)
	}
}

func TestRequireUser(t *testing.T) {
	e := identityApp(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: mintToken(t, 7, "user", time.Hour)})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	e := identityApp(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireAdmin)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: mintToken(t, 7, "user", time.Hour)})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: mintToken(t, 7, "admin", time.Hour)})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
