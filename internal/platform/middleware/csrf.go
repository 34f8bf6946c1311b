package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// CSRFCookieName is the double-submit cookie holding the CSRF token.
	CSRFCookieName = "clinic_csrf"
	// CSRFHeaderName is the header mutating requests must echo the token in.
	CSRFHeaderName = "X-CSRF-Token"
)

// NewCSRFToken generates a random token for the double-submit cookie pair.
func NewCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// CSRF returns middleware enforcing the double-submit cookie scheme on
// state-changing methods: the request must carry the token both as a cookie
// and in the X-CSRF-Token header, and the two must match. Safe methods pass
// through untouched.
func CSRF() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			cookie, err := c.Cookie(CSRFCookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusForbidden, "missing CSRF cookie")
			}
			header := c.Request().Header.Get(CSRFHeaderName)
			if header == "" {
				return echo.NewHTTPError(http.StatusForbidden, "missing CSRF token header")
			}
			if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "CSRF token mismatch")
			}
			return next(c)
		}
	}
}

// IssueCSRFHandler returns a handler that sets a fresh CSRF cookie and
// returns the token in the body so single-page clients can pick it up.
func IssueCSRFHandler(secure bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := NewCSRFToken()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate token")
		}
		c.SetCookie(&http.Cookie{
			Name:     CSRFCookieName,
			Value:    token,
			Path:     "/",
			Secure:   secure,
			SameSite: http.SameSiteStrictMode,
		})
		return c.JSON(http.StatusOK, map[string]string{"csrfToken": token})
	}
}
