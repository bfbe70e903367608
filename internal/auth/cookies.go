package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie the session token travels in.
const SessionCookieName = "token"

// SetSessionCookie stores the session token in an HTTP-only cookie. In
// production the SPA is served from a different origin, so the cookie needs
// SameSite=None and Secure; in development it stays Strict over plain HTTP.
func SetSessionCookie(w http.ResponseWriter, token string, isProduction bool, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: sameSiteMode(isProduction),
	})
}

// ClearSessionCookie removes the client's copy of the session token. The
// token itself remains valid until its expiry; there is no server-side
// revocation.
func ClearSessionCookie(w http.ResponseWriter, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: sameSiteMode(isProduction),
	})
}

// SessionTokenFromCookie reads the session token from the request.
func SessionTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func sameSiteMode(isProduction bool) http.SameSite {
	if isProduction {
		return http.SameSiteNoneMode
	}
	return http.SameSiteStrictMode
}
