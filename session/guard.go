package session

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-auth-client/token"
)

const (
	// AccessTokenCookie is the cookie the guard reads the access token from.
	AccessTokenCookie = "access_token"

	DashboardPath = "/dashboard"
	AuthPath      = "/auth"
)

// Guard redirects page requests according to the access token they carry:
// protected pages without a valid token go to the sign-in page, and the
// sign-in pages with a valid token go to the dashboard.
type Guard struct {
	Protected []string // path prefixes that need a session
	AuthPages []string // path prefixes only for signed-out users
	SignIn    string
	Home      string
}

// NewGuard returns the dashboard's routing rules.
func NewGuard() *Guard {
	return &Guard{
		Protected: []string{DashboardPath},
		AuthPages: []string{AuthPath},
		SignIn:    AuthPath,
		Home:      DashboardPath,
	}
}

// Redirect returns the target for a request to path by a caller holding
// accessToken, and false when the request may continue.
func (g *Guard) Redirect(path, accessToken string) (string, bool) {
	authenticated := token.Valid(accessToken)
	if !authenticated && hasPrefix(path, g.Protected) {
		return g.SignIn, true
	}
	if authenticated && hasPrefix(path, g.AuthPages) {
		return g.Home, true
	}
	return "", false
}

// Middleware applies Redirect to every request, reading the token from the
// access token cookie.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var accessToken string
		if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
			accessToken = cookie.Value
		}
		if target, ok := g.Redirect(r.URL.Path, accessToken); ok {
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
