package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-client/session"
)

func TestGuard_Redirect(t *testing.T) {
	valid := unsignedToken(t, map[string]any{"sub": "u1", "exp": 9999999999})
	expired := unsignedToken(t, map[string]any{"sub": "u1", "exp": 1})

	tests := []struct {
		name        string
		path        string
		accessToken string
		want        string
	}{
		{"dashboard without token", "/dashboard/products", "", "/auth"},
		{"dashboard with expired token", "/dashboard", expired, "/auth"},
		{"dashboard with malformed token", "/dashboard", "abc.def", "/auth"},
		{"dashboard with valid token", "/dashboard", valid, ""},
		{"sign-in with valid token", "/auth/login", valid, "/dashboard"},
		{"sign-in without token", "/auth/login", "", ""},
		{"public page", "/about", "", ""},
	}
	guard := session.NewGuard()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target, ok := guard.Redirect(tc.path, tc.accessToken)
			require.Equal(t, tc.want != "", ok)
			require.Equal(t, tc.want, target)
		})
	}
}

func TestGuard_Middleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := session.NewGuard().Middleware(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	require.Equal(t, "/auth", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.AccessTokenCookie, Value: unsignedToken(t, map[string]any{"sub": "u1"})})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
