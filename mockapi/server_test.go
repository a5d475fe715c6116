package mockapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/mockapi"
	"github.com/jrsteele09/go-auth-client/users"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "Passw0rd!"
)

// prodConfig reports a production environment on top of the defaults.
type prodConfig struct {
	config.Config
}

func (prodConfig) GetEnv() string { return "PRODUCTION" }

func newTestServer(t *testing.T, cfg config.Config) *mockapi.Server {
	t.Helper()
	srv, err := mockapi.New(cfg,
		mockapi.WithLogger(zerolog.Nop()),
		mockapi.WithSeedUsers(mockapi.SeedUser{Email: testEmail, Name: "Ada", Password: testPassword, Role: users.RoleAdmin}),
	)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func login(t *testing.T, h http.Handler) apiclient.AuthResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, mockapi.RouteAuthLogin, apiclient.LoginRequest{Email: testEmail, Password: testPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp apiclient.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLoginHandler(t *testing.T) {
	srv := newTestServer(t, config.New())

	resp := login(t, srv)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, testEmail, resp.User.Email)
	require.Equal(t, "admin", resp.User.Extra["role"])

	rec := do(t, srv, http.MethodPost, mockapi.RouteAuthLogin, apiclient.LoginRequest{Email: testEmail, Password: "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "INVALID_CREDENTIALS", decodeError(t, rec)["code"])

	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthLogin, map[string]string{"email": testEmail}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, mockapi.RouteAuthLogin, bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	srv.ServeHTTP(raw, req)
	require.Equal(t, http.StatusBadRequest, raw.Code)
	require.Equal(t, "no-store", raw.Header().Get("Cache-Control"))
}

func TestRegisterHandler(t *testing.T) {
	srv := newTestServer(t, config.New())

	rec := do(t, srv, http.MethodPost, mockapi.RouteAuthRegister, apiclient.RegisterRequest{Email: "new@example.com", Password: "Str0ngPass", Name: "New"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthRegister, apiclient.RegisterRequest{Email: "new@example.com", Password: "Str0ngPass", Name: "New"}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "USER_EXISTS", decodeError(t, rec)["code"])

	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthRegister, apiclient.RegisterRequest{Email: "weak@example.com", Password: "weakpass", Name: "Weak"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_REQUEST", decodeError(t, rec)["code"])

	// Google sign-up posts an empty password
	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthRegister, map[string]string{"email": "g@example.com", "password": "", "name": "Grace Hopper"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp apiclient.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "google", resp.User.Extra["provider"])
}

func TestRefreshTokenHandler_Rotates(t *testing.T) {
	srv := newTestServer(t, config.New())
	first := login(t, srv)

	rec := do(t, srv, http.MethodPost, mockapi.RouteAuthRefreshToken, apiclient.RefreshTokenRequest{RefreshToken: first.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rotated apiclient.RefreshTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthRefreshToken, apiclient.RefreshTokenRequest{RefreshToken: first.RefreshToken}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "INVALID_REFRESH_TOKEN", decodeError(t, rec)["code"])
}

func TestMeHandler(t *testing.T) {
	srv := newTestServer(t, config.New())
	resp := login(t, srv)

	rec := do(t, srv, http.MethodGet, mockapi.RouteAuthMe, nil, http.Header{"Authorization": {"Bearer " + resp.AccessToken}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user apiclient.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, resp.User.ID, user.ID)

	rec = do(t, srv, http.MethodGet, mockapi.RouteAuthMe, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodGet, mockapi.RouteAuthMe, nil, http.Header{"Authorization": {"Bearer not-a-token"}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutHandler_RevokesTokens(t *testing.T) {
	srv := newTestServer(t, config.New())
	resp := login(t, srv)
	bearer := http.Header{"Authorization": {"Bearer " + resp.AccessToken}}

	rec := do(t, srv, http.MethodPost, mockapi.RouteAuthLogout, apiclient.LogoutRequest{RefreshToken: resp.RefreshToken}, bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	var msg apiclient.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	require.True(t, msg.Success)
	require.Equal(t, "Logged out successfully", msg.Message)

	rec = do(t, srv, http.MethodGet, mockapi.RouteAuthMe, nil, bearer)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthRefreshToken, apiclient.RefreshTokenRequest{RefreshToken: resp.RefreshToken}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logging out twice still succeeds
	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthLogout, apiclient.LogoutRequest{RefreshToken: resp.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordReset(t *testing.T) {
	srv := newTestServer(t, config.New())

	rec := do(t, srv, http.MethodPost, mockapi.RouteAuthForgotPassword, apiclient.ForgotPasswordRequest{Email: testEmail}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var forgot apiclient.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forgot))
	require.NotEmpty(t, forgot.ResetToken)

	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthResetPassword, apiclient.ResetPasswordRequest{Token: forgot.ResetToken, NewPassword: "N3wPassword"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthResetPassword, apiclient.ResetPasswordRequest{Token: forgot.ResetToken, NewPassword: "N3wPassword"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_RESET_TOKEN", decodeError(t, rec)["code"])

	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthLogin, apiclient.LoginRequest{Email: testEmail, Password: "N3wPassword"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Unknown accounts get the same answer
	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthForgotPassword, apiclient.ForgotPasswordRequest{Email: "nobody@example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestForgotPassword_ProductionHidesResetToken(t *testing.T) {
	srv := newTestServer(t, prodConfig{Config: config.New()})

	rec := do(t, srv, http.MethodPost, mockapi.RouteAuthForgotPassword, apiclient.ForgotPasswordRequest{Email: testEmail}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var forgot apiclient.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forgot))
	require.True(t, forgot.Success)
	require.Empty(t, forgot.ResetToken)
}

func TestCorsMiddleware(t *testing.T) {
	srv := newTestServer(t, config.New())

	rec := do(t, srv, http.MethodOptions, mockapi.RouteAuthLogin, nil, http.Header{"Origin": {"http://localhost:3000"}})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	require.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))

	rec = do(t, srv, http.MethodOptions, mockapi.RouteAuthLogin, nil, http.Header{"Origin": {"http://evil.example"}})
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, srv, http.MethodPost, mockapi.RouteAuthLogin, apiclient.LoginRequest{Email: testEmail, Password: testPassword}, http.Header{"Origin": {"http://localhost:3000"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverMiddleware(t *testing.T) {
	srv := newTestServer(t, config.New())
	srv.RegisterRouteHandler("GET /panic", mockapi.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, srv.APIMiddleware()...))

	rec := do(t, srv, http.MethodGet, "/panic", nil, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "INTERNAL_ERROR", decodeError(t, rec)["code"])
}

func TestInitialiseSystem_DevSeedsDemoAdmin(t *testing.T) {
	srv, err := mockapi.New(config.New(), mockapi.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = srv.Auth().ForgotPassword(mockapi.DefaultAdminEmail)
	require.NoError(t, err)
	rec := do(t, srv, http.MethodPost, mockapi.RouteAuthForgotPassword, apiclient.ForgotPasswordRequest{Email: mockapi.DefaultAdminEmail}, nil)
	var forgot apiclient.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forgot))
	require.NotEmpty(t, forgot.ResetToken)

	prod, err := mockapi.New(prodConfig{Config: config.New()}, mockapi.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	token, err := prod.Auth().ForgotPassword(mockapi.DefaultAdminEmail)
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestNew_LogsAllowedOrigins(t *testing.T) {
	var logs bytes.Buffer
	_, err := mockapi.New(config.New(), mockapi.WithLogger(zerolog.New(&logs).Level(zerolog.InfoLevel)))
	require.NoError(t, err)

	var ready struct {
		Message        string `json:"message"`
		AllowedOrigins string `json:"allowed_origins"`
	}
	for _, line := range bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n")) {
		require.NoError(t, json.Unmarshal(line, &ready))
		if ready.Message == "mock API ready" {
			break
		}
	}
	require.Equal(t, "mock API ready", ready.Message)
	require.Equal(t, "http://localhost:3000", ready.AllowedOrigins)
}
