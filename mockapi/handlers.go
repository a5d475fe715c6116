package mockapi

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/auth"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/users"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxBodyBytes    = 1 << 20
)

// Error codes carried in the body of every failed response.
const (
	codeInvalidRequest      = "INVALID_REQUEST"
	codeInvalidCredentials  = "INVALID_CREDENTIALS"
	codeUserExists          = "USER_EXISTS"
	codeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	codeInvalidResetToken   = "INVALID_RESET_TOKEN"
	codeUnauthorized        = "UNAUTHORIZED"
	codeNotFound            = "NOT_FOUND"
	codeInternal            = "INTERNAL_ERROR"
)

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Email == "" || req.Password == "" {
			writeJSONError(w, codeInvalidRequest, "Email and password are required", http.StatusBadRequest)
			return
		}

		pair, err := s.auth.Login(req.Email, req.Password)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, authResponse(pair))
	}
}

// RegisterHandler creates password accounts, and Google accounts when the
// password is empty.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.RegisterRequest
		if !decodeBody(w, r, &req) {
			return
		}

		pair, err := s.auth.Register(req.Email, req.Password, req.Name)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, authResponse(pair))
	}
}

func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.RefreshTokenRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.RefreshToken == "" {
			writeJSONError(w, codeInvalidRequest, "Refresh token is required", http.StatusBadRequest)
			return
		}

		pair, err := s.auth.Refresh(req.RefreshToken)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, apiclient.RefreshTokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}

// LogoutHandler always succeeds for well-formed requests so a client can
// tear down its session even when the token is already gone.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.LogoutRequest
		if !decodeBody(w, r, &req) {
			return
		}

		accessToken, _ := bearerToken(r)
		if err := s.auth.Logout(req.RefreshToken, accessToken); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, apiclient.MessageResponse{Message: "Logged out successfully", Success: true})
	}
}

// ForgotPasswordHandler answers the same way whether or not the account
// exists. Development servers return the reset token in the body.
func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.ForgotPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Email == "" {
			writeJSONError(w, codeInvalidRequest, "Email is required", http.StatusBadRequest)
			return
		}

		resetToken, err := s.auth.ForgotPassword(req.Email)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		resp := apiclient.MessageResponse{
			Message: "If the account exists, a password reset link has been sent",
			Success: true,
		}
		if s.devMode {
			resp.ResetToken = resetToken
			if resetToken != "" {
				s.logger.Info().Str("email", req.Email).Str("reset_token", resetToken).Msg("password reset requested")
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.ResetPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Token == "" || req.NewPassword == "" {
			writeJSONError(w, codeInvalidRequest, "Token and new password are required", http.StatusBadRequest)
			return
		}

		if err := s.auth.ResetPassword(req.Token, req.NewPassword); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, apiclient.MessageResponse{Message: "Password has been reset", Success: true})
	}
}

// MeHandler returns the profile of the authenticated account.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok {
			writeJSONError(w, codeUnauthorized, "Not authenticated", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, toAPIUser(user))
	}
}

// writeServiceError maps auth.Service errors onto HTTP responses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case autherrors.Is(err, autherrors.ErrInvalidCredentials):
		writeJSONError(w, codeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
	case autherrors.Is(err, autherrors.ErrUserExists):
		writeJSONError(w, codeUserExists, "An account with this email already exists", http.StatusConflict)
	case autherrors.Is(err, autherrors.ErrInvalidRefreshToken),
		autherrors.Is(err, autherrors.ErrRefreshTokenExpired):
		writeJSONError(w, codeInvalidRefreshToken, "Invalid or expired refresh token", http.StatusUnauthorized)
	case autherrors.Is(err, autherrors.ErrInvalidResetToken):
		writeJSONError(w, codeInvalidResetToken, "Invalid or expired reset token", http.StatusBadRequest)
	case autherrors.Is(err, autherrors.ErrInvalidRequest),
		autherrors.Is(err, autherrors.ErrMissingArgument):
		writeJSONError(w, codeInvalidRequest, err.Error(), http.StatusBadRequest)
	case autherrors.Is(err, autherrors.ErrUserNotFound),
		autherrors.Is(err, autherrors.ErrNotFound):
		writeJSONError(w, codeNotFound, "Not found", http.StatusNotFound)
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeJSONError(w, codeInternal, "Internal server error", http.StatusInternalServerError)
	}
}

func authResponse(pair *auth.TokenPair) apiclient.AuthResponse {
	return apiclient.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toAPIUser(pair.User),
	}
}

func toAPIUser(user *users.User) apiclient.User {
	return apiclient.User{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Extra: map[string]any{
			"role":     string(user.Role),
			"provider": user.Provider,
		},
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, codeInvalidRequest, "Request body must be valid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, errorCode, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"message": message,
		"code":    errorCode,
	})
}
