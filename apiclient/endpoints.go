package apiclient

// Endpoint paths relative to the API base URL.
const (
	LoginPath          = "/auth/login"
	RegisterPath       = "/auth/register"
	RefreshTokenPath   = "/auth/refresh-token"
	LogoutPath         = "/auth/logout"
	ForgotPasswordPath = "/auth/forgot-password"
	ResetPasswordPath  = "/auth/reset-password"
	// MePath returns the profile of the access token's owner.
	MePath = "/auth/me"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

// GoogleSignUpRequest carries the profile collected by the Google sign-up
// form. It is posted to the register endpoint with an empty password.
type GoogleSignUpRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// User is the profile returned alongside a token pair.
type User struct {
	ID    string         `json:"id" yaml:"id"`
	Email string         `json:"email" yaml:"email"`
	Name  string         `json:"name" yaml:"name"`
	Extra map[string]any `json:"-" yaml:"extra,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// MessageResponse is returned by logout, forgot-password and reset-password.
type MessageResponse struct {
	Message string `json:"message" yaml:"message"`
	Success bool   `json:"success" yaml:"success"`
	// ResetToken is only filled in by development backends that cannot mail
	// the reset link.
	ResetToken string `json:"reset_token,omitempty" yaml:"reset_token,omitempty"`
}
