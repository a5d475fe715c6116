// Package apiclient is the REST client for the authentication API. Requests
// go through a Transport that keeps the access token attached and renews it,
// at most one exchange at a time, when the server answers 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/events"
)

const (
	// DefaultBaseURL is used when no API URL is configured.
	DefaultBaseURL = "http://localhost:3001"
	// DefaultTimeout bounds every request, including a renewal and replay.
	DefaultTimeout = 30 * time.Second
)

// Client talks to the authentication API on behalf of a credentials.Store.
type Client struct {
	baseURL   string
	timeout   time.Duration
	base      http.RoundTripper
	http      *http.Client
	store     *credentials.Store
	refresher *refresher
	expired   *events.Broadcaster
	validate  *validator.Validate
	logger    zerolog.Logger
	metrics   *Metrics
	headersMu sync.RWMutex
	headers   http.Header
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithBaseTransport sets the RoundTripper requests are finally sent with.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithSessionExpired sets the broadcaster notified when a renewal fails.
func WithSessionExpired(b *events.Broadcaster) Option {
	return func(c *Client) {
		c.expired = b
	}
}

// New creates a Client for the API at baseURL.
func New(baseURL string, store *credentials.Store, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: DefaultTimeout,
		base:    http.DefaultTransport,
		store:   store,
		logger:  log.Logger,
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.expired == nil {
		c.expired = events.NewBroadcaster()
	}

	c.validate = validator.New(validator.WithRequiredStructEnabled())
	c.validate.RegisterTagNameFunc(jsonFieldName)

	c.refresher = newRefresher(store, c.Refresh, c.expired, c.logger, c.metrics)
	c.http = &http.Client{
		Timeout: c.timeout,
		Transport: &Transport{
			base:      c.base,
			store:     store,
			refresher: c.refresher,
			metrics:   c.metrics,
		},
	}
	return c
}

// SessionExpired returns the broadcaster raised when a renewal fails.
func (c *Client) SessionExpired() *events.Broadcaster {
	return c.expired
}

// Store returns the credential store the client reads and renews.
func (c *Client) Store() *credentials.Store {
	return c.store
}

// HTTPClient returns the authenticating *http.Client for calls this package
// does not wrap.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// SetHeaders adds headers sent with every subsequent request.
func (c *Client) SetHeaders(headers map[string]string) {
	c.headersMu.Lock()
	defer c.headersMu.Unlock()
	for k, v := range headers {
		c.headers.Set(k, v)
	}
}

// RemoveHeaders removes headers previously added with SetHeaders.
func (c *Client) RemoveHeaders(keys ...string) {
	c.headersMu.Lock()
	defer c.headersMu.Unlock()
	for _, k := range keys {
		c.headers.Del(k)
	}
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.exchange(ctx, LoginPath, &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.exchange(ctx, RegisterPath, &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// googleRegistration is the register body sent for a Google sign-up.
type googleRegistration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// GoogleSignUp registers the Google profile through the register endpoint
// with an empty password.
func (c *Client) GoogleSignUp(ctx context.Context, req GoogleSignUpRequest) (*AuthResponse, error) {
	if err := c.validate.StructCtx(ctx, &req); err != nil {
		return nil, normalize(err)
	}
	body := googleRegistration{
		Email: req.Email,
		Name:  strings.TrimSpace(req.FirstName + " " + req.LastName),
	}
	var resp AuthResponse
	if err := c.call(ctx, http.MethodPost, RegisterPath, &body, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new access token. It never triggers
// a renewal of its own; use Renew to refresh the session's credentials.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshTokenResponse, error) {
	var resp RefreshTokenResponse
	if err := c.exchange(ctx, RefreshTokenPath, &RefreshTokenRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Renew refreshes the stored credentials, joining an exchange already in
// flight. On failure both credentials are cleared and SessionExpired is
// broadcast; the error wraps ErrRenewalFailed.
func (c *Client) Renew(ctx context.Context) (string, error) {
	return c.refresher.renew(ctx, c.store.AccessToken())
}

func (c *Client) Logout(ctx context.Context, refreshToken string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.exchange(ctx, LogoutPath, &LogoutRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.exchange(ctx, ForgotPasswordPath, &ForgotPasswordRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	var resp MessageResponse
	req := &ResetPasswordRequest{Token: token, NewPassword: newPassword}
	if err := c.exchange(ctx, ResetPasswordPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me fetches the profile of the signed-in user, renewing the access token
// when the server rejects it.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.Do(ctx, http.MethodGet, MePath, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Do sends an authenticated JSON request. in may be nil; out may be nil to
// discard the response body. Failures are returned as *APIError, or as an
// error wrapping ErrRenewalFailed when the session could not be renewed.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	return c.call(ctx, method, path, in, out, true)
}

// exchange validates req and posts it to one of the credential endpoints.
// A 401 from these endpoints is a rejection, not a stale token.
func (c *Client) exchange(ctx context.Context, path string, req, out any) error {
	if err := c.validate.StructCtx(ctx, req); err != nil {
		return normalize(err)
	}
	return c.call(ctx, http.MethodPost, path, req, out, false)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any, renew bool) error {
	if !renew {
		ctx = withoutRenewal(ctx)
	}
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return normalize(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return normalize(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp)
		c.logger.Debug().Str("path", path).Int("status", apiErr.Status).Msg(apiErr.Message)
		return apiErr
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &APIError{
			Message: "decoding response: " + err.Error(),
			Status:  resp.StatusCode,
			Code:    CodeBadResponse,
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.headersMu.RLock()
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	c.headersMu.RUnlock()
	return req, nil
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
