// Package session owns the authentication state of the running client and
// drives it through start-up, login, registration and logout.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/token"
)

// State is a snapshot of the session.
type State struct {
	Identity  *token.Identity
	IsLoading bool
}

// IsAuthenticated reports whether an identity is present.
func (s State) IsAuthenticated() bool {
	return s.Identity != nil
}

// Coordinator owns the session State. It is safe for concurrent use.
type Coordinator struct {
	client      *apiclient.Client
	store       *credentials.Store
	logger      zerolog.Logger
	mu          sync.RWMutex
	state       State
	unsubscribe func()
}

type Option func(*Coordinator)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a Coordinator over client and the credential store it renews.
// The Coordinator starts loading and follows the client's session-expired
// broadcast until Close.
func New(client *apiclient.Client, opts ...Option) *Coordinator {
	c := &Coordinator{
		client: client,
		store:  client.Store(),
		logger: log.Logger,
		state:  State{IsLoading: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsubscribe = client.SessionExpired().Subscribe(c.sessionExpired)
	return c
}

// State returns a snapshot of the current session.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Coordinator) IsAuthenticated() bool {
	return c.State().IsAuthenticated()
}

// Client returns the API client the Coordinator authenticates.
func (c *Coordinator) Client() *apiclient.Client {
	return c.client
}

// OnSessionExpired registers fn to run after the session has been ended by a
// failed renewal. The Coordinator's own state is already cleared when fn runs.
func (c *Coordinator) OnSessionExpired(fn func()) (unsubscribe func()) {
	return c.client.SessionExpired().Subscribe(fn)
}

// Close stops following the session-expired broadcast.
func (c *Coordinator) Close() {
	c.unsubscribe()
}

// Initialize restores the session from the stored credentials. It never
// fails: every path ends in a settled, not-loading State.
func (c *Coordinator) Initialize(ctx context.Context) State {
	c.setLoading(true)
	identity := c.restore(ctx)

	c.mu.Lock()
	c.state = State{Identity: identity}
	c.mu.Unlock()
	return c.State()
}

func (c *Coordinator) restore(ctx context.Context) *token.Identity {
	accessToken := c.store.AccessToken()
	refreshToken := c.store.RefreshToken()

	if accessToken != "" && refreshToken != "" {
		identity, err := token.DecodeIdentity(accessToken)
		if err == nil {
			return identity
		}
		c.logger.Debug().Err(err).Msg("stored access token unusable, renewing")
	}

	if refreshToken == "" {
		return nil
	}

	// A failed renewal has already cleared both credentials.
	accessToken, err := c.client.Renew(ctx)
	if err != nil {
		c.logger.Info().Err(err).Msg("session could not be restored")
		return nil
	}

	identity, err := token.DecodeIdentity(accessToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("renewed access token could not be decoded")
		return nil
	}
	return identity
}

// Login authenticates with email and password. On failure the stored
// credentials are left untouched and the *apiclient.APIError is returned.
func (c *Coordinator) Login(ctx context.Context, email, password string) (*token.Identity, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := c.client.Login(ctx, apiclient.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return c.establish(resp)
}

func (c *Coordinator) Register(ctx context.Context, req apiclient.RegisterRequest) (*token.Identity, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := c.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.establish(resp)
}

func (c *Coordinator) GoogleSignUp(ctx context.Context, req apiclient.GoogleSignUpRequest) (*token.Identity, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := c.client.GoogleSignUp(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.establish(resp)
}

// Logout invalidates the refresh token on the server when one is stored and
// then always ends the local session. A failed invalidation is logged only;
// the returned error reports a failure to clear local storage.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	if refreshToken := c.store.RefreshToken(); refreshToken != "" {
		if _, err := c.client.Logout(ctx, refreshToken); err != nil {
			c.logger.Warn().Err(err).Msg("server-side logout failed, clearing local session")
		}
	}

	err := c.store.ClearAll()
	c.setIdentity(nil)
	return err
}

func (c *Coordinator) ForgotPassword(ctx context.Context, email string) (*apiclient.MessageResponse, error) {
	return c.client.ForgotPassword(ctx, email)
}

func (c *Coordinator) ResetPassword(ctx context.Context, resetToken, newPassword string) (*apiclient.MessageResponse, error) {
	return c.client.ResetPassword(ctx, resetToken, newPassword)
}

// establish stores the pair from a successful login or registration.
func (c *Coordinator) establish(resp *apiclient.AuthResponse) (*token.Identity, error) {
	c.store.SetAccessToken(resp.AccessToken)
	if err := c.store.SetRefreshToken(resp.RefreshToken); err != nil {
		c.store.SetAccessToken("")
		c.logger.Err(err).Msg("storing refresh token")
		return nil, err
	}

	identity := identityFromUser(resp.User)
	if identity.ID == "" {
		if decoded, err := token.DecodeIdentity(resp.AccessToken); err == nil {
			identity = decoded
		}
	}
	c.setIdentity(identity)
	return identity, nil
}

func identityFromUser(u apiclient.User) *token.Identity {
	return &token.Identity{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Extra: u.Extra,
	}
}

func (c *Coordinator) sessionExpired() {
	c.logger.Info().Msg("session expired")
	c.setIdentity(nil)
}

func (c *Coordinator) setIdentity(identity *token.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Identity = identity
}

func (c *Coordinator) setLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsLoading = loading
}
