// Package googleauth runs the Google side of a Google sign-up: the consent
// redirect with PKCE, the code exchange, and ID token verification. The
// verified profile pre-fills a sign-up against the authentication API.
package googleauth

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-auth-client/apiclient"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// Issuer is Google's OpenID Connect issuer.
const Issuer = "https://accounts.google.com"

// Endpoint is Google's OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Config builds consent URLs and exchanges authorization codes.
type Config struct {
	oauth2 *oauth2.Config
}

type Option func(*oauth2.Config)

// WithEndpoint overrides the Google endpoint.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(c *oauth2.Config) {
		c.Endpoint = endpoint
	}
}

func NewConfig(clientID, clientSecret, redirectURL string, opts ...Option) *Config {
	c := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return &Config{oauth2: c}
}

// NewVerifierString returns a PKCE code verifier for AuthCodeURL and Exchange.
func NewVerifierString() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL returns the consent page URL. The S256 challenge of verifier is
// sent; nonce is echoed back in the ID token.
func (c *Config) AuthCodeURL(state, verifier, nonce string) string {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	if nonce != "" {
		opts = append(opts, oidc.Nonce(nonce))
	}
	return c.oauth2.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for the raw ID token.
func (c *Config) Exchange(ctx context.Context, code, verifier string) (string, error) {
	tok, err := c.oauth2.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", errors.Wrap(err, "exchanging authorization code")
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.Wrap(autherrors.ErrInvalidToken, "no id_token in token response")
	}
	return rawIDToken, nil
}

// Profile is the verified Google account.
type Profile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	FirstName     string `json:"given_name"`
	LastName      string `json:"family_name"`
	Name          string `json:"name"`
}

// SignUpRequest converts the profile for Coordinator.GoogleSignUp.
func (p *Profile) SignUpRequest() apiclient.GoogleSignUpRequest {
	return apiclient.GoogleSignUpRequest{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
	}
}

// Verifier checks Google ID tokens.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers Google's signing keys.
func NewVerifier(ctx context.Context, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, Issuer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OIDC provider")
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// NewStaticVerifier verifies against a fixed key set.
func NewStaticVerifier(issuer, clientID string, keys oidc.KeySet) *Verifier {
	return &Verifier{verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID})}
}

// Profile verifies rawIDToken and returns the account it describes. When
// nonce is not empty it must match the token's nonce claim. Missing given or
// family names are split out of name.
func (v *Verifier) Profile(ctx context.Context, rawIDToken, nonce string) (*Profile, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(autherrors.ErrInvalidToken, err.Error())
	}
	if nonce != "" && idToken.Nonce != nonce {
		return nil, errors.Wrap(autherrors.ErrInvalidToken, "nonce mismatch")
	}

	var p Profile
	if err := idToken.Claims(&p); err != nil {
		return nil, errors.Wrap(err, "failed to extract claims")
	}
	if p.Email == "" {
		return nil, autherrors.Wrapf(autherrors.ErrMissingArgument, "id token has no email")
	}
	if p.FirstName == "" && p.LastName == "" {
		p.FirstName, p.LastName = splitName(p.Name)
	}
	return &p, nil
}

func splitName(name string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(last)
}
