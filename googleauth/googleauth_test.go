package googleauth_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-auth-client/googleauth"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

const clientID = "client-123.apps.googleusercontent.com"

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	base := jwt.MapClaims{
		"iss": googleauth.Issuer,
		"aud": clientID,
		"sub": "1098",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, base).SignedString(key)
	require.NoError(t, err)
	return raw
}

func newVerifier(t *testing.T) (*googleauth.Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return googleauth.NewStaticVerifier(googleauth.Issuer, clientID, keys), key
}

func TestVerifier_Profile(t *testing.T) {
	verifier, key := newVerifier(t)

	raw := signIDToken(t, key, jwt.MapClaims{
		"email":          "ada@example.com",
		"email_verified": true,
		"name":           "Ada King Lovelace",
		"nonce":          "n-1",
	})

	profile, err := verifier.Profile(context.Background(), raw, "n-1")
	require.NoError(t, err)
	require.Equal(t, "1098", profile.Subject)
	require.True(t, profile.EmailVerified)
	require.Equal(t, "Ada", profile.FirstName)
	require.Equal(t, "King Lovelace", profile.LastName)

	req := profile.SignUpRequest()
	require.Equal(t, "ada@example.com", req.Email)
	require.Equal(t, "Ada", req.FirstName)
	require.Equal(t, "King Lovelace", req.LastName)
}

func TestVerifier_PrefersGivenAndFamilyName(t *testing.T) {
	verifier, key := newVerifier(t)

	raw := signIDToken(t, key, jwt.MapClaims{
		"email":       "grace@example.com",
		"name":        "Admiral Hopper",
		"given_name":  "Grace",
		"family_name": "Hopper",
	})

	profile, err := verifier.Profile(context.Background(), raw, "")
	require.NoError(t, err)
	require.Equal(t, "Grace", profile.FirstName)
	require.Equal(t, "Hopper", profile.LastName)
}

func TestVerifier_Rejects(t *testing.T) {
	verifier, key := newVerifier(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name  string
		raw   string
		nonce string
	}{
		{name: "foreign key", raw: signIDToken(t, otherKey, jwt.MapClaims{"email": "a@b.com"})},
		{name: "wrong audience", raw: signIDToken(t, key, jwt.MapClaims{"email": "a@b.com", "aud": "someone-else"})},
		{name: "expired", raw: signIDToken(t, key, jwt.MapClaims{"email": "a@b.com", "exp": time.Now().Add(-time.Hour).Unix()})},
		{name: "nonce mismatch", raw: signIDToken(t, key, jwt.MapClaims{"email": "a@b.com", "nonce": "a"}), nonce: "b"},
		{name: "not a jwt", raw: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Profile(context.Background(), tt.raw, tt.nonce)
			require.True(t, autherrors.Is(err, autherrors.ErrInvalidToken), err)
		})
	}

	_, err = verifier.Profile(context.Background(), signIDToken(t, key, jwt.MapClaims{}), "")
	require.True(t, autherrors.Is(err, autherrors.ErrMissingArgument))
}

func TestConfig_AuthCodeURL(t *testing.T) {
	cfg := googleauth.NewConfig(clientID, "secret", "http://localhost:3000/auth/google/callback")
	verifier := googleauth.NewVerifierString()

	u, err := url.Parse(cfg.AuthCodeURL("state-1", verifier, "nonce-1"))
	require.NoError(t, err)
	require.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, clientID, q.Get("client_id"))
	require.Equal(t, "nonce-1", q.Get("nonce"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), q.Get("code_challenge"))
	require.Equal(t, "openid email profile", q.Get("scope"))
}

func TestConfig_Exchange(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "google-at",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     "raw-id-token",
		})
	}))
	defer srv.Close()

	cfg := googleauth.NewConfig(clientID, "secret", "http://localhost/cb",
		googleauth.WithEndpoint(oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}))

	raw, err := cfg.Exchange(context.Background(), "code-1", "verifier-1")
	require.NoError(t, err)
	require.Equal(t, "raw-id-token", raw)
	require.Equal(t, "code-1", form.Get("code"))
	require.Equal(t, "verifier-1", form.Get("code_verifier"))
	require.Equal(t, clientID, form.Get("client_id"))
}
