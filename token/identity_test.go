package token_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/token"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return "hdr." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestDecodeIdentity_Example(t *testing.T) {
	raw := "hdr.eyJzdWIiOiJ1MSIsImVtYWlsIjoiYUBiLmNvbSIsImV4cCI6OTk5OTk5OTk5OX0.sig"

	identity, err := token.DecodeIdentity(raw)
	require.NoError(t, err)
	require.Equal(t, "u1", identity.ID)
	require.Equal(t, "a@b.com", identity.Email)
	require.Equal(t, "", identity.Name)
	require.Contains(t, identity.Extra, "exp")
	require.NotContains(t, identity.Extra, "sub")
}

func TestDecodeIdentity_Expired(t *testing.T) {
	raw := makeToken(t, map[string]any{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()})

	_, err := token.DecodeIdentity(raw)
	require.ErrorIs(t, err, token.ErrExpired)
	require.False(t, token.Valid(raw))
}

func TestDecodeIdentity_IDFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		wantID string
	}{
		{"sub wins", map[string]any{"sub": "s", "id": "i", "user_id": "u"}, "s"},
		{"id when no sub", map[string]any{"id": "i", "user_id": "u"}, "i"},
		{"user_id last", map[string]any{"user_id": "u"}, "u"},
		{"empty sub falls through", map[string]any{"sub": "", "id": "i"}, "i"},
		{"numeric id", map[string]any{"id": 42}, "42"},
		{"none", map[string]any{"email": "a@b.com"}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := token.DecodeIdentity(makeToken(t, tc.claims))
			require.NoError(t, err)
			require.Equal(t, tc.wantID, identity.ID)
		})
	}
}

func TestDecodeIdentity_ExtraClaims(t *testing.T) {
	raw := makeToken(t, map[string]any{"sub": "u1", "name": "A", "role": "admin", "tenant": "t1"})

	identity, err := token.DecodeIdentity(raw)
	require.NoError(t, err)
	require.Equal(t, "A", identity.Name)
	require.Equal(t, "admin", identity.Extra["role"])
	require.Equal(t, "t1", identity.Extra["tenant"])
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"two segments", "a.b"},
		{"four segments", "a.b.c.d"},
		{"payload not base64", "hdr.!!!.sig"},
		{"payload not json", "hdr." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".sig"},
		{"payload not object", "hdr." + base64.RawURLEncoding.EncodeToString([]byte(`[1,2]`)) + ".sig"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := token.Decode(tc.raw)
			require.ErrorIs(t, err, token.ErrMalformed)
			require.False(t, token.Valid(tc.raw))
		})
	}
}

func TestValid_NoExp(t *testing.T) {
	require.True(t, token.Valid(makeToken(t, map[string]any{"sub": "u1"})))
}

func TestExpiry(t *testing.T) {
	exp := time.Unix(1900000000, 0)
	require.True(t, exp.Equal(token.Expiry(makeToken(t, map[string]any{"exp": exp.Unix()}))))
	require.True(t, token.Expiry("garbage").IsZero())
}
