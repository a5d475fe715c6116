package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-client/auth"
	fakeresetrepo "github.com/jrsteele09/go-auth-client/auth/repofakes"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/token"
	refreshrepofake "github.com/jrsteele09/go-auth-client/token/refresh/repofake"
	"github.com/jrsteele09/go-auth-client/users"
	fakeuserrepo "github.com/jrsteele09/go-auth-client/users/repofake"
)

const (
	testIssuer   = "http://localhost:3001"
	testEmail    = "john.doe@example.com"
	testPassword = "Passw0rd!"
)

type serverConfig struct{}

func (serverConfig) GetServerAddr() string                { return ":0" }
func (serverConfig) GetJWTSecret() string                 { return "test-secret-0123456789" }
func (serverConfig) GetAccessTokenExpiry() time.Duration  { return 15 * time.Minute }
func (serverConfig) GetRefreshTokenExpiry() time.Duration { return 24 * time.Hour }
func (serverConfig) GetRefreshTokenLength() int           { return 32 }
func (serverConfig) GetResetTokenExpiry() time.Duration   { return 15 * time.Minute }

type testFixture struct {
	users   users.Repo
	service *auth.Service
	now     time.Time
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		users: fakeuserrepo.NewFakeUserRepo(),
		now:   time.Now(),
	}
	service, err := auth.NewService(auth.Repos{
		Users:         f.users,
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		ResetTokens:   fakeresetrepo.NewFakeResetRepo(),
	}, serverConfig{}, testIssuer, auth.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.service = service
	return f
}

func TestNewService_RequiresRepos(t *testing.T) {
	_, err := auth.NewService(auth.Repos{}, serverConfig{}, testIssuer)
	require.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	pair, err := f.service.Register(testEmail, testPassword, " John Doe ")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "John Doe", pair.User.Name)
	require.Equal(t, users.RoleViewer, pair.User.Role)
	require.Equal(t, auth.ProviderPassword, pair.User.Provider)

	identity, err := token.DecodeIdentity(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, pair.User.ID, identity.ID)
	require.Equal(t, testEmail, identity.Email)
	require.Equal(t, "viewer", identity.Extra["role"])

	_, err = f.service.Register(testEmail, testPassword, "Again")
	require.ErrorIs(t, err, autherrors.ErrUserExists)

	login, err := f.service.Login("JOHN.DOE@example.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, pair.User.ID, login.User.ID)

	_, err = f.service.Login(testEmail, "wrong")
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	_, err = f.service.Login("nobody@example.com", testPassword)
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(testEmail, "weak", "John")
	require.ErrorIs(t, err, autherrors.ErrInvalidRequest)

	_, err = f.service.Register("", testPassword, "John")
	require.ErrorIs(t, err, autherrors.ErrMissingArgument)
}

func TestRegister_GoogleAccountHasNoPassword(t *testing.T) {
	f := newFixture(t)

	pair, err := f.service.Register("ada@example.com", "", "Ada Lovelace")
	require.NoError(t, err)
	require.Equal(t, auth.ProviderGoogle, pair.User.Provider)

	_, err = f.service.Login("ada@example.com", "")
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestRefresh_Rotates(t *testing.T) {
	f := newFixture(t)
	pair, err := f.service.Register(testEmail, testPassword, "John")
	require.NoError(t, err)

	next, err := f.service.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	require.NotEmpty(t, next.AccessToken)

	_, err = f.service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)

	// Reuse of the old token revoked the replacement too.
	_, err = f.service.Refresh(next.RefreshToken)
	require.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)

	_, err = f.service.Refresh("unknown")
	require.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
}

func TestLogout_RevokesTokens(t *testing.T) {
	f := newFixture(t)
	pair, err := f.service.Register(testEmail, testPassword, "John")
	require.NoError(t, err)

	user, err := f.service.UserInfo(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, pair.User.ID, user.ID)

	require.NoError(t, f.service.Logout(pair.RefreshToken, pair.AccessToken))

	_, err = f.service.UserInfo(pair.AccessToken)
	require.ErrorIs(t, err, autherrors.ErrInvalidToken)
	_, err = f.service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)

	require.NoError(t, f.service.Logout("unknown", "not-a-jwt"))
}

func TestUserInfo_RejectsForeignTokens(t *testing.T) {
	f := newFixture(t)

	foreign, err := token.NewHMACSigner("another-secret-0123456789").Sign(map[string]any{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = f.service.UserInfo(foreign)
	require.ErrorIs(t, err, autherrors.ErrInvalidToken)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	pair, err := f.service.Register(testEmail, testPassword, "John")
	require.NoError(t, err)

	none, err := f.service.ForgotPassword("nobody@example.com")
	require.NoError(t, err)
	require.Empty(t, none)

	resetToken, err := f.service.ForgotPassword(testEmail)
	require.NoError(t, err)
	require.NotEmpty(t, resetToken)

	require.ErrorIs(t, f.service.ResetPassword(resetToken, "weak"), autherrors.ErrInvalidRequest)
	require.NoError(t, f.service.ResetPassword(resetToken, "N3wPassword"))
	require.ErrorIs(t, f.service.ResetPassword(resetToken, "N3wPassword"), autherrors.ErrInvalidResetToken)

	_, err = f.service.Login(testEmail, testPassword)
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	_, err = f.service.Login(testEmail, "N3wPassword")
	require.NoError(t, err)

	// Existing sessions were ended.
	_, err = f.service.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
}

func TestPasswordReset_Expired(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(testEmail, testPassword, "John")
	require.NoError(t, err)

	resetToken, err := f.service.ForgotPassword(testEmail)
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	require.ErrorIs(t, f.service.ResetPassword(resetToken, "N3wPassword"), autherrors.ErrInvalidResetToken)
}

func TestCleanup(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(testEmail, testPassword, "John")
	require.NoError(t, err)
	_, err = f.service.ForgotPassword(testEmail)
	require.NoError(t, err)

	require.Zero(t, f.service.Cleanup())
	f.now = f.now.Add(time.Hour)
	require.Equal(t, 1, f.service.Cleanup())
}

func TestSeedUser(t *testing.T) {
	f := newFixture(t)

	seeded, err := f.service.SeedUser("admin@example.com", "Admin", "Adm1nPassword", users.RoleAdmin)
	require.NoError(t, err)

	again, err := f.service.SeedUser("admin@example.com", "Admin", "Adm1nPassword2", users.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, seeded.ID, again.ID)

	_, err = f.service.Login("admin@example.com", "Adm1nPassword2")
	require.NoError(t, err)
}
