package mockapi

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-auth-client/users"
)

const DefaultAdminEmail = "admin@example.com"

// SeedUser is an account created when the server starts.
type SeedUser struct {
	Email    string
	Name     string
	Password string // generated when empty
	Role     users.RoleType
}

// InitialiseSystem creates the seed accounts. Development servers without
// explicit seeds get a demo administrator.
func (s *Server) InitialiseSystem() error {
	seeds := s.seeds
	if len(seeds) == 0 && s.devMode {
		seeds = []SeedUser{{Email: DefaultAdminEmail, Name: "Demo Administrator", Role: users.RoleAdmin}}
	}

	for _, seed := range seeds {
		password := seed.Password
		if password == "" {
			generated, err := generatePassword()
			if err != nil {
				return fmt.Errorf("[Server InitialiseSystem] failed to generate password: %w", err)
			}
			password = generated
		}
		role := seed.Role
		if role == "" {
			role = users.RoleViewer
		}

		user, err := s.auth.SeedUser(seed.Email, seed.Name, password, role)
		if err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to seed %s: %w", seed.Email, err)
		}

		event := s.logger.Info().Str("email", user.Email).Str("id", user.ID).Str("role", string(user.Role))
		if seed.Password == "" {
			event = event.Str("password", password)
		}
		event.Msg("seeded account")
	}
	return nil
}

// generatePassword returns a random password that passes the strength rules.
func generatePassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b) + "Aa1", nil
}
