package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-client/googleauth"
)

const (
	googleClientIDEnv     = "AUTHCTL_GOOGLE_CLIENT_ID"
	googleClientSecretEnv = "AUTHCTL_GOOGLE_CLIENT_SECRET"
	callbackPath          = "/callback"
)

func googleSignUpCmd(a *app) *cobra.Command {
	var clientID, clientSecret, listen, idToken string
	cmd := &cobra.Command{
		Use:   "google-signup",
		Short: "Register with a Google account",
		Long: "Opens Google's consent page through a loopback redirect, verifies the returned " +
			"ID token and registers the Google profile. Pass --id-token to skip the browser step.",
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clientID = envOr(clientID, googleClientIDEnv)
			if clientID == "" {
				return fmt.Errorf("a Google client id is required (--client-id or $%s)", googleClientIDEnv)
			}

			verifier, err := googleauth.NewVerifier(ctx, clientID)
			if err != nil {
				return err
			}

			var nonce string
			if idToken == "" {
				nonce = uuid.NewString()
				cfg := googleauth.NewConfig(clientID, envOr(clientSecret, googleClientSecretEnv), "http://"+listen+callbackPath)
				if idToken, err = consent(ctx, cmd, cfg, listen, nonce); err != nil {
					return err
				}
			}

			profile, err := verifier.Profile(ctx, idToken, nonce)
			if err != nil {
				return err
			}
			identity, err := a.coordinator.GoogleSignUp(ctx, profile.SignUpRequest())
			if err != nil {
				return err
			}
			printf(cmd, "Registered and logged in as %s\n", identity.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&clientID, "client-id", "", "Google OAuth client id (default $"+googleClientIDEnv+")")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Google OAuth client secret (default $"+googleClientSecretEnv+")")
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8085", "loopback address for the consent redirect")
	cmd.Flags().StringVar(&idToken, "id-token", "", "an already issued Google ID token")
	return cmd
}

// consent prints the consent URL, waits for Google to redirect back to the
// loopback listener and exchanges the code for an ID token.
func consent(ctx context.Context, cmd *cobra.Command, cfg *googleauth.Config, listen, nonce string) (string, error) {
	state := uuid.NewString()
	codeVerifier := googleauth.NewVerifierString()

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return "", fmt.Errorf("failed to listen for the consent redirect: %w", err)
	}

	codes := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+callbackPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code: "+r.URL.Query().Get("error"), http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Signed in with Google. You can close this window.")
		select {
		case codes <- code:
		default:
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			printf(cmd, "callback listener stopped: %v\n", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	printf(cmd, "Open this URL to continue:\n\n  %s\n\n", cfg.AuthCodeURL(state, codeVerifier, nonce))

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case code := <-codes:
		return cfg.Exchange(ctx, code, codeVerifier)
	}
}
