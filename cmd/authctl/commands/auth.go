package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-client/apiclient"
)

const passwordEnv = "AUTHCTL_PASSWORD"

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			identity, err := a.coordinator.Login(cmd.Context(), email, envOr(password, passwordEnv))
			if err != nil {
				return err
			}
			printf(cmd, "Logged in as %s\n", identity.Email)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (default $"+passwordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func registerCmd(a *app) *cobra.Command {
	var req apiclient.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			req.Password = envOr(req.Password, passwordEnv)
			identity, err := a.coordinator.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			printf(cmd, "Registered and logged in as %s\n", identity.Email)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "account password (default $"+passwordEnv+")")
	cmd.Flags().StringVarP(&req.Name, "name", "n", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := a.coordinator.Logout(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "Logged out\n")
			return nil
		}),
	}
}

func refreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new access token",
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			client := a.coordinator.Client()
			if _, err := client.Renew(cmd.Context()); err != nil {
				return err
			}
			tok, err := client.Store().TokenSource().Token()
			if err != nil {
				return err
			}
			if tok.Expiry.IsZero() {
				printf(cmd, "Access token renewed\n")
				return nil
			}
			printf(cmd, "Access token renewed, expires %s\n", tok.Expiry.Format(time.RFC3339))
			return nil
		}),
	}
}

func forgotPasswordCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset",
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			resp, err := a.coordinator.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", resp.Message)
			if resp.ResetToken != "" {
				printf(cmd, "Reset token: %s\n", resp.ResetToken)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func resetPasswordCmd(a *app) *cobra.Command {
	var resetToken, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			resp, err := a.coordinator.ResetPassword(cmd.Context(), resetToken, envOr(password, passwordEnv))
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", resp.Message)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&resetToken, "token", "t", "", "reset token")
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password (default $"+passwordEnv+")")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
