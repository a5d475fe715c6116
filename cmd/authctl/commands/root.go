package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-client/apiclient"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/storage"
)

// app is the state shared by one command invocation.
type app struct {
	configFile  string
	apiURL      string
	storageKind string
	storagePath string
	verbose     bool

	logger      zerolog.Logger
	coordinator *session.Coordinator
	closers     []io.Closer
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd returns the authctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Sign in to the dashboard API and manage the stored session",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default ./authclient.yaml or ~/.authclient/authclient.yaml)")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (overrides api_url)")
	root.PersistentFlags().StringVar(&a.storageKind, "storage", "", "refresh token storage: memory, session, cookie or sqlite")
	root.PersistentFlags().StringVar(&a.storagePath, "storage-path", "", "SQLite database path (overrides storage.path)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests and renewals")

	root.AddCommand(
		loginCmd(a),
		registerCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		refreshCmd(a),
		forgotPasswordCmd(a),
		resetPasswordCmd(a),
		googleSignUpCmd(a),
	)
	return root
}

// open builds the client stack and restores the stored session.
func (a *app) open(ctx context.Context, logOut io.Writer) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}

	level := zerolog.WarnLevel
	if a.verbose {
		level = zerolog.DebugLevel
	} else if parsed, err := zerolog.ParseLevel(cfg.GetLogLevel()); err == nil && parsed > level {
		level = parsed
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: logOut, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger()

	apiURL := cfg.GetAPIURL()
	if a.apiURL != "" {
		apiURL = a.apiURL
	}

	adapter, jar, err := a.openStorage(cfg, apiURL)
	if err != nil {
		return err
	}

	store := credentials.New(adapter, credentials.WithLogger(a.logger))
	opts := []apiclient.Option{
		apiclient.WithTimeout(cfg.GetRequestTimeout()),
		apiclient.WithLogger(a.logger),
	}
	client := apiclient.New(apiURL, store, opts...)
	if jar != nil {
		client.HTTPClient().Jar = jar
	}

	a.coordinator = session.New(client, session.WithLogger(a.logger))
	a.coordinator.Initialize(ctx)
	return nil
}

func (a *app) openStorage(cfg config.Config, apiURL string) (storage.Adapter, http.CookieJar, error) {
	kind := cfg.GetStorageKind()
	if a.storageKind != "" {
		kind = config.StorageKind(strings.ToLower(a.storageKind))
	}

	switch kind {
	case config.StorageMemory:
		return storage.NewMemory(), nil, nil
	case config.StorageSession:
		return storage.NewSession(nil), nil, nil
	case config.StorageCookie:
		cookies, err := storage.NewCookie(nil, apiURL)
		if err != nil {
			return nil, nil, err
		}
		return cookies, cookies.Jar(), nil
	case config.StorageSQLite:
		path := cfg.GetStoragePath()
		if a.storagePath != "" {
			path = a.storagePath
		}
		db, err := storage.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db)
		return db, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage kind %q", kind)
	}
}

// runE closes the stack after fn, whether or not fn fails.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if closeErr := a.close(); err == nil {
			err = closeErr
		}
		return err
	}
}

func (a *app) close() error {
	if a.coordinator != nil {
		a.coordinator.Close()
	}
	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func (a *app) requireSession() error {
	if !a.coordinator.IsAuthenticated() {
		return fmt.Errorf("not logged in")
	}
	return nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// envOr returns value, or the environment variable key when value is empty.
func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return config.GetEnv(key, "")
}
