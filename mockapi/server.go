// Package mockapi is a development backend for the authentication API. It
// keeps accounts and tokens in memory and answers the same endpoints a real
// backend would.
package mockapi

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-client/auth"
	fakeresetrepo "github.com/jrsteele09/go-auth-client/auth/repofakes"
	"github.com/jrsteele09/go-auth-client/internal/config"
	refreshrepofake "github.com/jrsteele09/go-auth-client/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-auth-client/users/repofake"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "production")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	auth    *auth.Service
	repos   auth.Repos
	issuer  string
	logger  zerolog.Logger
	seeds   []SeedUser
	devMode bool
}

type Option func(*Server)

// WithRepos replaces the in-memory repositories.
func WithRepos(repos auth.Repos) Option {
	return func(s *Server) {
		s.repos = repos
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithIssuer sets the iss claim of issued access tokens.
func WithIssuer(issuer string) Option {
	return func(s *Server) {
		s.issuer = issuer
	}
}

// WithSeedUsers creates the given accounts at start-up.
func WithSeedUsers(seeds ...SeedUser) Option {
	return func(s *Server) {
		s.seeds = append(s.seeds, seeds...)
	}
}

func New(cfg config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		repos: auth.Repos{
			Users:         fakeuserrepo.NewFakeUserRepo(),
			RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
			ResetTokens:   fakeresetrepo.NewFakeResetRepo(),
		},
		issuer: cfg.GetAPIURL(),
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.devMode = strings.EqualFold(s.env, "DEV")

	authService, err := auth.NewService(s.repos, cfg, s.issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[mockapi New] failed to create auth service")
	}
	s.auth = authService

	if err := s.InitialiseSystem(); err != nil {
		return nil, errors.Wrap(err, "[mockapi New] failed to initialise the system")
	}

	s.initRoutes()
	s.logRoutes()
	s.logger.Info().Str("env", s.env).Str("allowed_origins", cfg.GetAllowedOrigins().String()).Msg("mock API ready")

	return s, nil
}

// Auth returns the credential service behind the handlers.
func (s *Server) Auth() *auth.Service {
	return s.auth
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if !s.devMode {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.logger.Debug().Str("method", method).Str("path", path).Msg("route registered")
	}
}
