package config

import "time"

// Config is the full configuration surface used by the client, the CLI and the mock backend.
type Config interface {
	EnvConfig
	ClientConfig
	StorageConfig
	ServerConfig
	CorsConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// ClientConfig configures the REST client and its interceptor.
type ClientConfig interface {
	GetAPIURL() string
	GetRequestTimeout() time.Duration
}

// StorageConfig selects the adapter that holds the refresh token.
type StorageConfig interface {
	GetStorageKind() StorageKind
	GetStoragePath() string
}

// ServerConfig configures the mock auth backend.
type ServerConfig interface {
	GetServerAddr() string
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetResetTokenExpiry() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	settings
}

var _ Config = mainConfig{}

// New returns a configuration built from defaults and AUTHCLIENT_* environment variables only.
func New() Config {
	cfg, err := Load("")
	if err != nil {
		return mainConfig{settings: defaultSettings()}
	}
	return cfg
}
