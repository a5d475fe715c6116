package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "AUTHCLIENT"
	configFileName = "authclient"
)

type settings struct {
	AppName        string          `mapstructure:"app_name" validate:"required"`
	Env            string          `mapstructure:"env"`
	LogLevel       string          `mapstructure:"log_level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	APIURL         string          `mapstructure:"api_url" validate:"required,url"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout" validate:"gt=0"`
	Storage        storageSettings `mapstructure:"storage"`
	Server         serverSettings  `mapstructure:"server"`
}

type storageSettings struct {
	Kind string `mapstructure:"kind" validate:"oneof=memory session cookie sqlite"`
	Path string `mapstructure:"path" validate:"required_if=Kind sqlite"`
}

type serverSettings struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	JWTSecret       string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl" validate:"gt=0"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl" validate:"gtfield=AccessTokenTTL"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

func defaultSettings() settings {
	return settings{
		AppName:        "Auth Client",
		Env:            "DEV",
		LogLevel:       "info",
		APIURL:         "http://localhost:3001",
		RequestTimeout: 30 * time.Second,
		Storage: storageSettings{
			Kind: string(StorageSQLite),
			Path: "~/.authclient/session.db",
		},
		Server: serverSettings{
			Addr:            ":3001",
			JWTSecret:       "dev-secret-change-me-please",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			AllowedOrigins:  []string{"http://localhost:3000"},
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultSettings()
	v.SetDefault("app_name", d.AppName)
	v.SetDefault("env", d.Env)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("storage.kind", d.Storage.Kind)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.jwt_secret", d.Server.JWTSecret)
	v.SetDefault("server.access_token_ttl", d.Server.AccessTokenTTL)
	v.SetDefault("server.refresh_token_ttl", d.Server.RefreshTokenTTL)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
}

// Load reads configFile (when non-empty, otherwise authclient.yaml in the working
// directory or $HOME/.authclient if present), applies AUTHCLIENT_* environment
// overrides and validates the result.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.authclient")
	}

	// AUTHCLIENT_STORAGE_KIND overrides storage.kind
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return mainConfig{settings: s}, nil
}

func (s settings) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s' check", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
