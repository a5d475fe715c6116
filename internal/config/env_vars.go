package config

import (
	"os"
	"strings"
)

func (c mainConfig) GetAppName() string {
	return c.AppName
}

func (c mainConfig) GetEnv() string {
	if c.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(c.Env)
}

func (c mainConfig) GetLogLevel() string {
	return c.LogLevel
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
