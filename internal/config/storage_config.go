package config

import (
	"os"
	"path/filepath"
	"strings"
)

type StorageKind string

const (
	StorageMemory  StorageKind = "memory"
	StorageSession StorageKind = "session"
	StorageCookie  StorageKind = "cookie"
	StorageSQLite  StorageKind = "sqlite"
)

func (c mainConfig) GetStorageKind() StorageKind {
	return StorageKind(strings.ToLower(c.Storage.Kind))
}

// GetStoragePath returns the SQLite database path with a leading "~" expanded.
func (c mainConfig) GetStoragePath() string {
	path := c.Storage.Path
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}
