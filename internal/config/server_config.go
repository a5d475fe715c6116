package config

import (
	"fmt"
	"strings"
	"time"
)

func (c mainConfig) GetServerAddr() string {
	addr := c.Server.Addr
	if addr != "" && addr[0] != ':' && !strings.Contains(addr, ":") {
		addr = fmt.Sprintf(":%s", addr)
	}
	return addr
}

func (c mainConfig) GetJWTSecret() string {
	return c.Server.JWTSecret
}

func (c mainConfig) GetAccessTokenExpiry() time.Duration {
	return c.Server.AccessTokenTTL
}

func (c mainConfig) GetRefreshTokenExpiry() time.Duration {
	return c.Server.RefreshTokenTTL
}

func (c mainConfig) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (c mainConfig) GetResetTokenExpiry() time.Duration {
	return 15 * time.Minute
}
