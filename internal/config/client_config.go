package config

import (
	"strings"
	"time"
)

func (c mainConfig) GetAPIURL() string {
	return strings.TrimRight(c.APIURL, "/")
}

func (c mainConfig) GetRequestTimeout() time.Duration {
	return c.RequestTimeout
}
