package storage

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/pkg/errors"
)

// Cookie stores values as cookies for one origin in an http.CookieJar. When the
// same jar is installed on the API client, the values travel with every request
// to that origin, the way browser cookies do.
type Cookie struct {
	jar    http.CookieJar
	origin *url.URL
}

var _ Adapter = (*Cookie)(nil)

// NewCookie creates a cookie adapter for origin. A nil jar gets a fresh cookiejar.Jar.
func NewCookie(jar http.CookieJar, origin string) (*Cookie, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid cookie origin %q", origin)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid cookie origin %q: scheme and host are required", origin)
	}
	if jar == nil {
		if jar, err = cookiejar.New(nil); err != nil {
			return nil, errors.Wrap(err, "failed to create cookie jar")
		}
	}
	return &Cookie{jar: jar, origin: &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}}, nil
}

// Jar returns the underlying jar so it can be shared with an http.Client.
func (c *Cookie) Jar() http.CookieJar {
	return c.jar
}

func (c *Cookie) Get(key string) (string, error) {
	for _, ck := range c.jar.Cookies(c.origin) {
		if ck.Name != key {
			continue
		}
		v, err := url.QueryUnescape(ck.Value)
		if err != nil {
			return "", errors.Wrapf(err, "failed to decode cookie %q", key)
		}
		return v, nil
	}
	return "", ErrNotFound
}

func (c *Cookie) Set(key, value string) error {
	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
		Secure:   c.origin.Scheme == "https",
	}})
	return nil
}

func (c *Cookie) Remove(key string) error {
	c.jar.SetCookies(c.origin, []*http.Cookie{{
		Name:   key,
		Path:   "/",
		MaxAge: -1,
	}})
	return nil
}

func (c *Cookie) Clear() error {
	for _, ck := range c.jar.Cookies(c.origin) {
		if err := c.Remove(ck.Name); err != nil {
			return err
		}
	}
	return nil
}
