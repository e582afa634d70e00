package certcache

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/internal/logging"
)

type Option func(c *Cache) error

// WithTransport sets the RoundTripper used for certificate fetches.
func WithTransport(tr http.RoundTripper) Option {
	return func(c *Cache) error {
		c.transport = tr
		return nil
	}
}

// WithMaxEntries bounds the number of cached certificates.
func WithMaxEntries(n int) Option {
	return func(c *Cache) error {
		if n < 1 {
			return fmt.Errorf("max entries must be at least 1, got %d", n)
		}
		c.maxEntries = n
		return nil
	}
}

// WithUseCache toggles cache reads. With reads off every Get fetches, though
// concurrent fetches of the same URL are still collapsed into one.
func WithUseCache(enabled bool) Option {
	return func(c *Cache) error {
		c.useCache = enabled
		return nil
	}
}

// WithFetchTimeout bounds each certificate download.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) error {
		if d <= 0 {
			return fmt.Errorf("fetch timeout must be positive, got %v", d)
		}
		c.fetchTimeout = d
		return nil
	}
}

// WithHostPattern replaces the allowed SigningCertURL host pattern. The
// pattern is matched against the URL's host without its port.
func WithHostPattern(pattern string) Option {
	return func(c *Cache) error {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return errorutil.Wrapf(err, "invalid host pattern %q", pattern)
		}
		c.hostPattern = re
		return nil
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(c *Cache) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

func withNowFunc(now func() time.Time) Option {
	return func(c *Cache) error {
		c.nowFunc = now
		return nil
	}
}
