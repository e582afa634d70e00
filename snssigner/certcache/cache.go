// Package certcache fetches and caches SNS signing certificates.
//
// A Cache is safe for concurrent use. Lookups only take a read lock, and
// concurrent misses for the same URL share a single HTTP fetch. The cache is
// bounded: once it holds MaxEntries certificates the earliest inserted one is
// evicted to make room.
package certcache

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/internal/logging"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxEntries   = 5000
	DefaultFetchTimeout = 5 * time.Second

	// SNS certificates are a couple of KiB; anything past this isn't one.
	maxCertificateSize = 64 << 10
)

var (
	// ErrUntrustedHost indicates a SigningCertURL outside the allowed hosts.
	ErrUntrustedHost = errors.New("untrusted signing certificate host")

	// ErrFetchFailure indicates the certificate couldn't be downloaded or
	// wasn't a PEM certificate.
	ErrFetchFailure = errors.New("signing certificate fetch failed")
)

// Certificate is an immutable cache entry.
type Certificate struct {
	URL       string
	PEM       []byte
	FetchedAt time.Time
}

// Stats is a point-in-time view of cache activity. Hits and misses count
// cache reads made before joining a fetch, so with cache reads on every Get
// past the host check is exactly one of the two. A miss can still be served
// without a download when a fetch for the same URL lands first; Fetches
// counts actual downloads.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Fetches   uint64 `json:"fetches"`
	Evictions uint64 `json:"evictions"`
}

type Cache struct {
	transport    http.RoundTripper
	client       *http.Client
	hostPattern  *regexp.Regexp
	useCache     bool
	maxEntries   int
	fetchTimeout time.Duration
	logger       logging.Logger
	nowFunc      func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Certificate
	order   []string // insertion order, oldest first

	hits, misses, fetches, evictions atomic.Uint64
}

// New builds a Cache. Without options it trusts only SNS endpoints, caches up
// to DefaultMaxEntries certificates and uses http.DefaultTransport.
func New(opts ...Option) (*Cache, error) {
	c := &Cache{
		hostPattern:  regexp.MustCompile(snsapi.DefaultSigningCertHostPattern),
		useCache:     true,
		maxEntries:   DefaultMaxEntries,
		fetchTimeout: DefaultFetchTimeout,
		logger:       logging.NewNopLogger(),
		nowFunc:      time.Now,
		entries:      make(map[string]*Certificate),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errorutil.Wrap(err, "failed to apply cache option")
		}
	}

	if c.maxEntries < 1 {
		return nil, fmt.Errorf("max entries must be at least 1, got %d", c.maxEntries)
	}

	// Certificates are served directly by SNS, a redirect means something is off
	c.client = &http.Client{
		Transport: c.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return c, nil
}

// Get returns the certificate at signingCertURL, fetching it if needed. The
// URL is checked against the allowed host pattern before any network access.
func (c *Cache) Get(ctx context.Context, signingCertURL string) (*Certificate, error) {
	if err := c.checkURL(signingCertURL); err != nil {
		return nil, err
	}

	if c.useCache {
		if cert := c.lookup(signingCertURL); cert != nil {
			return cert, nil
		}
	}

	// The fetch runs detached from ctx: its result is useful to every other
	// caller waiting on the same URL, so one caller going away shouldn't kill it.
	ch := c.group.DoChan(signingCertURL, func() (any, error) {
		// A flight for this URL may have finished since the lookup above
		if c.useCache {
			c.mu.RLock()
			cert := c.entries[signingCertURL]
			c.mu.RUnlock()
			if cert != nil {
				return cert, nil
			}
		}
		return c.fetch(signingCertURL)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Certificate), nil
	case <-ctx.Done():
		return nil, errorutil.Join(ErrFetchFailure, ctx.Err())
	}
}

func (c *Cache) checkURL(signingCertURL string) error {
	u, err := url.Parse(signingCertURL)
	if err != nil {
		return errorutil.Join(ErrUntrustedHost, err)
	}

	if u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q is not https", ErrUntrustedHost, u.Scheme)
	}

	if !c.hostPattern.MatchString(u.Hostname()) {
		return fmt.Errorf("%w: %q", ErrUntrustedHost, u.Hostname())
	}

	return nil
}

func (c *Cache) lookup(signingCertURL string) *Certificate {
	c.mu.RLock()
	cert := c.entries[signingCertURL]
	c.mu.RUnlock()

	if cert != nil {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}

	return cert
}

func (c *Cache) fetch(signingCertURL string) (*Certificate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	c.fetches.Add(1)

	c.logger.Debug("fetching signing certificate", logging.F("url", signingCertURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signingCertURL, nil)
	if err != nil {
		return nil, errorutil.Join(ErrFetchFailure, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("signing certificate fetch failed", logging.F("url", signingCertURL), logging.F("error", err))
		return nil, errorutil.Join(ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetchFailure, signingCertURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCertificateSize+1))
	if err != nil {
		return nil, errorutil.Join(ErrFetchFailure, errorutil.Wrap(err, "reading body"))
	}
	if len(body) > maxCertificateSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFetchFailure, signingCertURL, maxCertificateSize)
	}

	if err := checkPEM(body); err != nil {
		return nil, errorutil.Join(ErrFetchFailure, err)
	}

	cert := &Certificate{
		URL:       signingCertURL,
		PEM:       body,
		FetchedAt: c.nowFunc(),
	}
	c.insert(cert)

	return cert, nil
}

// checkPEM makes sure only parseable certificates ever enter the cache.
func checkPEM(body []byte) error {
	block, _ := pem.Decode(body)
	if block == nil || block.Type != "CERTIFICATE" {
		return fmt.Errorf("response is not a PEM certificate")
	}

	if _, err := x509.ParseCertificate(block.Bytes); err != nil {
		return errorutil.Wrap(err, "parsing certificate")
	}

	return nil
}

func (c *Cache) insert(cert *Certificate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[cert.URL]; ok {
		// Replace in place, keeping its position in the eviction queue
		c.entries[cert.URL] = cert
		return
	}

	for len(c.order) >= c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.evictions.Add(1)

		c.logger.Debug("evicted signing certificate", logging.F("url", oldest))
	}

	c.entries[cert.URL] = cert
	c.order = append(c.order, cert.URL)
}

// Len returns the number of cached certificates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// URLs returns the cached URLs, oldest first.
func (c *Cache) URLs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Purge drops every cached certificate.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.order = nil
}

func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Fetches:   c.fetches.Load(),
		Evictions: c.evictions.Load(),
	}
}
