package confirmers

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/snssigner"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

const DefaultTimeout = 10 * time.Second

// HTTPConfirmer confirms by visiting the message's SubscribeURL, the way the
// SNS documentation describes for HTTP endpoints. Any 2xx answer counts.
type HTTPConfirmer struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPConfirmer returns an HTTPConfirmer using tr, or
// http.DefaultTransport when tr is nil. A non-positive timeout selects
// DefaultTimeout.
func NewHTTPConfirmer(tr http.RoundTripper, timeout time.Duration) *HTTPConfirmer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPConfirmer{
		client: &http.Client{
			Transport: tr,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
	}
}

func (c *HTTPConfirmer) Confirm(ctx context.Context, msg *snssigner.VerifiedMessage) error {
	if msg.SubscribeURL == "" {
		return fmt.Errorf("%w: message has no SubscribeURL", ErrConfirmationFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, msg.SubscribeURL, nil)
	if err != nil {
		return errorutil.Join(ErrConfirmationFailed, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errorutil.Join(ErrConfirmationFailed, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused
	defer io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var snsErr snsapi.ErrorResponse
		if err := xml.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&snsErr); err == nil && snsErr.Error.Code != "" {
			return fmt.Errorf("%w: %s: %s: %s", ErrConfirmationFailed, resp.Status, snsErr.Error.Code, snsErr.Error.Message)
		}
		return fmt.Errorf("%w: %s", ErrConfirmationFailed, resp.Status)
	}

	return nil
}
