package testutils

import (
	"fmt"
	"net/http"
	"sync"
)

// RecordingTransport records every request it sees before handing it to Next.
// With a nil Next every request fails, which makes it useful for asserting
// that no network call happens at all.
type RecordingTransport struct {
	Next http.RoundTripper

	mu   sync.Mutex
	reqs []*http.Request
}

func (t *RecordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.reqs = append(t.reqs, r)
	t.mu.Unlock()

	if t.Next == nil {
		return nil, fmt.Errorf("unexpected request to %s", r.URL)
	}

	return t.Next.RoundTrip(r)
}

// Requests returns the requests recorded so far.
func (t *RecordingTransport) Requests() []*http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*http.Request(nil), t.reqs...)
}
