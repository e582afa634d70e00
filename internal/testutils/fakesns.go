package testutils

import (
	"context"
	"encoding/xml"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

// FakeSNS serves the two SNS endpoints a receiver talks to: the signing
// certificate download and the ConfirmSubscription action (both the
// SubscribeURL GET form and the SDK's form-encoded POST).
type FakeSNS struct {
	mu            sync.Mutex
	certPEM       []byte
	certStatus    int
	confirmStatus int
	certFetches   int
	confirms      []map[string]string
}

// NewFakeSNS starts a TLS test server backed by a FakeSNS. Use ServerTransport
// to point clients at it regardless of the hostname they dial.
func NewFakeSNS(tb testing.TB, certPEM []byte) (*FakeSNS, *httptest.Server) {
	tb.Helper()

	f := &FakeSNS{
		certPEM:       certPEM,
		certStatus:    http.StatusOK,
		confirmStatus: http.StatusOK,
	}

	srv := httptest.NewTLSServer(f)
	tb.Cleanup(srv.Close)

	return f, srv
}

func (f *FakeSNS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, ".pem") {
		f.mu.Lock()
		f.certFetches++
		status, pemBytes := f.certStatus, f.certPEM
		f.mu.Unlock()

		w.WriteHeader(status)
		w.Write(pemBytes)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.Form.Get("Action") != "ConfirmSubscription" {
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.confirms = append(f.confirms, map[string]string{
		"Method":                    r.Method,
		"TopicArn":                  r.Form.Get("TopicArn"),
		"Token":                     r.Form.Get("Token"),
		"AuthenticateOnUnsubscribe": r.Form.Get("AuthenticateOnUnsubscribe"),
	})
	status := f.confirmStatus
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)

	const requestID = "00000000-0000-0000-0000-000000000000"

	var resp any = snsapi.ConfirmSubscriptionResponse{
		ConfirmSubscriptionResult: snsapi.ConfirmSubscriptionResult{
			SubscriptionArn: r.Form.Get("TopicArn") + ":" + requestID,
		},
		ResponseMetadata: snsapi.ResponseMetadata{RequestId: requestID},
	}
	if status != http.StatusOK {
		resp = snsapi.ErrorResponse{
			Error:     snsapi.ErrorDetail{Type: "Sender", Code: "InvalidParameter", Message: "bad token"},
			RequestId: requestID,
		}
	}

	xml.NewEncoder(w).Encode(resp)
}

// SetCertResponse changes what the certificate endpoint serves.
func (f *FakeSNS) SetCertResponse(status int, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.certStatus, f.certPEM = status, body
}

// SetConfirmStatus changes the status ConfirmSubscription responds with.
func (f *FakeSNS) SetConfirmStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmStatus = status
}

// CertFetches returns how many times the certificate was downloaded.
func (f *FakeSNS) CertFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.certFetches
}

// Confirms returns the ConfirmSubscription calls received so far.
func (f *FakeSNS) Confirms() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.confirms...)
}

// ServerTransport returns a transport that sends every connection to srv, so
// tests can use real SNS hostnames in URLs.
func ServerTransport(srv *httptest.Server) *http.Transport {
	lAddr := srv.Listener.Addr()

	tr := srv.Client().Transport.(*http.Transport).Clone()

	// Force any conntions from this client to talk to the server
	tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, lAddr.Network(), lAddr.String())
	}

	if tr.TLSClientConfig != nil {
		// The test server's certificate is only valid for its local name
		tr.TLSClientConfig.ServerName, _, _ = net.SplitHostPort(lAddr.String())
	}

	return tr
}
