package snshttp

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/thomasdesr/snsauth"
	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

// ReverseProxy is an HTTP server that authenticates SNS deliveries and
// forwards the authenticated ones to a target URL, passing the topic along as
// headers.
type ReverseProxy struct {
	*Server

	// ReverseProxy is the underlying httputil.ReverseProxy that forwards
	// authenticated requests.
	ReverseProxy *httputil.ReverseProxy
}

// NewReverseProxy creates a reverse proxy that forwards deliveries e
// authenticates to target. When scopes is non-empty only those topic names are
// forwarded.
func NewReverseProxy(target *url.URL, e Evaluator, scopes ...string) (*ReverseProxy, error) {
	if target == nil {
		return nil, fmt.Errorf("nil target URL")
	}

	proxy := ReverseProxyHandler(target)

	return &ReverseProxy{
		Server:       NewForwarder(proxy, e, scopes...),
		ReverseProxy: proxy,
	}, nil
}

// ReverseProxyHandler creates a new httputil.ReverseProxy that copies the
// authenticated scope from the request context into headers on the forwarded
// request.
func ReverseProxyHandler(target *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			setSNSScopeHeaders(r.Out, snsauth.ScopeFromContext(r.In.Context()))

			r.SetURL(target)
			// But preserve the original hostname
			r.Out.Host = r.In.Host
		},
	}
}

const (
	snsHTTPTopicScopeHeader  = "X-SNS-Topic-Scope"
	snsHTTPTopicARNHeader    = "X-SNS-Topic-Arn"
	snsHTTPMessageTypeHeader = "X-SNS-Message-Type"
	snsHTTPMessageIDHeader   = "X-SNS-Message-Id"
)

// ParseScopeFromRequest reads the scope headers set by ReverseProxyHandler.
func ParseScopeFromRequest(r *http.Request) (snsauth.Scope, error) {
	name := r.Header.Get(snsHTTPTopicScopeHeader)
	if name == "" {
		return snsauth.Scope{}, fmt.Errorf("missing %s header", snsHTTPTopicScopeHeader)
	}

	topic, err := arn.Parse(r.Header.Get(snsHTTPTopicARNHeader))
	if err != nil {
		return snsauth.Scope{}, errorutil.Wrapf(err, "invalid %s header", snsHTTPTopicARNHeader)
	}

	messageType := snsapi.MessageType(r.Header.Get(snsHTTPMessageTypeHeader))
	if !messageType.IsValid() {
		return snsauth.Scope{}, fmt.Errorf("invalid %s header: %q", snsHTTPMessageTypeHeader, messageType)
	}

	return snsauth.Scope{
		Name:        name,
		Topic:       topic,
		MessageType: messageType,
		MessageId:   r.Header.Get(snsHTTPMessageIDHeader),
	}, nil
}

// setSNSScopeHeaders overwrites the scope headers on r. Without a scope they
// are removed, so a client can never supply its own.
func setSNSScopeHeaders(r *http.Request, scope *snsauth.Scope) {
	if scope == nil {
		for _, h := range []string{snsHTTPTopicScopeHeader, snsHTTPTopicARNHeader, snsHTTPMessageTypeHeader, snsHTTPMessageIDHeader} {
			r.Header.Del(h)
		}
		return
	}

	r.Header.Set(snsHTTPTopicScopeHeader, scope.Name)
	r.Header.Set(snsHTTPTopicARNHeader, scope.Topic.String())
	r.Header.Set(snsHTTPMessageTypeHeader, scope.MessageType.String())
	r.Header.Set(snsHTTPMessageIDHeader, scope.MessageId)
}
