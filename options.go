package snsauth

import (
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/thomasdesr/snsauth/confirmers"
	"github.com/thomasdesr/snsauth/internal/logging"
	"github.com/thomasdesr/snsauth/snssigner"
)

type Option func(a *Authenticator) error

// WithLogger sets the logger rejections and confirmations are reported to.
func WithLogger(logger logging.Logger) Option {
	return func(a *Authenticator) error {
		if logger != nil {
			a.logger = logger
		}
		return nil
	}
}

// WithCertificateSource replaces the certificate cache the Authenticator would
// otherwise build from its Settings. Share one source between Authenticators
// to share their cached certificates.
func WithCertificateSource(certs snssigner.CertificateSource) Option {
	return func(a *Authenticator) error {
		a.certs = certs
		return nil
	}
}

// WithConfirmer replaces the default SubscribeURL confirmer.
func WithConfirmer(c confirmers.Confirmer) Option {
	return func(a *Authenticator) error {
		a.confirmer = c
		return nil
	}
}

// WithHTTPTransport sets the RoundTripper used by the default certificate
// cache and confirmer. It has no effect on sources or confirmers passed in
// explicitly.
func WithHTTPTransport(tr http.RoundTripper) Option {
	return func(a *Authenticator) error {
		a.transport = tr
		return nil
	}
}

// WithAllowedTopics limits authentication to deliveries from the listed
// topics. Deliveries from any other topic are rejected, and their
// subscriptions are never confirmed.
func WithAllowedTopics(topics []arn.ARN) Option {
	return func(a *Authenticator) error {
		a.allowedTopics = append([]arn.ARN(nil), topics...)
		return nil
	}
}
