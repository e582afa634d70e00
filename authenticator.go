package snsauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/thomasdesr/snsauth/confirmers"
	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/internal/logging"
	"github.com/thomasdesr/snsauth/snssigner"
	"github.com/thomasdesr/snsauth/snssigner/certcache"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

// ErrTopicNotAllowed indicates a correctly signed delivery from a topic
// outside the Authenticator's allow list.
var ErrTopicNotAllowed = errors.New("topic not allowed")

// Authenticator decides whether an SNS delivery is genuine and completes the
// subscription handshake for confirmation messages.
type Authenticator struct {
	settings Settings

	certs         snssigner.CertificateSource
	verifier      *snssigner.Verifier
	confirmer     confirmers.Confirmer
	transport     http.RoundTripper
	allowedTopics []arn.ARN
	logger        logging.Logger
}

func NewAuthenticator(settings Settings, opts ...Option) (*Authenticator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	a := &Authenticator{
		settings: settings,
		logger:   logging.NewNopLogger(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, errorutil.Wrap(err, "failed to apply authenticator option")
		}
	}

	// Fallback to defaults if not set
	if a.certs == nil {
		cache, err := certcache.New(
			certcache.WithTransport(a.transport),
			certcache.WithMaxEntries(settings.MaxCerts),
			certcache.WithUseCache(settings.UseCache),
			certcache.WithLogger(a.logger),
		)
		if err != nil {
			return nil, errorutil.Wrap(err, "failed to create certificate cache")
		}
		a.certs = cache
	}

	if a.confirmer == nil {
		a.confirmer = confirmers.NewHTTPConfirmer(a.transport, confirmers.DefaultTimeout)
	}

	a.verifier = snssigner.NewVerifier(a.certs)

	return a, nil
}

func (a *Authenticator) Settings() Settings {
	return a.settings
}

// CertificateSource returns the source signing certificates are resolved
// through, the built-in *certcache.Cache unless one was supplied.
func (a *Authenticator) CertificateSource() snssigner.CertificateSource {
	return a.certs
}

// Evaluate authenticates a raw delivery body. It never returns an error: every
// failure is folded into a Rejected or SubscribeFailed Outcome.
func (a *Authenticator) Evaluate(ctx context.Context, raw []byte) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Kind: Rejected, Err: fmt.Errorf("panic while evaluating delivery: %v", r)}
			a.logger.Error("panic while evaluating sns delivery", outcome.Err)
		}
	}()

	msg, err := snssigner.ParseMessage(raw)
	if err != nil {
		return a.reject(err)
	}

	logger := a.logger.With(
		logging.F("message_id", msg.MessageId),
		logging.F("type", msg.Type.String()),
		logging.F("topic_arn", msg.TopicArn),
	)

	verified, err := a.verifier.Verify(ctx, msg)
	if err != nil {
		return a.rejectWith(logger, err)
	}

	if !topicInTopics(a.allowedTopics, verified.Topic) {
		return a.rejectWith(logger, fmt.Errorf("%w: %s", ErrTopicNotAllowed, verified.TopicArn))
	}

	scope := ScopeFromTopicARN(verified.TopicArn)

	if a.shouldConfirm(verified.Type) {
		if err := a.confirmer.Confirm(ctx, verified); err != nil {
			logger.Warn("failed to confirm sns subscription", logging.F("error", err))
			return Outcome{Kind: SubscribeFailed, Message: verified, Err: err}
		}
		logger.Info("confirmed sns subscription")
	}

	logger.Debug("authenticated sns delivery", logging.F("scope", scope))

	return Outcome{Kind: Authenticated, Scope: scope, Message: verified}
}

func (a *Authenticator) shouldConfirm(t snsapi.MessageType) bool {
	switch t {
	case snsapi.MessageType_SubscriptionConfirmation:
		return a.settings.AutoSubscribe
	case snsapi.MessageType_UnsubscribeConfirmation:
		return a.settings.AutoResubscribe
	}
	return false
}

func (a *Authenticator) reject(err error) Outcome {
	return a.rejectWith(a.logger, err)
}

// rejectWith logs at debug level only: rejected bodies are attacker controlled
// and shouldn't be able to flood the logs.
func (a *Authenticator) rejectWith(logger logging.Logger, err error) Outcome {
	logger.Debug("rejected sns delivery", logging.F("reason", rejectReason(err)), logging.F("error", err))
	return Outcome{Kind: Rejected, Err: err}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, snssigner.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, certcache.ErrUntrustedHost):
		return "untrusted_cert_host"
	case errors.Is(err, snssigner.ErrCertificateUnavailable):
		return "cert_unavailable"
	case errors.Is(err, snssigner.ErrSignatureInvalid):
		return "invalid_signature"
	case errors.Is(err, ErrTopicNotAllowed):
		return "topic_not_allowed"
	}
	return "unknown"
}
