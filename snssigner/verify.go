package snssigner

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/snssigner/certcache"
)

// CertificateSource resolves a SigningCertURL to the PEM certificate behind it.
// *certcache.Cache is the production implementation.
type CertificateSource interface {
	Get(ctx context.Context, signingCertURL string) (*certcache.Certificate, error)
}

// Verifier checks SNS message signatures.
type Verifier struct {
	Certificates CertificateSource
}

func NewVerifier(certs CertificateSource) *Verifier {
	return &Verifier{Certificates: certs}
}

// Verify resolves the signing certificate for msg and checks its signature.
// Errors match ErrMalformedPayload, ErrCertificateUnavailable or
// ErrSignatureInvalid.
func (v *Verifier) Verify(ctx context.Context, msg *UnverifiedMessage) (*VerifiedMessage, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}

	cert, err := v.Certificates.Get(ctx, msg.SigningCertURL)
	if err != nil {
		return nil, errorutil.Join(ErrCertificateUnavailable, err)
	} else if cert == nil {
		panic("certificate should never be nil if there wasn't an error")
	}

	canonical, err := CanonicalString((*SignedMessage)(msg))
	if err != nil {
		return nil, err
	}

	if err := VerifySignature(canonical, msg.Signature, msg.SignatureVersion, cert.PEM); err != nil {
		return nil, err
	}

	// validate already parsed this once, so it can't fail here
	topic, _ := arn.Parse(msg.TopicArn)

	return &VerifiedMessage{
		SignedMessage: SignedMessage(*msg),
		Topic:         topic,
	}, nil
}
