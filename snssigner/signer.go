package snssigner

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

// Signer produces SNS-compatible signatures. SNS itself is the only real
// signer; this exists for tests and for local tooling that replays deliveries
// against a receiver configured to trust a private certificate host.
type Signer struct {
	key            *rsa.PrivateKey
	signingCertURL string
	version        snsapi.SignatureVersion
}

func NewSigner(key *rsa.PrivateKey, signingCertURL string, version snsapi.SignatureVersion) (*Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("nil signing key")
	}
	if !version.IsValid() {
		return nil, fmt.Errorf("invalid signature version: %q", version)
	}

	return &Signer{
		key:            key,
		signingCertURL: signingCertURL,
		version:        version,
	}, nil
}

// Sign fills in SignatureVersion, SigningCertURL and Signature on msg.
func (s *Signer) Sign(msg *SignedMessage) error {
	msg.SignatureVersion = s.version
	msg.SigningCertURL = s.signingCertURL

	canonical, err := CanonicalString(msg)
	if err != nil {
		return errorutil.Wrap(err, "building canonical string")
	}

	h, err := hashFor(s.version)
	if err != nil {
		return err
	}

	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, h, digest(h, canonical))
	if err != nil {
		return errorutil.Wrap(err, "signing")
	}

	msg.Signature = base64.StdEncoding.EncodeToString(sig)
	return nil
}
