package snssigner

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

// hashFor maps a signature version to the digest SNS signs with.
func hashFor(version snsapi.SignatureVersion) (crypto.Hash, error) {
	switch version {
	case snsapi.SignatureVersion_1:
		return crypto.SHA1, nil
	case snsapi.SignatureVersion_2:
		return crypto.SHA256, nil
	}
	return 0, fmt.Errorf("unsupported signature version %q", version)
}

func digest(h crypto.Hash, b []byte) []byte {
	switch h {
	case crypto.SHA1:
		sum := sha1.Sum(b)
		return sum[:]
	default:
		sum := sha256.Sum256(b)
		return sum[:]
	}
}

// VerifySignature checks a base64 SNS signature over canonical using the RSA
// key in certPEM. It returns nil only when the signature is valid for the
// digest selected by version; every other outcome wraps ErrSignatureInvalid.
func VerifySignature(canonical []byte, signature string, version snsapi.SignatureVersion, certPEM []byte) error {
	h, err := hashFor(version)
	if err != nil {
		return errorutil.Join(ErrSignatureInvalid, err)
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return errorutil.Join(ErrSignatureInvalid, errorutil.Wrap(err, "decoding signature"))
	}

	pub, err := rsaPublicKeyFromPEM(certPEM)
	if err != nil {
		return errorutil.Join(ErrSignatureInvalid, err)
	}

	if err := rsa.VerifyPKCS1v15(pub, h, digest(h, canonical), sig); err != nil {
		return errorutil.Join(ErrSignatureInvalid, err)
	}

	return nil
}

func rsaPublicKeyFromPEM(certPEM []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no certificate found in PEM")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errorutil.Wrap(err, "parsing certificate")
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate key is %T, not RSA", cert.PublicKey)
	}

	return pub, nil
}
