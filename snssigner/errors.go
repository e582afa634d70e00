package snssigner

import "errors"

var (
	// ErrMalformedPayload indicates the body isn't an SNS message or lacks a
	// field its Type requires.
	ErrMalformedPayload = errors.New("malformed sns payload")

	// ErrCertificateUnavailable indicates the signing certificate could not be
	// obtained, either because its URL isn't trusted or the fetch failed.
	ErrCertificateUnavailable = errors.New("signing certificate unavailable")

	// ErrSignatureInvalid indicates the signature didn't verify against the
	// signing certificate, or either of them couldn't be decoded.
	ErrSignatureInvalid = errors.New("invalid sns signature")
)
