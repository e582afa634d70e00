package snssigner

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

// SignedMessage is the JSON document SNS POSTs to HTTP(S) subscribers.
type SignedMessage struct {
	Type      snsapi.MessageType `json:"Type"`
	MessageId string             `json:"MessageId"`
	TopicArn  string             `json:"TopicArn"`
	// Subject is only set on notifications published with one. nil and an
	// explicit JSON null both mean "absent" and change the signed bytes.
	Subject   *string `json:"Subject,omitempty"`
	Message   string  `json:"Message"`
	Timestamp string  `json:"Timestamp"`

	// Confirmation messages only
	Token        string `json:"Token,omitempty"`
	SubscribeURL string `json:"SubscribeURL,omitempty"`

	// Notifications only, not covered by the signature
	UnsubscribeURL string `json:"UnsubscribeURL,omitempty"`

	Signature        string                  `json:"Signature"`
	SignatureVersion snsapi.SignatureVersion `json:"SignatureVersion"`
	SigningCertURL   string                  `json:"SigningCertURL"`
}

// Same as a SignedMessage, but since we're on the read side, we want to make it
// clear to readers we don't trust its contents yet
type UnverifiedMessage SignedMessage

// VerifiedMessage is a message whose signature checked out against an SNS
// signing certificate.
type VerifiedMessage struct {
	SignedMessage

	// Topic is the parsed TopicArn.
	Topic arn.ARN
}

// ParseMessage decodes a raw SNS delivery body and checks that every field
// required for its Type is present. It never touches the network.
func ParseMessage(raw []byte) (*UnverifiedMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errorutil.Wrap(ErrMalformedPayload, "empty body")
	}

	var msg UnverifiedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errorutil.Join(ErrMalformedPayload, err)
	}

	if err := msg.validate(); err != nil {
		return nil, err
	}

	return &msg, nil
}

// validate enforces the per-type required field set.
func (m *UnverifiedMessage) validate() error {
	fields, err := signedFields((*SignedMessage)(m))
	if err != nil {
		return err
	}

	for _, f := range fields {
		if f.value == "" && f.name != "Subject" {
			return fmt.Errorf("%w: missing %s", ErrMalformedPayload, f.name)
		}
	}

	switch {
	case m.Signature == "":
		return fmt.Errorf("%w: missing Signature", ErrMalformedPayload)
	case m.SigningCertURL == "":
		return fmt.Errorf("%w: missing SigningCertURL", ErrMalformedPayload)
	case !m.SignatureVersion.IsValid():
		return fmt.Errorf("%w: invalid SignatureVersion %q", ErrMalformedPayload, m.SignatureVersion)
	}

	if _, err := base64.StdEncoding.DecodeString(m.Signature); err != nil {
		return errorutil.Join(ErrMalformedPayload, errorutil.Wrap(err, "decoding Signature"))
	}

	if _, err := arn.Parse(m.TopicArn); err != nil {
		return errorutil.Join(ErrMalformedPayload, errorutil.Wrap(err, "parsing TopicArn"))
	}

	return nil
}
