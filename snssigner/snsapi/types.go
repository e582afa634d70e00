package snsapi

import (
	"encoding/json"
	"fmt"
)

// MessageType is the SNS `Type` field of an HTTP(S) delivery.
// https://docs.aws.amazon.com/sns/latest/dg/sns-message-and-json-formats.html
type MessageType string

const (
	MessageType_Notification             MessageType = "Notification"
	MessageType_SubscriptionConfirmation MessageType = "SubscriptionConfirmation"
	MessageType_UnsubscribeConfirmation  MessageType = "UnsubscribeConfirmation"
)

func (t MessageType) String() string {
	return string(t)
}

func (t MessageType) IsValid() bool {
	switch t {
	case MessageType_Notification,
		MessageType_SubscriptionConfirmation,
		MessageType_UnsubscribeConfirmation:
		return true
	}
	return false
}

// IsConfirmation reports whether the message carries a Token and SubscribeURL.
func (t MessageType) IsConfirmation() bool {
	return t == MessageType_SubscriptionConfirmation || t == MessageType_UnsubscribeConfirmation
}

func (t MessageType) MarshalJSON() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid message type: %q", string(t))
	}
	return json.Marshal(string(t))
}

func (t *MessageType) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, (*string)(t)); err != nil {
		return err
	}

	if !t.IsValid() {
		return fmt.Errorf("invalid message type: %q", string(*t))
	}

	return nil
}

// SignatureVersion selects the digest SNS used when signing a message.
type SignatureVersion string

const (
	// SignatureVersion_1 is SHA1withRSA.
	SignatureVersion_1 SignatureVersion = "1"
	// SignatureVersion_2 is SHA256withRSA.
	SignatureVersion_2 SignatureVersion = "2"
)

func (v SignatureVersion) String() string {
	return string(v)
}

func (v SignatureVersion) IsValid() bool {
	return v == SignatureVersion_1 || v == SignatureVersion_2
}

func (v SignatureVersion) MarshalJSON() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("invalid signature version: %q", string(v))
	}
	return json.Marshal(string(v))
}

func (v *SignatureVersion) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, (*string)(v)); err != nil {
		return err
	}

	if !v.IsValid() {
		return fmt.Errorf("invalid signature version: %q", string(*v))
	}

	return nil
}
