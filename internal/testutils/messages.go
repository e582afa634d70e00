package testutils

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/thomasdesr/snsauth/snssigner"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

const (
	MessageId       = "edeb3e00-ad32-5092-abe9-67ad99b82fdc"
	TopicArn        = "arn:aws:sns:us-east-1:012345678910:test"
	SigningCertHost = "sns.us-east-1.amazonaws.com"
	SigningCertPath = "/SimpleNotificationService-0123456789abcdef0123456789abcdef.pem"
	SigningCertURL  = "https://" + SigningCertHost + SigningCertPath
	SubscribeURL    = "https://" + SigningCertHost + "/?Action=ConfirmSubscription&TopicArn=" + TopicArn + "&Token=0123456789abcdef"
	Token           = "0123456789abcdef"
)

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// Notification returns an unsigned notification for TopicArn.
func Notification() *snssigner.SignedMessage {
	subject := "Regarding SNS"
	return &snssigner.SignedMessage{
		Type:           snsapi.MessageType_Notification,
		MessageId:      MessageId,
		TopicArn:       TopicArn,
		Subject:        &subject,
		Message:        "Hello SNS!",
		Timestamp:      timestamp(),
		UnsubscribeURL: "https://" + SigningCertHost + "/?Action=Unsubscribe",
	}
}

// SubscriptionConfirmation returns an unsigned subscription confirmation.
func SubscriptionConfirmation() *snssigner.SignedMessage {
	return &snssigner.SignedMessage{
		Type:         snsapi.MessageType_SubscriptionConfirmation,
		MessageId:    MessageId,
		Token:        Token,
		TopicArn:     TopicArn,
		Message:      "You have chosen to subscribe to the topic...",
		SubscribeURL: SubscribeURL,
		Timestamp:    timestamp(),
	}
}

// UnsubscribeConfirmation returns an unsigned unsubscribe confirmation.
func UnsubscribeConfirmation() *snssigner.SignedMessage {
	msg := SubscriptionConfirmation()
	msg.Type = snsapi.MessageType_UnsubscribeConfirmation
	msg.Message = "You have chosen to deactivate subscription..."
	return msg
}

// Sign signs msg in place with cert, as if SNS had served cert at SigningCertURL.
func Sign(tb testing.TB, cert *SigningCert, msg *snssigner.SignedMessage, version snsapi.SignatureVersion) *snssigner.SignedMessage {
	tb.Helper()

	signer, err := snssigner.NewSigner(cert.Key, SigningCertURL, version)
	if err != nil {
		tb.Fatal(err)
	}

	if err := signer.Sign(msg); err != nil {
		tb.Fatal(err)
	}

	return msg
}

// SignedBody signs msg and returns it JSON encoded, the way SNS delivers it.
func SignedBody(tb testing.TB, cert *SigningCert, msg *snssigner.SignedMessage, version snsapi.SignatureVersion) []byte {
	tb.Helper()

	body, err := json.Marshal(Sign(tb, cert, msg, version))
	if err != nil {
		tb.Fatal(err)
	}

	return body
}
