package snssigner_test

import (
	"errors"
	"testing"

	"github.com/thomasdesr/snsauth/internal/testutils"
	"github.com/thomasdesr/snsauth/snssigner"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

func TestParseMessageMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"empty":             ``,
		"whitespace":        "  \n",
		"not json":          `hello`,
		"json array":        `[]`,
		"json string":       `"Notification"`,
		"only message":      `{"Message":"invalid"}`,
		"unknown type":      `{"Type":"Bogus","MessageId":"a","TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Timestamp":"t","Signature":"AA==","SignatureVersion":"1","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"}`,
		"non-string field":  `{"Type":"Notification","MessageId":1,"TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Timestamp":"t","Signature":"AA==","SignatureVersion":"1","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"}`,
		"bad version":       `{"Type":"Notification","MessageId":"a","TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Timestamp":"t","Signature":"AA==","SignatureVersion":"3","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"}`,
		"missing timestamp": `{"Type":"Notification","MessageId":"a","TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Signature":"AA==","SignatureVersion":"1","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"}`,
		"missing signature": `{"Type":"Notification","MessageId":"a","TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Timestamp":"t","SignatureVersion":"1","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"}`,
		"missing cert url":  `{"Type":"Notification","MessageId":"a","TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Timestamp":"t","Signature":"AA==","SignatureVersion":"1"}`,
		"bad base64":        `{"Type":"Notification","MessageId":"a","TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Timestamp":"t","Signature":"!!!","SignatureVersion":"1","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"}`,
		"bad topic arn":     `{"Type":"Notification","MessageId":"a","TopicArn":"not-an-arn","Message":"m","Timestamp":"t","Signature":"AA==","SignatureVersion":"1","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"}`,
		"confirmation without token": `{"Type":"SubscriptionConfirmation","MessageId":"a","TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Timestamp":"t","SubscribeURL":"https://sns.us-east-1.amazonaws.com/?Action=ConfirmSubscription","Signature":"AA==","SignatureVersion":"1","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"}`,
		"confirmation without subscribe url": `{"Type":"UnsubscribeConfirmation","MessageId":"a","TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Timestamp":"t","Token":"tok","Signature":"AA==","SignatureVersion":"1","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"}`,
	} {
		t.Run(name, func(t *testing.T) {
			msg, err := snssigner.ParseMessage([]byte(body))
			if !errors.Is(err, snssigner.ErrMalformedPayload) {
				t.Fatalf("Expected ErrMalformedPayload, got %v", err)
			}
			if msg != nil {
				t.Fatalf("Expected nil message, got %+v", msg)
			}
		})
	}
}

func TestParseMessage(t *testing.T) {
	cert := testutils.NewSigningCert(t)

	for _, tc := range []struct {
		name string
		msg  *snssigner.SignedMessage
	}{
		{"notification", testutils.Notification()},
		{"subscription confirmation", testutils.SubscriptionConfirmation()},
		{"unsubscribe confirmation", testutils.UnsubscribeConfirmation()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			body := testutils.SignedBody(t, cert, tc.msg, snsapi.SignatureVersion_1)

			msg, err := snssigner.ParseMessage(body)
			if err != nil {
				t.Fatal(err)
			}

			if msg.Type != tc.msg.Type {
				t.Fatalf("Expected type %s, got %s", tc.msg.Type, msg.Type)
			}
			if msg.TopicArn != testutils.TopicArn {
				t.Fatalf("Expected topic %s, got %s", testutils.TopicArn, msg.TopicArn)
			}
		})
	}
}

func TestParseMessageSubject(t *testing.T) {
	const base = `"Type":"Notification","MessageId":"a","TopicArn":"arn:aws:sns:us-east-1:1:t","Message":"m","Timestamp":"t","Signature":"AA==","SignatureVersion":"2","SigningCertURL":"https://sns.us-east-1.amazonaws.com/c.pem"`

	msg, err := snssigner.ParseMessage([]byte(`{` + base + `}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Subject != nil {
		t.Fatalf("Expected no subject, got %q", *msg.Subject)
	}

	msg, err = snssigner.ParseMessage([]byte(`{` + base + `,"Subject":null}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Subject != nil {
		t.Fatalf("Expected null subject to be absent, got %q", *msg.Subject)
	}

	msg, err = snssigner.ParseMessage([]byte(`{` + base + `,"Subject":"hi","MessageAttributes":{"k":{"Type":"String","Value":"v"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Subject == nil || *msg.Subject != "hi" {
		t.Fatalf("Expected subject hi, got %v", msg.Subject)
	}
}
