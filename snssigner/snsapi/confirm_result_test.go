package snsapi_test

import (
	"encoding/xml"
	"testing"

	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

const realResp = `
<ConfirmSubscriptionResponse xmlns="http://sns.amazonaws.com/doc/2010-03-31/">
  <ConfirmSubscriptionResult>
    <SubscriptionArn>arn:aws:sns:us-east-1:123456789012:MyTopic:2bcfbf39-05c3-41de-beaa-fcfcc21c8f55</SubscriptionArn>
  </ConfirmSubscriptionResult>
  <ResponseMetadata>
    <RequestId>7a50221f-3774-11e0-a31a-2b25c9d6a2f0</RequestId>
  </ResponseMetadata>
</ConfirmSubscriptionResponse>
`

const realErrResp = `
<ErrorResponse xmlns="http://sns.amazonaws.com/doc/2010-03-31/">
  <Error>
    <Type>Sender</Type>
    <Code>InvalidParameter</Code>
    <Message>Invalid token</Message>
  </Error>
  <RequestId>c3ad4e0a-7ad2-5b8e-a9d4-4b2f0b1e7b37</RequestId>
</ErrorResponse>
`

func TestConfirmSubscriptionXML(t *testing.T) {
	resp := &snsapi.ConfirmSubscriptionResponse{}
	if err := xml.Unmarshal([]byte(realResp), resp); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := resp.ConfirmSubscriptionResult.SubscriptionArn; got != "arn:aws:sns:us-east-1:123456789012:MyTopic:2bcfbf39-05c3-41de-beaa-fcfcc21c8f55" {
		t.Errorf("received incorrect subscription ARN %s", got)
	}

	if resp.ResponseMetadata.RequestId != "7a50221f-3774-11e0-a31a-2b25c9d6a2f0" {
		t.Errorf("received incorrect request id %s", resp.ResponseMetadata.RequestId)
	}

	// An error document isn't a ConfirmSubscriptionResponse
	if err := xml.Unmarshal([]byte(realErrResp), &snsapi.ConfirmSubscriptionResponse{}); err == nil {
		t.Error("expected an error decoding an ErrorResponse as a ConfirmSubscriptionResponse")
	}
}

func TestErrorResponseXML(t *testing.T) {
	resp := &snsapi.ErrorResponse{}
	if err := xml.Unmarshal([]byte(realErrResp), resp); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.Error.Code != "InvalidParameter" {
		t.Errorf("expected code InvalidParameter, got %s", resp.Error.Code)
	}
	if resp.Error.Message != "Invalid token" {
		t.Errorf("expected message %q, got %q", "Invalid token", resp.Error.Message)
	}
}
