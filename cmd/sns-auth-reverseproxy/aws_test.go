package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/thomasdesr/snsauth"
	"github.com/thomasdesr/snsauth/internal/logging"
	"github.com/thomasdesr/snsauth/internal/testutils"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

type fakeAWS struct {
	mu          sync.Mutex
	identityErr error
	identities  int
	confirms    []*sns.ConfirmSubscriptionInput
	sent        []*sqs.SendMessageInput
}

func (f *fakeAWS) clients() *awsClients {
	return &awsClients{sns: f, sqs: f, sts: f}
}

func (f *fakeAWS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.identities++
	if f.identityErr != nil {
		return nil, f.identityErr
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String("012345678910"),
		Arn:     aws.String("arn:aws:sts::012345678910:assumed-role/webhooks/test"),
	}, nil
}

func (f *fakeAWS) ConfirmSubscription(ctx context.Context, params *sns.ConfirmSubscriptionInput, optFns ...func(*sns.Options)) (*sns.ConfirmSubscriptionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.confirms = append(f.confirms, params)
	return &sns.ConfirmSubscriptionOutput{SubscriptionArn: aws.String(aws.ToString(params.TopicArn) + ":sub")}, nil
}

func (f *fakeAWS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("sqs-1")}, nil
}

func TestSQSTarget(t *testing.T) {
	cert := testutils.NewSigningCert(t)
	fake, snsSrv := testutils.NewFakeSNS(t, cert.PEM)
	cloud := &fakeAWS{}

	targetURL, err := url.Parse("sqs://sqs.us-east-1.amazonaws.com/012345678910/deliveries")
	if err != nil {
		t.Fatal(err)
	}

	proxyURL := setupProxy(t, &config{
		targetURL:     targetURL,
		settings:      snsauth.DefaultSettings(),
		confirmMode:   confirmModeHTTP,
		bindAddr:      "localhost:0",
		httpTransport: testutils.ServerTransport(snsSrv),
		aws:           cloud.clients(),
	})

	notification := testutils.SignedBody(t, cert, testutils.Notification(), snsapi.SignatureVersion_2)
	if status, body := post(t, proxyURL.String(), notification); status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d (%s)", status, body)
	}
	if status, _ := post(t, proxyURL.String(), []byte(`{"Message":"invalid"}`)); status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}

	cloud.mu.Lock()
	defer cloud.mu.Unlock()

	if cloud.identities != 1 {
		t.Errorf("expected 1 identity check, got %d", cloud.identities)
	}
	if len(cloud.sent) != 1 {
		t.Fatalf("expected 1 queued message, got %d", len(cloud.sent))
	}
	if got := aws.ToString(cloud.sent[0].QueueUrl); got != "https://sqs.us-east-1.amazonaws.com/012345678910/deliveries" {
		t.Errorf("unexpected queue URL %q", got)
	}
	if got := aws.ToString(cloud.sent[0].MessageBody); got != string(notification) {
		t.Errorf("expected the delivery body to be queued, got %q", got)
	}
	if len(fake.Confirms()) != 0 {
		t.Errorf("a notification must not be confirmed")
	}
}

func TestAPIConfirmMode(t *testing.T) {
	cert := testutils.NewSigningCert(t)
	fake, snsSrv := testutils.NewFakeSNS(t, cert.PEM)
	cloud := &fakeAWS{}

	targetURL, cleanup := newHTTPTestServer(t)
	t.Cleanup(cleanup)

	proxyURL := setupProxy(t, &config{
		targetURL:     targetURL,
		settings:      snsauth.DefaultSettings(),
		confirmMode:   confirmModeAPI,
		bindAddr:      "localhost:0",
		httpTransport: testutils.ServerTransport(snsSrv),
		aws:           cloud.clients(),
	})

	body := testutils.SignedBody(t, cert, testutils.SubscriptionConfirmation(), snsapi.SignatureVersion_1)
	if status, resp := post(t, proxyURL.String(), body); status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, resp)
	}

	cloud.mu.Lock()
	defer cloud.mu.Unlock()

	if len(cloud.confirms) != 1 {
		t.Fatalf("expected 1 API confirmation, got %d", len(cloud.confirms))
	}
	if got := aws.ToString(cloud.confirms[0].Token); got != testutils.Token {
		t.Errorf("expected token %q, got %q", testutils.Token, got)
	}
	if len(fake.Confirms()) != 0 {
		t.Errorf("api mode must not visit the SubscribeURL")
	}
}

func TestIdentityCheckFailure(t *testing.T) {
	targetURL, err := url.Parse("sqs://sqs.us-east-1.amazonaws.com/012345678910/deliveries")
	if err != nil {
		t.Fatal(err)
	}

	cloud := &fakeAWS{identityErr: errors.New("ExpiredToken")}
	_, err = createReverseProxy(context.Background(), &config{
		targetURL:   targetURL,
		settings:    snsauth.DefaultSettings(),
		confirmMode: confirmModeHTTP,
		aws:         cloud.clients(),
	}, logging.NewNopLogger())
	if err == nil {
		t.Fatal("expected an error when the AWS identity cannot be resolved")
	}
}
