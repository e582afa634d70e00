package snshttp

import (
	"context"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/thomasdesr/snsauth"
	"github.com/thomasdesr/snsauth/internal/logging"
)

// SendMessageAPI is the subset of *sqs.Client used by SQSForwarder.
type SendMessageAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSForwarder enqueues each authenticated delivery, envelope and all, on an
// SQS queue. The scope travels as message attributes named like the
// ReverseProxy headers. It must run behind Middleware.
//
// A failed send is answered with 502 so SNS retries the delivery.
type SQSForwarder struct {
	Client   SendMessageAPI
	QueueURL string
	Logger   logging.Logger
}

func (f *SQSForwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := f.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	scope := snsauth.ScopeFromContext(r.Context())
	if scope == nil {
		writeError(w, http.StatusUnauthorized, messageInvalidPayload)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	out, err := f.Client.SendMessage(r.Context(), &sqs.SendMessageInput{
		QueueUrl:          aws.String(f.QueueURL),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: scopeAttributes(scope),
	})
	if err != nil {
		logger.Error("failed to forward sns delivery to sqs", err,
			logging.F("queue_url", f.QueueURL),
			logging.F("message_id", scope.MessageId),
		)
		writeError(w, http.StatusBadGateway, "Failed to forward message")
		return
	}

	logger.Debug("forwarded sns delivery to sqs",
		logging.F("queue_url", f.QueueURL),
		logging.F("message_id", scope.MessageId),
		logging.F("sqs_message_id", aws.ToString(out.MessageId)),
	)

	w.WriteHeader(http.StatusNoContent)
}

func scopeAttributes(scope *snsauth.Scope) map[string]types.MessageAttributeValue {
	attrs := map[string]types.MessageAttributeValue{}

	for name, value := range map[string]string{
		snsHTTPTopicScopeHeader:  scope.Name,
		snsHTTPTopicARNHeader:    scope.Topic.String(),
		snsHTTPMessageTypeHeader: scope.MessageType.String(),
		snsHTTPMessageIDHeader:   scope.MessageId,
	} {
		if value == "" {
			continue
		}
		attrs[name] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(value),
		}
	}

	return attrs
}
