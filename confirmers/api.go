package confirmers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/snssigner"
)

// ConfirmSubscriptionAPI is the subset of *sns.Client used by APIConfirmer.
type ConfirmSubscriptionAPI interface {
	ConfirmSubscription(ctx context.Context, params *sns.ConfirmSubscriptionInput, optFns ...func(*sns.Options)) (*sns.ConfirmSubscriptionOutput, error)
}

// APIConfirmer confirms through the SNS ConfirmSubscription action instead
// of the SubscribeURL. Requests are sent to the region that owns the topic.
type APIConfirmer struct {
	client ConfirmSubscriptionAPI

	// AuthenticateOnUnsubscribe requires the unsubscribe call to be
	// authenticated once the subscription is confirmed.
	AuthenticateOnUnsubscribe bool
}

func NewAPIConfirmer(client ConfirmSubscriptionAPI) *APIConfirmer {
	return &APIConfirmer{client: client}
}

func (c *APIConfirmer) Confirm(ctx context.Context, msg *snssigner.VerifiedMessage) error {
	if msg.Token == "" {
		return fmt.Errorf("%w: message has no Token", ErrConfirmationFailed)
	}

	in := &sns.ConfirmSubscriptionInput{
		TopicArn: aws.String(msg.TopicArn),
		Token:    aws.String(msg.Token),
	}
	if c.AuthenticateOnUnsubscribe {
		in.AuthenticateOnUnsubscribe = aws.String("true")
	}

	region := msg.Topic.Region
	out, err := c.client.ConfirmSubscription(ctx, in, func(o *sns.Options) {
		if region != "" {
			o.Region = region
		}
	})
	if err != nil {
		return errorutil.Join(ErrConfirmationFailed, err)
	}

	if out == nil || aws.ToString(out.SubscriptionArn) == "" {
		return fmt.Errorf("%w: no subscription ARN returned", ErrConfirmationFailed)
	}

	return nil
}
