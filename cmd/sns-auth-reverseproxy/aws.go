package main

import (
	"context"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/thomasdesr/snsauth/confirmers"
	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/internal/logging"
	"github.com/thomasdesr/snsauth/snshttp"
)

type callerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// awsClients are the AWS APIs the proxy may call. Only the api confirm mode
// and sqs targets need them.
type awsClients struct {
	sns confirmers.ConfirmSubscriptionAPI
	sqs snshttp.SendMessageAPI
	sts callerIdentityAPI
}

func needsAWS(cfg *config) bool {
	return cfg.confirmMode == confirmModeAPI || cfg.targetURL.Scheme == "sqs"
}

func loadAWSClients(ctx context.Context) (*awsClients, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errorutil.Wrap(err, "failed to load AWS config")
	}

	return &awsClients{
		sns: sns.NewFromConfig(awsCfg),
		sqs: sqs.NewFromConfig(awsCfg),
		sts: sts.NewFromConfig(awsCfg),
	}, nil
}

// checkIdentity fails fast on missing or expired credentials rather than on
// the first delivery.
func checkIdentity(ctx context.Context, api callerIdentityAPI, logger logging.Logger) error {
	out, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return errorutil.Wrap(err, "failed to get AWS caller identity")
	}

	logger.Info("using AWS identity",
		logging.F("account", aws.ToString(out.Account)),
		logging.F("arn", aws.ToString(out.Arn)),
	)
	return nil
}

// sqsQueueURL maps an sqs://host/account/queue target to the queue's https
// URL.
func sqsQueueURL(target *url.URL) string {
	return (&url.URL{Scheme: "https", Host: target.Host, Path: target.Path}).String()
}
