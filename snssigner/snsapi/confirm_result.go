package snsapi

import "encoding/xml"

// ConfirmSubscriptionResult
// https://docs.aws.amazon.com/sns/latest/api/API_ConfirmSubscription.html
type ConfirmSubscriptionResult struct {
	SubscriptionArn string `xml:"SubscriptionArn"`
}

// ConfirmSubscriptionResponse is the XML document SNS answers a SubscribeURL
// visit (or a ConfirmSubscription call) with.
type ConfirmSubscriptionResponse struct {
	XMLName                   xml.Name                  `xml:"http://sns.amazonaws.com/doc/2010-03-31/ ConfirmSubscriptionResponse"`
	ConfirmSubscriptionResult ConfirmSubscriptionResult `xml:"ConfirmSubscriptionResult"`
	ResponseMetadata          ResponseMetadata          `xml:"ResponseMetadata"`
}

type ResponseMetadata struct {
	RequestId string `xml:"RequestId"`
}

// ErrorResponse is the XML document SNS returns with a non-2xx status.
type ErrorResponse struct {
	XMLName   xml.Name    `xml:"http://sns.amazonaws.com/doc/2010-03-31/ ErrorResponse"`
	Error     ErrorDetail `xml:"Error"`
	RequestId string      `xml:"RequestId"`
}

type ErrorDetail struct {
	Type    string `xml:"Type"`
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}
