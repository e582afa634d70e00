package snsauth

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/thomasdesr/snsauth/internal/errorutil"
)

// ScopeFromTopicARN returns the topic name, the text after the last ':' of
// topicArn. A string without ':' is returned unchanged.
func ScopeFromTopicARN(topicArn string) string {
	return topicArn[strings.LastIndexByte(topicArn, ':')+1:]
}

// ParseTopicARNs parses a list of SNS topic ARNs, rejecting anything that
// isn't one.
func ParseTopicARNs(maybeTopics []string) ([]arn.ARN, error) {
	topics := make([]arn.ARN, 0, len(maybeTopics))

	for _, s := range maybeTopics {
		topic, err := arn.Parse(s)
		if err != nil {
			return nil, errorutil.Wrapf(err, "failed to parse topic ARN %q", s)
		}

		if topic.Service != "sns" || topic.Resource == "" || strings.Contains(topic.Resource, ":") {
			return nil, fmt.Errorf("provided arn (%q) is not an sns topic arn", s)
		}

		topics = append(topics, topic)
	}

	return topics, nil
}

// topicInTopics reports whether topic is one of allowed. An empty allow list
// allows every topic.
func topicInTopics(allowed []arn.ARN, topic arn.ARN) bool {
	return len(allowed) == 0 || slices.Contains(allowed, topic)
}
