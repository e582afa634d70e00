package snsauth

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/thomasdesr/snsauth/snssigner"
	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

// Scope describes the authenticated sender of a delivery.
type Scope struct {
	// Name is the topic name, the last segment of the topic ARN.
	Name        string
	Topic       arn.ARN
	MessageType snsapi.MessageType
	MessageId   string
}

// NewScope builds the Scope of a verified message.
func NewScope(msg *snssigner.VerifiedMessage) *Scope {
	return &Scope{
		Name:        ScopeFromTopicARN(msg.TopicArn),
		Topic:       msg.Topic,
		MessageType: msg.Type,
		MessageId:   msg.MessageId,
	}
}

type (
	scopeContextKey struct{}
)

var (
	scopeContextKeyInstance = scopeContextKey{}
)

func AttachScopeToContext(ctx context.Context, scope *Scope) context.Context {
	if scope == nil {
		return ctx
	}

	return context.WithValue(ctx, scopeContextKeyInstance, scope)
}

func ScopeFromContext(ctx context.Context) *Scope {
	scope, ok := ctx.Value(scopeContextKeyInstance).(*Scope)
	if !ok {
		return nil
	}

	return scope
}
