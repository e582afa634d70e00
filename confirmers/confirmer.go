// Package confirmers completes the SNS subscription handshake for verified
// SubscriptionConfirmation and UnsubscribeConfirmation messages.
package confirmers

import (
	"context"
	"errors"

	"github.com/thomasdesr/snsauth/snssigner"
)

// ErrConfirmationFailed indicates SNS did not accept the confirmation.
var ErrConfirmationFailed = errors.New("subscription confirmation failed")

// Confirmer confirms the subscription described by a verified confirmation
// message. Implementations make a single attempt.
type Confirmer interface {
	Confirm(ctx context.Context, msg *snssigner.VerifiedMessage) error
}

// ConfirmerFunc is a Confirmer implemented by a function.
type ConfirmerFunc func(ctx context.Context, msg *snssigner.VerifiedMessage) error

func (f ConfirmerFunc) Confirm(ctx context.Context, msg *snssigner.VerifiedMessage) error {
	return f(ctx, msg)
}
