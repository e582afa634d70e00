package snsauth

import "github.com/thomasdesr/snsauth/snssigner"

// Kind classifies the result of evaluating a delivery.
type Kind int

const (
	// Rejected means the delivery could not be authenticated. It is the zero
	// value so an uninitialized Outcome never lets a request through.
	Rejected Kind = iota
	// Authenticated means the signature verified and any confirmation that was
	// due succeeded.
	Authenticated
	// SubscribeFailed means the signature verified but confirming the
	// subscription did not.
	SubscribeFailed
)

func (k Kind) String() string {
	switch k {
	case Rejected:
		return "Rejected"
	case Authenticated:
		return "Authenticated"
	case SubscribeFailed:
		return "SubscribeFailed"
	}
	return "Unknown"
}

// Outcome is the decision for a single delivery.
type Outcome struct {
	Kind Kind

	// Scope is the topic name, set when Kind is Authenticated.
	Scope string

	// Message is set whenever the signature verified.
	Message *snssigner.VerifiedMessage

	// Err explains a Rejected or SubscribeFailed outcome. It is meant for logs,
	// not for the sender.
	Err error
}

func (o Outcome) IsAuthenticated() bool {
	return o.Kind == Authenticated
}
