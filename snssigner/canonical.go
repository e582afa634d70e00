package snssigner

import (
	"bytes"
	"fmt"

	"github.com/thomasdesr/snsauth/snssigner/snsapi"
)

type signedField struct {
	name  string
	value string
}

// signedFields lists the fields covered by the signature, in signing order.
// The order is part of the SNS wire contract.
func signedFields(m *SignedMessage) ([]signedField, error) {
	switch m.Type {
	case snsapi.MessageType_Notification:
		fields := make([]signedField, 0, 6)
		fields = append(fields,
			signedField{"Message", m.Message},
			signedField{"MessageId", m.MessageId},
		)
		if m.Subject != nil {
			fields = append(fields, signedField{"Subject", *m.Subject})
		}
		return append(fields,
			signedField{"Timestamp", m.Timestamp},
			signedField{"TopicArn", m.TopicArn},
			signedField{"Type", string(m.Type)},
		), nil

	case snsapi.MessageType_SubscriptionConfirmation, snsapi.MessageType_UnsubscribeConfirmation:
		return []signedField{
			{"Message", m.Message},
			{"MessageId", m.MessageId},
			{"SubscribeURL", m.SubscribeURL},
			{"Timestamp", m.Timestamp},
			{"Token", m.Token},
			{"TopicArn", m.TopicArn},
			{"Type", string(m.Type)},
		}, nil
	}

	return nil, fmt.Errorf("%w: unknown Type %q", ErrMalformedPayload, m.Type)
}

// CanonicalString builds the exact byte string SNS signed for msg: each
// signed field as "<name>\n<value>\n", in the fixed order for its Type.
func CanonicalString(msg *SignedMessage) ([]byte, error) {
	fields, err := signedFields(msg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, f := range fields {
		buf.WriteString(f.name)
		buf.WriteByte('\n')
		buf.WriteString(f.value)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}
