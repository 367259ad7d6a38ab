package relay

import (
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeMsg(t *testing.T, subject string, env Envelope) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return &nats.Msg{Subject: subject, Data: data}
}

func TestDecode(t *testing.T) {
	payload := json.RawMessage(`{"message":"hi","from":1}`)

	tests := []struct {
		name string
		msg  *nats.Msg
		ok   bool
	}{
		{"foreign node", envelopeMsg(t, "chatlink.deliver.2", Envelope{Origin: "b", UserID: 2, Event: "message-received", Payload: payload}), true},
		{"own node", envelopeMsg(t, "chatlink.deliver.2", Envelope{Origin: "a", UserID: 2, Event: "message-received", Payload: payload}), false},
		{"subject mismatch", envelopeMsg(t, "chatlink.deliver.3", Envelope{Origin: "b", UserID: 2, Event: "message-received", Payload: payload}), false},
		{"missing event", envelopeMsg(t, "chatlink.deliver.2", Envelope{Origin: "b", UserID: 2, Payload: payload}), false},
		{"garbage", &nats.Msg{Subject: "chatlink.deliver.2", Data: []byte("{")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := decode(tt.msg, "a")
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestHandleDeliversForeignEvents(t *testing.T) {
	r := &NATS{nodeID: "a"}

	var gotUser int64
	var gotEvent string
	var gotPayload json.RawMessage

	r.handle(envelopeMsg(t, Subject(7), Envelope{
		Origin:  "b",
		UserID:  7,
		Event:   "typing-start",
		Payload: json.RawMessage(`{"from":3}`),
	}), func(userID int64, event string, payload json.RawMessage) {
		gotUser, gotEvent, gotPayload = userID, event, payload
	})

	assert.Equal(t, int64(7), gotUser)
	assert.Equal(t, "typing-start", gotEvent)
	assert.JSONEq(t, `{"from":3}`, string(gotPayload))
}
