package chat

import (
	"encoding/json"
	"time"

	"chatlink/internal/app/model"
)

// Inbound events (client -> server).
const (
	EventPrivateMessage        = "privateMessage"
	EventGroupMessage          = "groupMessage"
	EventTypingStart           = "typingStart"
	EventTypingStop            = "typingStop"
	EventMarkMessagesRead      = "markMessagesRead"
	EventMarkGroupMessagesRead = "markGroupMessagesRead"
	EventGetUserOnlineStatus   = "getUserOnlineStatus"
)

// Outbound events (server -> client).
const (
	EventPresenceChanged       = "presence-changed"
	EventInitialFriendsStatus  = "initial-friends-status"
	EventMessageReceived       = "message-received"
	EventMessageDelivered      = "message-delivered"
	EventMessageError          = "message-error"
	EventGroupMessageReceived  = "group-message-received"
	EventGroupMessageDelivered = "group-message-delivered"
	EventGroupMessageError     = "group-message-error"
	EventMessagesRead          = "messages-read"
	EventGroupMessagesRead     = "group-messages-read"
	EventTypingStarted         = "typing-start"
	EventTypingStopped         = "typing-stop"
	EventDuplicateConnection   = "duplicate-connection"
	EventUnauthorized          = "unauthorized"
	EventAvailabilityStatus    = "availability-status"
)

// Inbound is the frame a client sends. TempID is the client's idempotency token and is
// echoed on the matching *-delivered or *-error event.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	TempID  string          `json:"tempId,omitempty"`
}

// Outbound is the frame written to a client. Timestamp is in Unix milliseconds.
type Outbound struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func newOutbound(event string, payload any) Outbound {
	return Outbound{Type: event, Payload: payload, Timestamp: time.Now().UnixMilli()}
}

type PrivateMessagePayload struct {
	RecipientID int64             `json:"recipientId"`
	Message     string            `json:"message"`
	Attachment  *model.Attachment `json:"attachment,omitempty"`
}

type GroupMessagePayload struct {
	GroupID    int64             `json:"groupId"`
	Message    string            `json:"message"`
	Attachment *model.Attachment `json:"attachment,omitempty"`
}

type TypingPayload struct {
	To int64 `json:"to"`
}

type MarkReadPayload struct {
	From int64 `json:"from"`
}

type MarkGroupReadPayload struct {
	GroupID int64 `json:"groupId"`
}

type OnlineStatusQuery struct {
	UserID int64 `json:"userId"`
}

type PresencePayload struct {
	UserID    int64 `json:"userId"`
	IsOnline  bool  `json:"isOnline"`
	Timestamp int64 `json:"timestamp"`
}

// FriendStatus is one row of the initial-friends-status snapshot.
type FriendStatus struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	IsOnline bool   `json:"isOnline"`
}

type FriendsStatusPayload struct {
	Friends []FriendStatus `json:"friends"`
}

// MessageReceivedPayload is used for live pushes and backlog replay alike; clients
// deduplicate on ID.
type MessageReceivedPayload struct {
	ID         int64             `json:"id"`
	Message    string            `json:"message"`
	From       int64             `json:"from"`
	Attachment *model.Attachment `json:"attachment,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type MessageDeliveredPayload struct {
	TempID    string    `json:"tempId,omitempty"`
	ID        int64     `json:"id"`
	To        int64     `json:"to"`
	CreatedAt time.Time `json:"createdAt"`
}

type GroupMessageReceivedPayload struct {
	ID         int64             `json:"id"`
	GroupID    int64             `json:"groupId"`
	Message    string            `json:"message"`
	From       int64             `json:"from"`
	Attachment *model.Attachment `json:"attachment,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type GroupMessageDeliveredPayload struct {
	TempID    string    `json:"tempId,omitempty"`
	ID        int64     `json:"id"`
	GroupID   int64     `json:"groupId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorPayload carries an errs code. It is the payload of message-error,
// group-message-error and unauthorized.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TempID  string `json:"tempId,omitempty"`
}

type MessagesReadPayload struct {
	From int64 `json:"from"`
}

type GroupMessagesReadPayload struct {
	GroupID int64     `json:"groupId"`
	From    int64     `json:"from"`
	ReadAt  time.Time `json:"readAt"`
}

type TypingSignalPayload struct {
	From int64 `json:"from"`
}

type DuplicateConnectionPayload struct {
	Message string `json:"message"`
}

type AvailabilityPayload struct {
	UserID   int64 `json:"userId"`
	IsOnline bool  `json:"isOnline"`
}

func receivedPayload(m *model.Message) MessageReceivedPayload {
	return MessageReceivedPayload{
		ID:         m.ID,
		Message:    m.Content,
		From:       m.SenderID,
		Attachment: m.Attachment,
		CreatedAt:  m.CreatedAt,
	}
}
