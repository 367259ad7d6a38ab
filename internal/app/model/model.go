/*
Package model contains the rows persisted by the relational store: chat messages,
friendships, groups and refresh tokens.
*/
package model

import "time"

// Attachment is the metadata of a file stored in the object store and referenced by a message.
type Attachment struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// Message is a persisted chat message. Exactly one of RecipientID and GroupID is set.
// Read only ever moves from false to true.
type Message struct {
	ID          int64       `json:"id"`
	SenderID    int64       `json:"senderId"`
	RecipientID *int64      `json:"recipientId,omitempty"`
	GroupID     *int64      `json:"groupId,omitempty"`
	Content     string      `json:"message,omitempty"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	Read        bool        `json:"read"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// IsGroup reports whether the message targets a group.
func (m *Message) IsGroup() bool {
	return m.GroupID != nil
}

// Friendship is an unordered pair stored with Low < High.
type Friendship struct {
	ID        int64     `json:"id"`
	Low       int64     `json:"userLow"`
	High      int64     `json:"userHigh"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewFriendship returns the canonical pair for a and b.
func NewFriendship(a, b int64) Friendship {
	if a > b {
		a, b = b, a
	}
	return Friendship{Low: a, High: b}
}

// Group is a named set of members sharing one broadcast channel.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupMember is a member row joined with the user's public fields.
type GroupMember struct {
	UserID   int64     `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// RefreshToken is an issued refresh token. A blacklisted token can never be exchanged again.
type RefreshToken struct {
	ID            int64
	UserID        int64
	TokenID       string
	IP            string
	IsBlacklisted bool
	ExpiresAt     time.Time
	CreatedAt     time.Time
}
