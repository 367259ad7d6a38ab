package chat

import (
	"context"
	"time"

	"chatlink/internal/app/model"
	"chatlink/internal/app/user"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks chatlink/internal/app/chat Store,Authenticator

// Store is the durable side of the gateway. Any error is treated as a storage failure.
type Store interface {
	// InsertMessage persists msg and fills in ID, Read and CreatedAt.
	InsertMessage(ctx context.Context, msg *model.Message) error

	// FindUnread returns unread direct messages addressed to userID, oldest first.
	FindUnread(ctx context.Context, userID int64) ([]model.Message, error)

	// MarkRead flips read on every message from peerID to selfID.
	MarkRead(ctx context.Context, peerID, selfID int64) (int64, error)

	FindOrCreateFriendship(ctx context.Context, a, b int64) error
	FindFriendsOf(ctx context.Context, userID int64) ([]user.User, error)
	FindGroupsOf(ctx context.Context, userID int64) ([]model.Group, error)
	FindGroupMembers(ctx context.Context, groupID int64) ([]int64, error)
	IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error)

	// MarkGroupRead moves the member's read marker forward, never back.
	MarkGroupRead(ctx context.Context, groupID, userID int64, at time.Time) error
}

// Authenticator verifies the token presented when a connection opens.
type Authenticator interface {
	VerifyToken(token string) (user.Identity, error)
}

// Relay carries events to users connected to other processes. Best effort.
type Relay interface {
	Publish(userID int64, event string, payload any) error
}
