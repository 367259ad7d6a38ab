package handler

import (
	"context"
	"time"

	"chatlink/internal/app/chat"
	"chatlink/internal/app/db"
	"chatlink/internal/app/model"
	"chatlink/internal/app/storage"
	"chatlink/internal/app/user"
	"chatlink/internal/configs"
)

// Repository is the slice of *db.Queries the HTTP API reads and writes.
type Repository interface {
	CreateUser(ctx context.Context, arg db.CreateUserParams) (db.UserRow, error)
	GetUserByID(ctx context.Context, id int64) (db.UserRow, error)
	GetUserByLogin(ctx context.Context, login string) (db.UserRow, error)
	SearchUsers(ctx context.Context, term string, excludeID int64, limit int) ([]user.User, error)
	UpdateAvatar(ctx context.Context, id int64, key string) (string, error)

	CreateRefreshToken(ctx context.Context, userID int64, tokenID, ip string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenID string) (model.RefreshToken, error)
	BlacklistRefreshToken(ctx context.Context, tokenID string) (bool, error)

	FindFriendsOf(ctx context.Context, userID int64) ([]user.User, error)
	ListConversation(ctx context.Context, a, b int64, limit, offset int) ([]model.Message, error)
	CanAccessAttachment(ctx context.Context, key string, userID int64) (bool, error)

	CreateGroup(ctx context.Context, name string, ownerID int64, memberIDs []int64) (model.Group, error)
	GetGroup(ctx context.Context, groupID int64) (model.Group, error)
	FindGroupsOf(ctx context.Context, userID int64) ([]model.Group, error)
	ListGroupMembers(ctx context.Context, groupID int64) ([]model.GroupMember, error)
	IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error)
	AddGroupMember(ctx context.Context, groupID, userID int64) (bool, error)
	RemoveGroupMember(ctx context.Context, groupID, userID int64) (bool, error)
	ListGroupMessages(ctx context.Context, groupID int64, limit, offset int) ([]model.Message, error)
}

var _ Repository = (*db.Queries)(nil)

type AppDeps struct {
	Gateway        *chat.Gateway
	Config         *configs.AppConfig
	StorageService storage.StorageService
	DB             Repository
}

// FullAssetURL turns a stored object key into a URL clients can fetch.
func (d *AppDeps) FullAssetURL(key string) string {
	if key == "" || d.StorageService == nil {
		return ""
	}
	return d.StorageService.PublicURL(key)
}

// publicUser resolves the avatar key of u into a URL.
func (d *AppDeps) publicUser(u user.User) user.User {
	u.Avatar = d.FullAssetURL(u.Avatar)
	return u
}
