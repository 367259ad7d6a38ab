package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"chatlink/internal/app/chat"
	"chatlink/internal/app/db"
	"chatlink/internal/pkg/auth/jwt"
	"chatlink/internal/pkg/errs"
	"chatlink/internal/pkg/logx"
	"chatlink/internal/pkg/randx"
	"chatlink/internal/pkg/req"
	"chatlink/internal/pkg/resp"
)

const (
	searchLimit   = 20
	minSearchTerm = 2
)

// FriendView is a friend as listed by the API, with the live online flag.
type FriendView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	IsOnline bool   `json:"isOnline"`
}

// HandleGetUserProfile returns the caller's profile.
func HandleGetUserProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		row, err := deps.DB.GetUserByID(r.Context(), identity.ID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				logx.Warn("get_user_profile: user not found", "user_id", identity.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "get_user_profile: lookup failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user":      deps.publicUser(row.ToUser()),
			"email":     row.Email.String,
			"role":      row.Role,
			"createdAt": row.CreatedAt.Format(time.RFC3339),
		})
	}
}

// HandleSearchUsers finds users whose username contains q, excluding the caller.
func HandleSearchUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		term := strings.TrimSpace(r.URL.Query().Get("q"))
		if len([]rune(term)) < minSearchTerm {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		found, err := deps.DB.SearchUsers(r.Context(), term, identity.ID, searchLimit)
		if err != nil {
			logx.Error(err, "search_users: query failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		for i := range found {
			found[i] = deps.publicUser(found[i])
		}

		resp.RespondSuccess(w, r, map[string]any{"users": found})
	}
}

// HandleGetFriends lists the caller's friends with their current online state.
func HandleGetFriends(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		friends, err := deps.DB.FindFriendsOf(r.Context(), identity.ID)
		if err != nil {
			logx.Error(err, "get_friends: query failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]FriendView, 0, len(friends))
		for _, f := range friends {
			views = append(views, FriendView{
				ID:       f.ID,
				Name:     f.Name,
				Username: f.Username,
				Avatar:   deps.FullAssetURL(f.Avatar),
				IsOnline: deps.Gateway != nil && deps.Gateway.IsOnline(f.ID),
			})
		}

		resp.RespondSuccess(w, r, map[string]any{"friends": views})
	}
}

// HandleUploadAvatar accepts a multipart "avatar" file, streams it to the object store and
// points the profile at it. The previous avatar object is removed in the background.
func HandleUploadAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("avatar")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if customErr := chat.ValidateAvatar(header.Filename, mimeType, header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		key := randx.AvatarObjectKey(identity.ID, header.Filename)
		if err := deps.StorageService.Upload(r.Context(), key, strings.ToLower(mimeType), file); err != nil {
			logx.Error(err, "upload_avatar: storage upload failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		oldKey, err := deps.DB.UpdateAvatar(r.Context(), identity.ID, key)
		if err != nil {
			logx.Error(err, "upload_avatar: profile update failed", "user_id", identity.ID)
			go deleteObject(deps, key)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if oldKey != "" && oldKey != key {
			go deleteObject(deps, oldKey)
		}

		resp.RespondSuccess(w, r, map[string]any{"avatar": deps.FullAssetURL(key)})
	}
}

func deleteObject(deps *AppDeps, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := deps.StorageService.Delete(ctx, key); err != nil {
		logx.Warn("orphaned object not deleted", "key", key, "error", err.Error())
	}
}
