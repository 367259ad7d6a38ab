package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"chatlink/internal/app/db"
	"chatlink/internal/app/model"
	"chatlink/internal/pkg/auth/jwt"
	"chatlink/internal/pkg/errs"
	"chatlink/internal/pkg/logx"
	"chatlink/internal/pkg/req"
	"chatlink/internal/pkg/resp"
)

const (
	maxGroupNameLength = 50
	maxInitialMembers  = 100
)

type CreateGroupInput struct {
	Name      string  `json:"name"`
	MemberIDs []int64 `json:"memberIds"`
}

type MemberInput struct {
	UserID int64 `json:"userId"`
}

// HandleCreateGroup creates a group owned by the caller. Members that are online join the
// group channel right away.
func HandleCreateGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		var input CreateGroupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		name := strings.TrimSpace(input.Name)
		if name == "" || utf8.RuneCountInString(name) > maxGroupNameLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrGroupNameInvalid, maxGroupNameLength))
			return
		}

		if len(input.MemberIDs) > maxInitialMembers {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		for _, id := range input.MemberIDs {
			if id <= 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
		}

		group, err := deps.DB.CreateGroup(r.Context(), name, identity.ID, input.MemberIDs)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "create_group: insert failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if deps.Gateway != nil {
			deps.Gateway.JoinGroup(identity.ID, group.ID)
			for _, id := range input.MemberIDs {
				deps.Gateway.JoinGroup(id, group.ID)
			}
		}

		logx.Info("group created", "group_id", group.ID, "owner_id", identity.ID, "members", len(input.MemberIDs)+1)

		resp.RespondSuccess(w, r, map[string]any{"group": group})
	}
}

// HandleMyGroups lists the caller's groups.
func HandleMyGroups(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		groups, err := deps.DB.FindGroupsOf(r.Context(), identity.ID)
		if err != nil {
			logx.Error(err, "my_groups: query failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if groups == nil {
			groups = []model.Group{}
		}

		resp.RespondSuccess(w, r, map[string]any{"groups": groups})
	}
}

// HandleGetGroup returns a group and its roster. Only members may look.
func HandleGetGroup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		group, customErr := memberGroup(r, deps, identity.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		members, err := deps.DB.ListGroupMembers(r.Context(), group.ID)
		if err != nil {
			logx.Error(err, "get_group: roster query failed", "group_id", group.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"group":   group,
			"members": members,
		})
	}
}

// HandleAddGroupMember lets the owner add a user to the roster.
func HandleAddGroupMember(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		group, input, customErr := rosterChange(r, deps)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if group.OwnerID != identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotGroupOwner))
			return
		}

		added, err := deps.DB.AddGroupMember(r.Context(), group.ID, input.UserID)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "add_group_member: insert failed", "group_id", group.ID, "member_id", input.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if added && deps.Gateway != nil {
			deps.Gateway.JoinGroup(input.UserID, group.ID)
		}

		resp.RespondSuccess(w, r, map[string]any{"added": added})
	}
}

// HandleRemoveGroupMember lets the owner remove anyone but themselves, and any member leave.
func HandleRemoveGroupMember(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		group, input, customErr := rosterChange(r, deps)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		leaving := input.UserID == identity.ID
		if !leaving && group.OwnerID != identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotGroupOwner))
			return
		}
		if input.UserID == group.OwnerID {
			// The owner cannot leave a group it still owns.
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		removed, err := deps.DB.RemoveGroupMember(r.Context(), group.ID, input.UserID)
		if err != nil {
			logx.Error(err, "remove_group_member: delete failed", "group_id", group.ID, "member_id", input.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if removed && deps.Gateway != nil {
			deps.Gateway.LeaveGroup(input.UserID, group.ID)
		}

		resp.RespondSuccess(w, r, map[string]any{"removed": removed})
	}
}

// HandleGroupMessages pages a group's history for a member.
func HandleGroupMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		limit, offset, customErr := req.Page(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		group, customErr := memberGroup(r, deps, identity.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		messages, err := deps.DB.ListGroupMessages(r.Context(), group.ID, limit, offset)
		if err != nil {
			logx.Error(err, "group_messages: query failed", "group_id", group.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if messages == nil {
			messages = []model.Message{}
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}

func loadGroup(ctx context.Context, deps *AppDeps, groupID int64) (model.Group, *errs.CustomError) {
	group, err := deps.DB.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.Group{}, errs.NewError(errs.ErrGroupNotFound)
		}
		logx.Error(err, "group lookup failed", "group_id", groupID)
		return model.Group{}, errs.NewError(errs.ErrUnknown)
	}
	return group, nil
}

// memberGroup loads the {id} group and checks userID belongs to it.
func memberGroup(r *http.Request, deps *AppDeps, userID int64) (model.Group, *errs.CustomError) {
	groupID, customErr := req.PathID(r, "id")
	if customErr != nil {
		return model.Group{}, customErr
	}

	group, customErr := loadGroup(r.Context(), deps, groupID)
	if customErr != nil {
		return model.Group{}, customErr
	}

	member, err := deps.DB.IsGroupMember(r.Context(), group.ID, userID)
	if err != nil {
		logx.Error(err, "membership check failed", "group_id", group.ID, "user_id", userID)
		return model.Group{}, errs.NewError(errs.ErrUnknown)
	}
	if !member {
		return model.Group{}, errs.NewError(errs.ErrNotGroupMember)
	}

	return group, nil
}

func rosterChange(r *http.Request, deps *AppDeps) (model.Group, MemberInput, *errs.CustomError) {
	var input MemberInput

	groupID, customErr := req.PathID(r, "id")
	if customErr != nil {
		return model.Group{}, input, customErr
	}

	if customErr := req.BindJSON(r, &input); customErr != nil {
		return model.Group{}, input, customErr
	}
	if input.UserID <= 0 {
		return model.Group{}, input, errs.NewError(errs.ErrInvalidParams)
	}

	group, customErr := loadGroup(r.Context(), deps, groupID)
	return group, input, customErr
}
