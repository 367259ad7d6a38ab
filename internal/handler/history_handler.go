package handler

import (
	"net/http"

	"chatlink/internal/app/model"
	"chatlink/internal/pkg/auth/jwt"
	"chatlink/internal/pkg/errs"
	"chatlink/internal/pkg/logx"
	"chatlink/internal/pkg/req"
	"chatlink/internal/pkg/resp"
)

// HandleConversationHistory pages the direct messages between the caller and {peerId},
// newest first.
func HandleConversationHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		peerID, customErr := req.PathID(r, "peerId")
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if peerID == identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrRecipientInvalid))
			return
		}

		limit, offset, customErr := req.Page(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		messages, err := deps.DB.ListConversation(r.Context(), identity.ID, peerID, limit, offset)
		if err != nil {
			logx.Error(err, "conversation_history: query failed", "user_id", identity.ID, "peer_id", peerID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if messages == nil {
			messages = []model.Message{}
		}

		resp.RespondSuccess(w, r, map[string]any{"messages": messages})
	}
}
