package handler

import (
	"net/http"
	"strings"

	"chatlink/internal/app/chat"
	"chatlink/internal/pkg/auth/jwt"
	"chatlink/internal/pkg/errs"
	"chatlink/internal/pkg/logx"
	"chatlink/internal/pkg/randx"
	"chatlink/internal/pkg/req"
	"chatlink/internal/pkg/resp"
)

// PresignUploadInput defines the JSON input structure for generating upload URL.
type PresignUploadInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignUploadURL returns a time-limited upload URL for a new key under the
// caller's chat/<userId>/ namespace. Messages may only reference keys issued this way.
func HandlePresignUploadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		var input PresignUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := chat.ValidateFileSize(input.FileSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if err := chat.ValidateFileType(input.FileName, input.MimeType); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		fileKey := randx.ChatObjectKey(identity.ID, input.FileName)
		mimeType := strings.ToLower(strings.TrimSpace(input.MimeType))

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			fileKey,
			mimeType,
			input.FileSize,
			chat.PresignedURLDuration,
		)
		if err != nil {
			logx.Error(err, "presign_upload: storage failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
			"mimeType":     mimeType,
		})
	}
}

// HandlePresignDownloadURL redirects to a time-limited download URL for key k. The caller
// must be the uploader or a participant of a message that references the key.
func HandlePresignDownloadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" || !strings.HasPrefix(fileKey, randx.ChatKeyPrefix) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !randx.OwnsChatKey(identity.ID, fileKey) {
			allowed, err := deps.DB.CanAccessAttachment(r.Context(), fileKey, identity.ID)
			if err != nil {
				logx.Error(err, "presign_download: access check failed", "user_id", identity.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			if !allowed {
				logx.Warn("presign_download: access denied", "user_id", identity.ID, "key", fileKey)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}
		}

		url, err := deps.StorageService.PresignDownload(
			r.Context(),
			fileKey,
			chat.PresignedURLDuration,
		)
		if err != nil {
			logx.Error(err, "presign_download: storage failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
