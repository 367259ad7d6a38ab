package chat

import (
	"path/filepath"
	"strings"
	"time"

	"chatlink/internal/app/model"
	"chatlink/internal/pkg/errs"
	"chatlink/internal/pkg/randx"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed file size in megabytes.
	MaxAttachmentSizeMB = 10

	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// MaxAvatarSizeMB applies to profile pictures uploaded through the API.
	MaxAvatarSizeMB = 5

	MaxAvatarSize = MaxAvatarSizeMB * 1024 * 1024

	// PresignedURLDuration is how long upload and download URLs stay valid.
	PresignedURLDuration = 5 * time.Minute

	maxFileNameLength = 255
)

// ExtToMIME maps the accepted file extensions to the only MIME type allowed for each.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".zip":  "application/zip",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// avatarMIME is the image subset accepted for avatars.
var avatarMIME = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge, MaxAttachmentSizeMB)
	}

	return nil
}

// ValidateFileType checks that the extension is allowed and agrees with mimeType.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(strings.TrimSpace(mimeType))

	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) < 2 {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}

	return nil
}

// ValidateAvatar applies the avatar rules: images only, at most MaxAvatarSize.
func ValidateAvatar(fileName, mimeType string, size int64) *errs.CustomError {
	if size <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if size > MaxAvatarSize {
		return errs.NewError(errs.ErrFileSizeTooLarge, MaxAvatarSizeMB)
	}
	if _, ok := avatarMIME[strings.ToLower(mimeType)]; !ok {
		return errs.NewError(errs.ErrFileTypeNotAllowed)
	}
	return ValidateFileType(fileName, mimeType)
}

// ValidateAttachment checks an attachment referenced by a message from senderID. The key
// must be one the sender was issued, under chat/<senderId>/.
func ValidateAttachment(senderID int64, a *model.Attachment) *errs.CustomError {
	if !randx.OwnsChatKey(senderID, a.Path) {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}

	if a.Name == "" || len(a.Name) > maxFileNameLength {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if err := ValidateFileSize(a.Size); err != nil {
		return err
	}

	if err := ValidateFileType(a.Name, a.MimeType); err != nil {
		return err
	}

	a.MimeType = strings.ToLower(strings.TrimSpace(a.MimeType))
	return nil
}
