package errs

import "net/http"

// errorMap holds the client-facing message and HTTP status for every code.
// A zero Status is reported as 200, matching the envelope convention of the API.
var errorMap = map[int]CustomError{
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message is empty."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long (max %d bytes)."},
	ErrMessageNotSent:        {Code: ErrMessageNotSent, Message: "Message could not be sent. Please retry."},
	ErrRecipientInvalid:      {Code: ErrRecipientInvalid, Message: "Invalid recipient."},
	ErrGroupNotFound:         {Code: ErrGroupNotFound, Message: "Group not found.", Status: http.StatusNotFound},
	ErrNotGroupMember:        {Code: ErrNotGroupMember, Message: "You are not a member of this group.", Status: http.StatusForbidden},
	ErrGroupNameInvalid:      {Code: ErrGroupNameInvalid, Message: "Group name must be 1-%d characters."},
	ErrNotGroupOwner:         {Code: ErrNotGroupOwner, Message: "Only the group owner can do that.", Status: http.StatusForbidden},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large (max %d MB)."},
	ErrFileTypeNotAllowed:    {Code: ErrFileTypeNotAllowed, Message: "File type is not allowed."},
	ErrAttachmentKeyInvalid:  {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment."},

	ErrUnauthorized:        {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrSessionReplaced:     {Code: ErrSessionReplaced, Message: "You were signed in on another device."},
	ErrInvalidUsername:     {Code: ErrInvalidUsername, Message: "Invalid username."},
	ErrInvalidPassword:     {Code: ErrInvalidPassword, Message: "Invalid password."},
	ErrUserAlreadyExists:   {Code: ErrUserAlreadyExists, Message: "Username or email is already taken.", Status: http.StatusConflict},
	ErrInvalidCredentials:  {Code: ErrInvalidCredentials, Message: "Incorrect username or password.", Status: http.StatusUnauthorized},
	ErrUserNotFound:        {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrRefreshTokenInvalid: {Code: ErrRefreshTokenInvalid, Message: "Session expired. Please sign in again.", Status: http.StatusUnauthorized},
	ErrInvalidEmail:        {Code: ErrInvalidEmail, Message: "Invalid email address."},
	ErrAlreadyLoggedIn:     {Code: ErrAlreadyLoggedIn, Message: "You are already signed in.", Status: http.StatusConflict},

	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed:  {Code: ErrFileStorageFailed, Message: "File storage failed. Please try again.", Status: http.StatusBadGateway},
	ErrStorageUnavailable: {Code: ErrStorageUnavailable, Message: "Service temporarily unavailable.", Status: http.StatusServiceUnavailable},
}
