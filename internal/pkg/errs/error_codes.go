/*
Package errs defines the application error codes shared by the HTTP API and the
realtime gateway, together with the CustomError type that carries them.
*/
package errs

// 1xxx: request handling
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates an unsupported Content-Type header.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a malformed JSON body.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing data after the JSON body.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates a multipart or url-encoded form could not be parsed.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates the caller is being throttled.
	ErrRateLimitExceeded = 1007
)

// 2xxx: chat, group and content rules
const (
	// ErrMessageEmpty indicates a message carried neither text nor an attachment.
	ErrMessageEmpty = 2101

	// ErrMessageContentTooLong indicates the text content exceeded MaxContentBytes.
	ErrMessageContentTooLong = 2102

	// ErrMessageNotSent indicates the message could not be persisted and was not delivered.
	ErrMessageNotSent = 2103

	// ErrRecipientInvalid indicates a missing, unknown or self recipient.
	ErrRecipientInvalid = 2104

	// ErrGroupNotFound indicates the referenced group does not exist.
	ErrGroupNotFound = 2201

	// ErrNotGroupMember indicates the caller is not a member of the group.
	ErrNotGroupMember = 2202

	// ErrGroupNameInvalid indicates an empty or oversized group name.
	ErrGroupNameInvalid = 2203

	// ErrNotGroupOwner indicates a roster change attempted by someone other than the owner.
	ErrNotGroupOwner = 2204

	// ErrFileSizeTooLarge indicates an attachment above MaxAttachmentSize.
	ErrFileSizeTooLarge = 2301

	// ErrFileTypeNotAllowed indicates an attachment MIME type or extension outside the allow-list.
	ErrFileTypeNotAllowed = 2302

	// ErrAttachmentKeyInvalid indicates an attachment key outside the sender's namespace.
	ErrAttachmentKeyInvalid = 2303
)

// 3xxx: users, sessions and tokens
const (
	// ErrUnauthorized indicates a missing, invalid or expired access token.
	ErrUnauthorized = 3001

	// ErrSessionReplaced indicates the connection was superseded by a newer one for the same user.
	ErrSessionReplaced = 3002

	// ErrInvalidUsername indicates a username outside the allowed pattern.
	ErrInvalidUsername = 3003

	// ErrInvalidPassword indicates a password outside the allowed length.
	ErrInvalidPassword = 3004

	// ErrUserAlreadyExists indicates the username or email is taken.
	ErrUserAlreadyExists = 3005

	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = 3006

	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = 3007

	// ErrRefreshTokenInvalid indicates a refresh token that is expired, malformed or revoked.
	ErrRefreshTokenInvalid = 3008

	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = 3009

	// ErrAlreadyLoggedIn indicates a sign-in or registration attempt from an authenticated caller.
	ErrAlreadyLoggedIn = 3010
)

// 5xxx: internal
const (
	// ErrUnknown is an unclassified server error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates the object store rejected or failed a request.
	ErrFileStorageFailed = 5001

	// ErrStorageUnavailable indicates the database failed or timed out.
	ErrStorageUnavailable = 5002
)
