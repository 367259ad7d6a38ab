/*
Package randx generates random identifiers: object-storage keys for chat attachments and
avatars, refresh-token ids and fallback display names.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	Base62Len = int64(len(Base62Chars))

	// ChatKeyPrefix is the object key root for chat attachments: chat/<senderId>/<uuid><ext>.
	ChatKeyPrefix = "chat/"

	// AvatarKeyPrefix is the object key root for profile pictures.
	AvatarKeyPrefix = "avatars/"

	maxExtLength = 10
)

// base62 returns n random characters from Base62Chars using crypto/rand.
func base62(n int) (string, error) {
	result := make([]byte, n)

	for i := range n {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// TokenID returns a UUID v4 string used as the jti of refresh tokens.
func TokenID() string {
	return uuid.New().String()
}

// ChatObjectKey builds the storage key for an attachment uploaded by userID.
// Only the extension of fileName is kept; the rest of the name is never part of the key.
func ChatObjectKey(userID int64, fileName string) string {
	return ChatKeyPrefix + strconv.FormatInt(userID, 10) + "/" + uuid.New().String() + cleanExt(fileName)
}

// AvatarObjectKey builds the storage key for a profile picture of userID.
func AvatarObjectKey(userID int64, fileName string) string {
	return AvatarKeyPrefix + strconv.FormatInt(userID, 10) + "/" + uuid.New().String() + cleanExt(fileName)
}

// OwnsChatKey reports whether key lies under the chat prefix of userID and has no path tricks.
func OwnsChatKey(userID int64, key string) bool {
	prefix := ChatKeyPrefix + strconv.FormatInt(userID, 10) + "/"
	if !strings.HasPrefix(key, prefix) {
		return false
	}

	rest := key[len(prefix):]
	if rest == "" || strings.Contains(rest, "/") || strings.Contains(rest, "..") {
		return false
	}

	return path.Clean(key) == key
}

func cleanExt(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if len(ext) < 2 || len(ext) > maxExtLength {
		return ""
	}

	for _, c := range ext[1:] {
		if !strings.ContainsRune(Base62Chars, c) {
			return ""
		}
	}

	return ext
}

// UserNickname generates a random nickname with a "User_" prefix and 6 random Base62 characters.
func UserNickname() (string, error) {
	suffix, err := base62(6)
	if err != nil {
		return "", fmt.Errorf("failed to generate nickname: %w", err)
	}

	return "User_" + suffix, nil
}
