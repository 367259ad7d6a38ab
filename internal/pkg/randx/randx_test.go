package randx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatObjectKey(t *testing.T) {
	key := ChatObjectKey(42, "Holiday Photo.JPG")

	assert.True(t, strings.HasPrefix(key, "chat/42/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.True(t, OwnsChatKey(42, key))
	assert.False(t, OwnsChatKey(7, key))
}

func TestChatObjectKeyDropsOddExtensions(t *testing.T) {
	assert.False(t, strings.Contains(ChatObjectKey(1, "x.p$p"), "$"))
	assert.NotContains(t, ChatObjectKey(1, "noext"), ".")
}

func TestOwnsChatKey(t *testing.T) {
	tests := map[string]bool{
		"chat/5/abc.png":      true,
		"chat/5/":             false,
		"chat/5/../6/abc.png": false,
		"chat/5/sub/abc.png":  false,
		"chat/55/abc.png":     false,
		"avatars/5/abc.png":   false,
		"/chat/5/abc.png":     false,
		"chat/5/abc..png":     false,
	}

	for key, want := range tests {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, want, OwnsChatKey(5, key))
		})
	}
}

func TestUserNickname(t *testing.T) {
	name, err := UserNickname()
	require.NoError(t, err)

	assert.Len(t, name, len("User_")+6)
	assert.True(t, strings.HasPrefix(name, "User_"))
}
