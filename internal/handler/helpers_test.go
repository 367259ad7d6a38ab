package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"chatlink/internal/app/chat"
	"chatlink/internal/app/db"
	"chatlink/internal/app/model"
	"chatlink/internal/app/storage"
	"chatlink/internal/app/user"
	"chatlink/internal/configs"
	"chatlink/internal/pkg/auth/jwt"
)

const (
	testAccessSecret  = "test_access_secret"
	testRefreshSecret = "test_refresh_secret"
)

// fakeRepo backs both the HTTP handlers and the gateway in memory.
type fakeRepo struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]db.UserRow
	tokens   map[string]model.RefreshToken
	groups   map[int64]model.Group
	members  map[int64][]int64
	friends  map[int64][]int64
	messages []model.Message

	// shared lists attachment keys a user may download without having uploaded them.
	shared map[string][]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   make(map[int64]db.UserRow),
		tokens:  make(map[string]model.RefreshToken),
		groups:  make(map[int64]model.Group),
		members: make(map[int64][]int64),
		friends: make(map[int64][]int64),
		shared:  make(map[string][]int64),
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) addUser(username string) db.UserRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := db.UserRow{ID: f.id(), Username: username, Name: strings.ToUpper(username), Role: user.RoleUser, CreatedAt: time.Now()}
	f.users[row.ID] = row
	return row
}

func (f *fakeRepo) CreateUser(_ context.Context, arg db.CreateUserParams) (db.UserRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == arg.Username || (arg.Email.Valid && u.Email.String == arg.Email.String) {
			return db.UserRow{}, &pgconn.PgError{Code: "23505"}
		}
	}
	row := db.UserRow{
		ID:           f.id(),
		Username:     arg.Username,
		Email:        arg.Email,
		Name:         arg.Name,
		PasswordHash: arg.PasswordHash,
		Role:         user.RoleUser,
		CreatedAt:    time.Now(),
	}
	f.users[row.ID] = row
	return row, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, id int64) (db.UserRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return db.UserRow{}, db.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) GetUserByLogin(_ context.Context, login string) (db.UserRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == login || (u.Email.Valid && u.Email.String == login) {
			return u, nil
		}
	}
	return db.UserRow{}, db.ErrNotFound
}

func (f *fakeRepo) SearchUsers(_ context.Context, term string, excludeID int64, limit int) ([]user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []user.User
	for _, u := range f.users {
		if u.ID != excludeID && strings.Contains(u.Username, strings.ToLower(term)) && len(out) < limit {
			out = append(out, u.ToUser())
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateAvatar(_ context.Context, id int64, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return "", db.ErrNotFound
	}
	old := u.AvatarKey
	u.AvatarKey = key
	f.users[id] = u
	return old, nil
}

func (f *fakeRepo) CreateRefreshToken(_ context.Context, userID int64, tokenID, ip string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tokenID] = model.RefreshToken{ID: f.id(), UserID: userID, TokenID: tokenID, IP: ip, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	return nil
}

func (f *fakeRepo) GetRefreshToken(_ context.Context, tokenID string) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[tokenID]
	if !ok {
		return model.RefreshToken{}, db.ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) BlacklistRefreshToken(_ context.Context, tokenID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[tokenID]
	if !ok || t.IsBlacklisted {
		return false, nil
	}
	t.IsBlacklisted = true
	f.tokens[tokenID] = t
	return true, nil
}

func (f *fakeRepo) FindFriendsOf(_ context.Context, userID int64) ([]user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []user.User
	for _, id := range f.friends[userID] {
		out = append(out, f.users[id].ToUser())
	}
	return out, nil
}

// addUnread stores n unread direct messages from one user to another.
func (f *fakeRepo) addUnread(from, to int64, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		recipient := to
		f.messages = append(f.messages, model.Message{
			ID:          f.id(),
			SenderID:    from,
			RecipientID: &recipient,
			Content:     "while you were away",
			CreatedAt:   time.Now().UTC(),
		})
	}
}

func (f *fakeRepo) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeRepo) befriend(a, b int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friends[a] = append(f.friends[a], b)
	f.friends[b] = append(f.friends[b], a)
}

func (f *fakeRepo) ListConversation(_ context.Context, a, b int64, limit, offset int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for i := len(f.messages) - 1; i >= 0; i-- {
		m := f.messages[i]
		if m.RecipientID == nil {
			continue
		}
		if (m.SenderID == a && *m.RecipientID == b) || (m.SenderID == b && *m.RecipientID == a) {
			out = append(out, m)
		}
	}
	return page(out, limit, offset), nil
}

func (f *fakeRepo) CanAccessAttachment(_ context.Context, key string, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.shared[key] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CreateGroup(_ context.Context, name string, ownerID int64, memberIDs []int64) (model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range memberIDs {
		if _, ok := f.users[id]; !ok {
			return model.Group{}, &pgconn.PgError{Code: "23503"}
		}
	}
	g := model.Group{ID: f.id(), Name: name, OwnerID: ownerID, CreatedAt: time.Now()}
	f.groups[g.ID] = g
	f.members[g.ID] = append([]int64{ownerID}, memberIDs...)
	return g, nil
}

func (f *fakeRepo) GetGroup(_ context.Context, groupID int64) (model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[groupID]
	if !ok {
		return model.Group{}, db.ErrNotFound
	}
	return g, nil
}

func (f *fakeRepo) FindGroupsOf(_ context.Context, userID int64) ([]model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Group
	for gid, ids := range f.members {
		for _, id := range ids {
			if id == userID {
				out = append(out, f.groups[gid])
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) ListGroupMembers(_ context.Context, groupID int64) ([]model.GroupMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.GroupMember
	for _, id := range f.members[groupID] {
		u := f.users[id]
		out = append(out, model.GroupMember{UserID: id, Name: u.Name, Username: u.Username})
	}
	return out, nil
}

func (f *fakeRepo) FindGroupMembers(_ context.Context, groupID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.members[groupID]...), nil
}

func (f *fakeRepo) IsGroupMember(_ context.Context, groupID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.members[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) AddGroupMember(ctx context.Context, groupID, userID int64) (bool, error) {
	if ok, _ := f.IsGroupMember(ctx, groupID, userID); ok {
		return false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return false, &pgconn.PgError{Code: "23503"}
	}
	f.members[groupID] = append(f.members[groupID], userID)
	return true, nil
}

func (f *fakeRepo) RemoveGroupMember(_ context.Context, groupID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.members[groupID]
	for i, id := range ids {
		if id == userID {
			f.members[groupID] = append(ids[:i:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListGroupMessages(_ context.Context, groupID int64, limit, offset int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for i := len(f.messages) - 1; i >= 0; i-- {
		if m := f.messages[i]; m.GroupID != nil && *m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return page(out, limit, offset), nil
}

func (f *fakeRepo) InsertMessage(_ context.Context, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = f.id()
	msg.CreatedAt = time.Now().UTC()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeRepo) FindUnread(_ context.Context, userID int64) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, m := range f.messages {
		if m.RecipientID != nil && *m.RecipientID == userID && !m.Read {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkRead(_ context.Context, peerID, selfID int64) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) FindOrCreateFriendship(_ context.Context, a, b int64) error {
	return nil
}

func (f *fakeRepo) MarkGroupRead(_ context.Context, groupID, userID int64, at time.Time) error {
	return nil
}

func page(ms []model.Message, limit, offset int) []model.Message {
	if offset >= len(ms) {
		return nil
	}
	ms = ms[offset:]
	if len(ms) > limit {
		ms = ms[:limit]
	}
	return ms
}

var _ chat.Store = (*fakeRepo)(nil)

// fakeStorage records uploads and deletions.
type fakeStorage struct {
	mu      sync.Mutex
	uploads map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (s *fakeStorage) PresignUpload(_ context.Context, key, _ string, _ int64, _ time.Duration) (string, error) {
	return "https://objects.test/upload/" + key, nil
}

func (s *fakeStorage) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/download/" + key, nil
}

func (s *fakeStorage) Upload(_ context.Context, key, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[key] = data
	return nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.uploads[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Size: int64(len(data))}, nil
}

func (s *fakeStorage) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return "https://cdn.test/" + key
}

type testEnv struct {
	repo    *fakeRepo
	storage *fakeStorage
	gateway *chat.Gateway
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeRepo()
	objects := newFakeStorage()
	gateway := chat.NewGateway(repo, jwt.NewVerifier(testAccessSecret))

	deps := &AppDeps{
		Gateway: gateway,
		Config: &configs.AppConfig{
			Environment:      "development",
			JWTSecret:        testAccessSecret,
			JWTRefreshSecret: testRefreshSecret,
		},
		StorageService: objects,
		DB:             repo,
	}

	h, stop := Router(deps)
	t.Cleanup(stop)

	return &testEnv{repo: repo, storage: objects, gateway: gateway, handler: h}
}

func accessToken(t *testing.T, row db.UserRow) string {
	t.Helper()
	token, err := jwt.GenerateToken(&jwt.Payload{ID: row.ID, Username: row.Username, Role: row.Role, Kind: jwt.KindAccess},
		testAccessSecret, time.Hour)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends a request through the router. body, when non-nil, is sent as JSON.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}
