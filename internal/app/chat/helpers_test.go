package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatlink/internal/app/model"
	"chatlink/internal/app/user"
)

type recorded struct {
	Event   string
	Payload any
}

// fakeSession records everything sent to it.
type fakeSession struct {
	id string

	mu        sync.Mutex
	events    []recorded
	closed    bool
	closeCode int
}

var sessionSeq struct {
	sync.Mutex
	n int
}

func newFakeSession() *fakeSession {
	sessionSeq.Lock()
	defer sessionSeq.Unlock()
	sessionSeq.n++
	return &fakeSession{id: fmt.Sprintf("s-%d", sessionSeq.n)}
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClientClosed
	}
	s.events = append(s.events, recorded{Event: event, Payload: payload})
	return nil
}

func (s *fakeSession) Close(code int, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.closeCode = code
	}
}

func (s *fakeSession) of(event string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []any
	for _, e := range s.events {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

func (s *fakeSession) count(event string) int {
	return len(s.of(event))
}

func (s *fakeSession) isClosed() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed, s.closeCode
}

// memStore is an in-memory Store. failOn makes the named operation return errStorage.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]user.User
	messages    []model.Message
	friendships map[model.Friendship]struct{}
	groups      map[int64][]int64
	groupReads  map[[2]int64]time.Time
	failOn      map[string]bool
}

var errStorage = errors.New("storage unavailable")

func newMemStore(userIDs ...int64) *memStore {
	s := &memStore{
		users:       make(map[int64]user.User),
		friendships: make(map[model.Friendship]struct{}),
		groups:      make(map[int64][]int64),
		groupReads:  make(map[[2]int64]time.Time),
		failOn:      make(map[string]bool),
	}
	for _, id := range userIDs {
		s.users[id] = user.User{ID: id, Name: fmt.Sprintf("User %d", id), Username: fmt.Sprintf("user%d", id)}
	}
	return s
}

func (s *memStore) fail(op string) error {
	if s.failOn[op] {
		return errStorage
	}
	return nil
}

func (s *memStore) InsertMessage(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertMessage"); err != nil {
		return err
	}
	s.nextID++
	msg.ID = s.nextID
	msg.Read = false
	msg.CreatedAt = time.Unix(1700000000+s.nextID, 0).UTC()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *memStore) FindUnread(_ context.Context, userID int64) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindUnread"); err != nil {
		return nil, err
	}
	var out []model.Message
	for _, m := range s.messages {
		if m.RecipientID != nil && *m.RecipientID == userID && !m.Read {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) MarkRead(_ context.Context, peerID, selfID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("MarkRead"); err != nil {
		return 0, err
	}
	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.SenderID == peerID && m.RecipientID != nil && *m.RecipientID == selfID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) FindOrCreateFriendship(_ context.Context, a, b int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindOrCreateFriendship"); err != nil {
		return err
	}
	if a != b {
		s.friendships[model.NewFriendship(a, b)] = struct{}{}
	}
	return nil
}

func (s *memStore) FindFriendsOf(_ context.Context, userID int64) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindFriendsOf"); err != nil {
		return nil, err
	}
	ids := map[int64]struct{}{}
	for f := range s.friendships {
		if f.Low == userID {
			ids[f.High] = struct{}{}
		} else if f.High == userID {
			ids[f.Low] = struct{}{}
		}
	}
	var out []user.User
	for id := range ids {
		out = append(out, s.users[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) FindGroupsOf(_ context.Context, userID int64) ([]model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindGroupsOf"); err != nil {
		return nil, err
	}
	var out []model.Group
	for gid, members := range s.groups {
		for _, m := range members {
			if m == userID {
				out = append(out, model.Group{ID: gid, Name: fmt.Sprintf("group %d", gid)})
			}
		}
	}
	return out, nil
}

func (s *memStore) FindGroupMembers(_ context.Context, groupID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("FindGroupMembers"); err != nil {
		return nil, err
	}
	return append([]int64(nil), s.groups[groupID]...), nil
}

func (s *memStore) IsGroupMember(_ context.Context, groupID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("IsGroupMember"); err != nil {
		return false, err
	}
	for _, m := range s.groups[groupID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) MarkGroupRead(_ context.Context, groupID, userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("MarkGroupRead"); err != nil {
		return err
	}
	key := [2]int64{groupID, userID}
	if prev, ok := s.groupReads[key]; !ok || at.After(prev) {
		s.groupReads[key] = at
	}
	return nil
}

func (s *memStore) befriend(a, b int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friendships[model.NewFriendship(a, b)] = struct{}{}
}

func (s *memStore) addGroup(groupID int64, members ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[groupID] = members
}

func (s *memStore) snapshot() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages...)
}

// staticAuth accepts "token-<id>" for any positive id.
type staticAuth struct{}

func (staticAuth) VerifyToken(token string) (user.Identity, error) {
	var id int64
	if _, err := fmt.Sscanf(token, "token-%d", &id); err != nil || id <= 0 {
		return user.Identity{}, errors.New("bad token")
	}
	return user.Identity{ID: id, Username: fmt.Sprintf("user%d", id), Role: user.RoleUser}, nil
}

type published struct {
	UserID  int64
	Event   string
	Payload any
}

type fakeRelay struct {
	mu   sync.Mutex
	sent []published
}

func (r *fakeRelay) Publish(userID int64, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, published{UserID: userID, Event: event, Payload: payload})
	return nil
}

func newTestGateway(store Store, opts ...Option) *Gateway {
	return NewGateway(store, staticAuth{}, opts...)
}

// connect authenticates and connects a new fake session for userID.
func connect(t *testing.T, g *Gateway, userID int64) *fakeSession {
	t.Helper()
	identity, err := g.Authenticate(fmt.Sprintf("token-%d", userID))
	require.NoError(t, err)

	s := newFakeSession()
	g.Connect(context.Background(), identity, s)
	return s
}

func entryOf(t *testing.T, g *Gateway, s Session) Entry {
	t.Helper()
	e, ok := g.registry.Entry(s.ID())
	require.True(t, ok)
	return e
}
