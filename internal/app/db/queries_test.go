package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"chatlink/internal/app/model"
)

var testQueries *Queries

func TestMain(m *testing.M) {
	os.Exit(runWithPostgres(m))
}

func runWithPostgres(m *testing.M) int {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("chatlink"),
		postgres.WithUsername("chatlink"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Printf("postgres container unavailable, repository tests will be skipped: %v", err)
		return m.Run()
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("failed to get connection string: %v", err)
		return 1
	}

	var pool *pgxpool.Pool
	pool, err = NewPool(dsn)
	if err != nil {
		log.Printf("failed to open pool: %v", err)
		return 1
	}
	defer pool.Close()

	testQueries = New(pool)
	return m.Run()
}

func requireDB(t *testing.T) *Queries {
	t.Helper()
	if testQueries == nil {
		t.Skip("postgres not available")
	}
	return testQueries
}

var userSeq int

func createUser(t *testing.T, q *Queries) UserRow {
	t.Helper()
	userSeq++

	u, err := q.CreateUser(context.Background(), CreateUserParams{
		Username:     fmt.Sprintf("user_%d_%d", time.Now().UnixNano()%100000, userSeq),
		Name:         "Test",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u
}

func TestCreateUserDuplicate(t *testing.T) {
	q := requireDB(t)
	ctx := context.Background()

	u := createUser(t, q)

	_, err := q.CreateUser(ctx, CreateUserParams{Username: u.Username, Name: "x", PasswordHash: "x"})
	assert.True(t, IsUniqueViolation(err))

	got, err := q.GetUserByLogin(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = q.GetUserByID(ctx, -1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFriendshipSymmetry(t *testing.T) {
	q := requireDB(t)
	ctx := context.Background()

	a := createUser(t, q)
	b := createUser(t, q)

	require.NoError(t, q.FindOrCreateFriendship(ctx, a.ID, b.ID))
	require.NoError(t, q.FindOrCreateFriendship(ctx, b.ID, a.ID))
	require.NoError(t, q.FindOrCreateFriendship(ctx, a.ID, a.ID))

	var count int
	f := model.NewFriendship(a.ID, b.ID)
	require.NoError(t, q.db.QueryRow(ctx,
		`SELECT count(*) FROM friendships WHERE user_low = $1 AND user_high = $2`, f.Low, f.High).Scan(&count))
	assert.Equal(t, 1, count)

	friendsOfA, err := q.FindFriendsOf(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friendsOfA, 1)
	assert.Equal(t, b.ID, friendsOfA[0].ID)

	friendsOfB, err := q.FindFriendsOf(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, friendsOfB, 1)
	assert.Equal(t, a.ID, friendsOfB[0].ID)
}

func TestFriendsIncludeChatPartners(t *testing.T) {
	q := requireDB(t)
	ctx := context.Background()

	a := createUser(t, q)
	b := createUser(t, q)

	require.NoError(t, q.InsertMessage(ctx, &model.Message{SenderID: b.ID, RecipientID: &a.ID, Content: "yo"}))

	friends, err := q.FindFriendsOf(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, b.ID, friends[0].ID)
}

func TestUnreadAndMarkReadIdempotent(t *testing.T) {
	q := requireDB(t)
	ctx := context.Background()

	a := createUser(t, q)
	b := createUser(t, q)

	for i := range 3 {
		msg := &model.Message{SenderID: a.ID, RecipientID: &b.ID, Content: fmt.Sprintf("m%d", i)}
		if i == 1 {
			msg.Attachment = &model.Attachment{Path: fmt.Sprintf("chat/%d/x.png", a.ID), Name: "x.png", Size: 10, MimeType: "image/png"}
		}
		require.NoError(t, q.InsertMessage(ctx, msg))
		assert.NotZero(t, msg.ID)
		assert.False(t, msg.Read)
	}

	unread, err := q.FindUnread(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, unread, 3)
	assert.Equal(t, "m0", unread[0].Content)
	require.NotNil(t, unread[1].Attachment)
	assert.Equal(t, "image/png", unread[1].Attachment.MimeType)
	assert.Nil(t, unread[0].Attachment)

	n, err := q.MarkRead(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = q.MarkRead(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	unread, err = q.FindUnread(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, unread)

	ok, err := q.CanAccessAttachment(ctx, fmt.Sprintf("chat/%d/x.png", a.ID), b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGroupsAndReadMarker(t *testing.T) {
	q := requireDB(t)
	ctx := context.Background()

	owner := createUser(t, q)
	m1 := createUser(t, q)
	outsider := createUser(t, q)

	g, err := q.CreateGroup(ctx, "team", owner.ID, []int64{m1.ID, m1.ID})
	require.NoError(t, err)

	members, err := q.FindGroupMembers(ctx, g.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{owner.ID, m1.ID}, members)

	ok, err := q.IsGroupMember(ctx, g.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	added, err := q.AddGroupMember(ctx, g.ID, outsider.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = q.AddGroupMember(ctx, g.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, added)

	groups, err := q.FindGroupsOf(ctx, outsider.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "team", groups[0].Name)

	later := time.Now().UTC().Truncate(time.Millisecond)
	earlier := later.Add(-time.Hour)
	require.NoError(t, q.MarkGroupRead(ctx, g.ID, m1.ID, later))
	require.NoError(t, q.MarkGroupRead(ctx, g.ID, m1.ID, earlier))

	at, err := q.GroupReadAt(ctx, g.ID, m1.ID)
	require.NoError(t, err)
	assert.True(t, at.Equal(later))

	removed, err := q.RemoveGroupMember(ctx, g.ID, outsider.ID)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestRefreshTokenRotation(t *testing.T) {
	q := requireDB(t)
	ctx := context.Background()

	u := createUser(t, q)
	tokenID := "6f1c2f7e-8a7b-4b61-9d3e-0d2f5c7a1b11"

	require.NoError(t, q.CreateRefreshToken(ctx, u.ID, tokenID, "203.0.113.0", time.Now().Add(time.Hour)))

	tok, err := q.GetRefreshToken(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, tok.IsBlacklisted)

	first, err := q.BlacklistRefreshToken(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := q.BlacklistRefreshToken(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, second)
}
