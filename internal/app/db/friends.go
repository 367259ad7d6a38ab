package db

import (
	"context"

	"chatlink/internal/app/model"
	"chatlink/internal/app/user"
)

// FindOrCreateFriendship inserts the canonical pair for a and b unless it already exists.
// Self pairs are ignored.
func (q *Queries) FindOrCreateFriendship(ctx context.Context, a, b int64) error {
	if a == b {
		return nil
	}

	f := model.NewFriendship(a, b)
	_, err := q.db.Exec(ctx, `
		INSERT INTO friendships (user_low, user_high)
		VALUES ($1, $2)
		ON CONFLICT (user_low, user_high) DO NOTHING`,
		f.Low, f.High,
	)
	return wrap(err, "FindOrCreateFriendship")
}

// FindFriendsOf returns every user paired with userID in friendships or seen on the other side
// of a direct message, each once.
func (q *Queries) FindFriendsOf(ctx context.Context, userID int64) ([]user.User, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.name, u.username, u.avatar_key
		FROM users u
		WHERE u.id <> $1 AND u.id IN (
			SELECT CASE WHEN user_low = $1 THEN user_high ELSE user_low END
			FROM friendships WHERE user_low = $1 OR user_high = $1
			UNION
			SELECT to_id FROM chats WHERE from_id = $1 AND to_id IS NOT NULL
			UNION
			SELECT from_id FROM chats WHERE to_id = $1
		)
		ORDER BY u.username`,
		userID,
	)
	if err != nil {
		return nil, wrap(err, "FindFriendsOf")
	}
	defer rows.Close()

	friends := []user.User{}
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Avatar); err != nil {
			return nil, wrap(err, "FindFriendsOf")
		}
		friends = append(friends, u)
	}

	return friends, wrap(rows.Err(), "FindFriendsOf")
}
