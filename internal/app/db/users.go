package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"chatlink/internal/app/user"
)

// UserRow is a full users row, password hash included. Never send it to clients; use ToUser.
type UserRow struct {
	ID           int64
	Username     string
	Email        pgtype.Text
	Name         string
	PasswordHash string
	AvatarKey    string
	Role         string
	CreatedAt    time.Time
}

// ToUser returns the public profile with the avatar left as a storage key.
func (u UserRow) ToUser() user.User {
	return user.User{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Avatar:   u.AvatarKey,
	}
}

const userColumns = `id, username, email, name, password_hash, avatar_key, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (UserRow, error) {
	var u UserRow
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.PasswordHash, &u.AvatarKey, &u.Role, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	Username     string
	Email        pgtype.Text
	Name         string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (UserRow, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (username, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		arg.Username, arg.Email, arg.Name, arg.PasswordHash,
	)

	u, err := scanUser(row)
	return u, wrap(err, "CreateUser")
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (UserRow, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, wrap(err, "GetUserByID")
}

// GetUserByLogin finds a user by username or email.
func (q *Queries) GetUserByLogin(ctx context.Context, login string) (UserRow, error) {
	u, err := scanUser(q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1 LIMIT 1`, login))
	return u, wrap(err, "GetUserByLogin")
}

// SearchUsers matches usernames case-insensitively, excluding the caller.
func (q *Queries) SearchUsers(ctx context.Context, term string, excludeID int64, limit int) ([]user.User, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, username, avatar_key
		FROM users
		WHERE username ILIKE '%' || $1 || '%' AND id <> $2
		ORDER BY username
		LIMIT $3`,
		escapeLike(term), excludeID, limit,
	)
	if err != nil {
		return nil, wrap(err, "SearchUsers")
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Avatar); err != nil {
			return nil, wrap(err, "SearchUsers")
		}
		users = append(users, u)
	}

	return users, wrap(rows.Err(), "SearchUsers")
}

// UpdateAvatar stores key as the user's avatar and returns the key it replaced.
func (q *Queries) UpdateAvatar(ctx context.Context, id int64, key string) (string, error) {
	var old string
	err := q.db.QueryRow(ctx, `
		UPDATE users u SET avatar_key = $2
		FROM (SELECT avatar_key FROM users WHERE id = $1 FOR UPDATE) prev
		WHERE u.id = $1
		RETURNING prev.avatar_key`,
		id, key,
	).Scan(&old)

	return old, wrap(err, "UpdateAvatar")
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
