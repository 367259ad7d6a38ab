package db

import (
	"context"
	"time"

	"chatlink/internal/app/model"
)

func (q *Queries) CreateRefreshToken(ctx context.Context, userID int64, tokenID, ip string, expiresAt time.Time) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_id, ip, expires_at)
		VALUES ($1, $2, $3, $4)`,
		userID, tokenID, ip, expiresAt,
	)
	return wrap(err, "CreateRefreshToken")
}

func (q *Queries) GetRefreshToken(ctx context.Context, tokenID string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := q.db.QueryRow(ctx, `
		SELECT id, user_id, token_id::text, ip, is_blacklisted, expires_at, created_at
		FROM refresh_tokens WHERE token_id = $1`,
		tokenID,
	).Scan(&t.ID, &t.UserID, &t.TokenID, &t.IP, &t.IsBlacklisted, &t.ExpiresAt, &t.CreatedAt)
	return t, wrap(err, "GetRefreshToken")
}

// BlacklistRefreshToken retires a token. It reports false when the token was unknown or
// already blacklisted, so concurrent rotations of one token succeed at most once.
func (q *Queries) BlacklistRefreshToken(ctx context.Context, tokenID string) (bool, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE refresh_tokens SET is_blacklisted = TRUE WHERE token_id = $1 AND is_blacklisted = FALSE`,
		tokenID,
	)
	if err != nil {
		return false, wrap(err, "BlacklistRefreshToken")
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteExpiredRefreshTokens removes tokens past their expiry and returns how many went.
func (q *Queries) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, wrap(err, "DeleteExpiredRefreshTokens")
	}
	return tag.RowsAffected(), nil
}
