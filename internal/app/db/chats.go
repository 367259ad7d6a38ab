package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"chatlink/internal/app/model"
)

const messageColumns = `id, from_id, to_id, group_id, content, read, file_path, file_name, file_size, mime_type, created_at`

func scanMessage(row interface{ Scan(...any) error }) (model.Message, error) {
	var (
		m        model.Message
		path     pgtype.Text
		name     pgtype.Text
		size     pgtype.Int8
		mimeType pgtype.Text
	)

	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.GroupID, &m.Content, &m.Read,
		&path, &name, &size, &mimeType, &m.CreatedAt)
	if err != nil {
		return m, err
	}

	if path.Valid {
		m.Attachment = &model.Attachment{
			Path:     path.String,
			Name:     name.String,
			Size:     size.Int64,
			MimeType: mimeType.String,
		}
	}

	return m, nil
}

func (q *Queries) listMessages(ctx context.Context, op, query string, args ...any) ([]model.Message, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, op)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, wrap(err, op)
		}
		messages = append(messages, m)
	}

	return messages, wrap(rows.Err(), op)
}

// InsertMessage persists msg and fills in its ID, Read and CreatedAt.
func (q *Queries) InsertMessage(ctx context.Context, msg *model.Message) error {
	var path, name, mimeType pgtype.Text
	var size pgtype.Int8
	if a := msg.Attachment; a != nil {
		path = pgtype.Text{String: a.Path, Valid: true}
		name = pgtype.Text{String: a.Name, Valid: true}
		size = pgtype.Int8{Int64: a.Size, Valid: true}
		mimeType = pgtype.Text{String: a.MimeType, Valid: true}
	}

	err := q.db.QueryRow(ctx, `
		INSERT INTO chats (from_id, to_id, group_id, content, file_path, file_name, file_size, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, read, created_at`,
		msg.SenderID, msg.RecipientID, msg.GroupID, msg.Content, path, name, size, mimeType,
	).Scan(&msg.ID, &msg.Read, &msg.CreatedAt)

	return wrap(err, "InsertMessage")
}

// FindUnread returns the unread direct messages addressed to userID, oldest first.
func (q *Queries) FindUnread(ctx context.Context, userID int64) ([]model.Message, error) {
	return q.listMessages(ctx, "FindUnread", `
		SELECT `+messageColumns+`
		FROM chats
		WHERE to_id = $1 AND read = FALSE
		ORDER BY created_at, id`,
		userID,
	)
}

// MarkRead flags every message from peerID to selfID as read and returns how many flipped.
func (q *Queries) MarkRead(ctx context.Context, peerID, selfID int64) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`UPDATE chats SET read = TRUE WHERE from_id = $1 AND to_id = $2 AND read = FALSE`,
		peerID, selfID,
	)
	if err != nil {
		return 0, wrap(err, "MarkRead")
	}
	return tag.RowsAffected(), nil
}

// MarkGroupRead moves the member's read marker forward to at. It never moves backwards.
func (q *Queries) MarkGroupRead(ctx context.Context, groupID, userID int64, at time.Time) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO group_reads (group_id, user_id, last_read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id)
		DO UPDATE SET last_read_at = GREATEST(group_reads.last_read_at, EXCLUDED.last_read_at)`,
		groupID, userID, at,
	)
	return wrap(err, "MarkGroupRead")
}

func (q *Queries) GroupReadAt(ctx context.Context, groupID, userID int64) (time.Time, error) {
	var at time.Time
	err := q.db.QueryRow(ctx,
		`SELECT last_read_at FROM group_reads WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	).Scan(&at)
	return at, wrap(err, "GroupReadAt")
}

// ListConversation pages the direct messages between a and b, newest first.
func (q *Queries) ListConversation(ctx context.Context, a, b int64, limit, offset int) ([]model.Message, error) {
	return q.listMessages(ctx, "ListConversation", `
		SELECT `+messageColumns+`
		FROM chats
		WHERE (from_id = $1 AND to_id = $2) OR (from_id = $2 AND to_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		a, b, limit, offset,
	)
}

// ListGroupMessages pages a group's messages, newest first.
func (q *Queries) ListGroupMessages(ctx context.Context, groupID int64, limit, offset int) ([]model.Message, error) {
	return q.listMessages(ctx, "ListGroupMessages", `
		SELECT `+messageColumns+`
		FROM chats
		WHERE group_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		groupID, limit, offset,
	)
}

// CanAccessAttachment reports whether userID took part in a message that references key,
// as sender, direct recipient or member of the target group.
func (q *Queries) CanAccessAttachment(ctx context.Context, key string, userID int64) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chats c
			WHERE c.file_path = $1
			  AND (c.from_id = $2 OR c.to_id = $2
			       OR EXISTS (SELECT 1 FROM group_users gu WHERE gu.group_id = c.group_id AND gu.user_id = $2))
		)`,
		key, userID,
	).Scan(&ok)
	return ok, wrap(err, "CanAccessAttachment")
}
