package db

import (
	"context"

	"chatlink/internal/app/model"
)

// CreateGroup inserts the group and its initial roster in one statement. The owner is
// always a member; duplicate ids in memberIDs are ignored.
func (q *Queries) CreateGroup(ctx context.Context, name string, ownerID int64, memberIDs []int64) (model.Group, error) {
	ids := append([]int64{ownerID}, memberIDs...)

	var g model.Group
	err := q.db.QueryRow(ctx, `
		WITH g AS (
			INSERT INTO groups (name, owner_id) VALUES ($1, $2)
			RETURNING id, name, owner_id, created_at
		), m AS (
			INSERT INTO group_users (group_id, user_id)
			SELECT g.id, u FROM g, (SELECT DISTINCT unnest($3::bigint[]) AS u) ids
			ON CONFLICT DO NOTHING
		)
		SELECT id, name, owner_id, created_at FROM g`,
		name, ownerID, ids,
	).Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt)

	return g, wrap(err, "CreateGroup")
}

func (q *Queries) GetGroup(ctx context.Context, groupID int64) (model.Group, error) {
	var g model.Group
	err := q.db.QueryRow(ctx,
		`SELECT id, name, owner_id, created_at FROM groups WHERE id = $1`, groupID,
	).Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt)
	return g, wrap(err, "GetGroup")
}

// FindGroupsOf lists the groups userID belongs to.
func (q *Queries) FindGroupsOf(ctx context.Context, userID int64) ([]model.Group, error) {
	rows, err := q.db.Query(ctx, `
		SELECT g.id, g.name, g.owner_id, g.created_at
		FROM groups g
		JOIN group_users gu ON gu.group_id = g.id
		WHERE gu.user_id = $1
		ORDER BY g.id`,
		userID,
	)
	if err != nil {
		return nil, wrap(err, "FindGroupsOf")
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt); err != nil {
			return nil, wrap(err, "FindGroupsOf")
		}
		groups = append(groups, g)
	}

	return groups, wrap(rows.Err(), "FindGroupsOf")
}

// FindGroupMembers returns the ids on the group's roster.
func (q *Queries) FindGroupMembers(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := q.db.Query(ctx,
		`SELECT user_id FROM group_users WHERE group_id = $1 ORDER BY user_id`, groupID)
	if err != nil {
		return nil, wrap(err, "FindGroupMembers")
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrap(err, "FindGroupMembers")
		}
		ids = append(ids, id)
	}

	return ids, wrap(rows.Err(), "FindGroupMembers")
}

// ListGroupMembers returns the roster joined with public profile fields.
func (q *Queries) ListGroupMembers(ctx context.Context, groupID int64) ([]model.GroupMember, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.name, u.username, gu.joined_at
		FROM group_users gu
		JOIN users u ON u.id = gu.user_id
		WHERE gu.group_id = $1
		ORDER BY gu.joined_at, u.id`,
		groupID,
	)
	if err != nil {
		return nil, wrap(err, "ListGroupMembers")
	}
	defer rows.Close()

	members := []model.GroupMember{}
	for rows.Next() {
		var m model.GroupMember
		if err := rows.Scan(&m.UserID, &m.Name, &m.Username, &m.JoinedAt); err != nil {
			return nil, wrap(err, "ListGroupMembers")
		}
		members = append(members, m)
	}

	return members, wrap(rows.Err(), "ListGroupMembers")
}

func (q *Queries) IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var ok bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_users WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID,
	).Scan(&ok)
	return ok, wrap(err, "IsGroupMember")
}

// AddGroupMember adds userID to the roster. It reports false when already a member.
func (q *Queries) AddGroupMember(ctx context.Context, groupID, userID int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		INSERT INTO group_users (group_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		groupID, userID,
	)
	if err != nil {
		return false, wrap(err, "AddGroupMember")
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveGroupMember drops userID from the roster and its read marker with it.
func (q *Queries) RemoveGroupMember(ctx context.Context, groupID, userID int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		WITH r AS (DELETE FROM group_reads WHERE group_id = $1 AND user_id = $2)
		DELETE FROM group_users WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return false, wrap(err, "RemoveGroupMember")
	}
	return tag.RowsAffected() == 1, nil
}
