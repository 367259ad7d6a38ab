package chat

import (
	"context"
	"time"

	"chatlink/internal/pkg/errs"
)

// replayBacklog sends every unread direct message of userID to s, oldest first, waiting for
// queue room as needed. It stops early only when s closes. A message pushed live while this
// runs can arrive twice; both copies carry the same id.
func (g *Gateway) replayBacklog(ctx context.Context, userID int64, s Session) {
	storeCtx, cancel := g.storeCtx(ctx)
	unread, err := g.store.FindUnread(storeCtx, userID)
	cancel()

	if err != nil {
		g.metrics.storeFailed("FindUnread")
		g.logger.Warn().Err(err).Int64("user_id", userID).Msg("backlog unavailable, replay skipped")
		return
	}

	replayed := 0
	for i := range unread {
		if err := g.sendWait(ctx, s, EventMessageReceived, receivedPayload(&unread[i])); err != nil {
			g.logger.Debug().Err(err).Int64("user_id", userID).Int("replayed", replayed).Int("unread", len(unread)).Msg("backlog replay stopped")
			break
		}
		replayed++
	}

	if replayed > 0 {
		g.metrics.replayed.Add(ctx, int64(replayed))
		g.logger.Debug().Int64("user_id", userID).Int("count", replayed).Msg("backlog replayed")
	}
}

// MarkMessagesRead flags everything peerID sent to selfID as read and sends the peer a
// read receipt. Store failures are logged and swallowed.
func (g *Gateway) MarkMessagesRead(ctx context.Context, selfID, peerID int64) {
	if peerID <= 0 || peerID == selfID {
		return
	}

	storeCtx, cancel := g.storeCtx(ctx)
	n, err := g.store.MarkRead(storeCtx, peerID, selfID)
	cancel()

	if err != nil {
		g.metrics.storeFailed("MarkRead")
		g.logger.Warn().Err(err).Int64("user_id", selfID).Int64("peer_id", peerID).Msg("mark read failed")
		return
	}

	g.logger.Debug().Int64("user_id", selfID).Int64("peer_id", peerID).Int64("flipped", n).Msg("messages marked read")

	g.push(peerID, EventMessagesRead, MessagesReadPayload{From: selfID})
}

// MarkGroupMessagesRead advances the member's read marker and tells the rest of the group channel.
func (g *Gateway) MarkGroupMessagesRead(ctx context.Context, reader Entry, groupID int64) {
	if groupID <= 0 {
		return
	}

	storeCtx, cancel := g.storeCtx(ctx)
	member, err := g.store.IsGroupMember(storeCtx, groupID, reader.UserID)
	cancel()

	if err != nil {
		g.metrics.storeFailed("IsGroupMember")
		g.logger.Warn().Err(err).Int64("user_id", reader.UserID).Int64("group_id", groupID).Msg("membership check failed")
		return
	}
	if !member {
		g.sendError(reader.Session, EventGroupMessageError, errs.NewError(errs.ErrNotGroupMember), "")
		return
	}

	now := time.Now().UTC()

	storeCtx, cancel = g.storeCtx(ctx)
	err = g.store.MarkGroupRead(storeCtx, groupID, reader.UserID, now)
	cancel()

	if err != nil {
		g.metrics.storeFailed("MarkGroupRead")
		g.logger.Warn().Err(err).Int64("user_id", reader.UserID).Int64("group_id", groupID).Msg("group read marker not saved")
		return
	}

	g.channels.Broadcast(GroupChannel(groupID), EventGroupMessagesRead, GroupMessagesReadPayload{
		GroupID: groupID,
		From:    reader.UserID,
		ReadAt:  now,
	}, reader.Session.ID())
}
