package chat

import (
	"context"
	"time"
)

// announceArrival tells online friends that userID came online, joins the session to its
// group channels and sends the user a snapshot of which friends are online right now.
func (g *Gateway) announceArrival(ctx context.Context, userID int64, s Session) {
	storeCtx, cancel := g.storeCtx(ctx)
	friends, err := g.store.FindFriendsOf(storeCtx, userID)
	cancel()

	if err != nil {
		g.metrics.storeFailed("FindFriendsOf")
		g.logger.Warn().Err(err).Int64("user_id", userID).Msg("friend list unavailable, presence not announced")
	}

	now := time.Now().UnixMilli()
	snapshot := make([]FriendStatus, 0, len(friends))

	for _, f := range friends {
		peer, online := g.registry.Lookup(f.ID)
		if online {
			g.send(peer, EventPresenceChanged, PresencePayload{UserID: userID, IsOnline: true, Timestamp: now})
		}

		snapshot = append(snapshot, FriendStatus{
			ID:       f.ID,
			Name:     f.Name,
			Username: f.Username,
			IsOnline: online,
		})
	}

	storeCtx, cancel = g.storeCtx(ctx)
	groups, err := g.store.FindGroupsOf(storeCtx, userID)
	cancel()

	if err != nil {
		g.metrics.storeFailed("FindGroupsOf")
		g.logger.Warn().Err(err).Int64("user_id", userID).Msg("group list unavailable, channels not joined")
	}

	for _, grp := range groups {
		g.channels.Join(GroupChannel(grp.ID), s)
	}

	g.send(s, EventInitialFriendsStatus, FriendsStatusPayload{Friends: snapshot})
}

// announceDeparture tells online friends that userID went offline. Failures are logged only.
func (g *Gateway) announceDeparture(ctx context.Context, userID int64) {
	storeCtx, cancel := g.storeCtx(ctx)
	defer cancel()

	friends, err := g.store.FindFriendsOf(storeCtx, userID)
	if err != nil {
		g.metrics.storeFailed("FindFriendsOf")
		g.logger.Warn().Err(err).Int64("user_id", userID).Msg("friend list unavailable, departure not announced")
		return
	}

	// A newer device may have connected while the friend list loaded.
	if g.registry.IsOnline(userID) {
		g.logger.Debug().Int64("user_id", userID).Msg("user back online, departure not announced")
		return
	}

	now := time.Now().UnixMilli()
	for _, f := range friends {
		if peer, ok := g.registry.Lookup(f.ID); ok {
			g.send(peer, EventPresenceChanged, PresencePayload{UserID: userID, IsOnline: false, Timestamp: now})
		}
	}
}
