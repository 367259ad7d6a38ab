package chat

import (
	"strconv"
	"sync"
)

// GroupChannel names the broadcast channel of a group.
func GroupChannel(groupID int64) string {
	return "group:" + strconv.FormatInt(groupID, 10)
}

// Channels tracks which sessions listen on which broadcast channel. Membership here is
// bookkeeping for broadcasts only; message fan-out always goes through the group roster.
type Channels struct {
	mu        sync.RWMutex
	members   map[string]map[string]Session
	bySession map[string]map[string]struct{}
}

func NewChannels() *Channels {
	return &Channels{
		members:   make(map[string]map[string]Session),
		bySession: make(map[string]map[string]struct{}),
	}
}

func (c *Channels) Join(channel string, s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.members[channel] == nil {
		c.members[channel] = make(map[string]Session)
	}
	c.members[channel][s.ID()] = s

	if c.bySession[s.ID()] == nil {
		c.bySession[s.ID()] = make(map[string]struct{})
	}
	c.bySession[s.ID()][channel] = struct{}{}
}

func (c *Channels) Leave(channel, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked(channel, sessionID)
}

// LeaveAll removes the session from every channel it joined.
func (c *Channels) LeaveAll(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for channel := range c.bySession[sessionID] {
		c.leaveLocked(channel, sessionID)
	}
	delete(c.bySession, sessionID)
}

func (c *Channels) leaveLocked(channel, sessionID string) {
	if members, ok := c.members[channel]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(c.members, channel)
		}
	}
	if joined, ok := c.bySession[sessionID]; ok {
		delete(joined, channel)
		if len(joined) == 0 {
			delete(c.bySession, sessionID)
		}
	}
}

// Broadcast sends event to every session on channel except exceptSessionID and returns
// how many sends were queued.
func (c *Channels) Broadcast(channel, event string, payload any, exceptSessionID string) int {
	c.mu.RLock()
	targets := make([]Session, 0, len(c.members[channel]))
	for id, s := range c.members[channel] {
		if id != exceptSessionID {
			targets = append(targets, s)
		}
	}
	c.mu.RUnlock()

	sent := 0
	for _, s := range targets {
		if err := s.Send(event, payload); err == nil {
			sent++
		}
	}
	return sent
}

// Size returns the number of sessions on channel.
func (c *Channels) Size(channel string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members[channel])
}
