package chat

// RelayTyping forwards a typing signal from one user to another if the recipient is
// reachable. Signals are never stored and never retried.
func (g *Gateway) RelayTyping(from, to int64, started bool) {
	if to <= 0 || to == from {
		return
	}

	event := EventTypingStopped
	if started {
		event = EventTypingStarted
	}

	g.push(to, event, TypingSignalPayload{From: from})
}
