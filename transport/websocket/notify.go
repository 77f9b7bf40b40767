package websocket

import "log"

// Notifier pushes unsolicited event frames to individual players or to
// everyone. Delivery is at-most-once: an offline recipient is a silent
// no-op, never queued or retried.
type Notifier struct {
	registry *Registry
}

func NewNotifier(registry *Registry) *Notifier {
	return &Notifier{registry: registry}
}

// Notify sends {event, payload} to the player's live session, if any.
func (n *Notifier) Notify(playerID, event string, payload any) {
	s, ok := n.registry.Lookup(playerID)
	if !ok {
		return
	}
	if err := s.Send(event, payload); err != nil {
		log.Printf("[WS] dropping %s push to %s: %v\n", event, playerID, err)
	}
}

// Broadcast sends {event, payload} to a snapshot of every live session.
func (n *Notifier) Broadcast(event string, payload any) {
	for _, s := range n.registry.Sessions() {
		if err := s.Send(event, payload); err != nil {
			log.Printf("[WS] dropping %s broadcast to %s: %v\n", event, s.PlayerID(), err)
		}
	}
}
