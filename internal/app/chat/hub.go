/*
Package chat contains the live connection layer: the broadcast hub that fans
events out to named groups of connections, and the per-connection sessions
that speak the frame protocol.

This file defines the Hub, a purely transient index from group name to the set
of currently-open send queues. It owns no durable state; rooms and messages
live in persistence, the hub only tracks who is listening right now.
*/
package chat

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/NahidNoorshat/ecommerce-backend/internal/pkg/logx"
)

// SendFunc delivers one serialized event into a connection's outbound queue
// without blocking. It returns false when the queue is full or closed, which
// the hub treats as an implicit disconnect from the group.
type SendFunc func(event []byte) bool

// group is one named broadcast group. Each group carries its own lock so
// fan-out to its members never blocks unrelated groups.
type group struct {
	mu      sync.RWMutex
	members map[string]SendFunc
}

// Hub is the connection registry and group-based publish/subscribe backplane.
//
// It keeps a forward index (group name to members) and a reverse index
// (connection id to joined group names) so Drop is proportional to the groups
// a connection joined, not to all groups. The hub-level lock guards the two
// indexes; per-group locks guard membership and are never held across a send.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]*group
	joined map[string]map[string]struct{}
	logger zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]*group),
		joined: make(map[string]map[string]struct{}),
		logger: logx.Logger().With().Str("component", "BroadcastHub").Logger(),
	}
}

// Join registers the connection's send queue under the named group.
// Joining the same group twice replaces the previous send function.
func (h *Hub) Join(groupName, connectionID string, send SendFunc) {
	h.mu.Lock()
	g, ok := h.groups[groupName]
	if !ok {
		g = &group{members: make(map[string]SendFunc)}
		h.groups[groupName] = g
	}
	if _, ok := h.joined[connectionID]; !ok {
		h.joined[connectionID] = make(map[string]struct{})
	}
	h.joined[connectionID][groupName] = struct{}{}
	h.mu.Unlock()

	g.mu.Lock()
	g.members[connectionID] = send
	g.mu.Unlock()
}

// Leave removes the connection from the named group. Idempotent.
func (h *Hub) Leave(groupName, connectionID string) {
	h.mu.Lock()
	g, ok := h.groups[groupName]
	if ok {
		if set, ok := h.joined[connectionID]; ok {
			delete(set, groupName)
			if len(set) == 0 {
				delete(h.joined, connectionID)
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	g.mu.Lock()
	delete(g.members, connectionID)
	empty := len(g.members) == 0
	g.mu.Unlock()

	if empty {
		h.collectGroup(groupName)
	}
}

// Drop removes the connection from every group it belongs to. Called once on
// disconnect; it is the only guaranteed cleanup path and must be safe to run
// concurrently with an in-flight Publish on the same groups.
func (h *Hub) Drop(connectionID string) {
	h.mu.Lock()
	set := h.joined[connectionID]
	delete(h.joined, connectionID)
	groups := make([]*group, 0, len(set))
	names := make([]string, 0, len(set))
	for name := range set {
		if g, ok := h.groups[name]; ok {
			groups = append(groups, g)
			names = append(names, name)
		}
	}
	h.mu.Unlock()

	for i, g := range groups {
		g.mu.Lock()
		delete(g.members, connectionID)
		empty := len(g.members) == 0
		g.mu.Unlock()

		if empty {
			h.collectGroup(names[i])
		}
	}
}

// Publish serializes the event and delivers it to every member of the group.
// Delivery to each member is independent: a member whose queue is full or
// closed is dropped from the group instead of blocking or failing the others.
// Publishing to a non-existent group is a no-op. Returns the number of
// members the event was queued for.
func (h *Hub) Publish(groupName string, event any) int {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("group", groupName).Msg("Error marshaling event for publish.")
		return 0
	}

	h.mu.RLock()
	g, ok := h.groups[groupName]
	h.mu.RUnlock()

	if !ok {
		return 0
	}

	// Snapshot members so sends happen outside the group lock.
	g.mu.RLock()
	type member struct {
		key  string
		send SendFunc
	}
	members := make([]member, 0, len(g.members))
	for key, send := range g.members {
		members = append(members, member{key: key, send: send})
	}
	g.mu.RUnlock()

	delivered := 0
	var stale []string
	for _, m := range members {
		if m.send(payload) {
			delivered++
		} else {
			stale = append(stale, m.key)
		}
	}

	if len(stale) > 0 {
		g.mu.Lock()
		for _, key := range stale {
			delete(g.members, key)
		}
		empty := len(g.members) == 0
		g.mu.Unlock()

		// Keep the reverse index in step with the forward one, exactly as
		// Leave would, so the entries do not wait for the connection's Drop.
		h.mu.Lock()
		for _, key := range stale {
			if set, ok := h.joined[key]; ok {
				delete(set, groupName)
				if len(set) == 0 {
					delete(h.joined, key)
				}
			}
		}
		h.mu.Unlock()

		if empty {
			h.collectGroup(groupName)
		}

		h.logger.Warn().
			Str("group", groupName).
			Int("dropped", len(stale)).
			Msg("Dropped unresponsive members from group.")
	}

	return delivered
}

// MemberCount returns the current membership size of a group.
func (h *Hub) MemberCount(groupName string) int {
	h.mu.RLock()
	g, ok := h.groups[groupName]
	h.mu.RUnlock()

	if !ok {
		return 0
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// collectGroup deletes a group that has become empty. Rechecks emptiness
// under the hub lock since a Join may have raced the removal.
func (h *Hub) collectGroup(groupName string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[groupName]
	if !ok {
		return
	}

	g.mu.RLock()
	empty := len(g.members) == 0
	g.mu.RUnlock()

	if empty {
		delete(h.groups, groupName)
	}
}
