package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Room is an ephemeral group of player ids used for trade fan-out.
type Room struct {
	ID        string    `json:"room_id"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// Rooms is the room table. A player belongs to at most one room at a
// time and an empty room is deleted immediately. All mutation is
// serialized behind one mutex; expected volume is a handful of rooms.
type Rooms struct {
	mu         sync.Mutex
	capacity   int
	rooms      map[string]*Room
	memberRoom map[string]string
}

func NewRooms(capacity int) *Rooms {
	if capacity <= 0 {
		capacity = 4
	}
	return &Rooms{
		capacity:   capacity,
		rooms:      make(map[string]*Room),
		memberRoom: make(map[string]string),
	}
}

// Create makes a fresh room containing just the creator. If the creator
// was already in a room they leave it first; the snapshot of that room
// after their departure is returned so the caller can notify the
// remainder (nil when there was no prior room or it emptied out).
func (t *Rooms) Create(playerID string) (created, left *Room) {
	t.mu.Lock()
	defer t.mu.Unlock()

	left = t.removeLocked(playerID)

	room := &Room{
		ID:        uuid.New().String(),
		Members:   []string{playerID},
		CreatedAt: time.Now(),
	}
	t.rooms[room.ID] = room
	t.memberRoom[playerID] = room.ID
	return snapshot(room), left
}

// Join appends the player to a room. ok is false when the room does not
// exist or is at capacity; the two cases are indistinguishable to the
// caller. On success the joined snapshot includes the new member; left
// carries the player's previous room, as in Create.
func (t *Rooms) Join(playerID, roomID string) (joined, left *Room, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, exists := t.rooms[roomID]
	if !exists || len(room.Members) >= t.capacity {
		return nil, nil, false
	}
	// Joining the room you are already in is a no-op success.
	if t.memberRoom[playerID] == roomID {
		return snapshot(room), nil, true
	}

	left = t.removeLocked(playerID)

	// The player's own departure may have emptied and deleted the target
	// room's sibling, never the target itself.
	room.Members = append(room.Members, playerID)
	t.memberRoom[playerID] = roomID
	return snapshot(room), left, true
}

// Leave removes the player from their room. ok is false when the player
// was not in any room (a no-op, not an error). remaining is the room
// snapshot after removal, nil when the room emptied and was deleted.
func (t *Rooms) Leave(playerID string) (remaining *Room, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, in := t.memberRoom[playerID]; !in {
		return nil, false
	}
	return t.removeLocked(playerID), true
}

// Get returns a snapshot of one room.
func (t *Rooms) Get(roomID string) (*Room, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	room, ok := t.rooms[roomID]
	if !ok {
		return nil, false
	}
	return snapshot(room), true
}

// List returns a snapshot of every live room.
func (t *Rooms) List() []*Room {
	t.mu.Lock()
	defer t.mu.Unlock()
	rooms := make([]*Room, 0, len(t.rooms))
	for _, room := range t.rooms {
		rooms = append(rooms, snapshot(room))
	}
	return rooms
}

func (t *Rooms) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rooms)
}

// removeLocked takes the player out of whatever room they are in and
// returns the post-removal snapshot (nil if none, or if the room emptied
// and was deleted). Caller holds the lock.
func (t *Rooms) removeLocked(playerID string) *Room {
	roomID, in := t.memberRoom[playerID]
	if !in {
		return nil
	}
	delete(t.memberRoom, playerID)

	room := t.rooms[roomID]
	for i, id := range room.Members {
		if id == playerID {
			room.Members = append(room.Members[:i], room.Members[i+1:]...)
			break
		}
	}
	if len(room.Members) == 0 {
		delete(t.rooms, roomID)
		return nil
	}
	return snapshot(room)
}

func snapshot(room *Room) *Room {
	cp := &Room{
		ID:        room.ID,
		Members:   make([]string, len(room.Members)),
		CreatedAt: room.CreatedAt,
	}
	copy(cp.Members, room.Members)
	return cp
}
