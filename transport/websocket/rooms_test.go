package websocket

import "testing"

func TestRoomsCreate(t *testing.T) {
	rooms := NewRooms(4)

	created, left := rooms.Create("alice")
	if created == nil {
		t.Fatal("Create() returned nil room")
	}
	if left != nil {
		t.Error("Create() reported a left room for a roomless player")
	}
	if created.ID == "" {
		t.Error("Create() room has empty id")
	}
	if len(created.Members) != 1 || created.Members[0] != "alice" {
		t.Errorf("Create() members = %v, want [alice]", created.Members)
	}
	if rooms.Count() != 1 {
		t.Errorf("Count() = %d, want 1", rooms.Count())
	}
}

func TestRoomsJoinAndCapacity(t *testing.T) {
	rooms := NewRooms(4)
	created, _ := rooms.Create("p1")

	for _, id := range []string{"p2", "p3", "p4"} {
		joined, _, ok := rooms.Join(id, created.ID)
		if !ok {
			t.Fatalf("Join(%s) failed before capacity", id)
		}
		if joined.ID != created.ID {
			t.Errorf("Join(%s) returned room %s, want %s", id, joined.ID, created.ID)
		}
	}

	// Fifth member is over capacity.
	if _, _, ok := rooms.Join("p5", created.ID); ok {
		t.Error("Join() succeeded past capacity")
	}

	// Nonexistent room fails the same way.
	if _, _, ok := rooms.Join("p5", "no-such-room"); ok {
		t.Error("Join() succeeded for nonexistent room")
	}
}

func TestRoomsJoinOwnRoomNoop(t *testing.T) {
	rooms := NewRooms(4)
	created, _ := rooms.Create("alice")

	joined, left, ok := rooms.Join("alice", created.ID)
	if !ok {
		t.Fatal("re-joining own room failed")
	}
	if left != nil {
		t.Error("re-joining own room reported a departure")
	}
	if len(joined.Members) != 1 {
		t.Errorf("re-join duplicated member: %v", joined.Members)
	}
}

func TestRoomsLeaveDeletesEmptyRoom(t *testing.T) {
	rooms := NewRooms(4)
	created, _ := rooms.Create("alice")

	remaining, ok := rooms.Leave("alice")
	if !ok {
		t.Fatal("Leave() = !ok for a room member")
	}
	if remaining != nil {
		t.Error("Leave() returned a snapshot for an emptied room")
	}
	if rooms.Count() != 0 {
		t.Errorf("Count() = %d after last leave, want 0", rooms.Count())
	}
	if _, found := rooms.Get(created.ID); found {
		t.Error("emptied room still retrievable")
	}

	// Leaving again is a no-op.
	if _, ok := rooms.Leave("alice"); ok {
		t.Error("second Leave() = ok, want false")
	}
}

func TestRoomsSingleMembership(t *testing.T) {
	rooms := NewRooms(4)
	first, _ := rooms.Create("host")
	rooms.Join("alice", first.ID)

	// Creating a new room pulls alice out of the first one.
	second, left := rooms.Create("alice")
	if left == nil {
		t.Fatal("Create() did not report the departed room")
	}
	if left.ID != first.ID {
		t.Errorf("departed room = %s, want %s", left.ID, first.ID)
	}
	if len(left.Members) != 1 || left.Members[0] != "host" {
		t.Errorf("departed room members = %v, want [host]", left.Members)
	}

	// Joining back pulls alice out of her own room, which empties and
	// disappears.
	joined, left2, ok := rooms.Join("alice", first.ID)
	if !ok {
		t.Fatal("Join() back failed")
	}
	if left2 != nil {
		t.Error("emptied room should be reported as nil")
	}
	if len(joined.Members) != 2 {
		t.Errorf("joined members = %v, want 2 members", joined.Members)
	}
	if _, found := rooms.Get(second.ID); found {
		t.Error("abandoned room was not deleted")
	}
}

func TestRoomsSnapshotIsolation(t *testing.T) {
	rooms := NewRooms(4)
	created, _ := rooms.Create("alice")

	// Mutating a returned snapshot must not affect the table.
	created.Members[0] = "mallory"
	got, _ := rooms.Get(created.ID)
	if got.Members[0] != "alice" {
		t.Error("snapshot mutation leaked into the room table")
	}
}
