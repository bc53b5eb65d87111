package tasks

import "testing"

func TestQueue_FIFO(t *testing.T) {
	var q Queue
	for i := 1; i <= 5; i++ {
		q.PushBack(ID(i), &MoveToEntity{Target: EntityID("E")})
	}
	if e, ok := q.Front(); !ok || e.ID != 1 || q.Len() != 5 {
		t.Fatalf("Front must peek without mutation: %+v ok=%v len=%d", e, ok, q.Len())
	}
	for want := 1; want <= 5; want++ {
		e, ok := q.PopFront()
		if !ok || e.ID != ID(want) {
			t.Fatalf("pop=%v ok=%v want %d", e.ID, ok, want)
		}
	}
	if _, ok := q.PopFront(); ok {
		t.Fatalf("pop from empty queue succeeded")
	}
}

func TestQueue_RemoveIsIdempotent(t *testing.T) {
	var q Queue
	q.PushBack(1, &Undock{})
	q.PushBack(2, &Undock{})
	q.PushBack(3, &Undock{})

	if !q.Remove(2) {
		t.Fatalf("first remove should report true")
	}
	if q.Remove(2) {
		t.Fatalf("second remove should be a no-op")
	}
	got := q.Entries()
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("entries after remove: %+v", got)
	}
}

func TestQueue_ClearReturnsDropped(t *testing.T) {
	var q Queue
	q.PushBack(7, &Undock{})
	dropped := q.Clear()
	if len(dropped) != 1 || dropped[0].ID != 7 || !q.Empty() {
		t.Fatalf("clear: dropped=%+v len=%d", dropped, q.Len())
	}
	var nilQ *Queue
	if nilQ.Len() != 0 || nilQ.Remove(1) {
		t.Fatalf("nil queue must behave as empty")
	}
}

func TestID_TextRoundTrip(t *testing.T) {
	b, _ := ID(42).MarshalText()
	if string(b) != "T000042" {
		t.Fatalf("MarshalText=%s", b)
	}
	var id ID
	if err := id.UnmarshalText(b); err != nil || id != 42 {
		t.Fatalf("UnmarshalText=%v err=%v", id, err)
	}
	if err := id.UnmarshalText([]byte("nope")); err == nil {
		t.Fatalf("expected error for malformed id")
	}
}
