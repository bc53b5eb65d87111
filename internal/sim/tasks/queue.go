package tasks

// Entry is one queued task and its identity.
type Entry struct {
	ID   ID
	Task Task
}

// Queue is a ship's FIFO of tasks that have not started yet.
// Insertion order is execution order.
type Queue struct {
	items []Entry
}

func (q *Queue) PushBack(id ID, t Task) {
	q.items = append(q.items, Entry{ID: id, Task: t})
}

// Front peeks at the next task without removing it.
func (q *Queue) Front() (Entry, bool) {
	if q == nil || len(q.items) == 0 {
		return Entry{}, false
	}
	return q.items[0], true
}

func (q *Queue) PopFront() (Entry, bool) {
	if q == nil || len(q.items) == 0 {
		return Entry{}, false
	}
	e := q.items[0]
	q.items[0] = Entry{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return e, true
}

// Remove deletes the entry with the given id. Removing an id that is no
// longer queued is a no-op and reports false.
func (q *Queue) Remove(id ID) bool {
	if q == nil {
		return false
	}
	for i, e := range q.items {
		if e.ID != id {
			continue
		}
		copy(q.items[i:], q.items[i+1:])
		q.items[len(q.items)-1] = Entry{}
		q.items = q.items[:len(q.items)-1]
		return true
	}
	return false
}

// Clear drops every queued entry and returns what was dropped.
func (q *Queue) Clear() []Entry {
	if q == nil {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

func (q *Queue) Empty() bool { return q.Len() == 0 }

// Entries returns a copy of the queue in execution order.
func (q *Queue) Entries() []Entry {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := make([]Entry, len(q.items))
	copy(out, q.items)
	return out
}
