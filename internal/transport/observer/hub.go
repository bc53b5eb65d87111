package observer

import (
	"encoding/json"
	"sync"

	"fleetsim/internal/protocol"
	"fleetsim/internal/sim/world"
)

// Hub fans tick batches out to websocket observers. It is a world.TickLogger,
// so WriteTick runs on the world loop and must never block.
type Hub struct {
	mu   sync.Mutex
	subs map[string]*subscriber
}

type subscriber struct {
	ships map[string]bool // nil: every ship
	out   chan []byte
}

func NewHub() *Hub {
	return &Hub{subs: map[string]*subscriber{}}
}

func (h *Hub) add(id string, sub *subscriber) {
	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()
}

func (h *Hub) update(id string, ships map[string]bool) {
	h.mu.Lock()
	if sub, ok := h.subs[id]; ok {
		sub.ships = ships
	}
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) WriteTick(entry world.TickLogEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) == 0 {
		return nil
	}

	msg := TickMessage(entry)
	var all []byte
	for _, sub := range h.subs {
		if sub.ships == nil {
			if all == nil {
				b, err := json.Marshal(msg)
				if err != nil {
					return err
				}
				all = b
			}
			sendLatest(sub.out, all)
			continue
		}
		b, err := json.Marshal(filterShips(msg, sub.ships))
		if err != nil {
			return err
		}
		sendLatest(sub.out, b)
	}
	return nil
}

// TickMessage converts one tick log entry into its wire form.
func TickMessage(e world.TickLogEntry) protocol.TickMsg {
	msg := protocol.TickMsg{
		Type:            protocol.TypeTick,
		ProtocolVersion: protocol.Version,
		BatchID:         protocol.NewBatchID(),
		WorldID:         e.World,
		Tick:            e.Tick,
		At:              int64(e.At),
		Events:          make([]protocol.TaskEvent, 0, len(e.Events)),
	}
	for _, ev := range e.Events {
		pe := protocol.TaskEvent{
			Phase:   ev.Phase.String(),
			Ship:    string(ev.Ship),
			TaskID:  ev.TaskID.String(),
			Kind:    ev.Kind.String(),
			Reason:  ev.Reason,
			At:      int64(ev.At),
			Dropped: ev.Dropped,
		}
		if ev.Phase == world.PhaseCompleted {
			pe.Outcome = ev.Outcome.String()
		}
		if ev.Record != nil {
			if b, err := json.Marshal(ev.Record); err == nil {
				pe.Record = b
			}
		}
		msg.Events = append(msg.Events, pe)
	}
	for _, c := range e.Cancels {
		pc := protocol.Cancel{
			Ship:    string(c.Ship),
			Active:  c.Active,
			Applied: c.Applied,
			Reason:  c.Reason,
		}
		if c.TaskID != 0 {
			pc.TaskID = c.TaskID.String()
		}
		msg.Cancels = append(msg.Cancels, pc)
	}
	if len(e.Active) > 0 {
		msg.Active = make(map[string]int, len(e.Active))
		for k, n := range e.Active {
			msg.Active[k.String()] = n
		}
	}
	return msg
}

func filterShips(msg protocol.TickMsg, ships map[string]bool) protocol.TickMsg {
	out := msg
	out.Events = make([]protocol.TaskEvent, 0, len(msg.Events))
	for _, ev := range msg.Events {
		if ships[ev.Ship] {
			out.Events = append(out.Events, ev)
		}
	}
	out.Cancels = nil
	for _, c := range msg.Cancels {
		if ships[c.Ship] {
			out.Cancels = append(out.Cancels, c)
		}
	}
	return out
}

// sendLatest keeps the newest batch when an observer falls behind.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
