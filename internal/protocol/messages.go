package protocol

import "encoding/json"

// SUBSCRIBE (observer -> server). An empty Ships list means every ship.
type SubscribeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Ships           []string `json:"ships,omitempty"`
}

// TICK (server -> observer)
type TickMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	BatchID         string         `json:"batch_id"`
	WorldID         string         `json:"world_id"`
	Tick            uint64         `json:"tick"`
	At              int64          `json:"at"`
	Events          []TaskEvent    `json:"events"`
	Cancels         []Cancel       `json:"cancels,omitempty"`
	Active          map[string]int `json:"active,omitempty"`
}

type TaskEvent struct {
	Phase   string          `json:"phase"`
	Ship    string          `json:"ship"`
	TaskID  string          `json:"task_id"`
	Kind    string          `json:"kind"`
	Outcome string          `json:"outcome,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	At      int64           `json:"at"`
	Dropped int             `json:"dropped,omitempty"`
	Record  json.RawMessage `json:"record,omitempty"`
}

type Cancel struct {
	Ship    string `json:"ship"`
	TaskID  string `json:"task_id,omitempty"`
	Active  bool   `json:"active,omitempty"`
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// ERROR (server -> observer)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: msg}
}
