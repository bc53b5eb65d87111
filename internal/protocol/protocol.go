package protocol

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"
)

const Version = "1.0"

// Message types.
const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
	TypeError     = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// NewBatchID returns a lexically sortable id for one TICK batch.
func NewBatchID() string { return ulid.Make().String() }
