package types

import "time"

const MessageTypeSnapshot = "snapshot"

// SnapshotMessage carries the full call collection to subscribers
type SnapshotMessage struct {
	Type      string    `json:"type"` // "snapshot"
	Calls     []Call    `json:"calls"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshot(calls []Call, now time.Time) SnapshotMessage {
	if calls == nil {
		calls = []Call{}
	}
	return SnapshotMessage{Type: MessageTypeSnapshot, Calls: calls, Timestamp: now}
}

// CallList is the list endpoint's response. Total and Empty describe the
// whole collection, independent of any filter.
type CallList struct {
	Calls []Call `json:"calls"`
	Total int    `json:"total"`
	Empty bool   `json:"empty"`
}
