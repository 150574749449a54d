package models

import (
	"encoding/json"
	"time"
)

// SyncAction is the kind of mutation recorded while offline.
type SyncAction string

const (
	ActionCreate SyncAction = "create"
	ActionUpdate SyncAction = "update"
	ActionDelete SyncAction = "delete"
)

// EntryState tracks a queue entry through one drain pass:
//
//	pending -> submitted -> done
//	pending -> submitted -> failed
//	pending -> failed            (discarded without a remote call)
//
// Failed entries are never retried; the queue is at-most-once.
type EntryState string

const (
	EntryPending   EntryState = "pending"
	EntrySubmitted EntryState = "submitted"
	EntryDone      EntryState = "done"
	EntryFailed    EntryState = "failed"
)

// CanTransition reports whether s may move to next.
func (s EntryState) CanTransition(next EntryState) bool {
	switch s {
	case EntryPending:
		return next == EntrySubmitted || next == EntryFailed
	case EntrySubmitted:
		return next == EntryDone || next == EntryFailed
	default:
		return false
	}
}

// SyncQueueEntry is one pending mutation. Seq defines replay order.
type SyncQueueEntry struct {
	Seq        int64
	Id         string
	Action     SyncAction
	Payload    json.RawMessage
	EnqueuedAt time.Time
	State      EntryState
}

// UpdatePayload is the queued body of an update.
type UpdatePayload struct {
	Id   string    `json:"id"`
	Data NotePatch `json:"data"`
}

// DeletePayload is the queued body of a delete.
type DeletePayload struct {
	Id string `json:"id"`
}

// TargetID extracts the note id a queued payload refers to. Create payloads
// carry the whole note, update and delete payloads carry {"id": ...}.
func (e SyncQueueEntry) TargetID() (string, error) {
	var p struct {
		Id string `json:"id"`
	}
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return "", err
	}
	return p.Id, nil
}
