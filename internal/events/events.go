package events

import (
	"encoding/json"
	"time"
)

// Event types published on the hub.
const (
	TypePing           = "ping"
	TypeScrapeStarted  = "scrape_started"
	TypeScrapeFinished = "scrape_finished"
	TypeTickFinished   = "tick_finished"
	TypeJobsImported   = "jobs_imported"
	TypeSourceCreated  = "source_created"
	TypeSourceUpdated  = "source_updated"
	TypeSourceDeleted  = "source_deleted"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent builds the serialized envelope pushed to SSE clients.
func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
