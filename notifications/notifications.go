// Package notifications delivers settings.Updated events outside the process.
package notifications

import (
	"encoding/json"
	"time"

	"github.com/flow-hydraulics/flow-settings-api/settings"
)

const EventSettingsUpdated = "settings.updated"

// Message is the JSON document sent for every update.
type Message struct {
	Event     string            `json:"event"`
	Fields    []string          `json:"fields"`
	Settings  settings.Settings `json:"settings"`
	Timestamp time.Time         `json:"timestamp"`
}

func newMessage(p settings.UpdatedPayload) Message {
	ts := time.Now()
	if p.Settings.LastUpdated != nil {
		ts = *p.Settings.LastUpdated
	}
	return Message{
		Event:     EventSettingsUpdated,
		Fields:    p.Update.Fields(),
		Settings:  p.Settings,
		Timestamp: ts,
	}
}

func encode(p settings.UpdatedPayload) ([]byte, error) {
	return json.Marshal(newMessage(p))
}
