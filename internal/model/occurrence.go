package model

import "time"

// Occurrence is one concrete instance of an event's date, already in the
// display timezone.
type Occurrence struct {
	EventID string    `json:"eventId"`
	UserID  string    `json:"userId"`
	Title   string    `json:"title"`
	Tags    []string  `json:"tags,omitempty"`
	Start   time.Time `json:"start"`
	// InstanceKey is stable per instance: event id plus start date.
	InstanceKey string `json:"instanceKey"`
}
