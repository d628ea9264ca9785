package util

import "time"

// Command IDs emitted by the command surfaces (keys, buttons)
const (
	CommandNext   = "next"
	CommandClear  = "clear"
	CommandSelect = "select" // Value holds the effect index
	CommandColor  = "color"  // Value holds the color as 0xRRGGBB
)

// Trigger represents a command event from an input device.
type Trigger struct {
	ID        string
	Value     int
	Timestamp time.Time
}

// NewTrigger creates a new Trigger instance.
func NewTrigger(id string, value int, time time.Time) *Trigger {
	inst := Trigger{
		ID:        id,
		Value:     value,
		Timestamp: time,
	}
	return &inst
}
