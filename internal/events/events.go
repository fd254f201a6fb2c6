package events

import "time"

// TimeRecorded is emitted for every accepted time submission.
type TimeRecorded struct {
	RollNo     int64     `json:"rollNo"`
	Name       string    `json:"name"`
	TimeMs     int64     `json:"time"`
	Difficulty string    `json:"difficulty,omitempty"`
	Improved   bool      `json:"improved"`
	At         time.Time `json:"at"`
	// Origin identifies the server instance that accepted the time.
	Origin string `json:"origin,omitempty"`
}

type Bus struct {
	TimesRecorded chan TimeRecorded
}

func NewBus() *Bus {
	return &Bus{
		TimesRecorded: make(chan TimeRecorded, 64),
	}
}

// Emit queues ev without blocking and reports whether it was accepted.
func (b *Bus) Emit(ev TimeRecorded) bool {
	select {
	case b.TimesRecorded <- ev:
		return true
	default:
		return false
	}
}
