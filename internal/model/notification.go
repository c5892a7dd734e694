package model

import "time"

// Severity drives the icon and colour of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Notification is one entry of the persisted history ("notificationHistory").
type Notification struct {
	ID       int64     `json:"id"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Date     time.Time `json:"date"`
	Read     bool      `json:"read"`
}

// Toast is the transient, auto-dismissing display of a notification.
// It is pushed to live clients and never stored.
type Toast struct {
	Notification Notification  `json:"notification"`
	Duration     time.Duration `json:"-"`
	DurationMS   int64         `json:"durationMs"`
}
