package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format of a calendar date, matching an HTML date input.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time of day. It is stored as "YYYY-MM-DD";
// full RFC3339 timestamps are accepted when decoding and truncated to the day.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC of its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "YYYY-MM-DD" or an RFC3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("model: invalid date %q", s)
	}
	return NewDate(t), nil
}

// Before reports whether d is an earlier calendar day than the day of t.
func (d Date) Before(t time.Time) bool {
	return d.Time.Before(NewDate(t).Time)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("model: date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
