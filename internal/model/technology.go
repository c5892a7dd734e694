// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"time"
)

// Status is the learning progress of a technology.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Category groups technologies by area.
type Category string

const (
	CategoryFrontend Category = "frontend"
	CategoryBackend  Category = "backend"
	CategoryDatabase Category = "database"
	CategoryDevOps   Category = "devops"
	CategoryLanguage Category = "language"
	CategoryOther    Category = "other"
)

var Categories = []Category{
	CategoryFrontend, CategoryBackend, CategoryDatabase,
	CategoryDevOps, CategoryLanguage, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Difficulty is how hard the learner rates a technology.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Technology is one thing the user is learning.
//
// The whole collection is stored as a single JSON array under the
// "technologies" key, so the struct tags ARE the storage format. Field names
// are camelCase to stay compatible with files exported by the web frontend.
//
// Invariants kept by the service layer:
//   - ID is unique within the collection and never reassigned
//   - Status, Category and Difficulty are always one of their known values
//   - Resources holds no duplicate URL
//   - CreatedAt is set once; UpdatedAt moves on every mutation
type Technology struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Status      Status     `json:"status"`
	Difficulty  Difficulty `json:"difficulty"`
	Resources   []string   `json:"resources"`
	Deadline    *Date      `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CreatedBy   string     `json:"createdBy,omitempty"`
}

// ApplyDefaults fills every optional field that is still at its zero value.
// now is used for missing timestamps.
func (t *Technology) ApplyDefaults(now time.Time) {
	if t.Category == "" {
		t.Category = CategoryOther
	}
	if t.Status == "" {
		t.Status = StatusNotStarted
	}
	if t.Difficulty == "" {
		t.Difficulty = DifficultyBeginner
	}
	if t.Resources == nil {
		t.Resources = []string{}
	}
	// an empty date input ("deadline": "") means no deadline
	if t.Deadline != nil && t.Deadline.IsZero() {
		t.Deadline = nil
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
}

// HasResource reports whether url is already attached.
func (t *Technology) HasResource(url string) bool {
	for _, r := range t.Resources {
		if r == url {
			return true
		}
	}
	return false
}

// Statistics is derived from the full collection every time it is requested.
// Nothing here is persisted.
type Statistics struct {
	Total             int                `json:"total"`
	Completed         int                `json:"completed"`
	InProgress        int                `json:"inProgress"`
	NotStarted        int                `json:"notStarted"`
	CompletionPercent int                `json:"completionPercent"`
	ByCategory        map[Category]int   `json:"byCategory"`
	ByDifficulty      map[Difficulty]int `json:"byDifficulty"`
}
