package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/repository"
)

const (
	// MaxNotifications caps the persisted history; older entries fall off.
	MaxNotifications = 50

	// DefaultToastDuration is how long a toast stays up when none is given.
	DefaultToastDuration = 6 * time.Second
)

// ToastSink receives every recorded notification for live display.
// notify.Hub implements it; Publish must not block.
type ToastSink interface {
	Publish(model.Toast)
}

// NotificationService is the notification log.
//
// The history is loaded ONCE at construction and kept in memory; every
// mutation persists the whole list before swapping the in-memory copy, so
// memory and storage only diverge when a write fails (and then memory keeps
// the last state that was saved).
type NotificationService struct {
	kv     repository.KeyValueStore
	sink   ToastSink
	logger *slog.Logger
	now    Clock
	ids    *idGenerator

	mu      sync.Mutex
	entries []model.Notification // newest first
}

// NewNotificationService loads the stored history. A missing or corrupt
// history starts empty. sink may be nil.
func NewNotificationService(
	ctx context.Context,
	kv repository.KeyValueStore,
	sink ToastSink,
	logger *slog.Logger,
	now Clock,
) *NotificationService {
	if now == nil {
		now = time.Now
	}
	s := &NotificationService{
		kv:      kv,
		sink:    sink,
		logger:  logger,
		now:     now,
		ids:     newIDGenerator(now),
		entries: []model.Notification{},
	}
	s.entries = s.load(ctx)
	return s
}

// Record adds an unread entry at the top of the history, persists it and
// publishes a toast. An unknown severity becomes info; a zero duration
// becomes DefaultToastDuration.
func (s *NotificationService) Record(ctx context.Context, message string, severity model.Severity, duration time.Duration) (*model.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if !severity.Valid() {
		severity = model.SeverityInfo
	}
	if duration <= 0 {
		duration = DefaultToastDuration
	}

	s.mu.Lock()
	n := model.Notification{
		ID:       s.ids.Next(),
		Message:  message,
		Severity: severity,
		Date:     s.now(),
	}

	next := make([]model.Notification, 0, len(s.entries)+1)
	next = append(next, n)
	next = append(next, s.entries...)
	if len(next) > MaxNotifications {
		next = next[:MaxNotifications]
	}

	if err := s.persistLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.Publish(model.Toast{
			Notification: n,
			Duration:     duration,
			DurationMS:   duration.Milliseconds(),
		})
	}
	return &n, nil
}

// List returns the history, newest first.
func (s *NotificationService) List() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notification{}, s.entries...)
}

// UnreadCount is recomputed from the history on every call.
func (s *NotificationService) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !e.Read {
			n++
		}
	}
	return n
}

// MarkAllRead flags every entry as read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Notification, len(s.entries))
	for i, e := range s.entries {
		e.Read = true
		next[i] = e
	}
	return s.persistLocked(ctx, next)
}

// Remove deletes one entry. It reports whether the id existed; an unknown id
// writes nothing.
func (s *NotificationService) Remove(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Notification, 0, len(s.entries))
	for _, e := range s.entries {
		if e.ID != id {
			next = append(next, e)
		}
	}
	if len(next) == len(s.entries) {
		return false, nil
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// ClearAll empties the history.
func (s *NotificationService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx, []model.Notification{})
}

// Reload re-reads the history from storage. Used after the storage layer
// wipes keys behind the service's back.
func (s *NotificationService) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.load(ctx)
}

func (s *NotificationService) persistLocked(ctx context.Context, next []model.Notification) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("service/notification: encoding history: %w", err)
	}
	if err := s.kv.Set(ctx, repository.KeyNotifications, string(data)); err != nil {
		s.logger.Error("failed to save notifications", slog.String("error", err.Error()))
		return apperror.Storage("could not save notifications", err)
	}
	s.entries = next
	return nil
}

func (s *NotificationService) load(ctx context.Context) []model.Notification {
	raw, ok, err := s.kv.Get(ctx, repository.KeyNotifications)
	if err != nil {
		s.logger.Warn("notification history unavailable", slog.String("error", err.Error()))
		return []model.Notification{}
	}
	if !ok || raw == "" {
		return []model.Notification{}
	}

	var entries []model.Notification
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Warn("notification history is corrupt, starting empty", slog.String("error", err.Error()))
		return []model.Notification{}
	}
	for i := range entries {
		if !entries[i].Severity.Valid() {
			entries[i].Severity = model.SeverityInfo
		}
		s.ids.Observe(entries[i].ID)
	}
	if len(entries) > MaxNotifications {
		entries = entries[:MaxNotifications]
	}
	if entries == nil {
		entries = []model.Notification{}
	}
	return entries
}
