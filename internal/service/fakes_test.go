package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sakif/learning-tracker/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeKV is an in-memory repository.KeyValueStore.
//
// Set getErr / setErr to simulate a broken store. writes counts successful
// Set calls so tests can assert that a rejected operation wrote nothing.
type fakeKV struct {
	mu     sync.Mutex
	data   map[string]string
	writes int

	getErr   error
	setErr   error
	clearErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.writes++
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	delete(f.data, key)
	return nil
}

func (f *fakeKV) All(_ context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make(map[string]string, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out, nil
}

func (f *fakeKV) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.data = make(map[string]string)
	return nil
}

func (f *fakeKV) raw(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key]
}

// fakeIdentity is a fixed IdentitySource.
type fakeIdentity struct {
	who *model.Identity
}

func (f fakeIdentity) Current() (model.Identity, bool) {
	if f.who == nil {
		return model.Identity{}, false
	}
	return *f.who, true
}

// fakeSink records published toasts.
type fakeSink struct {
	mu     sync.Mutex
	toasts []model.Toast
}

func (f *fakeSink) Publish(t model.Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, t)
}

func (f *fakeSink) published() []model.Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Toast(nil), f.toasts...)
}

// testNow is the pinned "today" for every service test.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// steppingClock returns testNow and moves forward one millisecond per call,
// so ids and timestamps differ between calls.
func steppingClock() Clock {
	var mu sync.Mutex
	now := testNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(time.Millisecond)
		return t
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func mustDate(t *testing.T, s string) *model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parsing date %q: %v", s, err)
	}
	return &d
}
