// Package repository defines the storage primitive every store is built on.
//
// The application keeps each collection as ONE serialized blob under ONE key,
// the way a browser keeps data in localStorage. Services read the whole blob,
// change it in memory and write the whole blob back. The repository therefore
// only needs string keys and string values.
package repository

import (
	"context"
)

// Keys used by the services. Names match the web frontend's localStorage keys
// so exported data stays interchangeable.
const (
	KeyTechnologies  = "technologies"
	KeyNotifications = "notificationHistory"
	KeySettings      = "appSettings"
	KeyAuthToken     = "auth_token"
	KeyUserData      = "user_data"
	KeyThemeMode     = "themeMode"
)

// KeyValueStore is a flat string-to-string store.
//
// Get returns ok=false (and a nil error) when the key is absent.
// Set overwrites unconditionally: last write wins.
// Delete of a missing key is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	All(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
