package model

// ThemeMode is the colour scheme, stored on its own under "themeMode".
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

func (m ThemeMode) Valid() bool {
	return m == ThemeLight || m == ThemeDark
}

// Settings is the flat preference map stored under "appSettings".
// Values keep their JSON kinds: bool, float64 (numbers) or string.
type Settings map[string]any

// DefaultSettings returns a fresh copy of the recognized keys and their defaults.
func DefaultSettings() Settings {
	return Settings{
		"notificationsEnabled": true,
		"emailNotifications":   false,
		"autoSave":             true,
		"saveInterval":         float64(5),
		"language":             "ru",
		"fontSize":             float64(14),
		"compactView":          false,
		"showProgressBar":      true,
		"enableAnimations":     true,
	}
}

// StorageUsage reports how much of the key-value store is in use.
type StorageUsage struct {
	Keys  int    `json:"keys"`
	Bytes int64  `json:"bytes"`
	Human string `json:"human"`
}
