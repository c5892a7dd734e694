// Package model defines the data structures used throughout the application.
package model

// Role gates access to protected operations.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"

	// RoleAny is a permission requirement, never an assigned role:
	// any authenticated identity satisfies it.
	RoleAny Role = "any"
)

// Identity is the snapshot of the logged-in user kept under "user_data".
//
// There is no account table. The two demo identities are hardcoded in the
// session service and registration synthesizes a new one on the fly, so the
// snapshot is the only copy of a registered identity.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
}

// DisplayName is what gets stamped into Technology.CreatedBy.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Username
}

// RegisterProfile is what a user fills in on the registration form.
// The password is accepted for form compatibility and then dropped: it is
// never stored.
type RegisterProfile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the typed outcome of a login attempt. Wrong credentials are
// a normal result (Success=false, Error set), not a Go error.
type LoginResult struct {
	Success bool      `json:"success"`
	User    *Identity `json:"user,omitempty"`
	Error   string    `json:"error,omitempty"`
}
