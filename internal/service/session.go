package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/auth"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/repository"
)

// demoAccount is one of the hardcoded logins. This is a demo switch, not a
// security boundary; the plaintext is hashed once so that checks run in
// constant time.
type demoAccount struct {
	password string
	identity model.Identity
}

var demoAccounts = map[string]demoAccount{
	"admin": {
		password: "admin123",
		identity: model.Identity{ID: 1, Username: "admin", Role: model.RoleAdmin, Name: "Администратор"},
	},
	"user": {
		password: "user123",
		identity: model.Identity{ID: 2, Username: "user", Role: model.RoleUser, Name: "Пользователь"},
	},
}

// SessionService is the demo session: Anonymous or Authenticated, nothing in
// between. It is process-wide; whoever logs in last is the current identity
// for every request.
//
// STATE MACHINE:
//
//	Anonymous ──Login ok / Register──▶ Authenticated
//	Authenticated ──Logout──▶ Anonymous
//
// The state is persisted as two keys, a marker token and an identity
// snapshot. Both present on startup means Authenticated.
type SessionService struct {
	kv        repository.KeyValueStore
	markers   *auth.MarkerService
	passwords *auth.PasswordService
	logger    *slog.Logger
	now       Clock
	ids       *idGenerator

	hashOnce sync.Once
	hashes   map[string]string
	hashErr  error

	mu      sync.RWMutex
	current *model.Identity
	token   string
}

// NewSessionService restores the session from storage. A nil passwords
// uses auth.DefaultCost.
func NewSessionService(
	ctx context.Context,
	kv repository.KeyValueStore,
	markers *auth.MarkerService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
	now Clock,
) *SessionService {
	if now == nil {
		now = time.Now
	}
	if passwords == nil {
		passwords = auth.NewPasswordService()
	}
	s := &SessionService{
		kv:        kv,
		markers:   markers,
		passwords: passwords,
		logger:    logger,
		now:       now,
		ids:       newIDGenerator(now),
	}
	s.restore(ctx)
	return s
}

// Current returns the logged-in identity, if any.
func (s *SessionService) Current() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.Identity{}, false
	}
	return *s.current, true
}

// Authenticated reports whether somebody is logged in.
func (s *SessionService) Authenticated() bool {
	_, ok := s.Current()
	return ok
}

// Token returns the current marker, or "" when anonymous.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login checks credentials against the demo accounts. Wrong credentials are
// a normal result with Success=false; the returned error is only for
// storage failures.
func (s *SessionService) Login(ctx context.Context, username, password string) (model.LoginResult, error) {
	username = strings.TrimSpace(username)
	acct, ok := demoAccounts[username]
	if !ok {
		s.logger.Info("login rejected", slog.String("username", username))
		return model.LoginResult{Success: false, Error: "invalid username or password"}, nil
	}

	hashes, err := s.demoHashes()
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("service/session: %w", err)
	}
	if err := s.passwords.Verify(hashes[username], password); err != nil {
		if !errors.Is(err, auth.ErrInvalidPassword) {
			return model.LoginResult{}, fmt.Errorf("service/session: %w", err)
		}
		s.logger.Info("login rejected", slog.String("username", username))
		return model.LoginResult{Success: false, Error: "invalid username or password"}, nil
	}

	who := acct.identity
	if err := s.authenticate(ctx, who, auth.KindDemo); err != nil {
		return model.LoginResult{}, err
	}

	s.logger.Info("logged in", slog.String("username", who.Username), slog.String("role", string(who.Role)))
	return model.LoginResult{Success: true, User: &who}, nil
}

// demoHashes hashes the demo passwords on first use.
func (s *SessionService) demoHashes() (map[string]string, error) {
	s.hashOnce.Do(func() {
		hashes := make(map[string]string, len(demoAccounts))
		for name, acct := range demoAccounts {
			h, err := s.passwords.Hash(acct.password)
			if err != nil {
				s.hashErr = err
				return
			}
			hashes[name] = h
		}
		s.hashes = hashes
	})
	return s.hashes, s.hashErr
}

// Register synthesizes a new identity with role user and logs it in. There
// is no account store, so it cannot conflict with anything. The password is
// accepted and discarded.
func (s *SessionService) Register(ctx context.Context, profile model.RegisterProfile) (model.LoginResult, error) {
	who := model.Identity{
		ID:       s.ids.Next(),
		Username: strings.TrimSpace(profile.Username),
		Name:     strings.TrimSpace(profile.Name),
		Email:    strings.TrimSpace(profile.Email),
		Role:     model.RoleUser,
	}

	if err := s.authenticate(ctx, who, auth.KindRegister); err != nil {
		return model.LoginResult{}, err
	}

	s.logger.Info("registered", slog.Int64("id", who.ID), slog.String("username", who.Username))
	return model.LoginResult{Success: true, User: &who}, nil
}

// Logout clears the session. Logging out while anonymous is fine.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, repository.KeyAuthToken); err != nil {
		return apperror.Storage("could not clear session", err)
	}
	if err := s.kv.Delete(ctx, repository.KeyUserData); err != nil {
		return apperror.Storage("could not clear session", err)
	}
	s.current = nil
	s.token = ""
	return nil
}

// HasPermission: anonymous always fails, "any" passes for every identity,
// otherwise the role must match exactly (admin does NOT imply user).
func (s *SessionService) HasPermission(required model.Role) bool {
	who, ok := s.Current()
	if !ok {
		return false
	}
	if required == model.RoleAny {
		return true
	}
	return who.Role == required
}

// Reload re-reads the persisted session, e.g. after storage was wiped.
func (s *SessionService) Reload(ctx context.Context) {
	s.restore(ctx)
}

func (s *SessionService) authenticate(ctx context.Context, who model.Identity, kind string) error {
	token, err := s.markers.Issue(who.ID, kind)
	if err != nil {
		return fmt.Errorf("service/session: %w", err)
	}
	snapshot, err := json.Marshal(who)
	if err != nil {
		return fmt.Errorf("service/session: encoding identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, repository.KeyAuthToken, token); err != nil {
		s.logger.Error("failed to save session token", slog.String("error", err.Error()))
		return apperror.Storage("could not save session", err)
	}
	if err := s.kv.Set(ctx, repository.KeyUserData, string(snapshot)); err != nil {
		s.logger.Error("failed to save session identity", slog.String("error", err.Error()))
		// half a session is no session
		_ = s.kv.Delete(ctx, repository.KeyAuthToken)
		return apperror.Storage("could not save session", err)
	}

	s.current = &who
	s.token = token
	return nil
}

func (s *SessionService) restore(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.token = ""

	token, okToken, err := s.kv.Get(ctx, repository.KeyAuthToken)
	if err != nil {
		s.logger.Warn("session unavailable, starting anonymous", slog.String("error", err.Error()))
		return
	}
	data, okUser, err := s.kv.Get(ctx, repository.KeyUserData)
	if err != nil {
		s.logger.Warn("session unavailable, starting anonymous", slog.String("error", err.Error()))
		return
	}
	if !okToken || !okUser || token == "" {
		return
	}

	var who model.Identity
	if err := json.Unmarshal([]byte(data), &who); err != nil {
		s.logger.Warn("stored identity is corrupt, starting anonymous", slog.String("error", err.Error()))
		return
	}
	if who.Role == "" {
		who.Role = model.RoleUser
	}

	// The token is a presence flag; one we can't decode still counts.
	if _, err := s.markers.Inspect(token); err != nil {
		s.logger.Debug("restored opaque session marker", slog.String("error", err.Error()))
	}

	s.ids.Observe(who.ID)
	s.current = &who
	s.token = token
	s.logger.Info("session restored", slog.String("username", who.Username))
}
