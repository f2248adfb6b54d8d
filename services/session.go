package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mps_intranet_go/db"
	"mps_intranet_go/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionKeyPrefix prefixes every persisted session fingerprint
const SessionKeyPrefix = "mps_adv_session:"

// SessionKey returns the persisted key for a browser token
func SessionKey(token string) string {
	return SessionKeyPrefix + token
}

var (
	dummyHashOnce sync.Once
	dummyHashVal  string
)

func dummyHash() string {
	dummyHashOnce.Do(func() {
		dummyHashVal, _ = HashPassword("dummy_password_for_timing_mitigation")
	})
	return dummyHashVal
}

// SessionOptions configures session behaviour
type SessionOptions struct {
	Timeout time.Duration
	// LogTimeoutLogout writes a logout activity entry when a session expires
	LogTimeoutLogout bool
}

// SessionProvider hands out one SessionManager per browser token
type SessionProvider struct {
	store    *db.Store
	sessions SessionStore
	activity *ActivityLog
	logger   *zap.Logger
	opts     SessionOptions
	now      func() time.Time
}

// NewSessionProvider creates a provider sharing one store and session backend
func NewSessionProvider(store *db.Store, sessions SessionStore, activity *ActivityLog, logger *zap.Logger, opts SessionOptions) *SessionProvider {
	return &SessionProvider{
		store:    store,
		sessions: sessions,
		activity: activity,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// NewToken returns a fresh random browser token
func (p *SessionProvider) NewToken() string {
	return uuid.New().String()
}

// ForToken returns the session manager for a browser token, initially logged out.
// Call Restore to pick up a persisted login.
func (p *SessionProvider) ForToken(token string) *SessionManager {
	return &SessionManager{
		key:      SessionKey(token),
		store:    p.store,
		sessions: p.sessions,
		activity: p.activity,
		logger:   p.logger,
		opts:     p.opts,
		now:      p.now,
	}
}

// Sweep discards every persisted session that has outlived the timeout
func (p *SessionProvider) Sweep(ctx context.Context) (int, error) {
	keys, err := p.sessions.Keys(ctx, SessionKeyPrefix)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, key := range keys {
		m := p.ForToken(key[len(SessionKeyPrefix):])
		fp, err := m.sessions.Load(ctx, key)
		if err != nil {
			p.logger.Warn("skipping unreadable session", zap.String("key", key), zap.Error(err))
			continue
		}
		if fp == nil || !fp.IsExpired(m.now(), m.opts.Timeout) {
			continue
		}
		removed, err := m.expire(ctx, fp)
		if err != nil {
			return expired, err
		}
		if removed {
			expired++
		}
	}
	return expired, nil
}

// SessionManager tracks the login state of one browser.
// States: logged out, logged in. Timeout is measured from login time.
type SessionManager struct {
	key      string
	store    *db.Store
	sessions SessionStore
	activity *ActivityLog
	logger   *zap.Logger
	opts     SessionOptions
	now      func() time.Time

	current *models.SessionFingerprint
}

// Login checks the credentials and starts a session.
// Unknown users, wrong passwords and inactive accounts all fail with ErrInvalidCredentials.
func (m *SessionManager) Login(ctx context.Context, username, password string) error {
	lawyer, ok, err := m.store.Lawyers.Get(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up lawyer: %w", err)
	}
	if !ok {
		// unknown usernames still pay for one bcrypt comparison
		VerifyPassword(dummyHash(), password)
	}
	if !ok || !lawyer.IsActive() || !VerifyPassword(lawyer.Password, password) {
		m.logger.Info("login rejected", zap.String("username", username))
		return ErrInvalidCredentials
	}

	now := m.now()
	snapshot := lawyer.Snapshot()
	snapshot.LoginTime = now
	snapshot.LastActivity = now
	fp := &models.SessionFingerprint{User: snapshot, SessionStart: now}

	if err := m.sessions.Save(ctx, m.key, fp); err != nil {
		return err
	}
	m.current = fp

	if _, err := m.activity.Record(ctx, models.ActivityLogin, "logged in", lawyer.Username); err != nil {
		return err
	}
	m.logger.Info("login", zap.String("username", lawyer.Username))
	return nil
}

// Restore reloads the persisted fingerprint. An expired fingerprint is discarded
// and reported as logged out without an error.
func (m *SessionManager) Restore(ctx context.Context) (bool, error) {
	fp, err := m.sessions.Load(ctx, m.key)
	if err != nil {
		return false, err
	}
	return m.RestoreFingerprint(ctx, fp)
}

// RestoreFingerprint restores a session from an already loaded fingerprint
func (m *SessionManager) RestoreFingerprint(ctx context.Context, fp *models.SessionFingerprint) (bool, error) {
	m.current = nil
	if fp == nil {
		return false, nil
	}
	if fp.IsExpired(m.now(), m.opts.Timeout) {
		_, err := m.expire(ctx, fp)
		return false, err
	}
	m.current = fp
	return true, nil
}

// Logout ends the session. Logging out while logged out only clears the persisted key.
func (m *SessionManager) Logout(ctx context.Context) error {
	fp := m.current
	m.current = nil

	removed, err := m.sessions.Delete(ctx, m.key)
	if err != nil {
		return err
	}
	if fp == nil || !removed {
		return nil
	}
	_, err = m.activity.Record(ctx, models.ActivityLogout, "logged out", fp.User.Username)
	return err
}

// CheckTimeout is the periodic poll: it ends the session once the timeout has passed
func (m *SessionManager) CheckTimeout(ctx context.Context) (bool, error) {
	if m.current == nil || !m.current.IsExpired(m.now(), m.opts.Timeout) {
		return false, nil
	}
	fp := m.current
	m.current = nil
	_, err := m.expire(ctx, fp)
	return true, err
}

// expire drops a timed out fingerprint. Only the caller that removed it logs the expiry.
func (m *SessionManager) expire(ctx context.Context, fp *models.SessionFingerprint) (bool, error) {
	removed, err := m.sessions.Delete(ctx, m.key)
	if err != nil || !removed {
		return false, err
	}
	m.logger.Info("session expired", zap.String("username", fp.User.Username))
	if !m.opts.LogTimeoutLogout {
		return true, nil
	}
	if _, err := m.activity.Record(ctx, models.ActivityLogout, "session expired", fp.User.Username); err != nil {
		return true, err
	}
	return true, nil
}

func (m *SessionManager) IsLoggedIn() bool {
	return m.current != nil
}

// User returns the session user snapshot
func (m *SessionManager) User() (models.LawyerSnapshot, bool) {
	if m.current == nil {
		return models.LawyerSnapshot{}, false
	}
	return m.current.User, true
}

// HasPermission reports whether the session user holds p
func (m *SessionManager) HasPermission(p models.Permission) bool {
	return m.current != nil && m.current.User.Permissions.Has(p)
}

func (m *SessionManager) IsAdmin() bool {
	return m.HasPermission(models.PermissionAdmin)
}

// Actor returns the session user as an Actor for service calls
func (m *SessionManager) Actor() (Actor, error) {
	if m.current == nil {
		return Actor{}, ErrNotLoggedIn
	}
	return ActorFromSnapshot(m.current.User), nil
}

// TouchActivity records user interaction. It never extends the session.
func (m *SessionManager) TouchActivity(ctx context.Context) error {
	if m.current == nil {
		return ErrNotLoggedIn
	}
	m.current.User.LastActivity = m.now()
	return m.sessions.Save(ctx, m.key, m.current)
}

// SessionDuration is the time since login
func (m *SessionManager) SessionDuration() time.Duration {
	if m.current == nil {
		return 0
	}
	return m.now().Sub(m.current.SessionStart)
}

// ChangePassword replaces the session user's password after checking the old one
func (m *SessionManager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if m.current == nil {
		return ErrNotLoggedIn
	}
	username := m.current.User.Username

	lawyer, ok, err := m.store.Lawyers.Get(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to look up lawyer: %w", err)
	}
	if !ok || !VerifyPassword(lawyer.Password, oldPassword) {
		return ErrWrongPassword
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	now := m.now()
	return m.store.Transaction(ctx, func(tx *db.Store) error {
		if _, err := tx.Lawyers.Update(ctx, username, func(l *models.Lawyer) {
			l.Password = hash
			l.UpdatedAt = now
		}); err != nil {
			return err
		}
		_, err := appendActivity(ctx, tx, now, models.ActivityPasswordChanged, "password changed", username)
		return err
	})
}
