// ABOUTME: Mock store implementation for testing
// ABOUTME: Keeps accounts, sessions, admins, and audit entries in memory without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory implementation of every store interface, for tests.
type MockStore struct {
	mu            sync.RWMutex
	accounts      map[string]*Account      // keyed by account ID
	profiles      map[string]*Profile      // keyed by account ID
	sessions      map[string]*Session      // keyed by token
	adminUsers    map[string]*AdminUser    // keyed by admin user ID
	adminSessions map[string]*AdminSession // keyed by token
	audit         []AuditEntry

	// FindSessionErr, when set, is returned by every FindSession call.
	FindSessionErr error
	// AppendAuditErr, when set, is returned by every AppendAuditLog call.
	AppendAuditErr error

	now func() time.Time
}

var (
	_ AccountStore = (*MockStore)(nil)
	_ SessionStore = (*MockStore)(nil)
	_ AdminStore   = (*MockStore)(nil)
	_ AuditStore   = (*MockStore)(nil)
)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		accounts:      make(map[string]*Account),
		profiles:      make(map[string]*Profile),
		sessions:      make(map[string]*Session),
		adminUsers:    make(map[string]*AdminUser),
		adminSessions: make(map[string]*AdminSession),
		now:           time.Now,
	}
}

// CreateAccount stores a new account.
func (m *MockStore) CreateAccount(ctx context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.ID]; ok {
		return ErrAccountIDExists
	}
	for _, a := range m.accounts {
		if a.Username == account.Username {
			return ErrUsernameExists
		}
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = m.now().UTC()
	}

	if account.Profile != nil {
		account.Profile.AccountID = account.ID
		if account.Profile.UpdatedAt.IsZero() {
			account.Profile.UpdatedAt = account.CreatedAt
		}
		p := *account.Profile
		m.profiles[p.AccountID] = &p
	}

	a := *account
	a.Profile = nil
	m.accounts[a.ID] = &a
	return nil
}

// GetAccount retrieves an account by ID.
func (m *MockStore) GetAccount(ctx context.Context, id string, include Include) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.getAccountLocked(id, include)
}

func (m *MockStore) getAccountLocked(id string, include Include) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	result := *a
	if includesProfile(include) {
		if p, ok := m.profiles[id]; ok {
			profile := *p
			result.Profile = &profile
		} else {
			result.Profile = &Profile{AccountID: id}
		}
	}
	return &result, nil
}

// GetAccountByUsername retrieves an account by username.
func (m *MockStore) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Username == username {
			result := *a
			return &result, nil
		}
	}
	return nil, ErrAccountNotFound
}

// DeleteAccount removes an account with its profile and sessions.
func (m *MockStore) DeleteAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return ErrAccountNotFound
	}

	delete(m.accounts, id)
	delete(m.profiles, id)
	for token, s := range m.sessions {
		if s.AccountID == id {
			delete(m.sessions, token)
		}
	}
	return nil
}

// CountAccounts returns the number of accounts.
func (m *MockStore) CountAccounts(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.accounts), nil
}

// CreateSession stores a new user session.
func (m *MockStore) CreateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[session.AccountID]; !ok {
		return ErrAccountNotFound
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = m.now().UTC()
	}

	s := *session
	s.Account = nil
	m.sessions[s.ID] = &s
	return nil
}

// FindSession retrieves a live session with its account attached.
func (m *MockStore) FindSession(ctx context.Context, id string, include Include) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindSessionErr != nil {
		return nil, m.FindSessionErr
	}

	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(m.now()) {
		return nil, ErrSessionNotFound
	}

	account, err := m.getAccountLocked(s.AccountID, include)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	result := *s
	result.Account = account
	return &result, nil
}

// DeleteSession removes a user session.
func (m *MockStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// DeleteAccountSessions removes every session owned by an account.
func (m *MockStore) DeleteAccountSessions(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, s := range m.sessions {
		if s.AccountID == accountID {
			delete(m.sessions, token)
		}
	}
	return nil
}

// DeleteExpiredSessions removes expired user sessions.
func (m *MockStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	now := m.now()
	for token, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// CreateAdminUser stores a new admin user.
func (m *MockStore) CreateAdminUser(ctx context.Context, user *AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.adminUsers {
		if u.Username == user.Username {
			return ErrUsernameExists
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.now().UTC()
	}

	u := *user
	m.adminUsers[u.ID] = &u
	return nil
}

// GetAdminUser retrieves an admin user by ID.
func (m *MockStore) GetAdminUser(ctx context.Context, id string) (*AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.adminUsers[id]
	if !ok {
		return nil, ErrAdminUserNotFound
	}
	result := *u
	return &result, nil
}

// GetAdminUserByUsername retrieves an admin user by username.
func (m *MockStore) GetAdminUserByUsername(ctx context.Context, username string) (*AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.adminUsers {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, ErrAdminUserNotFound
}

// CountAdminUsers returns the number of admin users.
func (m *MockStore) CountAdminUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.adminUsers), nil
}

// CreateAdminSession stores a new admin session.
func (m *MockStore) CreateAdminSession(ctx context.Context, session *AdminSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.adminUsers[session.UserID]; !ok {
		return ErrAdminUserNotFound
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = m.now().UTC()
	}

	s := *session
	m.adminSessions[s.ID] = &s
	return nil
}

// GetAdminSession retrieves a live admin session.
func (m *MockStore) GetAdminSession(ctx context.Context, id string) (*AdminSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.adminSessions[id]
	if !ok || !s.ExpiresAt.After(m.now()) {
		return nil, ErrAdminSessionNotFound
	}
	result := *s
	return &result, nil
}

// DeleteAdminSession removes an admin session.
func (m *MockStore) DeleteAdminSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.adminSessions, id)
	return nil
}

// DeleteExpiredAdminSessions removes expired admin sessions.
func (m *MockStore) DeleteExpiredAdminSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	now := m.now()
	for token, s := range m.adminSessions {
		if !s.ExpiresAt.After(now) {
			delete(m.adminSessions, token)
			n++
		}
	}
	return n, nil
}

// AppendAuditLog records an audit entry.
func (m *MockStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendAuditErr != nil {
		return m.AppendAuditErr
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now().UTC()
	}
	m.audit = append(m.audit, *e)
	return nil
}

// ListAuditLog returns matching audit entries, newest first.
func (m *MockStore) ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := []AuditEntry{}
	for i := len(m.audit) - 1; i >= 0; i-- {
		e := m.audit[i]
		if f.Since != nil && e.Timestamp.Before(*f.Since) {
			continue
		}
		if f.ActorID != nil && e.ActorID != *f.ActorID {
			continue
		}
		if f.Action != nil && e.Action != *f.Action {
			continue
		}
		if f.TargetID != nil && e.TargetID != *f.TargetID {
			continue
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if limit := normalizeAuditLimit(f.Limit); len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
