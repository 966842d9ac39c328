package session

import "sync"

// MemStore implements Store in memory. Used by tests and by tooling
// that must not touch the durable preferences file.
type MemStore struct {
	mu sync.Mutex
	s  Session
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.LoggedIn = true
	m.s = s
	return nil
}

func (m *MemStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.s.Complete() {
		return Session{}, ErrNoSession
	}
	return m.s, nil
}

func (m *MemStore) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.LoggedIn && m.s.AccessToken != ""
}

func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = Session{}
	return nil
}

func (m *MemStore) UpdateAccessToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s.AccessToken = token
	return nil
}

func (m *MemStore) UpdateRefreshToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s.RefreshToken = token
	return nil
}
