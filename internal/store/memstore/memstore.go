// Package memstore 提供 Store 的进程内实现，单测与本地联调使用
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"SafeWalk/internal/model"
	"SafeWalk/internal/store"
)

// MemStore 全部数据保存在内存，按主键复制读写
type MemStore struct {
	mu sync.RWMutex

	nextID int64

	alerts    map[int64]*model.Alert // key: PublicID
	sessions  map[int64]*model.WalkSession
	users     map[int64]*model.User // key: ID
	locations map[int64]*model.SafeLocation
	contacts  map[int64]*model.TrustedContact
	auths     map[int64]*model.GovAuthority
	attempts  []*model.NotificationAttempt
}

var _ store.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{
		alerts:    make(map[int64]*model.Alert),
		sessions:  make(map[int64]*model.WalkSession),
		users:     make(map[int64]*model.User),
		locations: make(map[int64]*model.SafeLocation),
		contacts:  make(map[int64]*model.TrustedContact),
		auths:     make(map[int64]*model.GovAuthority),
	}
}

func (m *MemStore) allocID() int64 {
	m.nextID++
	return m.nextID
}

func cloneAlert(a *model.Alert) *model.Alert {
	cp := *a
	return &cp
}

func cloneSession(s *model.WalkSession) *model.WalkSession {
	cp := *s
	return &cp
}

// ---- alerts ----

func (m *MemStore) CreateAlert(_ context.Context, alert *model.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if alert.ID == 0 {
		alert.ID = m.allocID()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	m.alerts[alert.PublicID] = cloneAlert(alert)
	return nil
}

func (m *MemStore) GetAlert(_ context.Context, alertID int64) (*model.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[alertID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneAlert(a), nil
}

func (m *MemStore) GetAlertByTrackingToken(_ context.Context, token string) (*model.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.alerts {
		if a.LiveTrackingToken != nil && *a.LiveTrackingToken == token {
			return cloneAlert(a), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) TransitionAlert(_ context.Context, alertID int64, from, to model.AlertStatus, apply func(*model.Alert)) (*model.Alert, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[alertID]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	if a.Status != from {
		return cloneAlert(a), false, nil
	}
	a.Status = to
	if apply != nil {
		apply(a)
	}
	a.UpdatedAt = time.Now()
	return cloneAlert(a), true, nil
}

func (m *MemStore) SetAlertCountdown(_ context.Context, alertID int64, startedAt, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[alertID]
	if !ok {
		return false, store.ErrNotFound
	}
	if a.Status != model.AlertStatusPending || a.CountdownStartedAt != nil {
		return false, nil
	}
	s, e := startedAt, expiresAt
	a.CountdownStartedAt = &s
	a.CountdownExpiresAt = &e
	return true, nil
}

func (m *MemStore) ListPendingInert(_ context.Context) ([]*model.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Alert
	for _, a := range m.alerts {
		if a.Status == model.AlertStatusPending && a.CountdownExpiresAt == nil {
			out = append(out, cloneAlert(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicID < out[j].PublicID })
	return out, nil
}

func (m *MemStore) ListPendingCountdowns(_ context.Context) ([]*model.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Alert
	for _, a := range m.alerts {
		if a.Status == model.AlertStatusPending && a.CountdownExpiresAt != nil {
			out = append(out, cloneAlert(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicID < out[j].PublicID })
	return out, nil
}

func (m *MemStore) ListOverduePending(_ context.Context, before time.Time) ([]*model.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Alert
	for _, a := range m.alerts {
		if a.Status == model.AlertStatusPending && a.CountdownExpiresAt != nil && a.CountdownExpiresAt.Before(before) {
			out = append(out, cloneAlert(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicID < out[j].PublicID })
	return out, nil
}

// ---- sessions ----

func (m *MemStore) CreateSession(_ context.Context, session *model.WalkSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == 0 {
		session.ID = m.allocID()
	}
	m.sessions[session.PublicID] = cloneSession(session)
	return nil
}

func (m *MemStore) GetSession(_ context.Context, sessionID int64) (*model.WalkSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *MemStore) GetActiveSession(_ context.Context, userID int64) (*model.WalkSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.WalkSession
	for _, s := range m.sessions {
		if s.UserID == userID && s.Active {
			if latest == nil || s.StartTime.After(latest.StartTime) {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return cloneSession(latest), nil
}

func (m *MemStore) UpdateSessionLocation(_ context.Context, sessionID int64, lat, lng float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	s.LastLatitude = &lat
	s.LastLongitude = &lng
	s.LastLocationAt = &at
	return nil
}

func (m *MemStore) SetSessionMode(_ context.Context, sessionID int64, mode model.SessionMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	s.Mode = mode
	return nil
}

func (m *MemStore) EndSession(_ context.Context, sessionID int64, endAt time.Time, lat, lng *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	s.Active = false
	s.EndTime = &endAt
	if lat != nil && lng != nil {
		s.EndLatitude = lat
		s.EndLongitude = lng
	}
	return nil
}

// ---- users ----

func (m *MemStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.allocID()
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemStore) GetUser(_ context.Context, userID int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) GetUserByPublicID(_ context.Context, publicID int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.PublicID == publicID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) UpdateUserPasswords(_ context.Context, userID int64, mainHash, duressHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.MainPasswordHash = mainHash
	u.DuressPasswordHash = duressHash
	return nil
}

// ---- safe locations / authorities ----

func (m *MemStore) CreateSafeLocation(_ context.Context, loc *model.SafeLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loc.ID == 0 {
		loc.ID = m.allocID()
	}
	cp := *loc
	m.locations[loc.ID] = &cp
	return nil
}

func (m *MemStore) GetSafeLocation(_ context.Context, id int64) (*model.SafeLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.locations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MemStore) UpdateSafeLocation(_ context.Context, loc *model.SafeLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locations[loc.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *loc
	m.locations[loc.ID] = &cp
	return nil
}

func (m *MemStore) DeleteSafeLocation(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locations[id]
	if !ok || l.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.locations, id)
	return nil
}

func (m *MemStore) ListActiveSafeLocations(_ context.Context, userID int64) ([]*model.SafeLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.SafeLocation
	for _, l := range m.locations {
		if l.UserID == userID && l.IsActive {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) CreateAuthority(_ context.Context, a *model.GovAuthority) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.allocID()
	}
	cp := *a
	m.auths[a.ID] = &cp
	return nil
}

func (m *MemStore) GetAuthority(_ context.Context, id int64) (*model.GovAuthority, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.auths[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemStore) UpdateAuthority(_ context.Context, a *model.GovAuthority) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.auths[a.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *a
	m.auths[a.ID] = &cp
	return nil
}

func (m *MemStore) DeleteAuthority(_ context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auths[id]
	if !ok || a.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.auths, id)
	return nil
}

func (m *MemStore) ListActiveAuthorities(_ context.Context) ([]*model.GovAuthority, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.GovAuthority
	for _, a := range m.auths {
		if a.IsActive {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- contacts ----

func (m *MemStore) CreateContact(_ context.Context, c *model.TrustedContact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.allocID()
	}
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *MemStore) GetContact(_ context.Context, id int64) (*model.TrustedContact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) UpdateContact(_ context.Context, c *model.TrustedContact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[c.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *MemStore) DeleteContact(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

func (m *MemStore) ListActiveContacts(_ context.Context, userID int64) ([]*model.TrustedContact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.TrustedContact
	for _, c := range m.contacts {
		if c.UserID == userID && c.IsActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ---- notification attempts ----

func (m *MemStore) CreateNotificationAttempt(_ context.Context, a *model.NotificationAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.allocID()
	}
	cp := *a
	m.attempts = append(m.attempts, &cp)
	return nil
}

func (m *MemStore) ListNotificationAttempts(_ context.Context, alertID int64) ([]*model.NotificationAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.NotificationAttempt
	for _, a := range m.attempts {
		if a.AlertID == alertID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}
