package cart

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/francoabl/HuertoHogar/internal/store"
)

// Manager hands out one Reconciler per session, loading it on first use.
// Concurrent first requests for the same session share a single load via
// singleflight instead of racing remote fetches.
type Manager struct {
	remote RemoteGateway
	local  store.Store

	mu       sync.Mutex
	sessions map[string]*Reconciler
	sfg      singleflight.Group
}

func NewManager(remote RemoteGateway, local store.Store) *Manager {
	return &Manager{
		remote:   remote,
		local:    local,
		sessions: make(map[string]*Reconciler),
	}
}

func (m *Manager) Session(ctx context.Context, sessionID string, tokens TokenSource) (*Reconciler, error) {
	m.mu.Lock()
	if rec, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		return rec, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sfg.Do(sessionID, func() (interface{}, error) {
		m.mu.Lock()
		if rec, ok := m.sessions[sessionID]; ok {
			m.mu.Unlock()
			return rec, nil
		}
		m.mu.Unlock()

		rec := NewReconciler(sessionID, tokens, m.remote, m.local)
		if err := rec.Load(ctx); err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.sessions[sessionID] = rec
		m.mu.Unlock()
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Reconciler), nil
}

// Drop forgets a session's reconciler, e.g. on logout. Durable state is
// left alone; the caller decides what survives.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}
