package triage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/steveyegge/triage/internal/storage"
	"github.com/steveyegge/triage/internal/types"
)

// memStore is an in-memory storage.Storage that counts mutations
type memStore struct {
	mu      sync.Mutex
	tickets types.Backlog
	creates int
	updates []string
	listErr error
}

var _ storage.Storage = (*memStore)(nil)

func newMemStore(tickets ...*types.Ticket) *memStore {
	return &memStore{tickets: tickets}
}

func (m *memStore) ListIssues(ctx context.Context, teamID string) (types.Backlog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make(types.Backlog, len(m.tickets))
	for i, t := range m.tickets {
		copied := *t
		out[i] = &copied
	}
	return out, nil
}

func (m *memStore) GetIssue(ctx context.Context, id string) (*types.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("issue %s: %w", id, storage.ErrNotFound)
}

func (m *memStore) CreateIssue(ctx context.Context, title, description, teamID string) (*types.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	t := &types.Ticket{
		ID:          fmt.Sprintf("issue-%d", len(m.tickets)+1),
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
	m.tickets = append(m.tickets, t)
	copied := *t
	return &copied, nil
}

func (m *memStore) UpdateIssue(ctx context.Context, id string, update types.TicketUpdate) (*types.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.ID == id {
			t.Title, t.Description = update.Resolve(t)
			m.updates = append(m.updates, id)
			copied := *t
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("issue %s: %w", id, storage.ErrNotFound)
}

func (m *memStore) ListTeams(ctx context.Context) ([]*types.Team, error) {
	return []*types.Team{{ID: testTeam, Key: "ENG", Name: "Engineering"}}, nil
}

func (m *memStore) Viewer(ctx context.Context) (*types.Viewer, error) {
	return &types.Viewer{ID: "u1", Name: "Test"}, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates + len(m.updates)
}
