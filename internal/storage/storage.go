package storage

import (
	"context"
	"errors"

	"github.com/steveyegge/triage/internal/types"
)

// ErrNotFound is returned when a ticket or team id does not exist
var ErrNotFound = errors.New("not found")

// Storage defines the interface for issue tracker backends.
//
// Implementations hold no cache: every call reads the tracker's current
// state. There is no locking across calls, so two concurrent runs against
// the same team may both decide to create a ticket for one issue.
type Storage interface {
	// Issues
	ListIssues(ctx context.Context, teamID string) (types.Backlog, error)
	GetIssue(ctx context.Context, id string) (*types.Ticket, error)
	CreateIssue(ctx context.Context, title, description, teamID string) (*types.Ticket, error)
	UpdateIssue(ctx context.Context, id string, update types.TicketUpdate) (*types.Ticket, error)

	// Workspace
	ListTeams(ctx context.Context) ([]*types.Team, error)
	Viewer(ctx context.Context) (*types.Viewer, error)

	// Lifecycle
	Close() error
}
