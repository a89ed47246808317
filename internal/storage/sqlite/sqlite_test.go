package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/steveyegge/triage/internal/storage"
	"github.com/steveyegge/triage/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*SQLiteStorage, *types.Team) {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	team, err := store.CreateTeam(context.Background(), "eng", "Engineering")
	require.NoError(t, err)
	return store, team
}

func strPtr(s string) *string { return &s }

func TestCreateTeam(t *testing.T) {
	store, team := newTestStore(t)
	ctx := context.Background()

	assert.Equal(t, "ENG", team.Key)
	assert.NotEmpty(t, team.ID)

	_, err := store.CreateTeam(ctx, "ENG", "Duplicate")
	assert.Error(t, err, "team keys are unique")

	_, err = store.CreateTeam(ctx, " ", "Blank")
	assert.Error(t, err)

	_, err = store.CreateTeam(ctx, "ops", "Operations")
	require.NoError(t, err)

	teams, err := store.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "ENG", teams[0].Key)
	assert.Equal(t, "OPS", teams[1].Key)
}

func TestCreateAndListPreservesOrder(t *testing.T) {
	store, team := newTestStore(t)
	ctx := context.Background()

	titles := []string{"Address change broken", "Profile picture upload", "Location does not save"}
	for _, title := range titles {
		ticket, err := store.CreateIssue(ctx, title, "desc for "+title, team.ID)
		require.NoError(t, err)
		assert.Equal(t, title, ticket.Title)
		assert.Equal(t, DefaultStatus, ticket.Status)
		assert.NoError(t, ticket.Validate())
	}

	backlog, err := store.ListIssues(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, backlog, len(titles))
	for i, ticket := range backlog {
		assert.Equal(t, titles[i], ticket.Title)
		assert.Equal(t, "ENG-"+string(rune('1'+i)), ticket.Identifier)
		assert.False(t, ticket.CreatedAt.IsZero())
	}
}

func TestListIssuesUnknownTeam(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.ListIssues(context.Background(), "no-such-team")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListIssuesEmptyBacklog(t *testing.T) {
	store, team := newTestStore(t)

	backlog, err := store.ListIssues(context.Background(), team.ID)
	require.NoError(t, err)
	assert.Empty(t, backlog)
}

func TestCreateIssueUnknownTeam(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CreateIssue(context.Background(), "t", "d", "no-such-team")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateIssueTitleTooLong(t *testing.T) {
	store, team := newTestStore(t)

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	_, err := store.CreateIssue(context.Background(), string(long), "d", team.ID)
	assert.Error(t, err)
}

func TestGetIssue(t *testing.T) {
	store, team := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateIssue(ctx, "Address change broken", "Users cannot change delivery address", team.ID)
	require.NoError(t, err)

	byID, err := store.GetIssue(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, byID.Title)

	byIdentifier, err := store.GetIssue(ctx, "ENG-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byIdentifier.ID)

	_, err = store.GetIssue(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReadRejectsInvalidRow(t *testing.T) {
	store, team := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateIssue(ctx, "Address change broken", "d", team.ID)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, `UPDATE issues SET title = '' WHERE id = ?`, created.ID)
	require.NoError(t, err)

	_, err = store.GetIssue(ctx, created.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")

	_, err = store.ListIssues(ctx, team.ID)
	assert.Error(t, err)
}

func TestUpdateIssuePartial(t *testing.T) {
	tests := []struct {
		name     string
		update   types.TicketUpdate
		wantT    string
		wantDesc string
	}{
		{
			name:     "title only keeps description",
			update:   types.TicketUpdate{Title: strPtr("Address change broken (2 reports)")},
			wantT:    "Address change broken (2 reports)",
			wantDesc: "Users cannot change delivery address",
		},
		{
			name:     "description only keeps title",
			update:   types.TicketUpdate{Description: strPtr("Reported by 2 users")},
			wantT:    "Address change broken",
			wantDesc: "Reported by 2 users",
		},
		{
			name:     "both fields",
			update:   types.TicketUpdate{Title: strPtr("T2"), Description: strPtr("D2")},
			wantT:    "T2",
			wantDesc: "D2",
		},
		{
			name:     "empty update keeps everything",
			update:   types.TicketUpdate{},
			wantT:    "Address change broken",
			wantDesc: "Users cannot change delivery address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, team := newTestStore(t)
			ctx := context.Background()

			created, err := store.CreateIssue(ctx, "Address change broken", "Users cannot change delivery address", team.ID)
			require.NoError(t, err)

			updated, err := store.UpdateIssue(ctx, created.ID, tt.update)
			require.NoError(t, err)
			assert.Equal(t, tt.wantT, updated.Title)
			assert.Equal(t, tt.wantDesc, updated.Description)

			fetched, err := store.GetIssue(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantT, fetched.Title)
			assert.Equal(t, tt.wantDesc, fetched.Description)
		})
	}
}

func TestUpdateIssueUnknownID(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.UpdateIssue(context.Background(), "missing", types.TicketUpdate{Title: strPtr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestArchiveIssue(t *testing.T) {
	store, team := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreateIssue(ctx, "Old request", "d", team.ID)
	require.NoError(t, err)

	require.NoError(t, store.ArchiveIssue(ctx, created.Identifier))
	require.NoError(t, store.ArchiveIssue(ctx, created.ID), "archiving twice is a no-op")

	fetched, err := store.GetIssue(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsArchived())

	backlog, err := store.ListIssues(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, backlog, 1, "archived issues remain in the backlog")

	assert.ErrorIs(t, store.ArchiveIssue(ctx, "missing"), storage.ErrNotFound)
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".triage", "triage.db")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	team, err := store.CreateTeam(ctx, "ENG", "Engineering")
	require.NoError(t, err)
	_, err = store.CreateIssue(ctx, "Persisted", "d", team.ID)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	backlog, err := reopened.ListIssues(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, backlog, 1)
	assert.Equal(t, "Persisted", backlog[0].Title)
}

func TestViewer(t *testing.T) {
	store, _ := newTestStore(t)
	t.Setenv("USER", "alice")

	viewer, err := store.Viewer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local", viewer.ID)
	assert.Equal(t, "alice", viewer.Name)
}
