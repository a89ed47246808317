// Package sqlite implements storage.Storage on a local SQLite database.
// It stands in for the hosted tracker during development and offline use.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/steveyegge/triage/internal/storage"
	"github.com/steveyegge/triage/internal/types"
)

// DefaultStatus is the workflow state of a newly created issue
const DefaultStatus = "Backlog"

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// Compile-time check that SQLiteStorage implements storage.Storage
var _ storage.Storage = (*SQLiteStorage)(nil)

// New opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func New(path string) (*SQLiteStorage, error) {
	inMemory := path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const issueColumns = `id, identifier, title, description, status,
	assignee_id, assignee_name, created_at, archived_at`

func scanIssue(row rowScanner) (*types.Ticket, error) {
	var (
		ticket                   types.Ticket
		assigneeID, assigneeName sql.NullString
		createdAt                string
		archivedAt               sql.NullString
	)
	if err := row.Scan(&ticket.ID, &ticket.Identifier, &ticket.Title, &ticket.Description, &ticket.Status,
		&assigneeID, &assigneeName, &createdAt, &archivedAt); err != nil {
		return nil, err
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q for %s: %w", createdAt, ticket.ID, err)
	}
	ticket.CreatedAt = created

	if archivedAt.Valid {
		archived, err := time.Parse(time.RFC3339Nano, archivedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid archived_at %q for %s: %w", archivedAt.String, ticket.ID, err)
		}
		ticket.ArchivedAt = &archived
	}
	if assigneeID.Valid {
		ticket.Assignee = &types.Assignee{ID: assigneeID.String, Name: assigneeName.String}
	}
	if err := ticket.Validate(); err != nil {
		return nil, fmt.Errorf("invalid issue %s: %w", ticket.ID, err)
	}
	return &ticket, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// CreateTeam adds a team to the local tracker. Keys are stored upper-case
// and prefix issue identifiers ("ENG" gives "ENG-1", "ENG-2", ...).
func (s *SQLiteStorage) CreateTeam(ctx context.Context, key, name string) (*types.Team, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	name = strings.TrimSpace(name)
	if key == "" {
		return nil, fmt.Errorf("team key is required")
	}
	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}

	team := &types.Team{ID: uuid.New().String(), Key: key, Name: name}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, key, name, created_at)
		VALUES (?, ?, ?, ?)
	`, team.ID, team.Key, team.Name, timestamp(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create team %s: %w", key, err)
	}
	return team, nil
}

// ListTeams returns all local teams ordered by key
func (s *SQLiteStorage) ListTeams(ctx context.Context) ([]*types.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, key, name FROM teams ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*types.Team
	for rows.Next() {
		var team types.Team
		if err := rows.Scan(&team.ID, &team.Key, &team.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}
	return teams, rows.Err()
}

// ListIssues returns the team's backlog in creation order
func (s *SQLiteStorage) ListIssues(ctx context.Context, teamID string) (types.Backlog, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE id = ?`, teamID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up team %s: %w", teamID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("team %s: %w", teamID, storage.ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE team_id = ?
		ORDER BY seq
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var backlog types.Backlog
	for rows.Next() {
		ticket, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		backlog = append(backlog, ticket)
	}
	return backlog, rows.Err()
}

// GetIssue fetches an issue by id or by identifier ("ENG-3")
func (s *SQLiteStorage) GetIssue(ctx context.Context, id string) (*types.Ticket, error) {
	return getIssue(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getIssue(ctx context.Context, q querier, id string) (*types.Ticket, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+issueColumns+`
		FROM issues
		WHERE id = ? OR identifier = ?
	`, id, id)
	ticket, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("issue %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", id, err)
	}
	return ticket, nil
}

// CreateIssue appends a new issue to the team's backlog
func (s *SQLiteStorage) CreateIssue(ctx context.Context, title, description, teamID string) (*types.Ticket, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Bump the per-team counter to get the next identifier
	res, err := tx.ExecContext(ctx, `UPDATE teams SET issue_count = issue_count + 1 WHERE id = ?`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate identifier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("team %s: %w", teamID, storage.ErrNotFound)
	}

	var key string
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT key, issue_count FROM teams WHERE id = ?`, teamID).Scan(&key, &count); err != nil {
		return nil, fmt.Errorf("failed to read identifier counter: %w", err)
	}

	id := uuid.New().String()
	now := timestamp(time.Now())
	_, err = tx.ExecContext(ctx, `
		INSERT INTO issues (id, identifier, team_id, title, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, fmt.Sprintf("%s-%d", key, count), teamID, title, description, DefaultStatus, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert issue: %w", err)
	}

	ticket, err := getIssue(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ticket, nil
}

// UpdateIssue applies a partial update inside one transaction. Omitted
// fields keep the value read at the start of the transaction.
func (s *SQLiteStorage) UpdateIssue(ctx context.Context, id string, update types.TicketUpdate) (*types.Ticket, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getIssue(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	title, description := update.Resolve(current)

	_, err = tx.ExecContext(ctx, `
		UPDATE issues SET title = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, title, description, timestamp(time.Now()), current.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update issue %s: %w", id, err)
	}

	updated, err := getIssue(ctx, tx, current.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// ArchiveIssue marks an issue archived. Archived issues stay in the backlog.
func (s *SQLiteStorage) ArchiveIssue(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE issues SET archived_at = ?, updated_at = ?
		WHERE (id = ? OR identifier = ?) AND archived_at IS NULL
	`, timestamp(time.Now()), timestamp(time.Now()), id, id)
	if err != nil {
		return fmt.Errorf("failed to archive issue %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetIssue(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Viewer reports the local OS user; the local tracker has no accounts
func (s *SQLiteStorage) Viewer(ctx context.Context) (*types.Viewer, error) {
	name := os.Getenv("USER")
	if name == "" {
		name = "local"
	}
	return &types.Viewer{ID: "local", Name: name}, nil
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
