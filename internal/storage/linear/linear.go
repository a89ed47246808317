// Package linear implements storage.Storage against the Linear GraphQL API.
package linear

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"github.com/steveyegge/triage/internal/storage"
	"github.com/steveyegge/triage/internal/types"
)

// DefaultEndpoint is Linear's public GraphQL endpoint
const DefaultEndpoint = "https://api.linear.app/graphql"

// DefaultPageSize is the number of issues requested per backlog page
const DefaultPageSize = 50

// Config holds Linear client configuration
type Config struct {
	APIKey     string // Personal API key, sent as the Authorization header
	Endpoint   string // Default: DefaultEndpoint
	PageSize   int    // Default: DefaultPageSize
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to Linear over GraphQL
type Client struct {
	gql      *graphql.Client
	apiKey   string
	pageSize int
	logger   *slog.Logger
}

// Compile-time check that Client implements storage.Storage
var _ storage.Storage = (*Client)(nil)

// New creates a Linear client
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("linear API key is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gql := graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient))
	gql.Log = func(s string) { logger.Debug("linear graphql", "message", s) }

	return &Client{
		gql:      gql,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		logger:   logger,
	}, nil
}

// --- wire types ---

type issueNode struct {
	ID          string     `json:"id"`
	Identifier  string     `json:"identifier"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	CreatedAt   time.Time  `json:"createdAt"`
	ArchivedAt  *time.Time `json:"archivedAt"`
	Assignee    *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"assignee"`
	State *struct {
		Name string `json:"name"`
	} `json:"state"`
}

// toTicket converts a wire node, rejecting nodes missing the fields every
// backend must return
func (n *issueNode) toTicket() (*types.Ticket, error) {
	t := &types.Ticket{
		ID:          n.ID,
		Identifier:  n.Identifier,
		Title:       n.Title,
		Description: n.Description,
		URL:         n.URL,
		CreatedAt:   n.CreatedAt,
		ArchivedAt:  n.ArchivedAt,
	}
	if n.Assignee != nil {
		t.Assignee = &types.Assignee{ID: n.Assignee.ID, Name: n.Assignee.Name}
	}
	if n.State != nil {
		t.Status = n.State.Name
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid issue %q from linear: %w", n.ID, err)
	}
	return t, nil
}

type issuePayload struct {
	Success bool       `json:"success"`
	Issue   *issueNode `json:"issue"`
}

// run executes one GraphQL request with the credential attached
func (c *Client) run(ctx context.Context, req *graphql.Request, resp interface{}) error {
	req.Header.Set("Authorization", c.apiKey)
	if err := c.gql.Run(ctx, req, resp); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
		}
		return err
	}
	return nil
}

// isNotFound reports whether Linear rejected an id that does not exist
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "entity not found") || strings.Contains(msg, "could not find")
}

// ListIssues returns every issue of the team, following pagination
// cursors until the last page. Order is the order Linear returns.
func (c *Client) ListIssues(ctx context.Context, teamID string) (types.Backlog, error) {
	if teamID == "" {
		return nil, fmt.Errorf("team id is required")
	}

	var backlog types.Backlog
	var after *string
	for page := 1; ; page++ {
		req := graphql.NewRequest(teamIssuesQuery)
		req.Var("teamId", teamID)
		req.Var("first", c.pageSize)
		req.Var("after", after)

		var resp struct {
			Team *struct {
				ID     string `json:"id"`
				Name   string `json:"name"`
				Issues struct {
					Nodes    []issueNode `json:"nodes"`
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
				} `json:"issues"`
			} `json:"team"`
		}
		if err := c.run(ctx, req, &resp); err != nil {
			return nil, fmt.Errorf("listing issues for team %s (page %d): %w", teamID, page, err)
		}
		if resp.Team == nil {
			return nil, fmt.Errorf("team %s: %w", teamID, storage.ErrNotFound)
		}

		for i := range resp.Team.Issues.Nodes {
			ticket, err := resp.Team.Issues.Nodes[i].toTicket()
			if err != nil {
				return nil, fmt.Errorf("listing issues for team %s (page %d): %w", teamID, page, err)
			}
			backlog = append(backlog, ticket)
		}

		info := resp.Team.Issues.PageInfo
		if !info.HasNextPage || info.EndCursor == "" {
			break
		}
		cursor := info.EndCursor
		after = &cursor
	}

	c.logger.Debug("fetched backlog", "team_id", teamID, "count", len(backlog))
	return backlog, nil
}

// GetIssue fetches one issue by id
func (c *Client) GetIssue(ctx context.Context, id string) (*types.Ticket, error) {
	req := graphql.NewRequest(issueQuery)
	req.Var("id", id)

	var resp struct {
		Issue *issueNode `json:"issue"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("getting issue %s: %w", id, err)
	}
	if resp.Issue == nil {
		return nil, fmt.Errorf("issue %s: %w", id, storage.ErrNotFound)
	}
	return resp.Issue.toTicket()
}

// CreateIssue files a new issue for the team
func (c *Client) CreateIssue(ctx context.Context, title, description, teamID string) (*types.Ticket, error) {
	req := graphql.NewRequest(issueCreateMutation)
	req.Var("input", map[string]interface{}{
		"title":       title,
		"description": description,
		"teamId":      teamID,
	})

	var resp struct {
		IssueCreate issuePayload `json:"issueCreate"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}
	if !resp.IssueCreate.Success || resp.IssueCreate.Issue == nil {
		return nil, fmt.Errorf("creating issue: linear reported success=false")
	}
	return resp.IssueCreate.Issue.toTicket()
}

// UpdateIssue applies a partial update. When either field is omitted the
// issue is fetched first and the omitted field is sent with its current
// value, so an unknown id surfaces as storage.ErrNotFound.
func (c *Client) UpdateIssue(ctx context.Context, id string, update types.TicketUpdate) (*types.Ticket, error) {
	var title, description string
	if update.Title != nil && update.Description != nil {
		title, description = *update.Title, *update.Description
	} else {
		current, err := c.GetIssue(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolving update for %s: %w", id, err)
		}
		title, description = update.Resolve(current)
	}

	req := graphql.NewRequest(issueUpdateMutation)
	req.Var("id", id)
	req.Var("input", map[string]interface{}{
		"title":       title,
		"description": description,
	})

	var resp struct {
		IssueUpdate issuePayload `json:"issueUpdate"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("updating issue %s: %w", id, err)
	}
	if !resp.IssueUpdate.Success || resp.IssueUpdate.Issue == nil {
		return nil, fmt.Errorf("updating issue %s: linear reported success=false", id)
	}
	return resp.IssueUpdate.Issue.toTicket()
}

// ListTeams returns the teams visible to the credential
func (c *Client) ListTeams(ctx context.Context) ([]*types.Team, error) {
	var resp struct {
		Teams struct {
			Nodes []types.Team `json:"nodes"`
		} `json:"teams"`
	}
	if err := c.run(ctx, graphql.NewRequest(teamsQuery), &resp); err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	teams := make([]*types.Team, len(resp.Teams.Nodes))
	for i := range resp.Teams.Nodes {
		teams[i] = &resp.Teams.Nodes[i]
	}
	return teams, nil
}

// Viewer returns the user behind the API key
func (c *Client) Viewer(ctx context.Context) (*types.Viewer, error) {
	var resp struct {
		Viewer *types.Viewer `json:"viewer"`
	}
	if err := c.run(ctx, graphql.NewRequest(viewerQuery), &resp); err != nil {
		return nil, fmt.Errorf("fetching viewer: %w", err)
	}
	if resp.Viewer == nil {
		return nil, fmt.Errorf("fetching viewer: empty response")
	}
	return resp.Viewer, nil
}

// Close is a no-op; the HTTP client holds no exclusive resources
func (c *Client) Close() error {
	return nil
}
