package types

import (
	"fmt"
	"strings"
	"time"
)

// Conversation is the raw text of a support conversation. It usually holds
// role-tagged turns like "[User]: ..." and "[Agent]: ..." but is never parsed.
type Conversation string

// String returns the conversation text
func (c Conversation) String() string {
	return string(c)
}

// IsBlank reports whether the conversation has no non-whitespace content
func (c Conversation) IsBlank() bool {
	return strings.TrimSpace(string(c)) == ""
}

// Ticket is a snapshot of an issue owned by the external tracker
type Ticket struct {
	ID          string     `json:"id"`
	Identifier  string     `json:"identifier,omitempty"` // Human-facing key, e.g. "ENG-42"
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Assignee    *Assignee  `json:"assignee,omitempty"`
	Status      string     `json:"status,omitempty"`
	URL         string     `json:"url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// Validate checks if the ticket has the fields every backend must return
func (t *Ticket) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(t.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(t.Title))
	}
	return nil
}

// IsArchived reports whether the tracker has archived this ticket
func (t *Ticket) IsArchived() bool {
	return t.ArchivedAt != nil
}

// Assignee is the tracker user a ticket is assigned to
type Assignee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Backlog is the ordered list of tickets for one team, in the order the
// tracker returned them. Dedup walks it front to back.
type Backlog []*Ticket

// Team is a tracker team that owns a backlog
type Team struct {
	ID   string `json:"id"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name"`
}

// Viewer is the identity behind the tracker credential
type Viewer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// TicketUpdate is a partial update. Nil fields keep their current value.
type TicketUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u TicketUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil
}

// Resolve fills omitted fields from the current ticket and returns the
// title and description that should be stored.
func (u TicketUpdate) Resolve(current *Ticket) (title, description string) {
	title, description = current.Title, current.Description
	if u.Title != nil {
		title = *u.Title
	}
	if u.Description != nil {
		description = *u.Description
	}
	return title, description
}
