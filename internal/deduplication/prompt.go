package deduplication

import (
	"fmt"

	"github.com/steveyegge/triage/internal/types"
)

// BuildMatchPrompt renders the comparison prompt for one ticket
func BuildMatchPrompt(candidate Candidate, ticket *types.Ticket) string {
	return fmt.Sprintf(`Does the following conversation describe a new bug report and/or feature request that isn't described in the following existing ticket?

If the conversation reports the same issue as the existing ticket, call %[1]s to update the ticket's title and description, noting the number of times the issue has been mentioned by users.
If the conversation describes a different issue, do not update the ticket.
If the conversation is neither a bug report nor a feature request (for example the agent successfully answered the user's question), do not update the ticket.

Existing ticket:
Title: %[2]s
Description: %[3]s

Summary of the conversation:
Title: %[4]s
Description: %[5]s

Conversation:
%[6]s`,
		ToolUpdateTicket,
		ticket.Title,
		ticket.Description,
		candidate.Title,
		candidate.Description,
		candidate.Conversation)
}
