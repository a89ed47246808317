package classifier

import (
	"fmt"

	"github.com/steveyegge/triage/internal/types"
)

// Tool names declared to the engine
const (
	ToolReportIssue         = "report_issue"
	ToolDismissConversation = "dismiss_conversation"
)

// Tools returns the two tool schemas declared on every classifier call
func Tools() []types.ToolSchema {
	return []types.ToolSchema{
		{
			Name:        ToolReportIssue,
			Description: "Handle the conversation as a bug report or feature request that should be tracked as a ticket.",
			Parameters: []types.ToolParameter{
				{Name: "title", Type: types.ParamString, Description: "A short title for the ticket.", Required: true},
				{Name: "description", Type: types.ParamString, Description: "A description of the bug or feature request.", Required: true},
			},
		},
		{
			Name:        ToolDismissConversation,
			Description: "Handle the conversation as a non-issue, for example a question the agent answered. Nothing is filed.",
			Parameters: []types.ToolParameter{
				{Name: "description", Type: types.ParamString, Description: "Why the conversation needs no ticket.", Required: true},
			},
		},
	}
}

// BuildPrompt renders the classification prompt for a conversation
func BuildPrompt(conv types.Conversation) string {
	return fmt.Sprintf(`If there is a feature request or bug report described in the following conversation, call %s with a title and description for a new ticket.
Otherwise, for example if the agent successfully answered the user's question, call %s and do not create a ticket.

Conversation:
%s`, ToolReportIssue, ToolDismissConversation, conv)
}
