package repl

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/steveyegge/triage/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type recordingRunner struct {
	convs []types.Conversation
	err   error
}

func (r *recordingRunner) Run(ctx context.Context, conv types.Conversation) (*types.Outcome, error) {
	r.convs = append(r.convs, conv)
	if r.err != nil {
		return nil, r.err
	}
	outcome := types.Skipped("")
	outcome.RunID = "run-1"
	return outcome, nil
}

func newTestREPL(t *testing.T, runner *recordingRunner) (*REPL, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r, err := New(&Config{Runner: runner, Out: &out})
	require.NoError(t, err)
	return r, &out
}

func TestNewRequiresRunner(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}

func TestBlankLineSubmitsConversation(t *testing.T) {
	runner := &recordingRunner{}
	r, out := newTestREPL(t, runner)

	require.NoError(t, r.HandleLine("[User]: I can't change my address"))
	require.NoError(t, r.HandleLine("[Agent]: We'll fix it"))
	assert.Empty(t, runner.convs, "nothing runs until the blank line")

	require.NoError(t, r.HandleLine(""))
	require.Len(t, runner.convs, 1)
	assert.Equal(t, types.Conversation("[User]: I can't change my address\n[Agent]: We'll fix it"), runner.convs[0])
	assert.Contains(t, out.String(), "Skipped")

	require.NoError(t, r.HandleLine("   "))
	assert.Len(t, runner.convs, 1, "blank line with nothing collected is ignored")
}

func TestCommandsOnlyOutsideConversation(t *testing.T) {
	runner := &recordingRunner{}
	r, _ := newTestREPL(t, runner)

	require.NoError(t, r.HandleLine("[User]: see the docs"))
	require.NoError(t, r.HandleLine("/exit is what I typed"))
	require.NoError(t, r.HandleLine(""))
	require.Len(t, runner.convs, 1)
	assert.Contains(t, runner.convs[0].String(), "/exit is what I typed")
}

func TestExitCommand(t *testing.T) {
	r, _ := newTestREPL(t, &recordingRunner{})
	assert.Equal(t, errExit, r.HandleLine("/quit"))
}

func TestUnknownCommand(t *testing.T) {
	r, _ := newTestREPL(t, &recordingRunner{})
	err := r.HandleLine("/frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/frobnicate")
}

func TestSampleCommand(t *testing.T) {
	runner := &recordingRunner{}
	r, _ := newTestREPL(t, runner)

	require.NoError(t, r.HandleLine("/sample bug_report_1"))
	require.Len(t, runner.convs, 1)
	assert.Contains(t, runner.convs[0].String(), "delivery address")

	assert.Error(t, r.HandleLine("/sample"))
	assert.Error(t, r.HandleLine("/sample missing"))
}

func TestJSONToggle(t *testing.T) {
	runner := &recordingRunner{}
	r, out := newTestREPL(t, runner)

	require.NoError(t, r.HandleLine("/json"))
	out.Reset()
	require.NoError(t, r.HandleLine("/sample general_query_1"))
	assert.Contains(t, out.String(), `"action": "skipped"`)
}

func TestRunnerErrorSurfaces(t *testing.T) {
	runner := &recordingRunner{err: errors.New("tracker unavailable")}
	r, _ := newTestREPL(t, runner)

	require.NoError(t, r.HandleLine("[User]: hi"))
	err := r.HandleLine("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracker unavailable")
	assert.Empty(t, r.pending, "failed conversation is not resubmitted")
}

func TestSamplesAndHelp(t *testing.T) {
	r, out := newTestREPL(t, &recordingRunner{})

	require.NoError(t, r.HandleLine("/samples"))
	assert.Contains(t, out.String(), "feature_request_3")

	require.NoError(t, r.HandleLine("/help"))
	assert.Contains(t, out.String(), "/sample NAME")
}
