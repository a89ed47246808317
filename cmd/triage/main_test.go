package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/storage/sqlite"
	"github.com/steveyegge/triage/internal/types"
)

func init() {
	color.NoColor = true
}

func TestReadConversation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conv.txt")
	if err := os.WriteFile(file, []byte("  [User]: from a file\n"), 0644); err != nil {
		t.Fatalf("Failed to write conversation: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		file    string
		sample  string
		stdin   string
		want    types.Conversation
		wantErr bool
	}{
		{name: "argument", args: []string{"[User]: hello"}, want: "[User]: hello"},
		{name: "file trimmed", file: file, want: "[User]: from a file"},
		{name: "dash reads stdin", file: "-", stdin: "[User]: piped", want: "[User]: piped"},
		{name: "stdin fallback", stdin: "[User]: piped\n", want: "[User]: piped"},
		{name: "sample", sample: "general_query_1", want: "[User]: 'Hi, I can't figure out how to change my delivery address', [Agent]: 'You can change it by going to Settings > User Information > Address', [User]: 'Thanks!'"},
		{name: "unknown sample", sample: "nope", wantErr: true},
		{name: "two sources", args: []string{"x"}, sample: "bug_report_1", wantErr: true},
		{name: "empty stdin", stdin: "   \n", wantErr: true},
		{name: "missing file", file: filepath.Join(dir, "missing.txt"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readConversation(tt.args, tt.file, tt.sample, strings.NewReader(tt.stdin))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got conversation %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrintOutcome(t *testing.T) {
	outcome := types.Created(&types.Ticket{ID: "abc", Identifier: "SUP-1", Title: "Address change broken"})
	outcome.RunID = "run-1"

	var text bytes.Buffer
	if err := printOutcome(&text, outcome, false); err != nil {
		t.Fatalf("printOutcome failed: %v", err)
	}
	if !strings.Contains(text.String(), "Created ticket SUP-1") {
		t.Errorf("Text output missing ticket line: %s", text.String())
	}

	var js bytes.Buffer
	if err := printOutcome(&js, outcome, true); err != nil {
		t.Fatalf("printOutcome failed: %v", err)
	}
	if !strings.Contains(js.String(), `"action": "created"`) {
		t.Errorf("JSON output missing action: %s", js.String())
	}

	if err := printOutcome(&js, &types.Outcome{Kind: "bogus"}, true); err == nil {
		t.Error("Expected error for invalid outcome kind")
	}
}

// writeLocalSetup creates a sqlite-backed config in a fresh working
// directory and returns the id of its team
func writeLocalSetup(t *testing.T, withTeam bool) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TRIAGE_DB_PATH", "")

	store, err := sqlite.New(filepath.Join(dir, ".triage", "triage.db"))
	if err != nil {
		t.Fatalf("Failed to create local tracker: %v", err)
	}
	team, err := store.CreateTeam(context.Background(), "sup", "Support")
	if err != nil {
		t.Fatalf("Failed to create team: %v", err)
	}
	store.Close()

	teamID := team.ID
	if !withTeam {
		teamID = "no-such-team"
	}
	cfg := "tracker: sqlite\nteam_id: " + teamID + "\nreasoning_key_file: key.txt\n"
	if err := os.WriteFile("triage.yaml", []byte(cfg), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if err := os.WriteFile("key.txt", []byte("sk-test\n"), 0600); err != nil {
		t.Fatalf("Failed to write key: %v", err)
	}
	return team.ID
}

func TestDoctorLocalTrackerPasses(t *testing.T) {
	writeLocalSetup(t, true)

	var out bytes.Buffer
	results := runDoctor(context.Background(), &out, doctorOptions{verbose: true})
	if code := results.summarize(&out); code != 0 {
		t.Fatalf("Expected exit code 0, got %d:\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "Team Support") {
		t.Errorf("Expected team check to name the team:\n%s", out.String())
	}
}

func TestDoctorUnknownTeamFails(t *testing.T) {
	writeLocalSetup(t, false)

	var out bytes.Buffer
	results := runDoctor(context.Background(), &out, doctorOptions{})
	if code := results.summarize(&out); code != 1 {
		t.Fatalf("Expected exit code 1, got %d:\n%s", code, out.String())
	}
	if len(results.failures) != 1 || !strings.Contains(results.failures[0], "no-such-team") {
		t.Errorf("Expected one failure naming the team, got %v", results.failures)
	}
}

func TestDoctorMissingCredentialIsCritical(t *testing.T) {
	writeLocalSetup(t, true)
	if err := os.Remove("key.txt"); err != nil {
		t.Fatalf("Failed to remove key: %v", err)
	}

	var out bytes.Buffer
	results := runDoctor(context.Background(), &out, doctorOptions{})
	if code := results.summarize(&out); code != 2 {
		t.Fatalf("Expected exit code 2, got %d:\n%s", code, out.String())
	}
}

func TestLoadAppCreatesLocalDatabase(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TRIAGE_DB_PATH", "")
	cfg := "tracker: sqlite\nreasoning_key_file: key.txt\n"
	if err := os.WriteFile("triage.yaml", []byte(cfg), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if err := os.WriteFile("key.txt", []byte("sk-test"), 0600); err != nil {
		t.Fatalf("Failed to write key: %v", err)
	}

	if _, err := loadApp(false); err == nil {
		t.Fatal("Expected discovery to fail without a database")
	}

	a, err := loadApp(true)
	if err != nil {
		t.Fatalf("loadApp failed: %v", err)
	}
	defer a.Close()
	if _, err := a.localStore(); err != nil {
		t.Errorf("Expected a local store: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".triage", "triage.db")); err != nil {
		t.Errorf("Expected database file to be created: %v", err)
	}
	if _, err := a.pipeline(); err == nil {
		t.Error("Expected pipeline to require a team")
	}
}

func TestRunCommandReturnsErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TRIAGE_REASONING_KEY_FILE", "")

	if err := runCmd.Flags().Set("sample", "bug_report_1"); err != nil {
		t.Fatalf("Failed to set flag: %v", err)
	}
	t.Cleanup(func() { _ = runCmd.Flags().Set("sample", "") })

	err := runCmd.RunE(runCmd, []string{"[User]: two sources"})
	if err == nil || !strings.Contains(err.Error(), "not more than one") {
		t.Fatalf("Expected conversation source error, got %v", err)
	}

	// No key file in the working directory: the error comes back to the
	// caller instead of exiting the process
	err = runCmd.RunE(runCmd, nil)
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("Expected ErrMissingCredential, got %v", err)
	}
}
