// Package samples holds canned support conversations for trying triage
// end to end without a live support queue.
package samples

import (
	"fmt"
	"sort"

	"github.com/steveyegge/triage/internal/types"
)

// Kind is what a sample conversation is expected to be classified as
type Kind string

const (
	KindBugReport      Kind = "bug_report"
	KindFeatureRequest Kind = "feature_request"
	KindGeneralQuery   Kind = "general_query"
)

// Sample is one named conversation
type Sample struct {
	Name         string
	Kind         Kind
	Conversation types.Conversation
}

// ExpectsTicket reports whether the sample should create or update a ticket
func (s Sample) ExpectsTicket() bool {
	return s.Kind != KindGeneralQuery
}

var all = []Sample{
	{"bug_report_1", KindBugReport, "[User]: 'I can't change my delivery address', [Agent]: 'Sorry for the inconvenience we will get that fixed right away'"},
	{"feature_request_1", KindFeatureRequest, "[User]: 'I would like to be able to change my delivery address', [Agent]: 'Thanks for the suggestion!'"},
	{"general_query_1", KindGeneralQuery, "[User]: 'Hi, I can't figure out how to change my delivery address', [Agent]: 'You can change it by going to Settings > User Information > Address', [User]: 'Thanks!'"},
	{"bug_report_2", KindBugReport, "[User]: 'I can't change my profile picture', [Agent]: 'Sorry for the inconvenience we will get that fixed right away'"},
	{"feature_request_2", KindFeatureRequest, "[User]: 'I would like to be able to change my profile picture', [Agent]: 'Thanks for the suggestion!'"},
	{"general_query_2", KindGeneralQuery, "[User]: 'Hi, I can't figure out how to change my profile picture', [Agent]: 'You can change it by going to Settings > User Information > Profile Picture', [User]: 'Thanks!'"},
	{"bug_report_3", KindBugReport, "[User]: 'My location won't change even after I enter my new location', [Agent]: 'Sorry for the inconvenience we will get that fixed right away'"},
	{"feature_request_3", KindFeatureRequest, "[User]: 'I would like to be able to change my current location', [Agent]: 'Thanks for the suggestion!'"},
	{"general_query_3", KindGeneralQuery, "[User]: 'Hi, I can't figure out how to change my current locatino', [Agent]: 'You can change it by going to Settings > User Information > Current Location', [User]: 'Thanks!'"},
}

// All returns every sample in a stable order
func All() []Sample {
	out := make([]Sample, len(all))
	copy(out, all)
	return out
}

// Names returns the sample names sorted alphabetically
func Names() []string {
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	sort.Strings(names)
	return names
}

// Get looks a sample up by name
func Get(name string) (Sample, error) {
	for _, s := range all {
		if s.Name == name {
			return s, nil
		}
	}
	return Sample{}, fmt.Errorf("unknown sample %q (see 'triage samples')", name)
}
