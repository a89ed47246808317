// Package deduplication decides whether a reportable conversation is
// already tracked by an existing ticket.
//
// # Overview
//
// A Matcher compares one candidate against one ticket. The orchestrator in
// package triage walks the backlog in tracker order and stops at the first
// match, so at most one ticket is ever updated per run.
//
// # Matching
//
// AIDeduplicator makes exactly one reasoning engine call per ticket with a
// single declared tool, update_ticket(new_title, new_description). Both
// arguments are optional. The prompt asks the engine to:
//   - leave the ticket alone when the conversation describes a different issue
//   - leave the ticket alone when the conversation is neither a bug report
//     nor a feature request
//   - otherwise rewrite the title and description, noting how many times
//     users have reported the issue
//
// A call to update_ticket is a match. No tool call, or only calls to tools
// that were not declared, is no match.
//
// Every double quote in a proposed title or description is replaced with a
// single quote before the update reaches the tracker (see NormalizeQuotes).
//
// # Configuration
//
// The default configuration compares against the whole backlog, archived
// tickets included:
//   - MaxCandidates: 0 (no limit)
//   - SkipArchived: false
//
// ConfigFromEnv layers the TRIAGE_DEDUP_* overrides over a base config;
// config.Load applies it to the dedup block of triage.yaml.
//
// # Error Handling
//
// There is no fail-open mode. An engine error aborts the scan and the run;
// no ticket is created or updated.
package deduplication
