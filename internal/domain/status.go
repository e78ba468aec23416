package domain

import "strings"

// Urgency ranks how soon a reorder is needed.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

var urgencyRanks = map[Urgency]int{
	UrgencyCritical: 4,
	UrgencyHigh:     3,
	UrgencyMedium:   2,
	UrgencyLow:      1,
}

// Rank orders urgencies for sorting; unknown values rank lowest.
func (u Urgency) Rank() int {
	return urgencyRanks[u]
}

// ParseUrgency returns the urgency for a given label (case-insensitive).
func ParseUrgency(label string) (Urgency, bool) {
	u := Urgency(strings.ToLower(strings.TrimSpace(label)))
	_, ok := urgencyRanks[u]

	return u, ok
}

// SuggestionStatus is the lifecycle state of a reorder suggestion.
type SuggestionStatus string

const (
	StatusPending  SuggestionStatus = "pending"
	StatusApproved SuggestionStatus = "approved"
	StatusRejected SuggestionStatus = "rejected"
)

var suggestionStatuses = map[SuggestionStatus]struct{}{
	StatusPending:  {},
	StatusApproved: {},
	StatusRejected: {},
}

// ParseSuggestionStatus returns the status for a given label (case-insensitive).
func ParseSuggestionStatus(label string) (SuggestionStatus, bool) {
	s := SuggestionStatus(strings.ToLower(strings.TrimSpace(label)))
	_, ok := suggestionStatuses[s]

	return s, ok
}

// IsTerminal reports whether the status is set by an external decision.
func (s SuggestionStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}
