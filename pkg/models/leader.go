package models

import (
	"strings"
	"time"
)

// Leader is one person record entered through the registration backend.
// Leaders are only ever compared for duplication within the same event scope.
type Leader struct {
	ID          string     `json:"id" db:"id"`
	EventID     string     `json:"event_id" db:"event_id"`
	Name        string     `json:"name" db:"name"`
	Email       string     `json:"email" db:"email"`
	Phone       string     `json:"phone" db:"phone"`
	VotingPlace string     `json:"voting_place" db:"voting_place"`
	Locality    string     `json:"locality" db:"locality"`
	NeedsReview bool       `json:"needs_review" db:"needs_review"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// contact field sentinels that data entry uses for "not available"
var contactSentinels = map[string]struct{}{
	"":    {},
	"na":  {},
	"n/a": {},
}

// HasContact reports whether a contact field holds a usable value.
// Empty strings and the "na"/"n/a" sentinels all count as missing.
func HasContact(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	_, missing := contactSentinels[v]
	return !missing
}

// Malformed reports whether the record is unusable for matching.
// A leader with no stable identifier or no name cannot be scored or reported on.
func (l *Leader) Malformed() bool {
	return strings.TrimSpace(l.ID) == "" || strings.TrimSpace(l.Name) == ""
}
