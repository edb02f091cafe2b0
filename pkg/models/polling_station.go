package models

import "time"

// PollingStation is one authoritative voting location from the reference
// registry. Read-only during a reconciliation run.
type PollingStation struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Locality  string    `json:"locality" db:"locality"`
	Aliases   []string  `json:"aliases,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Names returns the canonical name followed by every alias. Scoring takes the
// best similarity across all of them; rewrites always use the canonical name.
func (p *PollingStation) Names() []string {
	names := make([]string, 0, len(p.Aliases)+1)
	names = append(names, p.Name)
	names = append(names, p.Aliases...)
	return names
}
