package models

import "time"

// Pet is referenced by events for display.
type Pet struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Species   string    `db:"species" json:"species"`
	CreatedAt time.Time `db:"created_at" json:"created_at,omitempty"`
}
