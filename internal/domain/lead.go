package domain

import (
	"database/sql"
)

// Lead (leads table)
// LeadNumber is generated on create as LD-<year>-<seq> and is the token
// the mailbox scanner looks for in message subjects.
type Lead struct {
	LeadID     string         `db:"lead_id"`
	LeadNumber string         `db:"lead_number"`
	CustomerID sql.NullString `db:"customer_id"`
	Title      string         `db:"title"`
	Status     string         `db:"status"` // open | qualified | won | lost
	AssignedTo sql.NullString `db:"assigned_to"`
	Notes      sql.NullString `db:"notes"`
	CreatedAt  sql.NullTime   `db:"created_at"`
	UpdatedAt  sql.NullTime   `db:"updated_at"`
}
