package domain

import (
	"database/sql"
)

// SiteSurvey (site_surveys table)
// Root of the proposed-infrastructure tree. All proposed_* child rows are
// owned exclusively by one survey and are replaced wholesale on every
// equipment save.
type SiteSurvey struct {
	SiteSurveyID string         `db:"site_survey_id"`
	CustomerID   sql.NullString `db:"customer_id"`
	LeadID       sql.NullString `db:"lead_id"`
	Status       string         `db:"status"` // scheduled | completed | cancelled
	ArrangedDate sql.NullTime   `db:"arranged_date"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	UpdatedAt    sql.NullTime   `db:"updated_at"`
}
