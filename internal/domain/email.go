package domain

import (
	"database/sql"
	"time"
)

// EmailAccount (email_accounts table)
// A connected Microsoft or Google mailbox scanned by the cron pass.
type EmailAccount struct {
	AccountID      string       `db:"account_id"`
	Provider       string       `db:"provider"` // microsoft | google
	Address        string       `db:"address"`
	AccessToken    string       `db:"access_token"`
	RefreshToken   string       `db:"refresh_token"`
	TokenExpiresAt sql.NullTime `db:"token_expires_at"`
	CreatedAt      sql.NullTime `db:"created_at"`
}

// TokenNeedsRefresh reports whether the access token is missing, expired,
// or expires within 5 minutes of now.
func (a EmailAccount) TokenNeedsRefresh(now time.Time) bool {
	if a.AccessToken == "" || !a.TokenExpiresAt.Valid {
		return true
	}
	return a.TokenExpiresAt.Time.Before(now.Add(5 * time.Minute))
}

// EmailThread (email_threads table)
// One thread per (lead, subject) pair.
type EmailThread struct {
	ThreadID  string       `db:"thread_id"`
	LeadID    string       `db:"lead_id"`
	Subject   string       `db:"subject"`
	CreatedAt sql.NullTime `db:"created_at"`
}

// EmailMessage (email_messages table)
type EmailMessage struct {
	MessageID  string    `db:"message_id"`
	ThreadID   string    `db:"thread_id"`
	Subject    string    `db:"subject"`
	Sender     string    `db:"sender"`
	ReceivedAt time.Time `db:"received_at"`
	Body       string    `db:"body"`
}
