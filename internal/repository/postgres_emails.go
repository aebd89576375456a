package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kimoncrm/internal/domain"
)

type PostgresEmailsRepository struct {
	db *sql.DB
}

func NewPostgresEmailsRepository(db *sql.DB) *PostgresEmailsRepository {
	return &PostgresEmailsRepository{db: db}
}

func (r *PostgresEmailsRepository) ListAccounts(ctx context.Context) ([]*domain.EmailAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account_id::text, provider, address, access_token, refresh_token, token_expires_at, created_at
		 FROM email_accounts
		 ORDER BY address`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list email accounts: %w", err)
	}
	defer rows.Close()

	out := []*domain.EmailAccount{}
	for rows.Next() {
		var a domain.EmailAccount
		if err := rows.Scan(&a.AccountID, &a.Provider, &a.Address, &a.AccessToken, &a.RefreshToken, &a.TokenExpiresAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *PostgresEmailsRepository) UpdateAccountToken(ctx context.Context, accountID, accessToken string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE email_accounts SET access_token = $1, token_expires_at = $2 WHERE account_id = $3`,
		accessToken, expiresAt, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account token: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresEmailsRepository) GetOrCreateThread(ctx context.Context, leadID, subject string) (*domain.EmailThread, error) {
	var t domain.EmailThread
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO email_threads (lead_id, subject)
		 VALUES ($1, $2)
		 ON CONFLICT (lead_id, subject) DO UPDATE SET subject = EXCLUDED.subject
		 RETURNING thread_id::text, lead_id::text, subject, created_at`,
		leadID, subject,
	).Scan(&t.ThreadID, &t.LeadID, &t.Subject, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create thread: %w", err)
	}
	return &t, nil
}

func (r *PostgresEmailsRepository) MessageExists(ctx context.Context, subject string, receivedAt time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM email_messages WHERE subject = $1 AND received_at = $2)`,
		subject, receivedAt,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check message existence: %w", err)
	}
	return exists, nil
}

func (r *PostgresEmailsRepository) InsertMessage(ctx context.Context, m *domain.EmailMessage) (string, error) {
	var messageID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO email_messages (thread_id, subject, sender, received_at, body)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING message_id::text`,
		m.ThreadID, m.Subject, m.Sender, m.ReceivedAt, m.Body,
	).Scan(&messageID)
	if err != nil {
		return "", fmt.Errorf("failed to insert message: %w", err)
	}
	return messageID, nil
}
