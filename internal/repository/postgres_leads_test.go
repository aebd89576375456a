package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLeadsMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresLeadsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresLeadsRepository(db)
}

func TestNextLeadNumber_FirstOfYear(t *testing.T) {
	db, mock, repo := setupLeadsMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT MAX\(SUBSTRING\(lead_number`).
		WithArgs(`^LD-2026-(\d+)$`, "LD-2026-%").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	number, err := repo.NextLeadNumber(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, "LD-2026-0001", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextLeadNumber_Increments(t *testing.T) {
	db, mock, repo := setupLeadsMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT MAX\(SUBSTRING\(lead_number`).
		WithArgs(`^LD-2026-(\d+)$`, "LD-2026-%").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(41))

	number, err := repo.NextLeadNumber(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, "LD-2026-0042", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLeadByNumber_NotFound(t *testing.T) {
	db, mock, repo := setupLeadsMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM leads WHERE lead_number`).
		WithArgs("LD-2026-9999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLeadByNumber(context.Background(), "LD-2026-9999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLeadByNumber_Found(t *testing.T) {
	db, mock, repo := setupLeadsMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"lead_id", "lead_number", "customer_id", "title", "status", "assigned_to", "notes", "created_at", "updated_at",
	}).AddRow("lead-1", "LD-2026-0042", nil, "Office cabling", "open", nil, nil, nil, nil)

	mock.ExpectQuery(`FROM leads WHERE lead_number`).
		WithArgs("LD-2026-0042").
		WillReturnRows(rows)

	lead, err := repo.GetLeadByNumber(context.Background(), "LD-2026-0042")
	require.NoError(t, err)
	assert.Equal(t, "lead-1", lead.LeadID)
	assert.Equal(t, "Office cabling", lead.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
