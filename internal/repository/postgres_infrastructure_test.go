package repository

import (
	"context"
	"database/sql"
	"testing"

	"kimoncrm/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupInfraMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresInfrastructureRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresInfrastructureRepository(db)
}

func expectSurveyExists(mock sqlmock.Sqlmock, surveyID string, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM site_surveys`).
		WithArgs(surveyID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

// expectDeleteAll the fixed child-first delete sequence every save runs.
func expectDeleteAll(mock sqlmock.Sqlmock, surveyID string) {
	mock.ExpectExec(`DELETE FROM proposed_product_associations`).
		WithArgs(surveyID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM proposed_outlets`).
		WithArgs(surveyID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM proposed_rooms`).
		WithArgs(surveyID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM proposed_floor_racks`).
		WithArgs(surveyID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM proposed_central_racks`).
		WithArgs(surveyID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM proposed_connections`).
		WithArgs(surveyID).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestReplaceInfrastructure_EmptyTreeClearsEverything(t *testing.T) {
	db, mock, repo := setupInfraMock(t)
	defer db.Close()

	surveyID := "11111111-1111-1111-1111-111111111111"

	mock.ExpectBegin()
	expectSurveyExists(mock, surveyID, true)
	expectDeleteAll(mock, surveyID)
	mock.ExpectCommit()

	err := repo.ReplaceInfrastructure(context.Background(), surveyID, &InfrastructureTree{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceInfrastructure_MissingSurvey(t *testing.T) {
	db, mock, repo := setupInfraMock(t)
	defer db.Close()

	surveyID := "22222222-2222-2222-2222-222222222222"

	mock.ExpectBegin()
	expectSurveyExists(mock, surveyID, false)
	mock.ExpectRollback()

	err := repo.ReplaceInfrastructure(context.Background(), surveyID, &InfrastructureTree{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceInfrastructure_InsertsTreeWithAttachPoints(t *testing.T) {
	db, mock, repo := setupInfraMock(t)
	defer db.Close()

	surveyID := "33333333-3333-3333-3333-333333333333"

	tree := &InfrastructureTree{
		CentralRacks: []*CentralRackNode{{
			Rack: &domain.CentralRack{SiteSurveyID: surveyID, RackName: "MDF", Units: 42},
			Products: []*domain.ProductAssociation{{
				SiteSurveyID: surveyID, ProductID: "prod-1", Quantity: 2, UnitPrice: 100, MarginPercent: 10,
			}},
		}},
		Rooms: []*RoomNode{{
			Room: &domain.Room{SiteSurveyID: surveyID, RoomName: "R101", IdenticalRooms: 1},
			Outlets: []*domain.Outlet{
				{OutletName: "O1", Quantity: 2},
			},
		}},
		Equipment: []*domain.ProductAssociation{{
			SiteSurveyID: surveyID, ProductID: "prod-9", Quantity: 1, UnitPrice: 5,
		}},
	}

	mock.ExpectBegin()
	expectSurveyExists(mock, surveyID, true)
	expectDeleteAll(mock, surveyID)

	mock.ExpectQuery(`INSERT INTO proposed_central_racks`).
		WithArgs(surveyID, sqlmock.AnyArg(), sqlmock.AnyArg(), "MDF", sqlmock.AnyArg(), 42, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"rack_id"}).AddRow("rack-1"))
	// The rack's product line points at the freshly generated rack id and
	// nothing else.
	mock.ExpectExec(`INSERT INTO proposed_product_associations`).
		WithArgs(surveyID, "prod-1", 2.0, 100.0, 10.0, sqlmock.AnyArg(), "rack-1", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(`INSERT INTO proposed_rooms`).
		WithArgs(surveyID, sqlmock.AnyArg(), "R101", sqlmock.AnyArg(), sqlmock.AnyArg(), false, 1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"room_id"}).AddRow("room-1"))
	mock.ExpectExec(`INSERT INTO proposed_outlets`).
		WithArgs("room-1", "O1", sqlmock.AnyArg(), 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Standalone line keeps all four parent columns NULL.
	mock.ExpectExec(`INSERT INTO proposed_product_associations`).
		WithArgs(surveyID, "prod-9", 1.0, 5.0, 0.0, sqlmock.AnyArg(), nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	err := repo.ReplaceInfrastructure(context.Background(), surveyID, tree)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceInfrastructure_InsertFailureRollsBack(t *testing.T) {
	db, mock, repo := setupInfraMock(t)
	defer db.Close()

	surveyID := "44444444-4444-4444-4444-444444444444"
	tree := &InfrastructureTree{
		FloorRacks: []*FloorRackNode{{
			Rack: &domain.FloorRack{SiteSurveyID: surveyID, RackName: "IDF-1"},
		}},
	}

	mock.ExpectBegin()
	expectSurveyExists(mock, surveyID, true)
	expectDeleteAll(mock, surveyID)
	mock.ExpectQuery(`INSERT INTO proposed_floor_racks`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.ReplaceInfrastructure(context.Background(), surveyID, tree)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInfrastructure_EmptyIDShortCircuits(t *testing.T) {
	db, mock, repo := setupInfraMock(t)
	defer db.Close()

	tree, err := repo.GetInfrastructure(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, tree.Empty())
	assert.NotNil(t, tree.CentralRacks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInfrastructure_AssemblesNestedTree(t *testing.T) {
	db, mock, repo := setupInfraMock(t)
	defer db.Close()

	surveyID := "55555555-5555-5555-5555-555555555555"

	mock.ExpectQuery(`FROM proposed_central_racks`).
		WithArgs(surveyID).
		WillReturnRows(sqlmock.NewRows([]string{
			"rack_id", "site_survey_id", "building", "floor", "rack_name", "rack_code", "units", "location", "notes",
		}).AddRow("rack-1", surveyID, "A", nil, "MDF", nil, 42, nil, nil))

	mock.ExpectQuery(`FROM proposed_floor_racks`).
		WithArgs(surveyID).
		WillReturnRows(sqlmock.NewRows([]string{
			"rack_id", "site_survey_id", "building", "floor", "rack_name", "rack_code", "units", "location", "notes",
		}))

	mock.ExpectQuery(`FROM proposed_rooms`).
		WithArgs(surveyID).
		WillReturnRows(sqlmock.NewRows([]string{
			"room_id", "site_survey_id", "floor", "room_name", "room_type", "connection_type", "is_typical", "identical_rooms", "notes",
		}).AddRow("room-1", surveyID, "1", "R101", "office", nil, false, 1, nil))

	mock.ExpectQuery(`FROM proposed_outlets`).
		WithArgs(surveyID).
		WillReturnRows(sqlmock.NewRows([]string{
			"outlet_id", "room_id", "outlet_name", "outlet_type", "quantity", "notes",
		}).AddRow("out-1", "room-1", "O1", "rj45", 2, nil))

	mock.ExpectQuery(`FROM proposed_connections`).
		WithArgs(surveyID).
		WillReturnRows(sqlmock.NewRows([]string{
			"connection_id", "site_survey_id", "from_building", "to_building", "connection_type", "description", "distance_m", "notes",
		}))

	mock.ExpectQuery(`FROM proposed_product_associations`).
		WithArgs(surveyID).
		WillReturnRows(sqlmock.NewRows([]string{
			"association_id", "site_survey_id", "product_id",
			"quantity", "unit_price", "margin_percent", "notes",
			"central_rack_id", "floor_rack_id", "room_id", "connection_id",
			"sku", "product_name", "brand", "category", "unit",
		}).
			AddRow("assoc-1", surveyID, "prod-1", 2.0, 100.0, 10.0, nil, "rack-1", nil, nil, nil, "SKU-1", "Switch 48p", "Acme", "network", "pcs").
			AddRow("assoc-2", surveyID, "prod-2", 1.0, 50.0, 0.0, nil, nil, nil, nil, nil, "SKU-2", "Patch panel", nil, nil, nil))

	tree, err := repo.GetInfrastructure(context.Background(), surveyID)
	require.NoError(t, err)

	require.Len(t, tree.CentralRacks, 1)
	rack := tree.CentralRacks[0]
	assert.Equal(t, "MDF", rack.Rack.RackName)
	require.Len(t, rack.Products, 1)
	assert.Equal(t, "prod-1", rack.Products[0].ProductID)
	assert.Equal(t, "Switch 48p", rack.Products[0].ProductName)
	assert.Equal(t, domain.AttachCentralRack, rack.Products[0].Attach.Kind)
	assert.Equal(t, "rack-1", rack.Products[0].Attach.ParentID)
	// round2(100 * 2 * 1.10)
	assert.InDelta(t, 220.0, rack.Products[0].TotalPrice(), 1e-9)

	require.Len(t, tree.Rooms, 1)
	room := tree.Rooms[0]
	require.Len(t, room.Outlets, 1)
	assert.Equal(t, "O1", room.Outlets[0].OutletName)
	assert.Empty(t, room.Products)
	assert.NotNil(t, room.Products)

	require.Len(t, tree.Equipment, 1)
	assert.Equal(t, domain.AttachStandalone, tree.Equipment[0].Attach.Kind)

	assert.NoError(t, mock.ExpectationsWereMet())
}
