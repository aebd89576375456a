//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"

	"kimoncrm/internal/config"
	"kimoncrm/internal/database"
	"kimoncrm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *sql.DB {
	cfg := &config.DatabaseConfig{
		Host:     testEnv("TEST_DB_HOST", "localhost"),
		Port:     testEnvInt("TEST_DB_PORT", 5432),
		User:     testEnv("TEST_DB_USER", "postgres"),
		Password: testEnv("TEST_DB_PASSWORD", "postgres"),
		Database: testEnv("TEST_DB_NAME", "kimoncrm_test"),
		SSLMode:  testEnv("TEST_DB_SSLMODE", "disable"),
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
	}
	return db
}

func testEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func testEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func createTestSurvey(t *testing.T, db *sql.DB) string {
	var surveyID string
	err := db.QueryRow(
		`INSERT INTO site_surveys (status) VALUES ('scheduled') RETURNING site_survey_id::text`,
	).Scan(&surveyID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM site_surveys WHERE site_survey_id = $1`, surveyID)
	})
	return surveyID
}

func createTestProduct(t *testing.T, db *sql.DB, sku string) string {
	var productID string
	err := db.QueryRow(
		`INSERT INTO products (sku, product_name, list_price) VALUES ($1, $2, 100) RETURNING product_id::text`,
		sku, "Product "+sku,
	).Scan(&productID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM products WHERE product_id = $1`, productID)
	})
	return productID
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

// Saving the same tree twice must not duplicate rows: every save replaces
// the previous one wholesale.
func TestReplaceInfrastructure_SaveTwiceIsIdempotent(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	repo := NewPostgresInfrastructureRepository(db)
	surveyID := createTestSurvey(t, db)
	productID := createTestProduct(t, db, "IT-SKU-1")

	tree := &InfrastructureTree{
		CentralRacks: []*CentralRackNode{{
			Rack: &domain.CentralRack{SiteSurveyID: surveyID, RackName: "MDF", Units: 42},
			Products: []*domain.ProductAssociation{{
				SiteSurveyID: surveyID, ProductID: productID, Quantity: 2, UnitPrice: 100,
			}},
		}},
		Rooms: []*RoomNode{{
			Room: &domain.Room{SiteSurveyID: surveyID, RoomName: "R101", IdenticalRooms: 1},
			Outlets: []*domain.Outlet{
				{OutletName: "O1", Quantity: 2},
				{OutletName: "O2", Quantity: 1},
			},
		}},
	}

	ctx := context.Background()
	require.NoError(t, repo.ReplaceInfrastructure(ctx, surveyID, tree))
	require.NoError(t, repo.ReplaceInfrastructure(ctx, surveyID, tree))

	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM proposed_central_racks WHERE site_survey_id = $1`, surveyID))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM proposed_rooms WHERE site_survey_id = $1`, surveyID))
	assert.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM proposed_outlets WHERE room_id IN (SELECT room_id FROM proposed_rooms WHERE site_survey_id = $1)`, surveyID))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM proposed_product_associations WHERE site_survey_id = $1`, surveyID))
}

// Saving an empty tree removes every descendant row, outlets included.
func TestReplaceInfrastructure_EmptySaveClearsAllDescendants(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	repo := NewPostgresInfrastructureRepository(db)
	surveyID := createTestSurvey(t, db)
	productID := createTestProduct(t, db, "IT-SKU-2")

	ctx := context.Background()
	require.NoError(t, repo.ReplaceInfrastructure(ctx, surveyID, &InfrastructureTree{
		Rooms: []*RoomNode{{
			Room:    &domain.Room{SiteSurveyID: surveyID, RoomName: "R1", IdenticalRooms: 1},
			Outlets: []*domain.Outlet{{OutletName: "O1", Quantity: 1}},
			Products: []*domain.ProductAssociation{{
				SiteSurveyID: surveyID, ProductID: productID, Quantity: 1, UnitPrice: 10,
			}},
		}},
	}))

	require.NoError(t, repo.ReplaceInfrastructure(ctx, surveyID, &InfrastructureTree{}))

	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM proposed_rooms WHERE site_survey_id = $1`, surveyID))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM proposed_outlets o JOIN proposed_rooms rm ON rm.room_id = o.room_id WHERE rm.site_survey_id = $1`, surveyID))
	assert.Equal(t, 0, countRows(t, db, `SELECT COUNT(*) FROM proposed_product_associations WHERE site_survey_id = $1`, surveyID))
}

// The table CHECK constraint rejects rows attached to more than one parent.
func TestProductAssociation_ExclusiveAttachmentEnforced(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	repo := NewPostgresInfrastructureRepository(db)
	surveyID := createTestSurvey(t, db)
	productID := createTestProduct(t, db, "IT-SKU-3")

	ctx := context.Background()
	require.NoError(t, repo.ReplaceInfrastructure(ctx, surveyID, &InfrastructureTree{
		CentralRacks: []*CentralRackNode{{
			Rack: &domain.CentralRack{SiteSurveyID: surveyID, RackName: "MDF"},
		}},
		Rooms: []*RoomNode{{
			Room: &domain.Room{SiteSurveyID: surveyID, RoomName: "R1", IdenticalRooms: 1},
		}},
	}))

	var rackID, roomID string
	require.NoError(t, db.QueryRow(`SELECT rack_id::text FROM proposed_central_racks WHERE site_survey_id = $1`, surveyID).Scan(&rackID))
	require.NoError(t, db.QueryRow(`SELECT room_id::text FROM proposed_rooms WHERE site_survey_id = $1`, surveyID).Scan(&roomID))

	_, err := db.Exec(
		`INSERT INTO proposed_product_associations
		 (site_survey_id, product_id, quantity, unit_price, margin_percent, central_rack_id, room_id)
		 VALUES ($1, $2, 1, 10, 0, $3, $4)`,
		surveyID, productID, rackID, roomID,
	)
	assert.Error(t, err)
}

func TestGetInfrastructure_RoundTripsSavedTree(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	repo := NewPostgresInfrastructureRepository(db)
	surveyID := createTestSurvey(t, db)
	productID := createTestProduct(t, db, "IT-SKU-4")

	ctx := context.Background()
	require.NoError(t, repo.ReplaceInfrastructure(ctx, surveyID, &InfrastructureTree{
		FloorRacks: []*FloorRackNode{{
			Rack: &domain.FloorRack{SiteSurveyID: surveyID, RackName: "IDF-1", Units: 12},
			Products: []*domain.ProductAssociation{{
				SiteSurveyID: surveyID, ProductID: productID, Quantity: 3, UnitPrice: 25, MarginPercent: 20,
			}},
		}},
		Equipment: []*domain.ProductAssociation{{
			SiteSurveyID: surveyID, ProductID: productID, Quantity: 1, UnitPrice: 99,
		}},
	}))

	tree, err := repo.GetInfrastructure(ctx, surveyID)
	require.NoError(t, err)

	require.Len(t, tree.FloorRacks, 1)
	rack := tree.FloorRacks[0]
	assert.Equal(t, "IDF-1", rack.Rack.RackName)
	require.Len(t, rack.Products, 1)
	assert.Equal(t, domain.AttachFloorRack, rack.Products[0].Attach.Kind)
	assert.Equal(t, rack.Rack.RackID, rack.Products[0].Attach.ParentID)
	assert.InDelta(t, 90.0, rack.Products[0].TotalPrice(), 1e-9)

	require.Len(t, tree.Equipment, 1)
	assert.Equal(t, domain.AttachStandalone, tree.Equipment[0].Attach.Kind)
}
