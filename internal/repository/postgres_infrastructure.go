package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kimoncrm/internal/domain"
)

type PostgresInfrastructureRepository struct {
	db *sql.DB
}

func NewPostgresInfrastructureRepository(db *sql.DB) *PostgresInfrastructureRepository {
	return &PostgresInfrastructureRepository{db: db}
}

// ============================================
// Persister
// ============================================

// ReplaceInfrastructure deletes every proposed_* row scoped to the survey
// (children before parents) and recreates the submitted tree, all inside a
// single transaction. Either the whole save lands or none of it does.
func (r *PostgresInfrastructureRepository) ReplaceInfrastructure(ctx context.Context, siteSurveyID string, tree *InfrastructureTree) error {
	if siteSurveyID == "" {
		return fmt.Errorf("site_survey_id is required")
	}
	if tree == nil {
		tree = &InfrastructureTree{}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM site_surveys WHERE site_survey_id = $1)`,
		siteSurveyID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check site survey: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	if err := r.deleteAll(ctx, tx, siteSurveyID); err != nil {
		return err
	}

	// Recreate in dependency order, capturing generated IDs as each parent
	// row is created.
	for _, node := range tree.CentralRacks {
		rackID, err := r.insertCentralRack(ctx, tx, siteSurveyID, node.Rack)
		if err != nil {
			return err
		}
		for _, p := range node.Products {
			if err := r.insertAssociation(ctx, tx, siteSurveyID, p, domain.AttachPoint{Kind: domain.AttachCentralRack, ParentID: rackID}); err != nil {
				return err
			}
		}
	}

	for _, node := range tree.FloorRacks {
		rackID, err := r.insertFloorRack(ctx, tx, siteSurveyID, node.Rack)
		if err != nil {
			return err
		}
		for _, p := range node.Products {
			if err := r.insertAssociation(ctx, tx, siteSurveyID, p, domain.AttachPoint{Kind: domain.AttachFloorRack, ParentID: rackID}); err != nil {
				return err
			}
		}
	}

	for _, node := range tree.Rooms {
		roomID, err := r.insertRoom(ctx, tx, siteSurveyID, node.Room)
		if err != nil {
			return err
		}
		for _, o := range node.Outlets {
			if err := r.insertOutlet(ctx, tx, roomID, o); err != nil {
				return err
			}
		}
		for _, p := range node.Products {
			if err := r.insertAssociation(ctx, tx, siteSurveyID, p, domain.AttachPoint{Kind: domain.AttachRoom, ParentID: roomID}); err != nil {
				return err
			}
		}
	}

	for _, node := range tree.Connections {
		connectionID, err := r.insertConnection(ctx, tx, siteSurveyID, node.Connection)
		if err != nil {
			return err
		}
		for _, p := range node.Products {
			if err := r.insertAssociation(ctx, tx, siteSurveyID, p, domain.AttachPoint{Kind: domain.AttachConnection, ParentID: connectionID}); err != nil {
				return err
			}
		}
	}

	for _, p := range tree.Equipment {
		if err := r.insertAssociation(ctx, tx, siteSurveyID, p, domain.AttachPoint{Kind: domain.AttachStandalone}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit infrastructure save: %w", err)
	}
	return nil
}

// deleteAll removes existing infrastructure for the survey, children first
// so no FK is violated mid-sequence.
func (r *PostgresInfrastructureRepository) deleteAll(ctx context.Context, tx *sql.Tx, siteSurveyID string) error {
	steps := []struct {
		name string
		q    string
	}{
		{"product associations", `DELETE FROM proposed_product_associations WHERE site_survey_id = $1`},
		{"outlets", `DELETE FROM proposed_outlets WHERE room_id IN (SELECT room_id FROM proposed_rooms WHERE site_survey_id = $1)`},
		{"rooms", `DELETE FROM proposed_rooms WHERE site_survey_id = $1`},
		{"floor racks", `DELETE FROM proposed_floor_racks WHERE site_survey_id = $1`},
		{"central racks", `DELETE FROM proposed_central_racks WHERE site_survey_id = $1`},
		{"connections", `DELETE FROM proposed_connections WHERE site_survey_id = $1`},
	}
	for _, s := range steps {
		if _, err := tx.ExecContext(ctx, s.q, siteSurveyID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", s.name, err)
		}
	}
	return nil
}

func (r *PostgresInfrastructureRepository) insertCentralRack(ctx context.Context, tx *sql.Tx, siteSurveyID string, rack *domain.CentralRack) (string, error) {
	var rackID string
	err := tx.QueryRowContext(ctx,
		`INSERT INTO proposed_central_racks
		 (site_survey_id, building, floor, rack_name, rack_code, units, location, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING rack_id::text`,
		siteSurveyID, rack.Building, rack.Floor, rack.RackName, rack.RackCode, rack.Units, rack.Location, rack.Notes,
	).Scan(&rackID)
	if err != nil {
		return "", fmt.Errorf("failed to insert central rack %q: %w", rack.RackName, err)
	}
	return rackID, nil
}

func (r *PostgresInfrastructureRepository) insertFloorRack(ctx context.Context, tx *sql.Tx, siteSurveyID string, rack *domain.FloorRack) (string, error) {
	var rackID string
	err := tx.QueryRowContext(ctx,
		`INSERT INTO proposed_floor_racks
		 (site_survey_id, building, floor, rack_name, rack_code, units, location, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING rack_id::text`,
		siteSurveyID, rack.Building, rack.Floor, rack.RackName, rack.RackCode, rack.Units, rack.Location, rack.Notes,
	).Scan(&rackID)
	if err != nil {
		return "", fmt.Errorf("failed to insert floor rack %q: %w", rack.RackName, err)
	}
	return rackID, nil
}

func (r *PostgresInfrastructureRepository) insertRoom(ctx context.Context, tx *sql.Tx, siteSurveyID string, room *domain.Room) (string, error) {
	var roomID string
	err := tx.QueryRowContext(ctx,
		`INSERT INTO proposed_rooms
		 (site_survey_id, floor, room_name, room_type, connection_type, is_typical, identical_rooms, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING room_id::text`,
		siteSurveyID, room.Floor, room.RoomName, room.RoomType, room.ConnectionType, room.IsTypical, room.IdenticalRooms, room.Notes,
	).Scan(&roomID)
	if err != nil {
		return "", fmt.Errorf("failed to insert room %q: %w", room.RoomName, err)
	}
	return roomID, nil
}

func (r *PostgresInfrastructureRepository) insertOutlet(ctx context.Context, tx *sql.Tx, roomID string, outlet *domain.Outlet) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO proposed_outlets (room_id, outlet_name, outlet_type, quantity, notes)
		 VALUES ($1, $2, $3, $4, $5)`,
		roomID, outlet.OutletName, outlet.OutletType, outlet.Quantity, outlet.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outlet %q: %w", outlet.OutletName, err)
	}
	return nil
}

func (r *PostgresInfrastructureRepository) insertConnection(ctx context.Context, tx *sql.Tx, siteSurveyID string, c *domain.Connection) (string, error) {
	var connectionID string
	err := tx.QueryRowContext(ctx,
		`INSERT INTO proposed_connections
		 (site_survey_id, from_building, to_building, connection_type, description, distance_m, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING connection_id::text`,
		siteSurveyID, c.FromBuilding, c.ToBuilding, c.ConnectionType, c.Description, c.DistanceM, c.Notes,
	).Scan(&connectionID)
	if err != nil {
		return "", fmt.Errorf("failed to insert connection: %w", err)
	}
	return connectionID, nil
}

// insertAssociation writes one product line. The tagged attach point is
// translated to the four nullable FK columns here and nowhere else, so at
// most one of them can ever be non-null.
func (r *PostgresInfrastructureRepository) insertAssociation(ctx context.Context, tx *sql.Tx, siteSurveyID string, a *domain.ProductAssociation, attach domain.AttachPoint) error {
	var centralRackID, floorRackID, roomID, connectionID any
	switch attach.Kind {
	case domain.AttachCentralRack:
		centralRackID = attach.ParentID
	case domain.AttachFloorRack:
		floorRackID = attach.ParentID
	case domain.AttachRoom:
		roomID = attach.ParentID
	case domain.AttachConnection:
		connectionID = attach.ParentID
	case domain.AttachStandalone:
		// all four stay NULL
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO proposed_product_associations
		 (site_survey_id, product_id, quantity, unit_price, margin_percent, notes,
		  central_rack_id, floor_rack_id, room_id, connection_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		siteSurveyID, a.ProductID, a.Quantity, a.UnitPrice, a.MarginPercent, a.Notes,
		centralRackID, floorRackID, roomID, connectionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product association (product %s): %w", a.ProductID, err)
	}
	return nil
}

// ============================================
// Reader / projector
// ============================================

// GetInfrastructure reconstructs the nested tree from the flat rows. The
// survey not existing (or never saved) is not an error: every array comes
// back empty.
func (r *PostgresInfrastructureRepository) GetInfrastructure(ctx context.Context, siteSurveyID string) (*InfrastructureTree, error) {
	tree := &InfrastructureTree{
		CentralRacks: []*CentralRackNode{},
		FloorRacks:   []*FloorRackNode{},
		Rooms:        []*RoomNode{},
		Connections:  []*ConnectionNode{},
		Equipment:    []*domain.ProductAssociation{},
	}
	if siteSurveyID == "" {
		return tree, nil
	}

	centralRacks, err := r.listCentralRacks(ctx, siteSurveyID)
	if err != nil {
		return nil, err
	}
	floorRacks, err := r.listFloorRacks(ctx, siteSurveyID)
	if err != nil {
		return nil, err
	}
	rooms, err := r.listRooms(ctx, siteSurveyID)
	if err != nil {
		return nil, err
	}
	outletsByRoom, err := r.listOutlets(ctx, siteSurveyID)
	if err != nil {
		return nil, err
	}
	connections, err := r.listConnections(ctx, siteSurveyID)
	if err != nil {
		return nil, err
	}
	associations, err := r.listAssociations(ctx, siteSurveyID)
	if err != nil {
		return nil, err
	}

	byParent := map[domain.AttachKind]map[string][]*domain.ProductAssociation{
		domain.AttachCentralRack: {},
		domain.AttachFloorRack:   {},
		domain.AttachRoom:        {},
		domain.AttachConnection:  {},
	}
	for _, a := range associations {
		if a.Attach.Kind == domain.AttachStandalone {
			tree.Equipment = append(tree.Equipment, a)
			continue
		}
		m := byParent[a.Attach.Kind]
		m[a.Attach.ParentID] = append(m[a.Attach.ParentID], a)
	}

	for _, rack := range centralRacks {
		tree.CentralRacks = append(tree.CentralRacks, &CentralRackNode{
			Rack:     rack,
			Products: orEmpty(byParent[domain.AttachCentralRack][rack.RackID]),
		})
	}
	for _, rack := range floorRacks {
		tree.FloorRacks = append(tree.FloorRacks, &FloorRackNode{
			Rack:     rack,
			Products: orEmpty(byParent[domain.AttachFloorRack][rack.RackID]),
		})
	}
	for _, room := range rooms {
		tree.Rooms = append(tree.Rooms, &RoomNode{
			Room:     room,
			Outlets:  orEmptyOutlets(outletsByRoom[room.RoomID]),
			Products: orEmpty(byParent[domain.AttachRoom][room.RoomID]),
		})
	}
	for _, c := range connections {
		tree.Connections = append(tree.Connections, &ConnectionNode{
			Connection: c,
			Products:   orEmpty(byParent[domain.AttachConnection][c.ConnectionID]),
		})
	}

	return tree, nil
}

func orEmpty(in []*domain.ProductAssociation) []*domain.ProductAssociation {
	if in == nil {
		return []*domain.ProductAssociation{}
	}
	return in
}

func orEmptyOutlets(in []*domain.Outlet) []*domain.Outlet {
	if in == nil {
		return []*domain.Outlet{}
	}
	return in
}

func (r *PostgresInfrastructureRepository) listCentralRacks(ctx context.Context, siteSurveyID string) ([]*domain.CentralRack, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rack_id::text, site_survey_id::text, building, floor, rack_name, rack_code, units, location, notes
		 FROM proposed_central_racks
		 WHERE site_survey_id = $1
		 ORDER BY rack_name`,
		siteSurveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list central racks: %w", err)
	}
	defer rows.Close()

	out := []*domain.CentralRack{}
	for rows.Next() {
		var rack domain.CentralRack
		if err := rows.Scan(&rack.RackID, &rack.SiteSurveyID, &rack.Building, &rack.Floor, &rack.RackName, &rack.RackCode, &rack.Units, &rack.Location, &rack.Notes); err != nil {
			return nil, err
		}
		out = append(out, &rack)
	}
	return out, rows.Err()
}

func (r *PostgresInfrastructureRepository) listFloorRacks(ctx context.Context, siteSurveyID string) ([]*domain.FloorRack, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rack_id::text, site_survey_id::text, building, floor, rack_name, rack_code, units, location, notes
		 FROM proposed_floor_racks
		 WHERE site_survey_id = $1
		 ORDER BY rack_name`,
		siteSurveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list floor racks: %w", err)
	}
	defer rows.Close()

	out := []*domain.FloorRack{}
	for rows.Next() {
		var rack domain.FloorRack
		if err := rows.Scan(&rack.RackID, &rack.SiteSurveyID, &rack.Building, &rack.Floor, &rack.RackName, &rack.RackCode, &rack.Units, &rack.Location, &rack.Notes); err != nil {
			return nil, err
		}
		out = append(out, &rack)
	}
	return out, rows.Err()
}

func (r *PostgresInfrastructureRepository) listRooms(ctx context.Context, siteSurveyID string) ([]*domain.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT room_id::text, site_survey_id::text, floor, room_name, room_type, connection_type, is_typical, identical_rooms, notes
		 FROM proposed_rooms
		 WHERE site_survey_id = $1
		 ORDER BY room_name`,
		siteSurveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	out := []*domain.Room{}
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.RoomID, &room.SiteSurveyID, &room.Floor, &room.RoomName, &room.RoomType, &room.ConnectionType, &room.IsTypical, &room.IdenticalRooms, &room.Notes); err != nil {
			return nil, err
		}
		out = append(out, &room)
	}
	return out, rows.Err()
}

func (r *PostgresInfrastructureRepository) listOutlets(ctx context.Context, siteSurveyID string) (map[string][]*domain.Outlet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT o.outlet_id::text, o.room_id::text, o.outlet_name, o.outlet_type, o.quantity, o.notes
		 FROM proposed_outlets o
		 JOIN proposed_rooms rm ON rm.room_id = o.room_id
		 WHERE rm.site_survey_id = $1
		 ORDER BY o.outlet_name`,
		siteSurveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list outlets: %w", err)
	}
	defer rows.Close()

	out := map[string][]*domain.Outlet{}
	for rows.Next() {
		var o domain.Outlet
		if err := rows.Scan(&o.OutletID, &o.RoomID, &o.OutletName, &o.OutletType, &o.Quantity, &o.Notes); err != nil {
			return nil, err
		}
		out[o.RoomID] = append(out[o.RoomID], &o)
	}
	return out, rows.Err()
}

func (r *PostgresInfrastructureRepository) listConnections(ctx context.Context, siteSurveyID string) ([]*domain.Connection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT connection_id::text, site_survey_id::text, from_building, to_building, connection_type, description, distance_m, notes
		 FROM proposed_connections
		 WHERE site_survey_id = $1
		 ORDER BY from_building, to_building`,
		siteSurveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	out := []*domain.Connection{}
	for rows.Next() {
		var c domain.Connection
		if err := rows.Scan(&c.ConnectionID, &c.SiteSurveyID, &c.FromBuilding, &c.ToBuilding, &c.ConnectionType, &c.Description, &c.DistanceM, &c.Notes); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// listAssociations returns every product line for the survey with product
// details joined in, the nullable FK columns already folded back into the
// tagged attach point.
func (r *PostgresInfrastructureRepository) listAssociations(ctx context.Context, siteSurveyID string) ([]*domain.ProductAssociation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.association_id::text, a.site_survey_id::text, a.product_id::text,
		        a.quantity, a.unit_price, a.margin_percent, a.notes,
		        a.central_rack_id::text, a.floor_rack_id::text, a.room_id::text, a.connection_id::text,
		        p.sku, p.product_name, p.brand, p.category, p.unit
		 FROM proposed_product_associations a
		 JOIN products p ON p.product_id = a.product_id
		 WHERE a.site_survey_id = $1
		 ORDER BY p.product_name`,
		siteSurveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list product associations: %w", err)
	}
	defer rows.Close()

	out := []*domain.ProductAssociation{}
	for rows.Next() {
		var a domain.ProductAssociation
		var centralRackID, floorRackID, roomID, connectionID sql.NullString
		if err := rows.Scan(
			&a.AssociationID, &a.SiteSurveyID, &a.ProductID,
			&a.Quantity, &a.UnitPrice, &a.MarginPercent, &a.Notes,
			&centralRackID, &floorRackID, &roomID, &connectionID,
			&a.SKU, &a.ProductName, &a.Brand, &a.Category, &a.Unit,
		); err != nil {
			return nil, err
		}
		a.Attach = attachPointFromColumns(centralRackID, floorRackID, roomID, connectionID)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func attachPointFromColumns(centralRackID, floorRackID, roomID, connectionID sql.NullString) domain.AttachPoint {
	switch {
	case centralRackID.Valid:
		return domain.AttachPoint{Kind: domain.AttachCentralRack, ParentID: centralRackID.String}
	case floorRackID.Valid:
		return domain.AttachPoint{Kind: domain.AttachFloorRack, ParentID: floorRackID.String}
	case roomID.Valid:
		return domain.AttachPoint{Kind: domain.AttachRoom, ParentID: roomID.String}
	case connectionID.Valid:
		return domain.AttachPoint{Kind: domain.AttachConnection, ParentID: connectionID.String}
	default:
		return domain.AttachPoint{Kind: domain.AttachStandalone}
	}
}
