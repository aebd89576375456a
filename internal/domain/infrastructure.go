package domain

import (
	"database/sql"
	"math"
)

// Proposed infrastructure: the tree of racks, rooms (with outlets) and
// inter-building connections attached to one site survey, each node
// optionally carrying product line items.

// CentralRack (proposed_central_racks table)
type CentralRack struct {
	RackID       string         `db:"rack_id"`
	SiteSurveyID string         `db:"site_survey_id"`
	Building     sql.NullString `db:"building"`
	Floor        sql.NullString `db:"floor"`
	RackName     string         `db:"rack_name"`
	RackCode     sql.NullString `db:"rack_code"`
	Units        int            `db:"units"`
	Location     sql.NullString `db:"location"`
	Notes        sql.NullString `db:"notes"`
}

// FloorRack (proposed_floor_racks table)
type FloorRack struct {
	RackID       string         `db:"rack_id"`
	SiteSurveyID string         `db:"site_survey_id"`
	Building     sql.NullString `db:"building"`
	Floor        sql.NullString `db:"floor"`
	RackName     string         `db:"rack_name"`
	RackCode     sql.NullString `db:"rack_code"`
	Units        int            `db:"units"`
	Location     sql.NullString `db:"location"`
	Notes        sql.NullString `db:"notes"`
}

// Room (proposed_rooms table)
// Outlets are owned by the room and die with it.
type Room struct {
	RoomID         string         `db:"room_id"`
	SiteSurveyID   string         `db:"site_survey_id"`
	Floor          sql.NullString `db:"floor"`
	RoomName       string         `db:"room_name"`
	RoomType       sql.NullString `db:"room_type"`
	ConnectionType sql.NullString `db:"connection_type"`
	IsTypical      bool           `db:"is_typical"`
	IdenticalRooms int            `db:"identical_rooms"`
	Notes          sql.NullString `db:"notes"`
}

// Outlet (proposed_outlets table)
type Outlet struct {
	OutletID   string         `db:"outlet_id"`
	RoomID     string         `db:"room_id"`
	OutletName string         `db:"outlet_name"`
	OutletType sql.NullString `db:"outlet_type"`
	Quantity   int            `db:"quantity"`
	Notes      sql.NullString `db:"notes"`
}

// Connection (proposed_connections table)
// An edge between two building nodes.
type Connection struct {
	ConnectionID   string          `db:"connection_id"`
	SiteSurveyID   string          `db:"site_survey_id"`
	FromBuilding   sql.NullString  `db:"from_building"`
	ToBuilding     sql.NullString  `db:"to_building"`
	ConnectionType sql.NullString  `db:"connection_type"`
	Description    sql.NullString  `db:"description"`
	DistanceM      sql.NullFloat64 `db:"distance_m"`
	Notes          sql.NullString  `db:"notes"`
}

// AttachKind tags the single parent a product association hangs off.
type AttachKind int

const (
	AttachStandalone AttachKind = iota
	AttachCentralRack
	AttachFloorRack
	AttachRoom
	AttachConnection
)

// AttachPoint is the in-memory form of the four mutually exclusive nullable
// FK columns on proposed_product_associations. Kind AttachStandalone means
// the line belongs to the survey itself and ParentID is empty; translation
// to and from the nullable columns happens only in the repository.
type AttachPoint struct {
	Kind     AttachKind
	ParentID string
}

// ProductAssociation (proposed_product_associations table)
// Product detail fields are populated on read via join; TotalPrice is
// derived, never stored.
type ProductAssociation struct {
	AssociationID string         `db:"association_id"`
	SiteSurveyID  string         `db:"site_survey_id"`
	ProductID     string         `db:"product_id"`
	Quantity      float64        `db:"quantity"`
	UnitPrice     float64        `db:"unit_price"`
	MarginPercent float64        `db:"margin_percent"`
	Notes         sql.NullString `db:"notes"`
	Attach        AttachPoint    `db:"-"`

	SKU         string         `db:"sku"`
	ProductName string         `db:"product_name"`
	Brand       sql.NullString `db:"brand"`
	Category    sql.NullString `db:"category"`
	Unit        sql.NullString `db:"unit"`
}

// TotalPrice = unit price x quantity x (1 + margin/100), rounded to two
// decimals so reads never drift from the stored NUMERIC(12,2) precision.
func (a ProductAssociation) TotalPrice() float64 {
	return Round2(a.UnitPrice * a.Quantity * (1 + a.MarginPercent/100))
}

// Round2 rounds to two decimal places (away from zero on .005).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
