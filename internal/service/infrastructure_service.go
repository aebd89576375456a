package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kimoncrm/internal/domain"
	"kimoncrm/internal/repository"
	"kimoncrm/internal/store"

	"go.uber.org/zap"
)

// ErrValidation marks a rejected payload. Validation runs over the whole
// nested payload before the destructive delete phase, so a malformed save
// can never leave a survey's infrastructure half-deleted.
var ErrValidation = errors.New("validation failed")

const equipmentCacheTTL = 60 * time.Second

func equipmentCacheKey(siteSurveyID string) string {
	return "crm:survey:" + siteSurveyID + ":equipment"
}

// InfrastructureService saves and projects the proposed infrastructure of a
// site survey (the save-equipment API).
type InfrastructureService interface {
	SaveEquipment(ctx context.Context, req SaveEquipmentRequest) (*SaveEquipmentResponse, error)
	GetEquipment(ctx context.Context, req GetEquipmentRequest) (*GetEquipmentResponse, error)
}

type infrastructureService struct {
	infraRepo repository.InfrastructureRepository
	kv        store.KV
	locks     *keyMutex
	logger    *zap.Logger
}

func NewInfrastructureService(infraRepo repository.InfrastructureRepository, kv store.KV, logger *zap.Logger) InfrastructureService {
	return &infrastructureService{
		infraRepo: infraRepo,
		kv:        kv,
		locks:     newKeyMutex(),
		logger:    logger,
	}
}

// ============================================
// Request payloads (client JSON shape)
// ============================================

type SaveEquipmentRequest struct {
	SiteSurveyID           string                        `json:"-"`
	ProposedInfrastructure ProposedInfrastructurePayload `json:"proposedInfrastructure"`
	Equipment              []EquipmentLinePayload        `json:"equipment"`
}

type ProposedInfrastructurePayload struct {
	ProposedCentralRacks []RackPayload       `json:"proposedCentralRacks"`
	ProposedFloorRacks   []RackPayload       `json:"proposedFloorRacks"`
	ProposedRooms        []RoomPayload       `json:"proposedRooms"`
	ProposedConnections  []ConnectionPayload `json:"proposedConnections"`
}

type RackPayload struct {
	Building           string               `json:"building"`
	Floor              string               `json:"floor"`
	Name               string               `json:"name"`
	Code               string               `json:"code"`
	Units              int                  `json:"units"`
	Location           string               `json:"location"`
	Notes              string               `json:"notes"`
	AssociatedProducts []ProductLinePayload `json:"associatedProducts"`
}

type RoomPayload struct {
	Floor              string               `json:"floor"`
	Name               string               `json:"name"`
	Type               string               `json:"type"`
	ConnectionType     string               `json:"connectionType"`
	IsTypicalRoom      bool                 `json:"isTypicalRoom"`
	IdenticalRooms     int                  `json:"identicalRooms"`
	Notes              string               `json:"notes"`
	Outlets            []OutletPayload      `json:"outlets"`
	AssociatedProducts []ProductLinePayload `json:"associatedProducts"`
}

type OutletPayload struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

type ConnectionPayload struct {
	FromBuilding       string               `json:"fromBuilding"`
	ToBuilding         string               `json:"toBuilding"`
	Type               string               `json:"type"`
	Description        string               `json:"description"`
	Distance           float64              `json:"distance"`
	Notes              string               `json:"notes"`
	AssociatedProducts []ProductLinePayload `json:"associatedProducts"`
}

type ProductLinePayload struct {
	ItemID   string  `json:"itemId"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Margin   float64 `json:"margin"`
	Notes    string  `json:"notes"`
}

// EquipmentLinePayload is a standalone line: only product/service typed
// entries with an item id are persisted, the rest are skipped silently.
type EquipmentLinePayload struct {
	Type     string  `json:"type"`
	ItemID   string  `json:"itemId"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Margin   float64 `json:"margin"`
	Notes    string  `json:"notes"`
}

type SaveEquipmentResponse struct {
	Success bool `json:"success"`
}

// ============================================
// Read projection (display shape)
// ============================================

type GetEquipmentRequest struct {
	SiteSurveyID string
}

type GetEquipmentResponse struct {
	Equipment              []EquipmentView    `json:"equipment"`
	ProposedInfrastructure InfrastructureView `json:"proposedInfrastructure"`
}

type InfrastructureView struct {
	ProposedCentralRacks []RackView       `json:"proposedCentralRacks"`
	ProposedFloorRacks   []RackView       `json:"proposedFloorRacks"`
	ProposedRooms        []RoomView       `json:"proposedRooms"`
	ProposedConnections  []ConnectionView `json:"proposedConnections"`
}

type RackView struct {
	RackID             string          `json:"rackId"`
	Building           string          `json:"building,omitempty"`
	Floor              string          `json:"floor,omitempty"`
	Name               string          `json:"name"`
	Code               string          `json:"code,omitempty"`
	Units              int             `json:"units"`
	Location           string          `json:"location,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	AssociatedProducts []EquipmentView `json:"associatedProducts"`
}

type RoomView struct {
	RoomID             string          `json:"roomId"`
	Floor              string          `json:"floor,omitempty"`
	Name               string          `json:"name"`
	Type               string          `json:"type,omitempty"`
	ConnectionType     string          `json:"connectionType,omitempty"`
	IsTypicalRoom      bool            `json:"isTypicalRoom"`
	IdenticalRooms     int             `json:"identicalRooms"`
	Notes              string          `json:"notes,omitempty"`
	Outlets            []OutletView    `json:"outlets"`
	AssociatedProducts []EquipmentView `json:"associatedProducts"`
}

type OutletView struct {
	OutletID string `json:"outletId"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

type ConnectionView struct {
	ConnectionID       string          `json:"connectionId"`
	FromBuilding       string          `json:"fromBuilding,omitempty"`
	ToBuilding         string          `json:"toBuilding,omitempty"`
	Type               string          `json:"type,omitempty"`
	Description        string          `json:"description,omitempty"`
	Distance           float64         `json:"distance,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	AssociatedProducts []EquipmentView `json:"associatedProducts"`
}

// EquipmentView is one product line with product details joined in and the
// display total computed.
type EquipmentView struct {
	AssociationID string  `json:"associationId"`
	ItemID        string  `json:"itemId"`
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand,omitempty"`
	Category      string  `json:"category,omitempty"`
	Unit          string  `json:"unit,omitempty"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	Margin        float64 `json:"margin"`
	TotalPrice    float64 `json:"totalPrice"`
	Notes         string  `json:"notes,omitempty"`
}

// ============================================
// Save
// ============================================

func (s *infrastructureService) SaveEquipment(ctx context.Context, req SaveEquipmentRequest) (*SaveEquipmentResponse, error) {
	if req.SiteSurveyID == "" {
		return nil, fmt.Errorf("%w: site survey id is required", ErrValidation)
	}
	if err := validateSavePayload(&req); err != nil {
		return nil, err
	}

	tree := buildTree(&req)

	// Saves of the same survey must not interleave: both would delete, then
	// both would insert, duplicating rows.
	s.locks.Lock(req.SiteSurveyID)
	defer s.locks.Unlock(req.SiteSurveyID)

	if err := s.infraRepo.ReplaceInfrastructure(ctx, req.SiteSurveyID, tree); err != nil {
		return nil, err
	}

	if err := s.kv.Del(ctx, equipmentCacheKey(req.SiteSurveyID)); err != nil {
		s.logger.Warn("failed to invalidate equipment cache",
			zap.String("site_survey_id", req.SiteSurveyID), zap.Error(err))
	}

	s.logger.Info("saved survey infrastructure",
		zap.String("site_survey_id", req.SiteSurveyID),
		zap.Int("central_racks", len(tree.CentralRacks)),
		zap.Int("floor_racks", len(tree.FloorRacks)),
		zap.Int("rooms", len(tree.Rooms)),
		zap.Int("connections", len(tree.Connections)),
		zap.Int("equipment", len(tree.Equipment)),
	)
	return &SaveEquipmentResponse{Success: true}, nil
}

func validateSavePayload(req *SaveEquipmentRequest) error {
	pi := &req.ProposedInfrastructure
	for i, rack := range pi.ProposedCentralRacks {
		if rack.Name == "" {
			return fmt.Errorf("%w: central rack %d: name is required", ErrValidation, i)
		}
		if err := validateLines(rack.AssociatedProducts, fmt.Sprintf("central rack %q", rack.Name)); err != nil {
			return err
		}
	}
	for i, rack := range pi.ProposedFloorRacks {
		if rack.Name == "" {
			return fmt.Errorf("%w: floor rack %d: name is required", ErrValidation, i)
		}
		if err := validateLines(rack.AssociatedProducts, fmt.Sprintf("floor rack %q", rack.Name)); err != nil {
			return err
		}
	}
	for i, room := range pi.ProposedRooms {
		if room.Name == "" {
			return fmt.Errorf("%w: room %d: name is required", ErrValidation, i)
		}
		for _, o := range room.Outlets {
			if o.Name == "" {
				return fmt.Errorf("%w: room %q: outlet name is required", ErrValidation, room.Name)
			}
			if o.Quantity < 0 {
				return fmt.Errorf("%w: room %q: outlet %q: quantity must not be negative", ErrValidation, room.Name, o.Name)
			}
		}
		if err := validateLines(room.AssociatedProducts, fmt.Sprintf("room %q", room.Name)); err != nil {
			return err
		}
	}
	for i, c := range pi.ProposedConnections {
		if err := validateLines(c.AssociatedProducts, fmt.Sprintf("connection %d", i)); err != nil {
			return err
		}
	}
	// Standalone equipment is filtered, not validated: lines without an
	// item id or with a non product/service type are dropped silently.
	for _, e := range req.Equipment {
		if !standaloneLineKept(e) {
			continue
		}
		if err := validateLine(ProductLinePayload{ItemID: e.ItemID, Quantity: e.Quantity, Price: e.Price, Margin: e.Margin}, "equipment"); err != nil {
			return err
		}
	}
	return nil
}

func validateLines(lines []ProductLinePayload, where string) error {
	for _, l := range lines {
		if err := validateLine(l, where); err != nil {
			return err
		}
	}
	return nil
}

func validateLine(l ProductLinePayload, where string) error {
	if l.ItemID == "" {
		return fmt.Errorf("%w: %s: product line is missing itemId", ErrValidation, where)
	}
	if l.Quantity < 0 {
		return fmt.Errorf("%w: %s: quantity must not be negative", ErrValidation, where)
	}
	if l.Price < 0 {
		return fmt.Errorf("%w: %s: price must not be negative", ErrValidation, where)
	}
	if l.Margin < -100 {
		return fmt.Errorf("%w: %s: margin must be >= -100", ErrValidation, where)
	}
	return nil
}

func standaloneLineKept(e EquipmentLinePayload) bool {
	if e.ItemID == "" {
		return false
	}
	return e.Type == "product" || e.Type == "service"
}

func buildTree(req *SaveEquipmentRequest) *repository.InfrastructureTree {
	pi := &req.ProposedInfrastructure
	tree := &repository.InfrastructureTree{}

	for _, rack := range pi.ProposedCentralRacks {
		tree.CentralRacks = append(tree.CentralRacks, &repository.CentralRackNode{
			Rack: &domain.CentralRack{
				SiteSurveyID: req.SiteSurveyID,
				Building:     nullStr(rack.Building),
				Floor:        nullStr(rack.Floor),
				RackName:     rack.Name,
				RackCode:     nullStr(rack.Code),
				Units:        rack.Units,
				Location:     nullStr(rack.Location),
				Notes:        nullStr(rack.Notes),
			},
			Products: toAssociations(req.SiteSurveyID, rack.AssociatedProducts),
		})
	}
	for _, rack := range pi.ProposedFloorRacks {
		tree.FloorRacks = append(tree.FloorRacks, &repository.FloorRackNode{
			Rack: &domain.FloorRack{
				SiteSurveyID: req.SiteSurveyID,
				Building:     nullStr(rack.Building),
				Floor:        nullStr(rack.Floor),
				RackName:     rack.Name,
				RackCode:     nullStr(rack.Code),
				Units:        rack.Units,
				Location:     nullStr(rack.Location),
				Notes:        nullStr(rack.Notes),
			},
			Products: toAssociations(req.SiteSurveyID, rack.AssociatedProducts),
		})
	}
	for _, room := range pi.ProposedRooms {
		identical := room.IdenticalRooms
		if identical < 1 {
			identical = 1
		}
		node := &repository.RoomNode{
			Room: &domain.Room{
				SiteSurveyID:   req.SiteSurveyID,
				Floor:          nullStr(room.Floor),
				RoomName:       room.Name,
				RoomType:       nullStr(room.Type),
				ConnectionType: nullStr(room.ConnectionType),
				IsTypical:      room.IsTypicalRoom,
				IdenticalRooms: identical,
				Notes:          nullStr(room.Notes),
			},
			Products: toAssociations(req.SiteSurveyID, room.AssociatedProducts),
		}
		for _, o := range room.Outlets {
			qty := o.Quantity
			if qty < 1 {
				qty = 1
			}
			node.Outlets = append(node.Outlets, &domain.Outlet{
				OutletName: o.Name,
				OutletType: nullStr(o.Type),
				Quantity:   qty,
				Notes:      nullStr(o.Notes),
			})
		}
		tree.Rooms = append(tree.Rooms, node)
	}
	for _, c := range pi.ProposedConnections {
		tree.Connections = append(tree.Connections, &repository.ConnectionNode{
			Connection: &domain.Connection{
				SiteSurveyID:   req.SiteSurveyID,
				FromBuilding:   nullStr(c.FromBuilding),
				ToBuilding:     nullStr(c.ToBuilding),
				ConnectionType: nullStr(c.Type),
				Description:    nullStr(c.Description),
				DistanceM:      nullFloat(c.Distance),
				Notes:          nullStr(c.Notes),
			},
			Products: toAssociations(req.SiteSurveyID, c.AssociatedProducts),
		})
	}
	for _, e := range req.Equipment {
		if !standaloneLineKept(e) {
			continue
		}
		tree.Equipment = append(tree.Equipment, &domain.ProductAssociation{
			SiteSurveyID:  req.SiteSurveyID,
			ProductID:     e.ItemID,
			Quantity:      e.Quantity,
			UnitPrice:     e.Price,
			MarginPercent: e.Margin,
			Notes:         nullStr(e.Notes),
		})
	}
	return tree
}

func toAssociations(siteSurveyID string, lines []ProductLinePayload) []*domain.ProductAssociation {
	out := make([]*domain.ProductAssociation, 0, len(lines))
	for _, l := range lines {
		out = append(out, &domain.ProductAssociation{
			SiteSurveyID:  siteSurveyID,
			ProductID:     l.ItemID,
			Quantity:      l.Quantity,
			UnitPrice:     l.Price,
			MarginPercent: l.Margin,
			Notes:         nullStr(l.Notes),
		})
	}
	return out
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}

// ============================================
// Read
// ============================================

func (s *infrastructureService) GetEquipment(ctx context.Context, req GetEquipmentRequest) (*GetEquipmentResponse, error) {
	key := equipmentCacheKey(req.SiteSurveyID)
	if cached, err := s.kv.Get(ctx, key); err == nil {
		var resp GetEquipmentResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
	} else if err != store.ErrMiss {
		s.logger.Warn("equipment cache read failed", zap.Error(err))
	}

	tree, err := s.infraRepo.GetInfrastructure(ctx, req.SiteSurveyID)
	if err != nil {
		return nil, err
	}
	resp := projectTree(tree)

	if buf, err := json.Marshal(resp); err == nil {
		if err := s.kv.Set(ctx, key, string(buf), equipmentCacheTTL); err != nil {
			s.logger.Warn("equipment cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

func projectTree(tree *repository.InfrastructureTree) *GetEquipmentResponse {
	resp := &GetEquipmentResponse{
		Equipment: []EquipmentView{},
		ProposedInfrastructure: InfrastructureView{
			ProposedCentralRacks: []RackView{},
			ProposedFloorRacks:   []RackView{},
			ProposedRooms:        []RoomView{},
			ProposedConnections:  []ConnectionView{},
		},
	}
	if tree == nil {
		return resp
	}

	for _, a := range tree.Equipment {
		resp.Equipment = append(resp.Equipment, equipmentView(a))
	}
	for _, node := range tree.CentralRacks {
		resp.ProposedInfrastructure.ProposedCentralRacks = append(resp.ProposedInfrastructure.ProposedCentralRacks, RackView{
			RackID:             node.Rack.RackID,
			Building:           node.Rack.Building.String,
			Floor:              node.Rack.Floor.String,
			Name:               node.Rack.RackName,
			Code:               node.Rack.RackCode.String,
			Units:              node.Rack.Units,
			Location:           node.Rack.Location.String,
			Notes:              node.Rack.Notes.String,
			AssociatedProducts: equipmentViews(node.Products),
		})
	}
	for _, node := range tree.FloorRacks {
		resp.ProposedInfrastructure.ProposedFloorRacks = append(resp.ProposedInfrastructure.ProposedFloorRacks, RackView{
			RackID:             node.Rack.RackID,
			Building:           node.Rack.Building.String,
			Floor:              node.Rack.Floor.String,
			Name:               node.Rack.RackName,
			Code:               node.Rack.RackCode.String,
			Units:              node.Rack.Units,
			Location:           node.Rack.Location.String,
			Notes:              node.Rack.Notes.String,
			AssociatedProducts: equipmentViews(node.Products),
		})
	}
	for _, node := range tree.Rooms {
		view := RoomView{
			RoomID:             node.Room.RoomID,
			Floor:              node.Room.Floor.String,
			Name:               node.Room.RoomName,
			Type:               node.Room.RoomType.String,
			ConnectionType:     node.Room.ConnectionType.String,
			IsTypicalRoom:      node.Room.IsTypical,
			IdenticalRooms:     node.Room.IdenticalRooms,
			Notes:              node.Room.Notes.String,
			Outlets:            []OutletView{},
			AssociatedProducts: equipmentViews(node.Products),
		}
		for _, o := range node.Outlets {
			view.Outlets = append(view.Outlets, OutletView{
				OutletID: o.OutletID,
				Name:     o.OutletName,
				Type:     o.OutletType.String,
				Quantity: o.Quantity,
				Notes:    o.Notes.String,
			})
		}
		resp.ProposedInfrastructure.ProposedRooms = append(resp.ProposedInfrastructure.ProposedRooms, view)
	}
	for _, node := range tree.Connections {
		resp.ProposedInfrastructure.ProposedConnections = append(resp.ProposedInfrastructure.ProposedConnections, ConnectionView{
			ConnectionID:       node.Connection.ConnectionID,
			FromBuilding:       node.Connection.FromBuilding.String,
			ToBuilding:         node.Connection.ToBuilding.String,
			Type:               node.Connection.ConnectionType.String,
			Description:        node.Connection.Description.String,
			Distance:           node.Connection.DistanceM.Float64,
			Notes:              node.Connection.Notes.String,
			AssociatedProducts: equipmentViews(node.Products),
		})
	}
	return resp
}

func equipmentViews(in []*domain.ProductAssociation) []EquipmentView {
	out := make([]EquipmentView, 0, len(in))
	for _, a := range in {
		out = append(out, equipmentView(a))
	}
	return out
}

func equipmentView(a *domain.ProductAssociation) EquipmentView {
	return EquipmentView{
		AssociationID: a.AssociationID,
		ItemID:        a.ProductID,
		SKU:           a.SKU,
		Name:          a.ProductName,
		Brand:         a.Brand.String,
		Category:      a.Category.String,
		Unit:          a.Unit.String,
		Quantity:      a.Quantity,
		Price:         a.UnitPrice,
		Margin:        a.MarginPercent,
		TotalPrice:    a.TotalPrice(),
		Notes:         a.Notes.String,
	}
}
