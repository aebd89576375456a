package repository

import (
	"context"

	"kimoncrm/internal/domain"
)

// InfrastructureRepository persists and projects the proposed-infrastructure
// tree of a site survey.
//
// ReplaceInfrastructure is a full replacement, not a diff: every existing
// proposed_* row scoped to the survey is deleted and the submitted tree is
// recreated inside one transaction, so row IDs are not stable across saves.
// Callers must serialize saves per survey (InfrastructureService does).
type InfrastructureRepository interface {
	// ReplaceInfrastructure atomically replaces all stored infrastructure
	// for the survey. Returns ErrNotFound if the survey does not exist.
	ReplaceInfrastructure(ctx context.Context, siteSurveyID string, tree *InfrastructureTree) error

	// GetInfrastructure rebuilds the nested tree from the flat rows, with
	// product details joined in. A missing or never-saved survey yields an
	// empty tree, not an error.
	GetInfrastructure(ctx context.Context, siteSurveyID string) (*InfrastructureTree, error)
}

// InfrastructureTree is the nested form exchanged with services: four
// top-level node arrays plus the standalone equipment lines.
type InfrastructureTree struct {
	CentralRacks []*CentralRackNode
	FloorRacks   []*FloorRackNode
	Rooms        []*RoomNode
	Connections  []*ConnectionNode
	Equipment    []*domain.ProductAssociation
}

type CentralRackNode struct {
	Rack     *domain.CentralRack
	Products []*domain.ProductAssociation
}

type FloorRackNode struct {
	Rack     *domain.FloorRack
	Products []*domain.ProductAssociation
}

type RoomNode struct {
	Room     *domain.Room
	Outlets  []*domain.Outlet
	Products []*domain.ProductAssociation
}

type ConnectionNode struct {
	Connection *domain.Connection
	Products   []*domain.ProductAssociation
}

// Empty reports whether the tree carries nothing to persist.
func (t *InfrastructureTree) Empty() bool {
	if t == nil {
		return true
	}
	return len(t.CentralRacks) == 0 && len(t.FloorRacks) == 0 &&
		len(t.Rooms) == 0 && len(t.Connections) == 0 && len(t.Equipment) == 0
}
