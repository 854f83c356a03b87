package contract

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for contract groups and their contracts
type Repository interface {
	// FindGroupByID loads a group with its contracts and lines, nil when absent
	FindGroupByID(ctx context.Context, id uuid.UUID) (*Group, error)

	// FindGroupsByIDs loads groups with contracts and lines, in the order of ids.
	// Unknown IDs are skipped.
	FindGroupsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Group, error)

	// ListGroupIDs lists every group ID in creation order
	ListGroupIDs(ctx context.Context) ([]uuid.UUID, error)

	// FindGroupsByBVRReference lists groups (without contracts) carrying the reference
	FindGroupsByBVRReference(ctx context.Context, ref string) ([]Group, error)

	// FindForGift lists non-draft contracts numbered number whose partner or
	// correspondent is partnerID
	FindForGift(ctx context.Context, partnerID uuid.UUID, number int) ([]Contract, error)

	// SaveGroup creates or updates the group header
	SaveGroup(ctx context.Context, g *Group) error

	// SaveContract creates or updates a contract and its lines
	SaveContract(ctx context.Context, c *Contract) error
}
