package partner

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for partner persistence
type Repository interface {
	// FindByID finds a partner by its ID, nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Partner, error)

	// FindByRef finds partners carrying the given code
	FindByRef(ctx context.Context, ref string, isCompany bool) ([]Partner, error)

	// FindByName finds partners whose last name equals lastName (case-insensitive)
	// and whose first name contains firstNamePart (case-insensitive)
	FindByName(ctx context.Context, lastName, firstNamePart string) ([]Partner, error)

	// Save creates or updates a partner
	Save(ctx context.Context, p *Partner) error
}
