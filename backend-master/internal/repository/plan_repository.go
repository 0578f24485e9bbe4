package repository

import (
	"context"
	"errors"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

// ErrPlanInUse is returned when deleting a plan referenced by orders
var ErrPlanInUse = errors.New("plan is referenced by orders")

// PlanRepository defines the interface for plan data access
type PlanRepository interface {
	// List returns plans by sort order, only active ones when activeOnly
	List(ctx context.Context, activeOnly bool) ([]*domain.Plan, error)
	GetByID(ctx context.Context, id string) (*domain.Plan, error)
	GetByCode(ctx context.Context, code string) (*domain.Plan, error)
	// ExistsByCode checks the code against every plan except excludeID
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, plan *domain.Plan) error
	Update(ctx context.Context, plan *domain.Plan) error
	// SetFeatured unsets every featured flag then sets one, atomically
	SetFeatured(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}
