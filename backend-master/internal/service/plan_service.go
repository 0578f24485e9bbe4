package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/repository"
	"github.com/imobsites/imobsites-panel/pkg/money"
)

var planCodeRegex = regexp.MustCompile(`^[A-Z0-9_]{2,50}$`)

// ParseDecimal accepts Brazilian ("1.234,56") and dotted ("1234.56") input
func ParseDecimal(raw string) (decimal.Decimal, error) {
	return money.Parse(raw)
}

// ParseFeatures accepts a JSON array or one feature per line
func ParseFeatures(raw string) []string {
	raw = strings.TrimSpace(raw)
	out := make([]string, 0)
	var list []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &list) == nil {
		for _, f := range list {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
		return out
	}
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// BuildPlanPayload validates the editor form and derives the stored plan.
// Total is always months * price per month.
func BuildPlanPayload(form *dto.PlanForm) (*domain.Plan, map[string]string) {
	errs := map[string]string{}

	p := &domain.Plan{
		Code:         strings.ToUpper(strings.TrimSpace(string(form.Code))),
		Name:         strings.TrimSpace(string(form.Name)),
		Description:  strings.TrimSpace(string(form.Description)),
		BillingCycle: domain.BillingCycle(strings.ToLower(strings.TrimSpace(string(form.BillingCycle)))),
		Features:     ParseFeatures(string(form.Features)),
		IsActive:     form.IsActive == nil || *form.IsActive,
	}

	if !planCodeRegex.MatchString(p.Code) {
		errs["code"] = "Code must use letters, digits and underscores"
	}
	if p.Name == "" {
		errs["name"] = "Name is required"
	}
	if !p.BillingCycle.Valid() {
		errs["billing_cycle"] = "Billing cycle must be monthly, quarterly, semiannual or annual"
	}

	if m := strings.TrimSpace(string(form.Months)); m != "" {
		months, err := strconv.Atoi(m)
		if err != nil || months < 1 {
			errs["months"] = "Months must be a positive integer"
		}
		p.Months = months
	} else {
		p.Months = p.BillingCycle.Months()
	}

	price, err := ParseDecimal(string(form.PricePerMonth))
	if err != nil || !price.IsPositive() {
		errs["price_per_month"] = "Price per month must be a positive number"
	}
	p.PricePerMonth = price.Round(2)

	if so := strings.TrimSpace(string(form.SortOrder)); so != "" {
		n, err := strconv.Atoi(so)
		if err != nil {
			errs["sort_order"] = "Sort order must be an integer"
		}
		p.SortOrder = n
	}

	if len(errs) > 0 {
		return nil, errs
	}
	p.TotalAmount = domain.ComputeTotal(p.Months, p.PricePerMonth)
	return p, nil
}

// PlanService defines the interface for plan management operations
type PlanService interface {
	List(ctx context.Context, activeOnly bool) ([]*domain.Plan, error)
	Get(ctx context.Context, id string) (*domain.Plan, error)
	Create(ctx context.Context, form *dto.PlanForm) (*domain.Plan, error)
	Update(ctx context.Context, id string, form *dto.PlanForm) (*domain.Plan, error)
	// SetFeatured makes id the only featured plan
	SetFeatured(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type planService struct {
	planRepo repository.PlanRepository
}

// NewPlanService creates a new PlanService
func NewPlanService(planRepo repository.PlanRepository) PlanService {
	return &planService{planRepo: planRepo}
}

func (s *planService) List(ctx context.Context, activeOnly bool) ([]*domain.Plan, error) {
	return s.planRepo.List(ctx, activeOnly)
}

func (s *planService) Get(ctx context.Context, id string) (*domain.Plan, error) {
	p, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

func (s *planService) Create(ctx context.Context, form *dto.PlanForm) (*domain.Plan, error) {
	p, errs := BuildPlanPayload(form)
	if errs != nil {
		return nil, NewValidationError(errs)
	}
	taken, err := s.planRepo.ExistsByCode(ctx, p.Code, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrPlanCodeTaken
	}

	now := time.Now()
	p.ID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.planRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *planService) Update(ctx context.Context, id string, form *dto.PlanForm) (*domain.Plan, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, errs := BuildPlanPayload(form)
	if errs != nil {
		return nil, NewValidationError(errs)
	}
	taken, err := s.planRepo.ExistsByCode(ctx, p.Code, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrPlanCodeTaken
	}

	p.ID = current.ID
	p.IsFeatured = current.IsFeatured
	p.CreatedAt = current.CreatedAt
	if err := s.planRepo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *planService) SetFeatured(ctx context.Context, id string) error {
	return mapPlanErr(s.planRepo.SetFeatured(ctx, id))
}

func (s *planService) SetActive(ctx context.Context, id string, active bool) error {
	return mapPlanErr(s.planRepo.SetActive(ctx, id, active))
}

func (s *planService) Delete(ctx context.Context, id string) error {
	return mapPlanErr(s.planRepo.Delete(ctx, id))
}

func mapPlanErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrPlanNotFound
	case errors.Is(err, repository.ErrPlanInUse):
		return ErrPlanInUse
	}
	return err
}
