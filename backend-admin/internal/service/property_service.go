package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/repository"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/storage"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/money"
	"github.com/imobsites/imobsites-panel/pkg/redis"
)

// NeighborhoodTTL is how long a city's neighborhood list is cached
const NeighborhoodTTL = 10 * time.Minute

// Cache is the JSON cache used for AJAX lookups
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PropertyService manages the tenant's listings
type PropertyService interface {
	List(ctx context.Context, tenantID string, q *dto.PropertyListQuery) ([]*domain.Property, int, error)
	Get(ctx context.Context, tenantID, id string) (*domain.Property, error)
	Create(ctx context.Context, tenantID string, req *dto.PropertyRequest) (*domain.Property, error)
	Update(ctx context.Context, tenantID, id string, req *dto.PropertyRequest) (*domain.Property, error)
	// Delete removes the property and its image files
	Delete(ctx context.Context, tenantID, id string) error
	Neighborhoods(ctx context.Context, tenantID, city string) ([]string, error)
}

type propertyService struct {
	props  repository.PropertyRepository
	images repository.ImageRepository
	files  storage.Storage
	cache  Cache
}

// NewPropertyService creates a new PropertyService. cache may be nil.
func NewPropertyService(props repository.PropertyRepository, images repository.ImageRepository, files storage.Storage, cache Cache) PropertyService {
	return &propertyService{props: props, images: images, files: files, cache: cache}
}

// BuildProperty validates the editor payload into p's editable fields
func BuildProperty(req *dto.PropertyRequest, p *domain.Property) map[string]string {
	fields := map[string]string{}

	p.Code = strings.TrimSpace(req.Code)
	switch {
	case p.Code == "":
		fields["code"] = "is required"
	case len(p.Code) > 50:
		fields["code"] = "must have at most 50 characters"
	}
	p.Title = strings.TrimSpace(req.Title)
	switch {
	case p.Title == "":
		fields["title"] = "is required"
	case len(p.Title) > 255:
		fields["title"] = "must have at most 255 characters"
	}
	p.Description = strings.TrimSpace(req.Description)

	p.Purpose = domain.Purpose(strings.ToLower(strings.TrimSpace(req.Purpose)))
	if !p.Purpose.Valid() {
		fields["purpose"] = "must be sale or rent"
	}
	p.PropertyType = strings.TrimSpace(req.PropertyType)
	if p.PropertyType == "" || len(p.PropertyType) > 50 {
		fields["property_type"] = "is required"
	}
	p.Status = domain.PropertyStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if p.Status == "" {
		p.Status = domain.PropertyStatusActive
	}
	if !p.Status.Valid() {
		fields["status"] = "is invalid"
	}

	if strings.TrimSpace(req.Price) == "" {
		p.Price = decimal.Zero
	} else if price, err := money.Parse(req.Price); err != nil || price.IsNegative() {
		fields["price"] = "must be a non-negative amount"
	} else {
		p.Price = price.Round(2)
	}
	p.Area = decimal.NullDecimal{}
	if strings.TrimSpace(req.Area) != "" {
		if area, err := money.Parse(req.Area); err != nil || !area.IsPositive() {
			fields["area"] = "must be a positive number"
		} else {
			p.Area = decimal.NewNullDecimal(area.Round(2))
		}
	}

	for name, v := range map[string]int{"bedrooms": req.Bedrooms, "bathrooms": req.Bathrooms, "parking_spaces": req.ParkingSpaces} {
		if v < 0 {
			fields[name] = "cannot be negative"
		}
	}
	p.Bedrooms, p.Bathrooms, p.ParkingSpaces = req.Bedrooms, req.Bathrooms, req.ParkingSpaces

	p.Street = strings.TrimSpace(req.Street)
	p.Number = strings.TrimSpace(req.Number)
	p.Neighborhood = strings.TrimSpace(req.Neighborhood)
	p.City = strings.TrimSpace(req.City)
	p.State = strings.ToUpper(strings.TrimSpace(req.State))
	if p.State != "" && len(p.State) != 2 {
		fields["state"] = "must be a two-letter code"
	}
	p.PostalCode = strings.TrimSpace(req.PostalCode)
	if len(p.PostalCode) > 10 {
		fields["postal_code"] = "must have at most 10 characters"
	}
	p.IsFeatured = req.IsFeatured
	return fields
}

func (s *propertyService) List(ctx context.Context, tenantID string, q *dto.PropertyListQuery) ([]*domain.Property, int, error) {
	q.Normalize()
	f := domain.PropertyFilter{
		TenantID: tenantID,
		Status:   domain.PropertyStatus(q.Status),
		Purpose:  domain.Purpose(q.Purpose),
		City:     strings.TrimSpace(q.City),
		Search:   strings.TrimSpace(q.Search),
		Page:     q.Page,
		PerPage:  q.PerPage,
	}
	fields := map[string]string{}
	if f.Status != "" && !f.Status.Valid() {
		fields["status"] = "is invalid"
	}
	if f.Purpose != "" && !f.Purpose.Valid() {
		fields["purpose"] = "must be sale or rent"
	}
	if err := NewValidationError(fields); err != nil {
		return nil, 0, err
	}
	return s.props.List(ctx, f)
}

func (s *propertyService) Get(ctx context.Context, tenantID, id string) (*domain.Property, error) {
	p, err := s.props.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

func (s *propertyService) Create(ctx context.Context, tenantID string, req *dto.PropertyRequest) (*domain.Property, error) {
	now := time.Now()
	p := &domain.Property{ID: uuid.New().String(), TenantID: tenantID, CreatedAt: now, UpdatedAt: now}
	if err := NewValidationError(BuildProperty(req, p)); err != nil {
		return nil, err
	}
	if err := s.props.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			return nil, ErrPropertyCodeTaken
		}
		return nil, err
	}
	s.invalidate(ctx, tenantID, p.City)
	return p, nil
}

func (s *propertyService) Update(ctx context.Context, tenantID, id string, req *dto.PropertyRequest) (*domain.Property, error) {
	p, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	oldCity := p.City
	if err := NewValidationError(BuildProperty(req, p)); err != nil {
		return nil, err
	}
	if err := s.props.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateCode):
			return nil, ErrPropertyCodeTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	s.invalidate(ctx, tenantID, oldCity, p.City)
	return p, nil
}

func (s *propertyService) Delete(ctx context.Context, tenantID, id string) error {
	p, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	images, err := s.images.ListByProperty(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.props.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPropertyNotFound
		}
		return err
	}

	for _, img := range images {
		if err := s.files.Remove(ctx, img.Path); err != nil {
			logger.Get().WithContext(ctx).Warn("failed to remove property image file",
				zap.String("image_id", img.ID),
				zap.Error(err),
			)
		}
	}
	s.invalidate(ctx, tenantID, p.City)
	return nil
}

func neighborhoodKey(tenantID, city string) string {
	return "neighborhoods:" + tenantID + ":" + strings.ToLower(strings.TrimSpace(city))
}

func (s *propertyService) Neighborhoods(ctx context.Context, tenantID, city string) ([]string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return []string{}, nil
	}
	key := neighborhoodKey(tenantID, city)
	log := logger.Get().WithContext(ctx)

	if s.cache != nil {
		var cached []string
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			log.Warn("neighborhood cache read failed", zap.Error(err))
		}
	}

	list, err := s.props.Neighborhoods(ctx, tenantID, city)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, list, NeighborhoodTTL); err != nil {
			log.Warn("neighborhood cache write failed", zap.Error(err))
		}
	}
	return list, nil
}

func (s *propertyService) invalidate(ctx context.Context, tenantID string, cities ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(cities))
	for _, c := range cities {
		if strings.TrimSpace(c) != "" {
			keys = append(keys, neighborhoodKey(tenantID, c))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Get().WithContext(ctx).Warn("neighborhood cache invalidation failed", zap.Error(err))
	}
}
