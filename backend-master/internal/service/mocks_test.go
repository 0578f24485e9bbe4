package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/notification"
	"github.com/imobsites/imobsites-panel/backend-master/internal/repository"
	"github.com/imobsites/imobsites-panel/pkg/kafka"
)

var errMockFailure = errors.New("mock failure")

// MockOrderRepository is an in-memory OrderRepository
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	// BeforeRecord runs inside RecordReminder, before the count check
	BeforeRecord func(o *domain.Order)
	ShouldFail   bool
}

func NewMockOrderRepository(orders ...*domain.Order) *MockOrderRepository {
	r := &MockOrderRepository{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	return &cp
}

func (r *MockOrderRepository) Get(id string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		return cloneOrder(o)
	}
	return nil
}

func (r *MockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ShouldFail {
		return errMockFailure
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.Get(id), nil
}

func (r *MockOrderRepository) GetByGatewayPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.GatewayPaymentID == paymentID {
			return cloneOrder(o), nil
		}
	}
	return nil, nil
}

func (r *MockOrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]*domain.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r *MockOrderRepository) SetGatewayCustomerID(ctx context.Context, orderID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[orderID]; ok {
		o.GatewayCustomerID = customerID
	}
	return nil
}

func (r *MockOrderRepository) SaveGatewayResult(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *MockOrderRepository) transition(id string, at time.Time, to domain.OrderStatus, from ...domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ShouldFail {
		return false, errMockFailure
	}
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if o.Status == s {
			o.Status = to
			o.UpdatedAt = at
			switch to {
			case domain.OrderStatusPaid:
				o.PaidAt = &at
			case domain.OrderStatusCanceled:
				o.CanceledAt = &at
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *MockOrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(id, at, domain.OrderStatusPaid, domain.OrderStatusPending)
}

func (r *MockOrderRepository) MarkExpired(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(id, at, domain.OrderStatusExpired, domain.OrderStatusPending)
}

func (r *MockOrderRepository) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(id, at, domain.OrderStatusCanceled, domain.OrderStatusPending)
}

func (r *MockOrderRepository) ListReminderEligible(ctx context.Context, now time.Time, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ShouldFail {
		return nil, errMockFailure
	}
	var out []*domain.Order
	for _, o := range r.orders {
		if o.IsReminderEligible(now) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockOrderRepository) RecordReminder(ctx context.Context, id string, prevCount int, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	if r.BeforeRecord != nil {
		r.BeforeRecord(o)
	}
	if o.ReminderCount != prevCount {
		return false, nil
	}
	o.ApplyReminder(at)
	return true, nil
}

// MockPlanRepository is an in-memory PlanRepository
type MockPlanRepository struct {
	mu    sync.Mutex
	plans map[string]*domain.Plan
}

func NewMockPlanRepository(plans ...*domain.Plan) *MockPlanRepository {
	r := &MockPlanRepository{plans: make(map[string]*domain.Plan)}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *MockPlanRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Plan
	for _, p := range r.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *MockPlanRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.plans[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *MockPlanRepository) GetByCode(ctx context.Context, code string) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MockPlanRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.Code == code && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockPlanRepository) Create(ctx context.Context, p *domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *MockPlanRepository) Update(ctx context.Context, p *domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *MockPlanRepository) SetFeatured(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	for pid, p := range r.plans {
		p.IsFeatured = pid == id
	}
	return nil
}

func (r *MockPlanRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (r *MockPlanRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

// MockTenantRepository records onboardings and answers existence checks
type MockTenantRepository struct {
	repository.TenantRepository

	mu          sync.Mutex
	Onboardings []*repository.Onboarding
	Slugs       map[string]bool
	Domains     map[string]bool
	OnboardErr  error
}

func NewMockTenantRepository() *MockTenantRepository {
	return &MockTenantRepository{Slugs: map[string]bool{}, Domains: map[string]bool{}}
}

func (r *MockTenantRepository) Onboard(ctx context.Context, o *repository.Onboarding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.OnboardErr != nil {
		return r.OnboardErr
	}
	r.Onboardings = append(r.Onboardings, o)
	r.Slugs[o.Tenant.Slug] = true
	r.Domains[o.Domain.Domain] = true
	return nil
}

func (r *MockTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Slugs[slug], nil
}

func (r *MockTenantRepository) DomainExists(ctx context.Context, host string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Domains[host], nil
}

// MockUserRepository answers e-mail checks
type MockUserRepository struct {
	repository.UserRepository
	Emails map[string]bool
}

func (r *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.Emails[email], nil
}

// SentEmail is one EmailSender call
type SentEmail struct {
	Event domain.EventType
	To    string
	Vars  notification.Vars
}

// MockEmailSender records sends
type MockEmailSender struct {
	mu         sync.Mutex
	Sent       []SentEmail
	ShouldFail bool
	FailFor    map[string]bool
}

func (m *MockEmailSender) Send(ctx context.Context, event domain.EventType, to, toName string, vars notification.Vars) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail || m.FailFor[to] {
		return errMockFailure
	}
	m.Sent = append(m.Sent, SentEmail{Event: event, To: to, Vars: vars})
	return nil
}

func (m *MockEmailSender) Events() []domain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EventType, len(m.Sent))
	for i, s := range m.Sent {
		out[i] = s.Event
	}
	return out
}

// MockPublisher records published events
type MockPublisher struct {
	mu     sync.Mutex
	Events []kafka.Event
	Topics []string
}

func (p *MockPublisher) Publish(ctx context.Context, topic string, event kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Topics = append(p.Topics, topic)
	p.Events = append(p.Events, event)
	return nil
}

func (p *MockPublisher) Close() {}

func (p *MockPublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Events)
}

// MockLocker is an in-process Locker
type MockLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	Unlocked []string
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]bool{}}
}

func (l *MockLocker) Hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = true
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return "", false, nil
	}
	l.held[key] = true
	return "token-" + key, true, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.Unlocked = append(l.Unlocked, key)
	return nil
}
