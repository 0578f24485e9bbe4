package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/repository"
	"github.com/imobsites/imobsites-panel/pkg/redis"
)

// MockUserRepository keys users by activation token and e-mail
type MockUserRepository struct {
	mu       sync.Mutex
	users    []*domain.User
	tokens   map[string]*domain.User
	consumed bool
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{tokens: map[string]*domain.User{}}
}

func (r *MockUserRepository) Add(u *domain.User, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, u)
	if token != "" {
		r.tokens[token] = u
	}
}

func (r *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MockUserRepository) GetByActivationToken(ctx context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.tokens[token]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *MockUserRepository) Activate(ctx context.Context, token, passwordHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.tokens[token]
	if !ok || r.consumed || u.ActivationExpired(now) {
		return false, nil
	}
	u.PasswordHash = passwordHash
	u.IsActive = true
	u.ActivationExpiresAt = nil
	delete(r.tokens, token)
	return true, nil
}

// MockPropertyRepository is an in-memory PropertyRepository
type MockPropertyRepository struct {
	mu                 sync.Mutex
	props              map[string]*domain.Property
	NeighborhoodsCalls int
}

func NewMockPropertyRepository(props ...*domain.Property) *MockPropertyRepository {
	r := &MockPropertyRepository{props: map[string]*domain.Property{}}
	for _, p := range props {
		r.props[p.ID] = p
	}
	return r
}

func (r *MockPropertyRepository) List(ctx context.Context, f domain.PropertyFilter) ([]*domain.Property, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Property, 0)
	for _, p := range r.props {
		if p.TenantID != f.TenantID || (f.Status != "" && p.Status != f.Status) || (f.Purpose != "" && p.Purpose != f.Purpose) {
			continue
		}
		if f.City != "" && !strings.EqualFold(p.City, f.City) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, len(out), nil
}

func (r *MockPropertyRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.props[id]; ok && p.TenantID == tenantID {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *MockPropertyRepository) codeTaken(p *domain.Property) bool {
	for _, o := range r.props {
		if o.ID != p.ID && o.TenantID == p.TenantID && o.Code == p.Code {
			return true
		}
	}
	return false
}

func (r *MockPropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.codeTaken(p) {
		return repository.ErrDuplicateCode
	}
	cp := *p
	r.props[p.ID] = &cp
	return nil
}

func (r *MockPropertyRepository) Update(ctx context.Context, p *domain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.props[p.ID]; !ok || o.TenantID != p.TenantID {
		return repository.ErrNotFound
	}
	if r.codeTaken(p) {
		return repository.ErrDuplicateCode
	}
	cp := *p
	r.props[p.ID] = &cp
	return nil
}

func (r *MockPropertyRepository) Delete(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.props[id]; !ok || p.TenantID != tenantID {
		return repository.ErrNotFound
	}
	delete(r.props, id)
	return nil
}

func (r *MockPropertyRepository) Neighborhoods(ctx context.Context, tenantID, city string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.NeighborhoodsCalls++
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, p := range r.props {
		if p.TenantID == tenantID && strings.EqualFold(p.City, city) && p.Neighborhood != "" && !seen[p.Neighborhood] {
			seen[p.Neighborhood] = true
			out = append(out, p.Neighborhood)
		}
	}
	sort.Strings(out)
	return out, nil
}

// MockImageRepository is an in-memory ImageRepository
type MockImageRepository struct {
	mu     sync.Mutex
	images []*domain.PropertyImage
	Fail   error
}

func (r *MockImageRepository) ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*domain.PropertyImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.PropertyImage, 0)
	for _, img := range r.images {
		if img.TenantID == tenantID && img.PropertyID == propertyID {
			cp := *img
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockImageRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.PropertyImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.images {
		if img.ID == id && img.TenantID == tenantID {
			cp := *img
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MockImageRepository) Create(ctx context.Context, img *domain.PropertyImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	img.IsCover = true
	for _, o := range r.images {
		if o.PropertyID == img.PropertyID {
			img.SortOrder++
			if o.IsCover {
				img.IsCover = false
			}
		}
	}
	cp := *img
	r.images = append(r.images, &cp)
	return nil
}

func (r *MockImageRepository) SetCover(ctx context.Context, tenantID, propertyID, imageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for _, img := range r.images {
		if img.PropertyID == propertyID && img.ID == imageID && img.TenantID == tenantID {
			found = true
		}
	}
	if !found {
		return repository.ErrNotFound
	}
	for _, img := range r.images {
		if img.PropertyID == propertyID {
			img.IsCover = img.ID == imageID
		}
	}
	return nil
}

func (r *MockImageRepository) Delete(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, img := range r.images {
		if img.ID == id && img.TenantID == tenantID {
			r.images = append(r.images[:i], r.images[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// MockContactRepository is an in-memory ContactRepository
type MockContactRepository struct {
	mu       sync.Mutex
	contacts map[string]*domain.Contact
}

func NewMockContactRepository() *MockContactRepository {
	return &MockContactRepository{contacts: map[string]*domain.Contact{}}
}

func (r *MockContactRepository) List(ctx context.Context, tenantID string, status domain.ContactStatus, page, perPage int) ([]*domain.Contact, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Contact, 0)
	for _, c := range r.contacts {
		if c.TenantID == tenantID && (status == "" || c.Status == status) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *MockContactRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.contacts[id]; ok && c.TenantID == tenantID {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *MockContactRepository) Create(ctx context.Context, c *domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.contacts[c.ID] = &cp
	return nil
}

func (r *MockContactRepository) UpdateStatus(ctx context.Context, tenantID, id string, status domain.ContactStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.TenantID != tenantID {
		return repository.ErrNotFound
	}
	c.Status = status
	return nil
}

func (r *MockContactRepository) Delete(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.TenantID != tenantID {
		return repository.ErrNotFound
	}
	delete(r.contacts, id)
	return nil
}

// memStorage keeps saved files in memory
type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (s *memStorage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = buf.Bytes()
	return path.Join("/uploads", key), nil
}

func (s *memStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

func (s *memStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// memCache is a JSON cache without expiry
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dst any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(raw, dst)
}

func (c *memCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}
