package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/export"
	"github.com/imobsites/imobsites-panel/backend-master/internal/notification"
	"github.com/imobsites/imobsites-panel/backend-master/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCheckout struct {
	err      error
	remoteIP string
}

func (f *fakeCheckout) Checkout(ctx context.Context, req *dto.CheckoutRequest, remoteIP string) (*dto.CheckoutResponse, error) {
	f.remoteIP = remoteIP
	if f.err != nil {
		return nil, f.err
	}
	return &dto.CheckoutResponse{OrderID: "o1", Status: domain.OrderStatusPending, PlanCode: req.PlanCode}, nil
}

type fakePlans struct {
	service.PlanService
	activeOnly bool
}

func (f *fakePlans) List(ctx context.Context, activeOnly bool) ([]*domain.Plan, error) {
	f.activeOnly = activeOnly
	return []*domain.Plan{{ID: "p1", Code: "P02_ANUAL"}}, nil
}

type fakeWebhook struct {
	token string
	err   error
}

func (f *fakeWebhook) Handle(ctx context.Context, token string, payload *dto.AsaasWebhook) (*dto.WebhookResult, error) {
	f.token = token
	return &dto.WebhookResult{Event: payload.Event}, f.err
}

type fakeTenants struct {
	service.TenantService
	updateErr error
	warning   string
}

func (f *fakeTenants) List(ctx context.Context, q *dto.ListTenantsQuery) ([]*domain.Tenant, int, error) {
	q.SetDefaults()
	return []*domain.Tenant{{ID: "t1", Name: "Imob Sol"}}, 41, nil
}

func (f *fakeTenants) Update(ctx context.Context, id string, req *dto.UpdateTenantRequest) (*domain.Tenant, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &domain.Tenant{ID: id}, nil
}

func (f *fakeTenants) SetStatus(ctx context.Context, id string, status domain.TenantStatus) (*domain.Tenant, string, error) {
	if id == "missing" {
		return nil, "", service.ErrTenantNotFound
	}
	return &domain.Tenant{ID: id, Status: status}, f.warning, nil
}

type fakeOrders struct {
	service.OrderService
	cancelWarning string
	cancelErr     error
	exportErr     error
}

func (f *fakeOrders) Cancel(ctx context.Context, id string) (*domain.Order, string, error) {
	if f.cancelErr != nil {
		return nil, "", f.cancelErr
	}
	return &domain.Order{ID: id, Status: domain.OrderStatusCanceled}, f.cancelWarning, nil
}

func (f *fakeOrders) Export(ctx context.Context, q *dto.ListOrdersQuery, w io.Writer) error {
	if f.exportErr != nil {
		return f.exportErr
	}
	return export.WriteOrders(w, []*domain.Order{{ID: "o1", Status: domain.OrderStatusPaid}})
}

type fakeReminders struct {
	limit int
}

func (f *fakeReminders) Run(ctx context.Context, limit int) (*dto.ReminderRunResponse, error) {
	f.limit = limit
	return &dto.ReminderRunResponse{Selected: 2, Sent: 2}, nil
}

func (f *fakeReminders) SendNow(ctx context.Context, id string) (*domain.Order, error) {
	if id == "paid" {
		return nil, service.ErrOrderNotPending
	}
	return &domain.Order{ID: id, ReminderCount: 1}, nil
}

type fixture struct {
	router    *gin.Engine
	checkout  *fakeCheckout
	plans     *fakePlans
	webhook   *fakeWebhook
	tenants   *fakeTenants
	orders    *fakeOrders
	reminders *fakeReminders
}

func newFixture() *fixture {
	f := &fixture{
		checkout:  &fakeCheckout{},
		plans:     &fakePlans{},
		webhook:   &fakeWebhook{},
		tenants:   &fakeTenants{},
		orders:    &fakeOrders{},
		reminders: &fakeReminders{},
	}
	f.router = NewRouter(&Handlers{
		Auth:     NewAuthHandler(nil),
		Checkout: NewCheckoutHandler(f.checkout, f.plans, f.webhook),
		Tenant:   NewTenantHandler(f.tenants),
		Plan:     NewPlanHandler(f.plans),
		Order:    NewOrderHandler(f.orders, f.reminders, 25),
		Email:    NewEmailHandler(nil),
	}, RouterConfig{JWTSecret: testSecret})
	return f
}

func masterToken(t *testing.T, role string) string {
	tok, _, err := middleware.IssueToken(testSecret, "imobsites", "master",
		middleware.Claims{Email: "ops@imobsites.com.br", Role: role}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func checkoutBody() map[string]any {
	return map[string]any{
		"plan_code":         "P02_ANUAL",
		"payment_method":    "pix",
		"customer_name":     "Maria Souza",
		"customer_email":    "maria@example.com",
		"customer_document": "123.456.789-09",
	}
}

func TestCheckoutHandler_Checkout(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture()
		w, resp := f.do(t, http.MethodPost, "/api/v1/checkout", checkoutBody(), map[string]string{"X-Forwarded-For": "203.0.113.9"})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, f.checkout.remoteIP)
	})

	t.Run("binding error", func(t *testing.T) {
		f := newFixture()
		body := checkoutBody()
		body["payment_method"] = "bitcoin"
		w, resp := f.do(t, http.MethodPost, "/api/v1/checkout", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.ErrCodeValidationFailed, resp.Error.Code)
	})

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"field errors", service.NewValidationError(map[string]string{"card": "required"}), http.StatusBadRequest, response.ErrCodeValidationFailed},
		{"plan unavailable", service.ErrPlanUnavailable, http.StatusUnprocessableEntity, response.ErrCodePlanUnavailable},
		{"gateway", fmt.Errorf("%w: timeout", service.ErrPaymentFailed), http.StatusBadGateway, response.ErrCodeGatewayError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, response.ErrCodeInternalError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.checkout.err = tc.err
			w, resp := f.do(t, http.MethodPost, "/api/v1/checkout", checkoutBody(), nil)
			assert.Equal(t, tc.status, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestCheckoutHandler_Plans(t *testing.T) {
	f := newFixture()
	w, resp := f.do(t, http.MethodGet, "/api/v1/plans", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.True(t, f.plans.activeOnly)
}

func TestCheckoutHandler_AsaasWebhook(t *testing.T) {
	payload := map[string]any{"event": dto.WebhookPaymentConfirmed, "payment": map[string]any{"id": "pay_1"}}

	f := newFixture()
	w, _ := f.do(t, http.MethodPost, "/api/v1/webhooks/asaas", payload, map[string]string{dto.WebhookTokenHeader: "tok"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", f.webhook.token)

	f.webhook.err = service.ErrInvalidWebhookToken
	w, _ = f.do(t, http.MethodPost, "/api/v1/webhooks/asaas", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	f.webhook.err = service.ErrWebhookOrderNotFound
	w, resp := f.do(t, http.MethodPost, "/api/v1/webhooks/asaas", payload, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ErrWebhookOrderNotFound.Error(), resp.Warning)
}

func TestRouter_MasterRoutesRequireMasterRole(t *testing.T) {
	f := newFixture()

	w, _ := f.do(t, http.MethodGet, "/api/v1/master/tenants", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/master/tenants", nil, map[string]string{"Authorization": masterToken(t, middleware.RoleAdmin)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/master/tenants", nil, map[string]string{"Authorization": masterToken(t, middleware.RoleMaster)})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTenantHandler(t *testing.T) {
	f := newFixture()
	auth := map[string]string{"Authorization": masterToken(t, middleware.RoleMaster)}

	t.Run("list is paginated", func(t *testing.T) {
		_, resp := f.do(t, http.MethodGet, "/api/v1/master/tenants?page=2&limit=20", nil, auth)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 2, resp.Meta.Page)
		assert.Equal(t, int64(41), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("inline edit errors are 422 for ajax", func(t *testing.T) {
		f.tenants.updateErr = service.NewValidationError(map[string]string{"name": "too short"})
		defer func() { f.tenants.updateErr = nil }()

		ajax := map[string]string{"Authorization": auth["Authorization"], "X-Requested-With": "XMLHttpRequest"}
		w, resp := f.do(t, http.MethodPatch, "/api/v1/master/tenants/t1", map[string]any{"name": "x"}, ajax)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "too short", resp.Error.Details["name"])

		w, _ = f.do(t, http.MethodPatch, "/api/v1/master/tenants/t1", map[string]any{"name": "x"}, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("suspend twice warns", func(t *testing.T) {
		f.tenants.warning = service.WarnTenantAlreadySusp
		defer func() { f.tenants.warning = "" }()
		w, resp := f.do(t, http.MethodPost, "/api/v1/master/tenants/t1/suspend", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, service.WarnTenantAlreadySusp, resp.Warning)

		w, _ = f.do(t, http.MethodPost, "/api/v1/master/tenants/missing/activate", nil, auth)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler(t *testing.T) {
	f := newFixture()
	auth := map[string]string{"Authorization": masterToken(t, middleware.RoleMaster)}

	t.Run("cancel", func(t *testing.T) {
		w, resp := f.do(t, http.MethodPost, "/api/v1/master/orders/o1/cancel", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, resp.Warning)

		f.orders.cancelWarning = service.WarnOrderAlreadyCanceled
		_, resp = f.do(t, http.MethodPost, "/api/v1/master/orders/o1/cancel", nil, auth)
		assert.Equal(t, service.WarnOrderAlreadyCanceled, resp.Warning)

		f.orders.cancelErr = service.ErrOrderAlreadyPaid
		w, resp = f.do(t, http.MethodPost, "/api/v1/master/orders/o1/cancel", nil, auth)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, response.ErrCodeInvalidState, resp.Error.Code)
	})

	t.Run("remind now", func(t *testing.T) {
		w, _ := f.do(t, http.MethodPost, "/api/v1/master/orders/o2/remind", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)
		w, _ = f.do(t, http.MethodPost, "/api/v1/master/orders/paid/remind", nil, auth)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("reminder run uses the default limit", func(t *testing.T) {
		f.do(t, http.MethodPost, "/api/v1/master/orders/reminders/run", nil, auth)
		assert.Equal(t, 25, f.reminders.limit)
		f.do(t, http.MethodPost, "/api/v1/master/orders/reminders/run?limit=5", nil, auth)
		assert.Equal(t, 5, f.reminders.limit)
	})

	t.Run("export", func(t *testing.T) {
		w, _ := f.do(t, http.MethodGet, "/api/v1/master/orders/export?status=paid", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotZero(t, w.Body.Len())

		f.orders.exportErr = errors.New("db down")
		w, _ = f.do(t, http.MethodGet, "/api/v1/master/orders/export", nil, auth)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestEmailHandler_RejectsBadTemplateID(t *testing.T) {
	f := newFixture()
	auth := map[string]string{"Authorization": masterToken(t, middleware.RoleMaster)}
	w, _ := f.do(t, http.MethodGet, "/api/v1/master/email/templates/abc", nil, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeEmail struct {
	service.EmailService
	previewed int64
}

func (f *fakeEmail) Preview(ctx context.Context, id int64, vars map[string]any) (*notification.Rendered, error) {
	f.previewed = id
	return &notification.Rendered{Subject: "Pedido confirmado"}, nil
}

type memoryAuditStore struct {
	mu      sync.Mutex
	entries []*middleware.AuditEntry
}

func (s *memoryAuditStore) InsertAuditEntries(ctx context.Context, entries []*middleware.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

func TestEmailHandler_PreviewIsNotAudited(t *testing.T) {
	store := &memoryAuditStore{}
	audit := middleware.NewAuditLogger(&middleware.AuditConfig{Store: store, FlushInterval: time.Hour})
	email := &fakeEmail{}
	f := newFixture()
	f.router = NewRouter(&Handlers{
		Auth:     NewAuthHandler(nil),
		Checkout: NewCheckoutHandler(f.checkout, f.plans, f.webhook),
		Tenant:   NewTenantHandler(f.tenants),
		Plan:     NewPlanHandler(f.plans),
		Order:    NewOrderHandler(f.orders, f.reminders, 25),
		Email:    NewEmailHandler(email),
	}, RouterConfig{JWTSecret: testSecret, Audit: audit})
	auth := map[string]string{"Authorization": masterToken(t, middleware.RoleMaster)}

	w, resp := f.do(t, http.MethodPost, "/api/v1/master/email/templates/7/preview",
		map[string]any{"vars": map[string]any{"customer_name": "Maria"}}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), email.previewed)

	w, _ = f.do(t, http.MethodPost, "/api/v1/master/tenants/t1/suspend", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, audit.Close())
	require.Len(t, store.entries, 1)
	assert.Equal(t, "tenant", store.entries[0].ResourceType)
}
