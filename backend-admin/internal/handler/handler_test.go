package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

const testSecret = "admin-handler-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	loginErr    error
	activateErr error
}

func (f *fakeAuth) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &dto.LoginResponse{AccessToken: "tok", TenantID: "tenant-1", Role: middleware.RoleAdmin}, nil
}

func (f *fakeAuth) Activate(ctx context.Context, req *dto.ActivateRequest) error {
	return f.activateErr
}

type fakeProperties struct {
	service.PropertyService
	tenant    string
	createErr error
	city      string
}

func (f *fakeProperties) List(ctx context.Context, tenantID string, q *dto.PropertyListQuery) ([]*domain.Property, int, error) {
	f.tenant = tenantID
	q.Normalize()
	return []*domain.Property{{ID: "p1", TenantID: tenantID}}, 45, nil
}

func (f *fakeProperties) Create(ctx context.Context, tenantID string, req *dto.PropertyRequest) (*domain.Property, error) {
	f.tenant = tenantID
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Property{ID: "p-new", TenantID: tenantID, Code: req.Code}, nil
}

func (f *fakeProperties) Neighborhoods(ctx context.Context, tenantID, city string) ([]string, error) {
	f.tenant, f.city = tenantID, city
	return []string{"Batel", "Centro"}, nil
}

type fakeContacts struct {
	service.ContactService
}

func (f *fakeContacts) UpdateStatus(ctx context.Context, tenantID, id string, status string) (*domain.Contact, error) {
	return nil, service.ErrContactNotFound
}

type fakeUploads struct {
	service.UploadService
	filename string
	body     []byte
	err      error
}

func (f *fakeUploads) Upload(ctx context.Context, tenantID, propertyID string, up service.Upload) (*domain.PropertyImage, error) {
	f.filename = up.Filename
	f.body, _ = io.ReadAll(up.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PropertyImage{ID: "img-1", PropertyID: propertyID, IsCover: true}, nil
}

type fixture struct {
	router   *gin.Engine
	auth     *fakeAuth
	props    *fakeProperties
	contacts *fakeContacts
	uploads  *fakeUploads
}

func newFixture(maxUpload int64) *fixture {
	f := &fixture{
		auth:     &fakeAuth{},
		props:    &fakeProperties{},
		contacts: &fakeContacts{},
		uploads:  &fakeUploads{},
	}
	f.router = NewRouter(&Handlers{
		Auth:     NewAuthHandler(f.auth),
		Property: NewPropertyHandler(f.props),
		Contact:  NewContactHandler(f.contacts),
		Upload:   NewUploadHandler(f.uploads, maxUpload),
	}, RouterConfig{JWTSecret: testSecret})
	return f
}

func token(t *testing.T, role, tenant string) string {
	t.Helper()
	tok, _, err := middleware.IssueToken(testSecret, "imobsites", "user-1", middleware.Claims{
		Email: "ana@imob.com.br", Role: role, TenantID: tenant,
	}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestAuth_Login(t *testing.T) {
	f := newFixture(0)
	w := f.do(t, http.MethodPost, "/api/v1/admin/auth/login", "",
		strings.NewReader(`{"email":"ana@imob.com.br","password":"x"}`), "application/json")
	assert.Equal(t, http.StatusOK, w.Code)

	f.auth.loginErr = service.ErrInvalidCredentials
	w = f.do(t, http.MethodPost, "/api/v1/admin/auth/login", "",
		strings.NewReader(`{"email":"ana@imob.com.br","password":"x"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/admin/auth/login", "",
		strings.NewReader(`{"email":"not-an-email"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_Activate(t *testing.T) {
	f := newFixture(0)
	body := `{"token":"abc","password":"longenough"}`

	w := f.do(t, http.MethodPost, "/api/v1/admin/auth/activate", "", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusOK, w.Code)

	f.auth.activateErr = service.ErrActivationExpired
	w = f.do(t, http.MethodPost, "/api/v1/admin/auth/activate", "", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusGone, w.Code)

	f.auth.activateErr = service.ErrInvalidActivation
	w = f.do(t, http.MethodPost, "/api/v1/admin/auth/activate", "", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGating(t *testing.T) {
	f := newFixture(0)
	path := "/api/v1/admin/properties"

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, path, "", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, path, token(t, middleware.RoleMaster, ""), nil, "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, path, token(t, middleware.RoleAdmin, ""), nil, "").Code,
		"admin tokens must carry a tenant")
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, path, token(t, middleware.RoleAdmin, "tenant-1"), nil, "").Code)
}

func TestProperties_ListScopedToTokenTenant(t *testing.T) {
	f := newFixture(0)
	w := f.do(t, http.MethodGet, "/api/v1/admin/properties?per_page=20&tenant_id=other", token(t, middleware.RoleAdmin, "tenant-7"), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tenant-7", f.props.tenant)

	res := decode(t, w)
	require.NotNil(t, res.Meta)
	assert.Equal(t, int64(45), res.Meta.Total)
	assert.Equal(t, 3, res.Meta.TotalPages)
}

func TestProperties_CreateValidation(t *testing.T) {
	f := newFixture(0)
	tok := token(t, middleware.RoleAdmin, "tenant-1")
	f.props.createErr = service.NewValidationError(map[string]string{"code": "is required"})

	w := f.do(t, http.MethodPost, "/api/v1/admin/properties", tok, strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/properties", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	f.props.createErr = service.ErrPropertyCodeTaken
	w = f.do(t, http.MethodPost, "/api/v1/admin/properties", tok, strings.NewReader(`{"code":"C-1"}`), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)

	f.props.createErr = nil
	w = f.do(t, http.MethodPost, "/api/v1/admin/properties", tok, strings.NewReader(`{"code":"C-1"}`), "application/json")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestNeighborhoods(t *testing.T) {
	f := newFixture(0)
	tok := token(t, middleware.RoleAdmin, "tenant-1")

	w := f.do(t, http.MethodGet, "/api/v1/admin/ajax/neighborhoods", tok, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/admin/ajax/neighborhoods?city=Curitiba", tok, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Curitiba", f.props.city)
	assert.Contains(t, w.Body.String(), "Batel")
}

func TestContacts_UpdateStatusNotFound(t *testing.T) {
	f := newFixture(0)
	w := f.do(t, http.MethodPatch, "/api/v1/admin/contacts/c1/status", token(t, middleware.RoleAdmin, "tenant-1"),
		strings.NewReader(`{"status":"closed"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	f := newFixture(1024)
	tok := token(t, middleware.RoleAdmin, "tenant-1")
	path := "/api/v1/admin/properties/p1/images"

	body, ct := multipartBody(t, "image", "fachada.png", []byte("\x89PNG\r\n\x1a\nrest"))
	w := f.do(t, http.MethodPost, path, tok, body, ct)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "fachada.png", f.uploads.filename)
	assert.Equal(t, "\x89PNG\r\n\x1a\nrest", string(f.uploads.body))

	body, ct = multipartBody(t, "", "", nil)
	w = f.do(t, http.MethodPost, path, tok, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.uploads.err = service.ErrUnsupportedImage
	body, ct = multipartBody(t, "image", "notes.txt", []byte("hello"))
	w = f.do(t, http.MethodPost, path, tok, body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestUpload_BodyTooLarge(t *testing.T) {
	f := newFixture(16)
	body, ct := multipartBody(t, "image", "huge.png", bytes.Repeat([]byte("x"), multipartOverhead+1024))
	w := f.do(t, http.MethodPost, "/api/v1/admin/properties/p1/images", token(t, middleware.RoleAdmin, "tenant-1"), body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
