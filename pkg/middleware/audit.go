package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/pkg/logger"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCreate   AuditAction = "create"
	AuditActionUpdate   AuditAction = "update"
	AuditActionDelete   AuditAction = "delete"
	AuditActionLogin    AuditAction = "login"
	AuditActionCancel   AuditAction = "cancel"
	AuditActionSuspend  AuditAction = "suspend"
	AuditActionActivate AuditAction = "activate"
	AuditActionRemind   AuditAction = "remind"
	AuditActionExport   AuditAction = "export"
	AuditActionView     AuditAction = "view"
)

const (
	ContextKeyAuditResourceID = "audit_resource_id"
	ContextKeyAuditMetadata   = "audit_metadata"
	contextKeyAuditSkip       = "audit_skip"
)

// AuditEntry is one row of audit_logs
type AuditEntry struct {
	ID           string
	TenantID     *string
	ActorID      string
	ActorEmail   string
	ActorRole    string
	Action       AuditAction
	ResourceType string
	ResourceID   *string
	IPAddress    string
	UserAgent    string
	RequestID    string
	StatusCode   int
	Metadata     map[string]interface{}
	CreatedAt    time.Time
}

// AuditStore persists audit entries in batches
type AuditStore interface {
	InsertAuditEntries(ctx context.Context, entries []*AuditEntry) error
}

// PostgresAuditStore writes to audit_logs with a pgx batch
type PostgresAuditStore struct {
	pool *pgxpool.Pool
}

func NewPostgresAuditStore(pool *pgxpool.Pool) *PostgresAuditStore {
	return &PostgresAuditStore{pool: pool}
}

func (s *PostgresAuditStore) InsertAuditEntries(ctx context.Context, entries []*AuditEntry) error {
	const query = `
		INSERT INTO audit_logs (
			id, tenant_id, actor_id, actor_email, actor_role,
			action, resource_type, resource_id,
			ip_address, user_agent, request_id, status_code, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		metadata, _ := json.Marshal(e.Metadata)
		if string(metadata) == "null" {
			metadata = []byte("{}")
		}
		batch.Queue(query,
			e.ID, e.TenantID, e.ActorID, e.ActorEmail, e.ActorRole,
			string(e.Action), e.ResourceType, e.ResourceID,
			e.IPAddress, e.UserAgent, e.RequestID, e.StatusCode, metadata, e.CreatedAt,
		)
	}

	return s.pool.SendBatch(ctx, batch).Close()
}

// AuditConfig holds configuration for the audit middleware
type AuditConfig struct {
	Store         AuditStore
	BufferSize    int
	FlushInterval time.Duration
	BatchSize     int
	SkipPaths     []string
	// SkipMethods defaults to read-only methods
	SkipMethods []string
}

// DefaultAuditConfig returns default configuration
func DefaultAuditConfig(store AuditStore) *AuditConfig {
	return &AuditConfig{
		Store:         store,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		BatchSize:     100,
		SkipPaths:     []string{"/health", "/ready", "/metrics"},
		SkipMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}
}

// AuditLogger buffers entries and flushes them from a background goroutine
type AuditLogger struct {
	config    *AuditConfig
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAuditLogger creates a new audit logger and starts its worker
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	al := &AuditLogger{
		config: config,
		buffer: make(chan *AuditEntry, config.BufferSize),
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log enqueues entry; it is dropped when the buffer is full
func (al *AuditLogger) Log(entry *AuditEntry) {
	select {
	case al.buffer <- entry:
	default:
		logger.Warn("audit buffer full, entry dropped",
			zap.String("action", string(entry.Action)),
			zap.String("resource_type", entry.ResourceType),
		)
	}
}

// Close flushes pending entries and stops the worker
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		close(al.buffer)
		al.wg.Wait()
	})
	return nil
}

func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)

	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				al.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		}
	}
}

func (al *AuditLogger) flush(entries []*AuditEntry) {
	if len(entries) == 0 || al.config.Store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := al.config.Store.InsertAuditEntries(ctx, entries); err != nil {
		logger.Error("failed to write audit entries", zap.Int("count", len(entries)), zap.Error(err))
	}
}

// AuditMiddleware records one entry per mutating request after the handler ran
func AuditMiddleware(al *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		config := al.config

		for _, path := range config.SkipPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}
		for _, method := range config.SkipMethods {
			if c.Request.Method == method {
				c.Next()
				return
			}
		}

		startTime := time.Now()
		c.Next()

		if skip, _ := c.Get(contextKeyAuditSkip); skip == true {
			return
		}

		resourceType, resourceID := resourceFromPath(c.Request.URL.Path)
		entry := &AuditEntry{
			ID:           uuid.New().String(),
			Action:       actionFor(c.Request.Method, c.Request.URL.Path),
			ResourceType: resourceType,
			IPAddress:    clientIP(c),
			UserAgent:    c.GetHeader("User-Agent"),
			RequestID:    c.GetString(ContextKeyRequestID),
			StatusCode:   c.Writer.Status(),
			CreatedAt:    startTime,
		}

		entry.ActorID, _ = GetUserID(c)
		entry.ActorEmail, _ = GetEmail(c)
		entry.ActorRole, _ = GetRole(c)
		if tenantID, ok := GetTenantID(c); ok && tenantID != "" {
			entry.TenantID = &tenantID
		}

		if rid := c.GetString(ContextKeyAuditResourceID); rid != "" {
			resourceID = rid
		}
		if resourceID != "" {
			entry.ResourceID = &resourceID
		}
		if meta, ok := c.Get(ContextKeyAuditMetadata); ok {
			entry.Metadata, _ = meta.(map[string]interface{})
		}

		al.Log(entry)
	}
}

// actionFor maps method and path to an audit action
func actionFor(method, path string) AuditAction {
	last := path[strings.LastIndex(path, "/")+1:]
	switch last {
	case "login", "activate-account":
		return AuditActionLogin
	case "cancel":
		return AuditActionCancel
	case "suspend":
		return AuditActionSuspend
	case "activate":
		return AuditActionActivate
	case "remind", "run":
		return AuditActionRemind
	case "export":
		return AuditActionExport
	}

	switch method {
	case http.MethodPost:
		return AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return AuditActionUpdate
	case http.MethodDelete:
		return AuditActionDelete
	default:
		return AuditActionView
	}
}

// resourceFromPath turns /api/v1/master/orders/42/cancel into ("order", "42")
func resourceFromPath(path string) (resourceType, resourceID string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	i := 0
	for i < len(parts) {
		switch p := parts[i]; {
		case p == "api", p == "master", p == "admin", len(p) > 1 && p[0] == 'v' && isNumeric(p[1:]):
			i++
			continue
		}
		break
	}
	if i >= len(parts) {
		return "unknown", ""
	}

	resourceType = singular(parts[i])
	if i+1 < len(parts) && looksLikeID(parts[i+1]) {
		resourceID = parts[i+1]
	}
	return resourceType, resourceID
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "s"):
		return strings.TrimSuffix(s, "s")
	}
	return s
}

func looksLikeID(s string) bool {
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	return isNumeric(s)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// SetAuditResourceID overrides the resource id derived from the path
func SetAuditResourceID(c *gin.Context, resourceID string) {
	c.Set(ContextKeyAuditResourceID, resourceID)
}

// SetAuditMetadata attaches extra fields to the audit entry
func SetAuditMetadata(c *gin.Context, metadata map[string]interface{}) {
	c.Set(ContextKeyAuditMetadata, metadata)
}

// SkipAudit marks the current request to skip audit logging
func SkipAudit(c *gin.Context) {
	c.Set(contextKeyAuditSkip, true)
}
