package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrTenantAlreadyExists  = errors.New("tenant with this slug already exists")
	ErrDomainTaken          = errors.New("domain is already in use")
	ErrDomainNotFound       = errors.New("domain not found")
	ErrPrimaryDomain        = errors.New("the primary domain cannot be removed")
	ErrEmailTaken           = errors.New("a user with this e-mail already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyActive    = errors.New("user is already active")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrPlanCodeTaken        = errors.New("plan code already exists")
	ErrPlanUnavailable      = errors.New("plan is not available")
	ErrPlanInUse            = errors.New("plan is referenced by orders")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderAlreadyPaid     = errors.New("paid orders cannot be canceled")
	ErrOrderNotPaid         = errors.New("only paid orders can be attached to a tenant")
	ErrOrderHasTenant       = errors.New("order already has a tenant")
	ErrOrderNotPending      = errors.New("order is not pending")
	ErrTemplateNotFound     = errors.New("email template not found")
	ErrTemplateSlugTaken    = errors.New("email template slug already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidWebhookToken  = errors.New("invalid webhook token")
	ErrWebhookOrderNotFound = errors.New("no order matches the webhook payment")
	ErrPaymentFailed        = errors.New("payment gateway request failed")
	ErrMailDelivery         = errors.New("e-mail delivery failed")
)

// Warnings returned with no-op state changes
const (
	WarnOrderAlreadyCanceled = "order is already canceled"
	WarnOrderAlreadyExpired  = "order is already expired"
	WarnTenantAlreadyActive  = "tenant is already active"
	WarnTenantAlreadySusp    = "tenant is already suspended"
)

// ValidationError carries field-level validation failures
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns nil when fields is empty
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps a *ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
