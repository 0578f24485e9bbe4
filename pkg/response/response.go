package response

// Response is the JSON envelope every panel endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Warning string      `json:"warning,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo carries a machine code, a message for the operator and, for
// validation failures, one message per field
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Meta describes one page of a listing
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Error codes
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeUnprocessableEntity = "UNPROCESSABLE_ENTITY"
	ErrCodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrCodeUnsupportedMedia    = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeTooManyRequests     = "TOO_MANY_REQUESTS"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"

	// domain outcomes
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeDuplicateEntry   = "DUPLICATE_ENTRY"
	ErrCodeInvalidState     = "INVALID_STATE"
	ErrCodeGatewayError     = "GATEWAY_ERROR"
	ErrCodePlanUnavailable  = "PLAN_UNAVAILABLE"
	ErrCodeActivationGone   = "ACTIVATION_EXPIRED"
)

// Success wraps data in a successful envelope
func Success(data interface{}) *Response {
	return &Response{Success: true, Data: data}
}

// SuccessWithWarning is a success whose action had no effect, e.g.
// canceling an order that is already canceled
func SuccessWithWarning(data interface{}, warning string) *Response {
	return &Response{Success: true, Data: data, Warning: warning}
}

// Error builds a failed envelope
func Error(code, message string) *Response {
	return &Response{Error: &ErrorInfo{Code: code, Message: message}}
}

// ErrorWithDetails builds a failed envelope with per-field messages
func ErrorWithDetails(code, message string, details map[string]string) *Response {
	return &Response{Error: &ErrorInfo{Code: code, Message: message, Details: details}}
}

// Invalid is a validation failure under code, which is
// ErrCodeValidationFailed for form posts and ErrCodeUnprocessableEntity for
// AJAX callers
func Invalid(code string, fields map[string]string) *Response {
	return ErrorWithDetails(code, "Validation failed", fields)
}

// Paginated wraps one page of a listing. perPage <= 0 yields zero pages.
func Paginated(data interface{}, page, perPage int, total int64) *Response {
	pages := 0
	if perPage > 0 && total > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Page: page, PerPage: perPage, Total: total, TotalPages: pages},
	}
}

func withDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// BadRequest is a malformed request
func BadRequest(message string) *Response {
	return Error(ErrCodeBadRequest, withDefault(message, "Bad request"))
}

// Unauthorized is a missing or rejected credential
func Unauthorized(message string) *Response {
	return Error(ErrCodeUnauthorized, withDefault(message, "Authentication required"))
}

// Forbidden is an authenticated caller without access
func Forbidden(message string) *Response {
	return Error(ErrCodeForbidden, withDefault(message, "Access denied"))
}

// InternalError hides the cause from the caller; log it before answering
func InternalError(message string) *Response {
	return Error(ErrCodeInternalError, withDefault(message, "An internal error occurred"))
}

// ServiceUnavailable is a failed dependency such as the database
func ServiceUnavailable(message string) *Response {
	return Error(ErrCodeServiceUnavailable, withDefault(message, "Service temporarily unavailable"))
}
