package dto

import (
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/imobsites/imobsites-panel/backend-master/internal/billing"
	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

// CardRequest is the card block of a checkout
type CardRequest struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CCV         string `json:"ccv"`
}

// CheckoutRequest is the public checkout payload
type CheckoutRequest struct {
	PlanCode         string       `json:"plan_code" binding:"required,max=50"`
	PaymentMethod    string       `json:"payment_method" binding:"required,oneof=credit_card pix boleto"`
	CustomerName     string       `json:"customer_name" binding:"required,min=2,max=255"`
	CustomerEmail    string       `json:"customer_email" binding:"required,email"`
	CustomerPhone    string       `json:"customer_phone" binding:"omitempty,max=30"`
	CustomerDocument string       `json:"customer_document" binding:"omitempty,max=20"`
	Recurring        bool         `json:"recurring"`
	Installments     int          `json:"installments" binding:"omitempty,min=1,max=12"`
	Card             *CardRequest `json:"card"`
	PostalCode       string       `json:"postal_code" binding:"omitempty,max=10"`
	AddressNumber    string       `json:"address_number" binding:"omitempty,max=20"`
}

// Normalize trims input and keeps only digits in the document
func (r *CheckoutRequest) Normalize() {
	r.PlanCode = strings.TrimSpace(r.PlanCode)
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.ToLower(strings.TrimSpace(r.CustomerEmail))
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	r.CustomerDocument = billing.DigitsOnly(r.CustomerDocument)
	if r.Installments == 0 {
		r.Installments = 1
	}
}

// Validate returns field errors for rules across fields
func (r *CheckoutRequest) Validate() map[string]string {
	errs := map[string]string{}
	if _, err := mail.ParseAddress(r.CustomerEmail); err != nil {
		errs["customer_email"] = "Invalid e-mail address"
	}
	if d := r.CustomerDocument; d != "" && len(d) != 11 && len(d) != 14 {
		errs["customer_document"] = "CPF must have 11 digits or CNPJ 14"
	}
	method := domain.PaymentMethod(r.PaymentMethod)
	if method == domain.PaymentMethodCreditCard {
		if r.Card == nil || r.Card.Number == "" || r.Card.CCV == "" || r.Card.ExpiryMonth == "" || r.Card.ExpiryYear == "" {
			errs["card"] = "Card number, expiry and security code are required"
		}
	} else {
		if r.Recurring {
			errs["recurring"] = "Recurring billing is only available for credit card"
		}
		if method == domain.PaymentMethodBoleto || method == domain.PaymentMethodPix {
			if r.CustomerDocument == "" {
				errs["customer_document"] = "CPF or CNPJ is required for PIX and boleto"
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CardInput converts the card block for the payment creator
func (r *CheckoutRequest) CardInput() *billing.CardInput {
	if r.Card == nil {
		return nil
	}
	holder := r.Card.HolderName
	if holder == "" {
		holder = r.CustomerName
	}
	return &billing.CardInput{
		HolderName:  holder,
		Number:      billing.DigitsOnly(r.Card.Number),
		ExpiryMonth: r.Card.ExpiryMonth,
		ExpiryYear:  r.Card.ExpiryYear,
		CCV:         r.Card.CCV,
	}
}

// CheckoutResponse carries what the buyer needs to pay
type CheckoutResponse struct {
	OrderID        string               `json:"order_id"`
	Status         domain.OrderStatus   `json:"status"`
	PlanCode       string               `json:"plan_code"`
	Amount         decimal.Decimal      `json:"amount"`
	PaymentMethod  domain.PaymentMethod `json:"payment_method"`
	PaymentURL     string               `json:"payment_url,omitempty"`
	PixPayload     string               `json:"pix_payload,omitempty"`
	PixQRImage     string               `json:"pix_qr_image,omitempty"`
	BoletoURL      string               `json:"boleto_url,omitempty"`
	BoletoBarcode  string               `json:"boleto_barcode,omitempty"`
	BoletoLine     string               `json:"boleto_line,omitempty"`
	CardLastDigits string               `json:"card_last_digits,omitempty"`
}

// NewCheckoutResponse builds the response from the stored order
func NewCheckoutResponse(o *domain.Order) *CheckoutResponse {
	return &CheckoutResponse{
		OrderID:        o.ID,
		Status:         o.Status,
		PlanCode:       o.PlanCode,
		Amount:         o.Amount,
		PaymentMethod:  o.PaymentMethod,
		PaymentURL:     o.PaymentURL,
		PixPayload:     o.PixPayload,
		PixQRImage:     o.PixQRImage,
		BoletoURL:      o.BoletoURL,
		BoletoBarcode:  o.BoletoBarcode,
		BoletoLine:     o.BoletoLine,
		CardLastDigits: o.CardLastDigits,
	}
}

// ListOrdersQuery represents query parameters for listing orders
type ListOrdersQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=pending paid canceled expired"`
	Search string `form:"search" binding:"omitempty,max=255"`
}

// SetDefaults sets default values for query parameters
func (q *ListOrdersQuery) SetDefaults() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
}

// AttachTenantRequest onboards a tenant from a paid order
type AttachTenantRequest struct {
	Name   string `json:"name" binding:"omitempty,max=255"`
	Slug   string `json:"slug" binding:"required,min=2,max=100"`
	Domain string `json:"domain" binding:"required,max=255"`
}

// RunRemindersQuery sets the batch size of a manual reminder run
type RunRemindersQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ReminderRunResponse reports a reminder batch
type ReminderRunResponse struct {
	Selected int `json:"selected"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}
