package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentGateway defines the billing provider operations the panel uses
type PaymentGateway interface {
	// FindCustomerByEmail returns the first customer registered with email,
	// or nil when there is none
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)

	// CreateCustomer registers a new customer
	CreateCustomer(ctx context.Context, req *CustomerRequest) (*Customer, error)

	// UpdateCustomer patches an existing customer
	UpdateCustomer(ctx context.Context, id string, req *CustomerUpdate) (*Customer, error)

	// CreatePayment creates a one-off charge
	CreatePayment(ctx context.Context, req *PaymentRequest) (*Payment, error)

	// GetPayment retrieves a charge
	GetPayment(ctx context.Context, id string) (*Payment, error)

	// GetPixQrCode retrieves the PIX copy-and-paste payload and QR image
	GetPixQrCode(ctx context.Context, paymentID string) (*PixQrCode, error)

	// GetIdentificationField retrieves the boleto digitable line
	GetIdentificationField(ctx context.Context, paymentID string) (*IdentificationField, error)

	// CreateSubscription creates a recurring card charge
	CreateSubscription(ctx context.Context, req *SubscriptionRequest) (*Subscription, error)

	// GetSubscription retrieves a subscription
	GetSubscription(ctx context.Context, id string) (*Subscription, error)

	// CancelSubscription deletes a subscription
	CancelSubscription(ctx context.Context, id string) error

	// Name returns the gateway name
	Name() string
}

// Billing types
const (
	BillingTypeCreditCard = "CREDIT_CARD"
	BillingTypePix        = "PIX"
	BillingTypeBoleto     = "BOLETO"
)

// CycleMonthly is the subscription cycle used for recurring plans
const CycleMonthly = "MONTHLY"

// DateLayout is the provider's date format
const DateLayout = "2006-01-02"

// Customer is a provider customer record
type Customer struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	CpfCnpj              string `json:"cpfCnpj,omitempty"`
	MobilePhone          string `json:"mobilePhone,omitempty"`
	ExternalReference    string `json:"externalReference,omitempty"`
	NotificationDisabled bool   `json:"notificationDisabled"`
	Deleted              bool   `json:"deleted,omitempty"`
}

// CustomerRequest creates a customer
type CustomerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	MobilePhone          string `json:"mobilePhone,omitempty"`
	CpfCnpj              string `json:"cpfCnpj,omitempty"`
	ExternalReference    string `json:"externalReference,omitempty"`
	NotificationDisabled bool   `json:"notificationDisabled"`
}

// CustomerUpdate carries only the fields being changed
type CustomerUpdate struct {
	CpfCnpj              string `json:"cpfCnpj,omitempty"`
	NotificationDisabled *bool  `json:"notificationDisabled,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u *CustomerUpdate) IsEmpty() bool {
	return u.CpfCnpj == "" && u.NotificationDisabled == nil
}

// CreditCard is raw card data sent once to the provider
type CreditCard struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CCV         string `json:"ccv"`
}

// CreditCardHolderInfo identifies the card holder for anti-fraud
type CreditCardHolderInfo struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	CpfCnpj           string `json:"cpfCnpj"`
	PostalCode        string `json:"postalCode"`
	AddressNumber     string `json:"addressNumber"`
	Phone             string `json:"phone,omitempty"`
	MobilePhone       string `json:"mobilePhone,omitempty"`
	AddressComplement string `json:"addressComplement,omitempty"`
}

// PaymentRequest creates a one-off charge
type PaymentRequest struct {
	Customer             string                `json:"customer"`
	BillingType          string                `json:"billingType"`
	Value                json.Number           `json:"value"`
	DueDate              string                `json:"dueDate"`
	Description          string                `json:"description,omitempty"`
	ExternalReference    string                `json:"externalReference,omitempty"`
	CpfCnpj              string                `json:"cpfCnpj,omitempty"`
	InstallmentCount     int                   `json:"installmentCount,omitempty"`
	InstallmentValue     json.Number           `json:"installmentValue,omitempty"`
	CreditCard           *CreditCard           `json:"creditCard,omitempty"`
	CreditCardHolderInfo *CreditCardHolderInfo `json:"creditCardHolderInfo,omitempty"`
	RemoteIP             string                `json:"remoteIp,omitempty"`
}

// CreditCardInfo is the tokenized card echo returned by the provider
type CreditCardInfo struct {
	CreditCardNumber string `json:"creditCardNumber"`
	CreditCardBrand  string `json:"creditCardBrand"`
	CreditCardToken  string `json:"creditCardToken,omitempty"`
}

// Payment is a provider charge
type Payment struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	Subscription      string          `json:"subscription,omitempty"`
	BillingType       string          `json:"billingType"`
	Status            string          `json:"status"`
	Value             float64         `json:"value"`
	DueDate           string          `json:"dueDate"`
	InvoiceURL        string          `json:"invoiceUrl"`
	BankSlipURL       string          `json:"bankSlipUrl,omitempty"`
	NossoNumero       string          `json:"nossoNumero,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
	CreditCard        *CreditCardInfo `json:"creditCard,omitempty"`
	PixTransaction    json.RawMessage `json:"pixTransaction,omitempty"`

	// Raw is the undecoded response body
	Raw json.RawMessage `json:"-"`
}

// PixFromTransaction extracts a PIX payload embedded in the payment, which
// the provider sends either as an object or as a bare payload string
func (p *Payment) PixFromTransaction() (*PixQrCode, bool) {
	raw := strings.TrimSpace(string(p.PixTransaction))
	if raw == "" || raw == "null" {
		return nil, false
	}

	var qr PixQrCode
	if err := json.Unmarshal(p.PixTransaction, &qr); err == nil {
		if qr.Payload != "" || qr.EncodedImage != "" {
			return &qr, true
		}
		if qr.QrCode != nil && (qr.QrCode.Payload != "" || qr.QrCode.EncodedImage != "") {
			return &PixQrCode{Payload: qr.QrCode.Payload, EncodedImage: qr.QrCode.EncodedImage}, true
		}
		return nil, false
	}

	var payload string
	if err := json.Unmarshal(p.PixTransaction, &payload); err == nil && payload != "" {
		return &PixQrCode{Payload: payload}, true
	}
	return nil, false
}

// PixQrCode is the PIX copy-and-paste payload with its QR image
type PixQrCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate,omitempty"`

	// QrCode is set when the data comes nested in pixTransaction
	QrCode *PixQrCode `json:"qrCode,omitempty"`
}

// IdentificationField is the boleto digitable line and barcode
type IdentificationField struct {
	IdentificationField string `json:"identificationField"`
	NossoNumero         string `json:"nossoNumero"`
	BarCode             string `json:"barCode"`
}

// SubscriptionRequest creates a recurring charge
type SubscriptionRequest struct {
	Customer             string                `json:"customer"`
	BillingType          string                `json:"billingType"`
	Value                json.Number           `json:"value"`
	NextDueDate          string                `json:"nextDueDate"`
	Cycle                string                `json:"cycle"`
	Description          string                `json:"description,omitempty"`
	ExternalReference    string                `json:"externalReference,omitempty"`
	CreditCard           *CreditCard           `json:"creditCard,omitempty"`
	CreditCardHolderInfo *CreditCardHolderInfo `json:"creditCardHolderInfo,omitempty"`
	RemoteIP             string                `json:"remoteIp,omitempty"`
}

// Subscription is a provider subscription
type Subscription struct {
	ID                string          `json:"id"`
	Customer          string          `json:"customer"`
	BillingType       string          `json:"billingType"`
	Status            string          `json:"status"`
	Value             float64         `json:"value"`
	NextDueDate       string          `json:"nextDueDate"`
	Cycle             string          `json:"cycle"`
	ExternalReference string          `json:"externalReference,omitempty"`
	CreditCard        *CreditCardInfo `json:"creditCard,omitempty"`
	Deleted           bool            `json:"deleted,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// APIErrorItem is one entry of the provider error list
type APIErrorItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// APIError is a non-2xx provider response
type APIError struct {
	StatusCode int            `json:"-"`
	Errors     []APIErrorItem `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("gateway returned status %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Code != "" {
			parts = append(parts, item.Code+": "+item.Description)
		} else {
			parts = append(parts, item.Description)
		}
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, strings.Join(parts, "; "))
}
