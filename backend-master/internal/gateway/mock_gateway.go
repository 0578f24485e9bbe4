package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrMockGatewayFailure is returned when a mock call is configured to fail
var ErrMockGatewayFailure = errors.New("mock gateway failure")

// MockGateway is an in-memory PaymentGateway for tests
type MockGateway struct {
	mu sync.Mutex

	Customers     map[string]*Customer // by e-mail
	Payments      map[string]*Payment
	Subscriptions map[string]*Subscription

	// PixQrCodes answers GetPixQrCode by payment id; a missing entry fails
	PixQrCodes map[string]*PixQrCode
	// PixAfterPolls makes GetPayment carry pixTransaction from the n-th call
	PixAfterPolls int
	PixPayload    string

	IdentificationFields map[string]*IdentificationField

	FindShouldFail   bool
	CreateShouldFail bool
	UpdateShouldFail bool
	ChargeShouldFail bool
	FailureError     error

	CustomerUpdates  []CustomerUpdate
	PaymentRequests  []*PaymentRequest
	SubscriptionReqs []*SubscriptionRequest
	CreatedCustomers []*CustomerRequest
	GetPaymentCalls  int
	nextID           int
}

// NewMockGateway creates an empty MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Customers:            make(map[string]*Customer),
		Payments:             make(map[string]*Payment),
		Subscriptions:        make(map[string]*Subscription),
		PixQrCodes:           make(map[string]*PixQrCode),
		IdentificationFields: make(map[string]*IdentificationField),
	}
}

func (m *MockGateway) failure() error {
	if m.FailureError != nil {
		return m.FailureError
	}
	return ErrMockGatewayFailure
}

func (m *MockGateway) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s_%d", prefix, m.nextID)
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindShouldFail {
		return nil, m.failure()
	}
	c, ok := m.Customers[email]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MockGateway) CreateCustomer(ctx context.Context, req *CustomerRequest) (*Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateShouldFail {
		return nil, m.failure()
	}
	m.CreatedCustomers = append(m.CreatedCustomers, req)
	c := &Customer{
		ID:                   m.id("cus"),
		Name:                 req.Name,
		Email:                req.Email,
		CpfCnpj:              req.CpfCnpj,
		MobilePhone:          req.MobilePhone,
		ExternalReference:    req.ExternalReference,
		NotificationDisabled: req.NotificationDisabled,
	}
	m.Customers[req.Email] = c
	return c, nil
}

func (m *MockGateway) UpdateCustomer(ctx context.Context, id string, req *CustomerUpdate) (*Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CustomerUpdates = append(m.CustomerUpdates, *req)
	if m.UpdateShouldFail {
		return nil, m.failure()
	}
	for _, c := range m.Customers {
		if c.ID != id {
			continue
		}
		if req.CpfCnpj != "" {
			c.CpfCnpj = req.CpfCnpj
		}
		if req.NotificationDisabled != nil {
			c.NotificationDisabled = *req.NotificationDisabled
		}
		cp := *c
		return &cp, nil
	}
	return nil, &APIError{StatusCode: 404}
}

func (m *MockGateway) CreatePayment(ctx context.Context, req *PaymentRequest) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PaymentRequests = append(m.PaymentRequests, req)
	if m.ChargeShouldFail {
		return nil, m.failure()
	}
	p := &Payment{
		ID:                m.id("pay"),
		Customer:          req.Customer,
		BillingType:       req.BillingType,
		Status:            "PENDING",
		DueDate:           req.DueDate,
		ExternalReference: req.ExternalReference,
	}
	p.InvoiceURL = "https://sandbox.asaas.com/i/" + p.ID
	if req.BillingType == BillingTypeBoleto {
		p.BankSlipURL = "https://sandbox.asaas.com/b/pdf/" + p.ID
	}
	if req.CreditCard != nil {
		p.Status = "CONFIRMED"
		n := req.CreditCard.Number
		if len(n) > 4 {
			n = n[len(n)-4:]
		}
		p.CreditCard = &CreditCardInfo{CreditCardNumber: n, CreditCardBrand: "VISA"}
	}
	p.Raw, _ = json.Marshal(p)
	m.Payments[p.ID] = p
	return p, nil
}

func (m *MockGateway) GetPayment(ctx context.Context, id string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetPaymentCalls++
	p, ok := m.Payments[id]
	if !ok {
		return nil, &APIError{StatusCode: 404}
	}
	cp := *p
	if m.PixAfterPolls > 0 && m.GetPaymentCalls >= m.PixAfterPolls {
		cp.PixTransaction, _ = json.Marshal(map[string]string{"payload": m.PixPayload})
	}
	return &cp, nil
}

func (m *MockGateway) GetPixQrCode(ctx context.Context, paymentID string) (*PixQrCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qr, ok := m.PixQrCodes[paymentID]
	if !ok {
		return nil, &APIError{StatusCode: 404}
	}
	return qr, nil
}

func (m *MockGateway) GetIdentificationField(ctx context.Context, paymentID string) (*IdentificationField, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.IdentificationFields[paymentID]
	if !ok {
		return nil, &APIError{StatusCode: 404}
	}
	return f, nil
}

func (m *MockGateway) CreateSubscription(ctx context.Context, req *SubscriptionRequest) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubscriptionReqs = append(m.SubscriptionReqs, req)
	if m.ChargeShouldFail {
		return nil, m.failure()
	}
	s := &Subscription{
		ID:                m.id("sub"),
		Customer:          req.Customer,
		BillingType:       req.BillingType,
		Status:            "ACTIVE",
		NextDueDate:       req.NextDueDate,
		Cycle:             req.Cycle,
		ExternalReference: req.ExternalReference,
	}
	s.Raw, _ = json.Marshal(s)
	m.Subscriptions[s.ID] = s
	return s, nil
}

func (m *MockGateway) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Subscriptions[id]
	if !ok {
		return nil, &APIError{StatusCode: 404}
	}
	return s, nil
}

func (m *MockGateway) CancelSubscription(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Subscriptions[id]
	if !ok {
		return &APIError{StatusCode: 404}
	}
	s.Deleted = true
	return nil
}
