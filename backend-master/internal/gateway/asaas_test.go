package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *AsaasClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAsaasClient(&AsaasConfig{APIKey: "test-key", BaseURL: srv.URL})
}

func TestAsaasClient_FindCustomerByEmail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/customers", r.URL.Path)
		assert.Equal(t, "ana@example.com", r.URL.Query().Get("email"))
		assert.Equal(t, "test-key", r.Header.Get("access_token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"totalCount":2,"data":[
			{"id":"cus_old","email":"ana@example.com","deleted":true},
			{"id":"cus_1","email":"ana@example.com","cpfCnpj":"","notificationDisabled":false}
		]}`)
	})

	customer, err := client.FindCustomerByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "cus_1", customer.ID)
	assert.False(t, customer.NotificationDisabled)
}

func TestAsaasClient_FindCustomerByEmail_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"totalCount":0,"data":[]}`)
	})

	customer, err := client.FindCustomerByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, customer)
}

func TestAsaasClient_CreatePayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "PIX", body["billingType"])
		assert.Equal(t, 1200.5, body["value"])
		assert.NotContains(t, body, "creditCard")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pay_1","status":"PENDING","billingType":"PIX","invoiceUrl":"https://pay.example/i/1"}`)
	})

	payment, err := client.CreatePayment(context.Background(), &PaymentRequest{
		Customer:    "cus_1",
		BillingType: BillingTypePix,
		Value:       json.Number("1200.50"),
		DueDate:     "2025-01-04",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_1", payment.ID)
	assert.Equal(t, "https://pay.example/i/1", payment.InvoiceURL)
	assert.Contains(t, string(payment.Raw), `"pay_1"`)
}

func TestAsaasClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"errors":[{"code":"invalid_cpfCnpj","description":"CPF inválido"}]}`)
	})

	_, err := client.CreateCustomer(context.Background(), &CustomerRequest{Name: "Ana", Email: "ana@example.com"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "invalid_cpfCnpj", apiErr.Errors[0].Code)
	assert.Contains(t, apiErr.Error(), "CPF inválido")
}

func TestAsaasClient_UpdateCustomer_SendsOnlyChangedFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/customers/cus_1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"notificationDisabled": true}, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cus_1","notificationDisabled":true}`)
	})

	disabled := true
	customer, err := client.UpdateCustomer(context.Background(), "cus_1", &CustomerUpdate{NotificationDisabled: &disabled})
	require.NoError(t, err)
	assert.True(t, customer.NotificationDisabled)
}

func TestAsaasClient_PollingEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/payments/pay_1/pixQrCode":
			_, _ = io.WriteString(w, `{"encodedImage":"iVBORw0KGgo=","payload":"00020126pix"}`)
		case "/payments/pay_2/identificationField":
			_, _ = io.WriteString(w, `{"identificationField":"23790.00000 1","barCode":"2379000000","nossoNumero":"1"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	qr, err := client.GetPixQrCode(context.Background(), "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "00020126pix", qr.Payload)

	field, err := client.GetIdentificationField(context.Background(), "pay_2")
	require.NoError(t, err)
	assert.Equal(t, "23790.00000 1", field.IdentificationField)
	assert.Equal(t, "2379000000", field.BarCode)
}

func TestAsaasClient_CancelSubscription(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/subscriptions/sub_1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"deleted":true,"id":"sub_1"}`)
	})

	require.NoError(t, client.CancelSubscription(context.Background(), "sub_1"))
	assert.True(t, called)
}

func TestPayment_PixFromTransaction(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantHit bool
	}{
		{name: "absent", raw: ``, wantHit: false},
		{name: "null", raw: `null`, wantHit: false},
		{name: "flat object", raw: `{"payload":"000201flat","encodedImage":"abc"}`, want: "000201flat", wantHit: true},
		{name: "nested qrCode", raw: `{"qrCode":{"payload":"000201nested"}}`, want: "000201nested", wantHit: true},
		{name: "bare string", raw: `"000201bare"`, want: "000201bare", wantHit: true},
		{name: "object without payload", raw: `{"id":"tx"}`, wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payment{PixTransaction: json.RawMessage(tt.raw)}
			qr, ok := p.PixFromTransaction()
			assert.Equal(t, tt.wantHit, ok)
			if tt.wantHit {
				assert.Equal(t, tt.want, qr.Payload)
			}
		})
	}
}
