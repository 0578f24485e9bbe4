package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

const orderColumns = `
	id, plan_code, tenant_id::text, customer_name, customer_email,
	COALESCE(customer_phone, ''), COALESCE(customer_document, ''), amount, payment_method, is_recurring, status,
	COALESCE(gateway_customer_id, ''), COALESCE(gateway_payment_id, ''), COALESCE(gateway_subscription_id, ''),
	COALESCE(payment_url, ''), COALESCE(pix_payload, ''), COALESCE(pix_qr_image, ''),
	COALESCE(boleto_url, ''), COALESCE(boleto_barcode, ''), COALESCE(boleto_line, ''), COALESCE(card_last_digits, ''),
	gateway_response, reminder_count, first_reminder_sent_at, last_reminder_sent_at,
	paid_at, canceled_at, created_at, updated_at`

// reminderEligibleQuery is the whole eligibility rule; nothing is filtered in Go
const reminderEligibleQuery = `SELECT ` + orderColumns + `
	FROM orders
	WHERE status = 'pending'
	  AND COALESCE(customer_email, '') ~ '\S'
	  AND created_at <= $1
	  AND reminder_count < $2
	  AND (last_reminder_sent_at IS NULL OR last_reminder_sent_at <= $3)
	ORDER BY created_at ASC
	LIMIT $4`

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db DBTX
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db DBTX) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	var raw []byte
	err := row.Scan(
		&o.ID, &o.PlanCode, &o.TenantID, &o.CustomerName, &o.CustomerEmail,
		&o.CustomerPhone, &o.CustomerDocument, &o.Amount, &o.PaymentMethod, &o.IsRecurring, &o.Status,
		&o.GatewayCustomerID, &o.GatewayPaymentID, &o.GatewaySubscriptionID,
		&o.PaymentURL, &o.PixPayload, &o.PixQRImage,
		&o.BoletoURL, &o.BoletoBarcode, &o.BoletoLine, &o.CardLastDigits,
		&raw, &o.ReminderCount, &o.FirstReminderSentAt, &o.LastReminderSentAt,
		&o.PaidAt, &o.CanceledAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		o.GatewayResponse = raw
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]*domain.Order, error) {
	defer rows.Close()
	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PostgresOrderRepository) getOne(ctx context.Context, where string, arg any) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg))
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// gatewayResponse keeps NULL in the column when nothing was stored
func gatewayResponse(o *domain.Order) any {
	if len(o.GatewayResponse) == 0 {
		return nil
	}
	return []byte(o.GatewayResponse)
}

// Create inserts a new order
func (r *PostgresOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (id, plan_code, tenant_id, customer_name, customer_email, customer_phone, customer_document,
		                    amount, payment_method, is_recurring, status, reminder_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.PlanCode, o.TenantID, o.CustomerName, o.CustomerEmail,
		nullStringOrValue(o.CustomerPhone), nullStringOrValue(o.CustomerDocument),
		o.Amount, o.PaymentMethod, o.IsRecurring, o.Status, o.ReminderCount, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by ID
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByGatewayPaymentID retrieves an order by the gateway payment id
func (r *PostgresOrderRepository) GetByGatewayPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	return r.getOne(ctx, "gateway_payment_id = $1", paymentID)
}

// List retrieves orders newest first
func (r *PostgresOrderRepository) List(ctx context.Context, f OrderFilter) ([]*domain.Order, int, error) {
	w := &whereBuilder{}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.Search != "" {
		w.addSearch(f.Search, "customer_name", "customer_email", "plan_code", "id::text")
	}

	var totalCount int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders "+w.sql(), w.args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC`, orderColumns, w.sql())
	if f.Limit > 0 {
		limit := w.next(f.Limit)
		off := w.next(offset(f.Page, f.Limit))
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, off)
	}

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, totalCount, nil
}

// SetGatewayCustomerID stores the resolved gateway customer
func (r *PostgresOrderRepository) SetGatewayCustomerID(ctx context.Context, orderID, customerID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET gateway_customer_id = $2, updated_at = $3 WHERE id = $1`,
		orderID, customerID, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveGatewayResult stores the payment fields returned by the gateway
func (r *PostgresOrderRepository) SaveGatewayResult(ctx context.Context, o *domain.Order) error {
	o.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET gateway_payment_id = $2, gateway_subscription_id = $3, payment_url = $4, pix_payload = $5,
		    pix_qr_image = $6, boleto_url = $7, boleto_barcode = $8, boleto_line = $9, card_last_digits = $10,
		    gateway_response = $11, updated_at = $12
		WHERE id = $1`,
		o.ID, nullStringOrValue(o.GatewayPaymentID), nullStringOrValue(o.GatewaySubscriptionID),
		nullStringOrValue(o.PaymentURL), nullStringOrValue(o.PixPayload), nullStringOrValue(o.PixQRImage),
		nullStringOrValue(o.BoletoURL), nullStringOrValue(o.BoletoBarcode), nullStringOrValue(o.BoletoLine),
		nullStringOrValue(o.CardLastDigits), gatewayResponse(o), o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresOrderRepository) transition(ctx context.Context, query string, args ...any) (bool, error) {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkPaid moves a pending order to paid
func (r *PostgresOrderRepository) MarkPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE orders SET status = 'paid', paid_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'pending'`, id, at)
}

// MarkExpired moves a pending order to expired
func (r *PostgresOrderRepository) MarkExpired(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE orders SET status = 'expired', updated_at = $2
		WHERE id = $1 AND status = 'pending'`, id, at)
}

// Cancel moves a pending order to canceled
func (r *PostgresOrderRepository) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE orders SET status = 'canceled', canceled_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'pending'`, id, at)
}

// ListReminderEligible selects pending orders due for a reminder
func (r *PostgresOrderRepository) ListReminderEligible(ctx context.Context, now time.Time, limit int) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, reminderEligibleQuery,
		now.Add(-domain.ReminderMinAge),
		domain.ReminderMaxCount,
		now.Add(-domain.ReminderInterval),
		limit,
	)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// RecordReminder bumps the cadence when reminder_count still equals prevCount
func (r *PostgresOrderRepository) RecordReminder(ctx context.Context, id string, prevCount int, at time.Time) (bool, error) {
	return r.transition(ctx, `
		UPDATE orders
		SET first_reminder_sent_at = CASE WHEN reminder_count = 0 THEN $3 ELSE first_reminder_sent_at END,
		    last_reminder_sent_at = $3,
		    reminder_count = reminder_count + 1,
		    updated_at = $3
		WHERE id = $1 AND reminder_count = $2`, id, prevCount, at)
}
