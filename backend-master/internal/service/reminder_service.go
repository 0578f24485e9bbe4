package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/notification"
	"github.com/imobsites/imobsites-panel/backend-master/internal/repository"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/telemetry"
)

// DefaultReminderLimit is the batch size when the caller gives none
const DefaultReminderLimit = 50

const reminderLockPrefix = "imobsites:reminder:lock:"

// Locker is a best-effort distributed lock
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// ReminderService sends payment reminders for pending orders
type ReminderService interface {
	// Run reminds up to limit eligible orders and returns the tally
	Run(ctx context.Context, limit int) (*dto.ReminderRunResponse, error)
	// SendNow reminds one pending order regardless of cadence
	SendNow(ctx context.Context, orderID string) (*domain.Order, error)
}

type reminderOutcome int

const (
	reminderSent reminderOutcome = iota
	reminderFailed
	reminderSkipped
)

func (o reminderOutcome) String() string {
	switch o {
	case reminderSent:
		return "sent"
	case reminderFailed:
		return "failed"
	}
	return "skipped"
}

type reminderService struct {
	orderRepo repository.OrderRepository
	planRepo  repository.PlanRepository
	mailer    EmailSender
	locker    Locker
	lockTTL   time.Duration
	now       func() time.Time
	counter   *telemetry.Counter
}

// NewReminderService creates a new ReminderService; locker may be nil
func NewReminderService(
	orderRepo repository.OrderRepository,
	planRepo repository.PlanRepository,
	mailer EmailSender,
	locker Locker,
	lockTTL time.Duration,
) ReminderService {
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &reminderService{
		orderRepo: orderRepo,
		planRepo:  planRepo,
		mailer:    mailer,
		locker:    locker,
		lockTTL:   lockTTL,
		now:       time.Now,
		counter: telemetry.MustCounter(telemetry.MetricOpts{
			Name:        "order_reminders_total",
			Description: "Pending order reminders by outcome",
			Unit:        "{reminder}",
		}),
	}
}

func (s *reminderService) Run(ctx context.Context, limit int) (*dto.ReminderRunResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "reminders.run")
	defer span.End()

	if limit <= 0 {
		limit = DefaultReminderLimit
	}
	now := s.now()
	orders, err := s.orderRepo.ListReminderEligible(ctx, now, limit)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to select reminder candidates: %w", err)
	}

	res := &dto.ReminderRunResponse{Selected: len(orders)}
	for _, o := range orders {
		if ctx.Err() != nil {
			break
		}
		switch s.process(ctx, o.ID, now, true) {
		case reminderSent:
			res.Sent++
		case reminderFailed:
			res.Failed++
		default:
			res.Skipped++
		}
	}
	span.SetAttributes(
		attribute.Int("reminders.selected", res.Selected),
		attribute.Int("reminders.sent", res.Sent),
	)

	logger.Get().WithContext(ctx).Info("reminder batch finished",
		zap.Int("selected", res.Selected),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
	)
	return res, ctx.Err()
}

func (s *reminderService) SendNow(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if o.Status != domain.OrderStatusPending {
		return nil, ErrOrderNotPending
	}
	switch s.process(ctx, orderID, s.now(), false) {
	case reminderSent:
		return s.orderRepo.GetByID(ctx, orderID)
	case reminderFailed:
		return nil, ErrMailDelivery
	}
	return nil, fmt.Errorf("reminder for order %s is already being sent", orderID)
}

// process locks the order, re-reads it, sends and records the reminder
func (s *reminderService) process(ctx context.Context, orderID string, now time.Time, requireEligible bool) reminderOutcome {
	log := logger.Get().WithContext(ctx).WithFields(zap.String("order_id", orderID))
	outcome := reminderSkipped
	defer func() { s.counter.Inc(ctx, telemetry.OutcomeAttr(outcome.String())) }()

	if s.locker != nil {
		key := reminderLockPrefix + orderID
		token, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			log.Warn("reminder lock unavailable", zap.Error(err))
			outcome = reminderFailed
			return outcome
		}
		if !ok {
			log.Info("reminder already in progress elsewhere")
			return outcome
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn("failed to release reminder lock", zap.Error(err))
			}
		}()
	}

	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil || o == nil {
		log.Error("failed to reload order", zap.Error(err))
		outcome = reminderFailed
		return outcome
	}
	if o.Status != domain.OrderStatusPending || o.CustomerEmail == "" {
		return outcome
	}
	if requireEligible && !o.IsReminderEligible(now) {
		log.Info("order no longer eligible for a reminder", zap.Int("reminder_count", o.ReminderCount))
		return outcome
	}

	if err := s.mailer.Send(ctx, domain.EventOrderReminder, o.CustomerEmail, o.CustomerName, s.vars(ctx, o)); err != nil {
		log.Error("failed to send reminder", zap.Error(err))
		outcome = reminderFailed
		return outcome
	}

	ok, err := s.orderRepo.RecordReminder(ctx, o.ID, o.ReminderCount, now)
	if err != nil {
		log.Error("reminder sent but cadence update failed", zap.Error(err))
		outcome = reminderFailed
		return outcome
	}
	if !ok {
		log.Warn("reminder cadence changed concurrently, not counted", zap.Int("reminder_count", o.ReminderCount))
		return outcome
	}

	log.Info("reminder sent", zap.Int("reminder_number", o.ReminderCount+1))
	outcome = reminderSent
	return outcome
}

func (s *reminderService) vars(ctx context.Context, o *domain.Order) notification.Vars {
	vars := orderVars(o)
	vars["reminder_number"] = o.ReminderCount + 1
	if s.planRepo != nil {
		if p, err := s.planRepo.GetByCode(ctx, o.PlanCode); err == nil && p != nil {
			vars["plan_name"] = p.Name
		}
	}
	return vars
}
