package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/telemetry"
)

// TemplateSource finds the template to use for an event
type TemplateSource interface {
	FirstActiveTemplate(ctx context.Context, event domain.EventType) (*domain.EmailTemplate, error)
}

// Notifier renders event templates and hands them to a Mailer
type Notifier struct {
	templates TemplateSource
	mailer    Mailer
	siteName  string
	sent      *telemetry.Counter
}

// NewNotifier creates a new Notifier
func NewNotifier(templates TemplateSource, mailer Mailer, siteName string) *Notifier {
	sent, _ := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "emails_sent_total",
		Description: "Transactional e-mails by event and outcome",
	})
	return &Notifier{templates: templates, mailer: mailer, siteName: siteName, sent: sent}
}

// TemplateFor returns the first active stored template for event, or the
// built-in one. Lookup errors fall back to the built-in template.
func (n *Notifier) TemplateFor(ctx context.Context, event domain.EventType) (Template, error) {
	if n.templates != nil {
		stored, err := n.templates.FirstActiveTemplate(ctx, event)
		if err != nil {
			logger.Get().WithContext(ctx).Warn("template lookup failed, using fallback",
				zap.String("event_type", string(event)),
				zap.Error(err),
			)
		} else if stored != nil {
			return Template{Subject: stored.Subject, HTMLBody: stored.HTMLBody, TextBody: stored.TextBody}, nil
		}
	}
	tpl, ok := Fallback(event)
	if !ok {
		return Template{}, fmt.Errorf("no template for event %q", event)
	}
	return tpl, nil
}

// Send renders the template for event with vars and mails it to the
// recipient
func (n *Notifier) Send(ctx context.Context, event domain.EventType, to, toName string, vars Vars) error {
	tpl, err := n.TemplateFor(ctx, event)
	if err != nil {
		return err
	}

	rendered := Render(tpl, n.withDefaults(vars))
	err = n.mailer.Send(ctx, &Message{
		To:      to,
		ToName:  toName,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	})

	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	if n.sent != nil {
		n.sent.Inc(ctx, telemetry.EventTypeAttr(string(event)), telemetry.OutcomeAttr(outcome))
	}
	if err != nil {
		return fmt.Errorf("failed to send %s e-mail: %w", event, err)
	}

	logger.Get().WithContext(ctx).Info("e-mail sent",
		zap.String("event_type", string(event)),
		zap.String("subject", rendered.Subject),
	)
	return nil
}

// withDefaults copies vars and adds site_name unless the caller set it
func (n *Notifier) withDefaults(vars Vars) Vars {
	out := make(Vars, len(vars)+1)
	for k, v := range vars {
		out[k] = v
	}
	if _, ok := out["site_name"]; !ok {
		out["site_name"] = n.siteName
	}
	return out
}
