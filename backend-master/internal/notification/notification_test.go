package notification

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/redis"
)

func TestRender_EscapesAndStripsUnknown(t *testing.T) {
	out := Render(Template{
		Subject:  "Hello {{name}}, order {{order_id}}",
		HTMLBody: "<p>Hello {{ name }}, order {{order_id}}{{unknown}}</p>",
	}, Vars{"name": "<b>X</b>", "order_id": 5})

	assert.Equal(t, "Hello &lt;b&gt;X&lt;/b&gt;, order 5", out.Subject)
	assert.Equal(t, "<p>Hello &lt;b&gt;X&lt;/b&gt;, order 5</p>", out.HTML)
	assert.NotContains(t, out.HTML, "{{")
}

func TestRender_TextBodyIsNotEscaped(t *testing.T) {
	out := Render(Template{
		Subject:  "s",
		HTMLBody: "<p>{{name}}</p>",
		TextBody: "Hi {{name}} {{missing}}",
	}, Vars{"name": "Tom & Jerry"})

	assert.Equal(t, "Hi Tom & Jerry ", out.Text)
	assert.Equal(t, "<p>Tom &amp; Jerry</p>", out.HTML)
}

func TestRender_TextDerivedFromHTML(t *testing.T) {
	out := Render(Template{
		HTMLBody: "<style>p{color:red}</style><h2>Olá, {{name}}!</h2><p>Valor:   R$ {{amount}}</p><br><p>Fim</p>",
	}, Vars{"name": "Ana & Bia", "amount": decimal.RequireFromString("1200")})

	assert.Equal(t, "Olá, Ana & Bia!\nValor: R$ 1200.00\n\nFim", out.Text)
}

func TestRender_EmptyTemplate(t *testing.T) {
	out := Render(Template{}, Vars{"a": 1})
	assert.Equal(t, Rendered{}, out)
}

func TestFallback_CoversEveryEvent(t *testing.T) {
	for _, event := range domain.EventTypes {
		tpl, ok := Fallback(event)
		require.True(t, ok, "missing fallback for %s", event)
		assert.NotEmpty(t, tpl.Subject)
		assert.NotEmpty(t, tpl.HTMLBody)
	}
}

type stubTemplates struct {
	tpl *domain.EmailTemplate
	err error
}

func (s stubTemplates) FirstActiveTemplate(ctx context.Context, event domain.EventType) (*domain.EmailTemplate, error) {
	return s.tpl, s.err
}

func TestNotifier_UsesStoredTemplate(t *testing.T) {
	mailer := NewMockMailer()
	n := NewNotifier(stubTemplates{tpl: &domain.EmailTemplate{
		Subject:  "Pedido {{order_id}}",
		HTMLBody: "<p>{{customer_name}} - {{site_name}}</p>",
	}}, mailer, "ImobSites")

	err := n.Send(context.Background(), domain.EventOrderCreated, "ana@example.com", "Ana", Vars{"order_id": "42", "customer_name": "Ana"})
	require.NoError(t, err)

	msgs := mailer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Pedido 42", msgs[0].Subject)
	assert.Equal(t, "<p>Ana - ImobSites</p>", msgs[0].HTML)
	assert.Equal(t, "Ana - ImobSites", msgs[0].Text)
}

func TestNotifier_LeavesCallerVarsUntouched(t *testing.T) {
	mailer := NewMockMailer()
	n := NewNotifier(stubTemplates{tpl: &domain.EmailTemplate{
		Subject:  "{{site_name}}",
		HTMLBody: "<p>{{site_name}}</p>",
	}}, mailer, "ImobSites")

	vars := Vars{"order_id": "42"}
	require.NoError(t, n.Send(context.Background(), domain.EventOrderCreated, "ana@example.com", "Ana", vars))
	assert.Equal(t, Vars{"order_id": "42"}, vars)

	require.NoError(t, n.Send(context.Background(), domain.EventOrderCreated, "ana@example.com", "Ana", Vars{"site_name": "Imob Sol"}))
	msgs := mailer.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "ImobSites", msgs[0].Subject)
	assert.Equal(t, "Imob Sol", msgs[1].Subject)

	require.NoError(t, n.Send(context.Background(), domain.EventOrderCreated, "ana@example.com", "Ana", nil))
}

func TestNotifier_FallsBackOnMissingOrBrokenTemplate(t *testing.T) {
	for _, src := range []stubTemplates{{}, {err: errors.New("db down")}} {
		mailer := NewMockMailer()
		n := NewNotifier(src, mailer, "ImobSites")

		err := n.Send(context.Background(), domain.EventOrderReminder, "ana@example.com", "Ana", Vars{"order_id": "7"})
		require.NoError(t, err)
		require.Len(t, mailer.Messages(), 1)
		assert.Equal(t, "Seu pedido #7 aguarda pagamento", mailer.Messages()[0].Subject)
	}
}

func TestNotifier_MailFailure(t *testing.T) {
	mailer := NewMockMailer()
	mailer.ShouldFail = true
	n := NewNotifier(nil, mailer, "ImobSites")

	err := n.Send(context.Background(), domain.EventOrderPaid, "ana@example.com", "", nil)
	assert.ErrorIs(t, err, ErrMockMailFailure)
}

func TestNotifier_UnknownEvent(t *testing.T) {
	n := NewNotifier(nil, NewMockMailer(), "ImobSites")
	assert.Error(t, n.Send(context.Background(), domain.EventType("nope"), "a@b.c", "", nil))
}

type memorySettingsRepo struct {
	settings *domain.EmailSettings
	reads    int
}

func (r *memorySettingsRepo) GetEmailSettings(ctx context.Context) (*domain.EmailSettings, error) {
	r.reads++
	if r.settings == nil {
		return nil, nil
	}
	cp := *r.settings
	return &cp, nil
}

func (r *memorySettingsRepo) SaveEmailSettings(ctx context.Context, s *domain.EmailSettings) error {
	cp := *s
	r.settings = &cp
	return nil
}

type memoryCache struct {
	data map[string]any
}

func (c *memoryCache) GetJSON(ctx context.Context, key string, dst any) error {
	v, ok := c.data[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	*(dst.(*domain.EmailSettings)) = *(v.(*domain.EmailSettings))
	return nil
}

func (c *memoryCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	cp := *(v.(*domain.EmailSettings))
	c.data[key] = &cp
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func TestSettingsStore_FallbackAndReload(t *testing.T) {
	for name, cache := range map[string]Cache{"memory": nil, "redis": &memoryCache{data: map[string]any{}}} {
		t.Run(name, func(t *testing.T) {
			repo := &memorySettingsRepo{}
			store := NewSettingsStore(repo, cache, config.MailConfig{Host: "smtp.fallback", Port: 25, FromEmail: "noreply@fallback"})
			ctx := context.Background()

			s, err := store.Settings(ctx)
			require.NoError(t, err)
			assert.Equal(t, "smtp.fallback", s.SMTPHost)

			_, _ = store.Settings(ctx)
			assert.Equal(t, 1, repo.reads, "second read should be cached")

			repo.settings = &domain.EmailSettings{SMTPHost: "smtp.db", FromEmail: "noreply@db"}
			s, _ = store.Settings(ctx)
			assert.Equal(t, "smtp.fallback", s.SMTPHost, "stale until reload")

			s, err = store.Reload(ctx)
			require.NoError(t, err)
			assert.Equal(t, "smtp.db", s.SMTPHost)

			s, err = store.Save(ctx, &domain.EmailSettings{SMTPHost: "smtp.saved", FromEmail: "x@y"})
			require.NoError(t, err)
			assert.Equal(t, "smtp.saved", s.SMTPHost)
		})
	}
}

func TestBuildMessage(t *testing.T) {
	settings := &domain.EmailSettings{FromName: "ImobSites", FromEmail: "noreply@imobsites.com.br", ReplyTo: "suporte@imobsites.com.br"}
	mm, err := BuildMessage(settings, &Message{
		To:      "ana@example.com",
		ToName:  "Ana",
		Subject: "Olá",
		HTML:    "<p>Oi</p>",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = mm.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "text/html")
	assert.True(t, strings.Contains(raw, "ana@example.com"))
}

func TestBuildMessage_InvalidRecipient(t *testing.T) {
	_, err := BuildMessage(&domain.EmailSettings{FromEmail: "noreply@imobsites.com.br"}, &Message{To: "not-an-address"})
	assert.Error(t, err)
}

func TestClientOptions(t *testing.T) {
	assert.Len(t, ClientOptions(&domain.EmailSettings{SMTPEncryption: "none"}), 2)
	assert.Len(t, ClientOptions(&domain.EmailSettings{SMTPEncryption: "tls", SMTPUsername: "u", SMTPPassword: "p"}), 5)
}
