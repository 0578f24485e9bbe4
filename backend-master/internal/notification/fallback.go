package notification

import (
	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

const layoutStart = `<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;color:#333">`
const layoutEnd = `<p style="color:#888;font-size:12px">{{site_name}}</p></div>`

// fallbackTemplates are used when no active template exists for an event
var fallbackTemplates = map[domain.EventType]Template{
	domain.EventOrderCreated: {
		Subject: "Recebemos seu pedido #{{order_id}}",
		HTMLBody: layoutStart +
			`<h2>Olá, {{customer_name}}!</h2>` +
			`<p>Recebemos seu pedido do plano <strong>{{plan_name}}</strong> no valor de R$ {{amount}}.</p>` +
			`<p>Para concluir, acesse: <a href="{{payment_url}}">{{payment_url}}</a></p>` +
			`<p>PIX copia e cola: {{pix_payload}}</p>` +
			`<p>Linha digitável: {{boleto_line}}</p>` +
			layoutEnd,
	},
	domain.EventOrderPaid: {
		Subject: "Pagamento confirmado - pedido #{{order_id}}",
		HTMLBody: layoutStart +
			`<h2>Obrigado, {{customer_name}}!</h2>` +
			`<p>O pagamento do plano <strong>{{plan_name}}</strong> (R$ {{amount}}) foi confirmado.</p>` +
			`<p>Em breve você receberá os dados de acesso ao painel.</p>` +
			layoutEnd,
	},
	domain.EventOrderReminder: {
		Subject: "Seu pedido #{{order_id}} aguarda pagamento",
		HTMLBody: layoutStart +
			`<h2>Olá, {{customer_name}}</h2>` +
			`<p>Seu pedido do plano <strong>{{plan_name}}</strong> ainda está pendente.</p>` +
			`<p>Finalize o pagamento em: <a href="{{payment_url}}">{{payment_url}}</a></p>` +
			layoutEnd,
	},
	domain.EventTenantActivation: {
		Subject: "Ative seu acesso ao painel {{tenant_name}}",
		HTMLBody: layoutStart +
			`<h2>Bem-vindo(a), {{user_name}}!</h2>` +
			`<p>Seu site <strong>{{tenant_name}}</strong> foi criado.</p>` +
			`<p>Defina sua senha em: <a href="{{activation_url}}">{{activation_url}}</a></p>` +
			`<p>O link expira em {{expires_at}}.</p>` +
			layoutEnd,
	},
}

// Fallback returns the built-in template for event
func Fallback(event domain.EventType) (Template, bool) {
	tpl, ok := fallbackTemplates[event]
	return tpl, ok
}
