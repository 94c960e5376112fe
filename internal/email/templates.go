package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/money"
)

// TemplateData представляет данные для шаблонов писем
type TemplateData map[string]interface{}

// TemplateManager - html-шаблоны писем по имени события
type TemplateManager struct {
	templates map[string]*template.Template
	subjects  map[string]string
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер со встроенными шаблонами
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
		subjects:  make(map[string]string),
	}
	for name, t := range defaultTemplates {
		if err := tm.AddTemplate(name, t.subject, t.body); err != nil {
			panic(err)
		}
	}
	return tm
}

// Render рендерит тему и тело письма
func (tm *TemplateManager) Render(templateName string, data TemplateData) (subject, body string, err error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	subject = tm.subjects[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}
	return subject, buf.String(), nil
}

// AddTemplate добавляет или заменяет шаблон
func (tm *TemplateManager) AddTemplate(name, subject, templateStr string) error {
	tpl, err := template.New(name).Funcs(funcs).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.subjects[name] = subject
	tm.mutex.Unlock()

	return nil
}

// Has - есть ли шаблон для события
func (tm *TemplateManager) Has(name string) bool {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	_, ok := tm.templates[name]
	return ok
}

var funcs = template.FuncMap{
	// float64 - сумма, уже прошедшая через JSON (в долларах)
	"dollars": func(v any) string {
		switch c := v.(type) {
		case money.Cents:
			return "$" + c.String()
		case int64:
			return "$" + money.Cents(c).String()
		case float64:
			return fmt.Sprintf("$%.2f", c)
		default:
			return fmt.Sprint(v)
		}
	},
}

type defaultTemplate struct {
	subject string
	body    string
}

var defaultTemplates = map[string]defaultTemplate{
	events.BidAccepted: {
		subject: "Your bid was accepted",
		body: `<p>Hello {{.Name}},</p>
<p>Your bid for <b>{{.jobTitle}}</b> was accepted by the property manager.</p>
<p>Your payout for this job: {{dollars .pilotAmount}}.</p>`,
	},
	events.MembershipPaymentFailed: {
		subject: "Membership payment failed",
		body: `<p>Hello {{.Name}},</p>
<p>We could not charge your membership payment. Please update your billing details to keep marketplace access.</p>`,
	},
	events.InsuranceExpiring: {
		subject: "Your insurance policy expires soon",
		body: `<p>Hello {{.Name}},</p>
<p>Your policy {{.policyNumber}} with {{.provider}} expires on {{.expiryDate}}.</p>
<p>Upload a renewed policy to keep bidding on jobs.</p>`,
	},
}
