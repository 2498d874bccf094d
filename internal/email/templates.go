package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
	texttemplate "text/template"
)

// Имена встроенных шаблонов
const (
	TemplatePasswordReset = "password_reset"
)

// Rendered - отрендеренное письмо
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

type templatePair struct {
	subject string
	html    *template.Template
	text    *texttemplate.Template
}

// TemplateManager хранит пары шаблонов (html + plain text) для писем
type TemplateManager struct {
	templates map[string]templatePair
	mutex     sync.RWMutex
}

// NewTemplateManager создает менеджер со встроенными шаблонами
func NewTemplateManager() *TemplateManager {
	tm := &TemplateManager{
		templates: make(map[string]templatePair),
	}
	if err := tm.AddTemplate(TemplatePasswordReset, "Password reset", passwordResetHTML, passwordResetText); err != nil {
		panic(err)
	}
	return tm
}

// AddTemplate регистрирует шаблон под именем name
func (tm *TemplateManager) AddTemplate(name, subject, htmlSrc, textSrc string) error {
	htmlTpl, err := template.New(name).Parse(htmlSrc)
	if err != nil {
		return fmt.Errorf("failed to parse html template %s: %w", name, err)
	}
	textTpl, err := texttemplate.New(name).Parse(textSrc)
	if err != nil {
		return fmt.Errorf("failed to parse text template %s: %w", name, err)
	}

	tm.mutex.Lock()
	tm.templates[name] = templatePair{subject: subject, html: htmlTpl, text: textTpl}
	tm.mutex.Unlock()

	return nil
}

// Render рендерит шаблон с данными
func (tm *TemplateManager) Render(name string, data any) (*Rendered, error) {
	tm.mutex.RLock()
	pair, exists := tm.templates[name]
	tm.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("template not found: %s", name)
	}

	var htmlBuf, textBuf strings.Builder
	if err := pair.html.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to execute html template: %w", err)
	}
	if err := pair.text.Execute(&textBuf, data); err != nil {
		return nil, fmt.Errorf("failed to execute text template: %w", err)
	}

	return &Rendered{Subject: pair.subject, Text: textBuf.String(), HTML: htmlBuf.String()}, nil
}

// PasswordResetData - данные для шаблона сброса пароля
type PasswordResetData struct {
	// template.URL: иначе html/template заменит нестандартную схему deep link на #ZgotmplZ
	Link template.URL
}

// RenderPasswordReset - письмо со ссылкой на сброс пароля
func (tm *TemplateManager) RenderPasswordReset(link string) (*Rendered, error) {
	return tm.Render(TemplatePasswordReset, PasswordResetData{Link: template.URL(link)})
}

const passwordResetHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Password reset</h2>
  <p>We received a request to reset your password.</p>
  <p><a href="{{.Link}}">Reset your password</a></p>
  <p>The link is valid for 15 minutes. If you did not request a reset, ignore this email.</p>
</body>
</html>`

const passwordResetText = `We received a request to reset your password.

Open this link to choose a new one: {{.Link}}

The link is valid for 15 minutes. If you did not request a reset, ignore this email.
`
