// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
)

// Mailer sends the transactional and marketing email the shop produces.
type Mailer interface {
	SendOrderConfirmation(order *models.Order, to string) error
	SendNewsletter(to, subject, htmlContent, unsubscribeURL string) error
	SendSupportAcknowledgement(msg *models.SupportMessage) error
}

type NotificationService struct {
	email    config.EmailConfig
	baseURL  string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		email:    cfg.Email,
		baseURL:  cfg.Frontend.BaseURL,
		sendMail: smtp.SendMail,
	}
}

func (s *NotificationService) SendOrderConfirmation(order *models.Order, to string) error {
	data := map[string]interface{}{
		"Name":     order.Shipping.Name,
		"OrderID":  order.ID,
		"Items":    order.Items,
		"Total":    order.Total.StringFixed(2),
		"Currency": order.Currency,
		"OrderURL": fmt.Sprintf("%s/orders/%s", s.baseURL, order.ID),
	}

	tmpl := s.getEmailTemplate("order_confirmation")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(to, tmpl.Subject, body)
}

func (s *NotificationService) SendNewsletter(to, subject, htmlContent, unsubscribeURL string) error {
	data := map[string]interface{}{
		"Content":        template.HTML(htmlContent),
		"UnsubscribeURL": unsubscribeURL,
	}

	tmpl := s.getEmailTemplate("newsletter")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(to, subject, body)
}

func (s *NotificationService) SendSupportAcknowledgement(msg *models.SupportMessage) error {
	data := map[string]interface{}{
		"Name":    msg.Name,
		"Subject": msg.Subject,
	}

	tmpl := s.getEmailTemplate("support_ack")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(msg.Email, tmpl.Subject, body)
}

// Helper methods
func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("SMTP not configured, email skipped")
		return nil
	}

	var auth smtp.Auth
	if s.email.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.email.SMTPUsername, s.email.SMTPPassword, s.email.SMTPHost)
	}

	from := s.email.FromEmail
	if s.email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.email.FromName, s.email.FromEmail)
	}
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		from, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.email.SMTPHost, s.email.SMTPPort)
	if err := s.sendMail(addr, auth, s.email.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"order_confirmation": {
			Subject: "Your order is confirmed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thanks for your order{{if .Name}}, {{.Name}}{{end}}!</h2>
	<p>We received your payment for order {{.OrderID}}.</p>
	<table>
		{{range .Items}}<tr><td>{{.ProductName}}</td><td>x{{.Quantity}}</td><td>{{.UnitPrice.StringFixed 2}}</td></tr>{{end}}
	</table>
	<p><strong>Total: {{.Total}} {{.Currency}}</strong></p>
	<a href="{{.OrderURL}}">View your order</a>
</body>
</html>`,
		},
		"newsletter": {
			Body: `
<!DOCTYPE html>
<html>
<body>
	{{.Content}}
	<hr>
	<p style="font-size:12px"><a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>
</body>
</html>`,
		},
		"support_ack": {
			Subject: "We received your message",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Hi {{.Name}},</p>
	<p>Thanks for reaching out about "{{.Subject}}". Our team will reply soon.</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
