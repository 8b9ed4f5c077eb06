// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Service sends transactional mail over SMTP. When email is disabled in
// config every send is a silent no-op, which keeps development setups free
// of SMTP credentials.
type Service struct {
	config   *config.Config
	template *template.Template
}

// NewService creates a new email service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config:   cfg,
		template: template.Must(template.New("order_confirmation").Parse(orderConfirmationTemplate)),
	}
}

type confirmationData struct {
	CompanyName string
	OrderID     uint
	OrderDate   string
	Items       []order.Item
	Total       string
	Year        int
}

// SendOrderConfirmation emails the order summary to the buyer
func (s *Service) SendOrderConfirmation(ctx context.Context, o *order.Order, recipient string) error {
	if !s.config.External.Email.Enabled {
		return nil
	}

	var body bytes.Buffer
	err := s.template.Execute(&body, confirmationData{
		CompanyName: s.config.App.CompanyName,
		OrderID:     o.ID,
		OrderDate:   o.CreatedAt.Format("January 2, 2006"),
		Items:       o.Items,
		Total:       o.TotalAmount.StringFixed(2),
		Year:        time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render order confirmation: %w", err)
	}

	subject := fmt.Sprintf("Order Confirmation #%d", o.ID)
	return s.send(recipient, subject, body.String())
}

func (s *Service) send(to, subject, htmlBody string) error {
	cfg := s.config.External.Email
	if cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP configuration incomplete: missing host")
	}

	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	if err := smtp.SendMail(addr, auth, cfg.FromEmail, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const orderConfirmationTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you for your order!</h2>
  <p>Your order <strong>#{{.OrderID}}</strong> was placed on {{.OrderDate}}.</p>
  <table width="100%" cellpadding="8" style="border-collapse: collapse;">
    <tr style="border-bottom: 1px solid #ddd; text-align: left;">
      <th>Item</th><th>Qty</th><th>Price</th>
    </tr>
    {{range .Items}}
    <tr style="border-bottom: 1px solid #eee;">
      <td>{{.Name}}</td>
      <td>{{.Quantity}}</td>
      <td>{{.PriceAtPurchase.StringFixed 2}}</td>
    </tr>
    {{end}}
  </table>
  <p style="text-align: right;"><strong>Total: {{.Total}}</strong></p>
  <p>We will let you know when your order ships.</p>
  <p style="color: #999; font-size: 12px;">&copy; {{.Year}} {{.CompanyName}}</p>
</body>
</html>`
