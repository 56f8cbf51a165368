package mailingservices

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// Mailgun wraps the mailgun client used for transactional mail.
type Mailgun struct {
	Client *mailgun.MailgunImpl
	From   string
}

func (m *Mailgun) Init() {
	domain := os.Getenv("KUIDANDO_MG_DOMAIN")
	apiKey := os.Getenv("KUIDANDO_MG_PUBLIC_API_KEY")
	m.Client = mailgun.NewMailgun(domain, apiKey)
	m.From = os.Getenv("KUIDANDO_EMAIL_FROM")
	if m.From == "" {
		m.From = fmt.Sprintf("Kuidando <no-reply@%s>", domain)
	}
}

// SendResetPassword mails the reset link. Returns the mailgun message id.
func (m *Mailgun) SendResetPassword(userEmail, resetLink string) (string, error) {
	subject := "Restablece tu contraseña de Kuidando"
	body := fmt.Sprintf(
		"Hola,\n\nRecibimos una solicitud para restablecer tu contraseña.\n"+
			"Abre este enlace para elegir una nueva:\n\n%s\n\n"+
			"El enlace vence en 20 minutos. Si no lo solicitaste, ignora este correo.\n",
		resetLink)

	message := m.Client.NewMessage(m.From, subject, body, userEmail)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, id, err := m.Client.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("mailgun send: %w", err)
	}
	return id, nil
}
