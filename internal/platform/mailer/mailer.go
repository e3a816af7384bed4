package mailer

import (
	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/pkg/config"
)

// Mailer sends transactional email to customers.
type Mailer interface {
	SendBookingConfirmation(toEmail, toName string, b *domain.Booking) error
	SendBookingCancellation(toEmail, toName string, b *domain.Booking) error
	SendRefundNotice(toEmail, toName string, rf *domain.Refund) error
}

// New picks the MailerSend client when an API key is configured, otherwise
// the dev mailer that prints to the logs.
func New(cfg config.EmailConfig) Mailer {
	if !cfg.DevMode && cfg.MailerSendKey != "" {
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromAddress)
	}
	return NewDevMailer()
}
