package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/bookline/bookline-api/internal/domain"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendBookingConfirmation(toEmail, toName string, b *domain.Booking) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("Booking confirmed: %s", b.Reference)
	html := fmt.Sprintf(`
		<h2>Your booking is confirmed</h2>
		<p>Hi %s,</p>
		<p>Your booking <strong>%s</strong> is confirmed for %s from %s to %s.</p>
		<p>Confirmation code: <strong>%s</strong></p>
		<p>Total: %.2f %s</p>
	`, toName, b.Reference, b.BookingDate.Format("January 2, 2006"), b.StartTime, b.EndTime, b.ConfirmationCode, b.FinalAmount, b.Currency)

	text := fmt.Sprintf("Your booking %s is confirmed for %s %s-%s. Confirmation code: %s",
		b.Reference, b.BookingDate.Format("2006-01-02"), b.StartTime, b.EndTime, b.ConfirmationCode)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendBookingCancellation(toEmail, toName string, b *domain.Booking) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("Booking cancelled: %s", b.Reference)
	html := fmt.Sprintf(`
		<h2>Your booking was cancelled</h2>
		<p>Hi %s,</p>
		<p>Booking <strong>%s</strong> for %s has been cancelled.</p>
		<p>If a payment was captured, a refund will follow per the cancellation policy.</p>
	`, toName, b.Reference, b.BookingDate.Format("January 2, 2006"))

	text := fmt.Sprintf("Booking %s for %s has been cancelled.", b.Reference, b.BookingDate.Format("2006-01-02"))

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendRefundNotice(toEmail, toName string, rf *domain.Refund) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := fmt.Sprintf("Refund processed: %s", rf.Reference)
	html := fmt.Sprintf(`
		<h2>Your refund is on its way</h2>
		<p>Hi %s,</p>
		<p>A refund of <strong>%.2f</strong> (reference %s) has been processed.</p>
		<p>Depending on your bank it may take 5-10 business days to appear.</p>
	`, toName, rf.Amount, rf.Reference)

	text := fmt.Sprintf("A refund of %.2f (reference %s) has been processed.", rf.Amount, rf.Reference)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
