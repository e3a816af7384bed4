package mailer

import (
	"github.com/bookline/bookline-api/internal/domain"
	"github.com/bookline/bookline-api/pkg/logger"
)

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendBookingConfirmation(toEmail, toName string, b *domain.Booking) error {
	logger.Info("[DEV MAIL] Booking confirmation",
		"to", toEmail,
		"name", toName,
		"reference", b.Reference,
		"date", b.BookingDate.Format("2006-01-02"),
		"start", b.StartTime,
		"end", b.EndTime,
		"confirmation_code", b.ConfirmationCode,
	)
	return nil
}

func (d *DevMailer) SendBookingCancellation(toEmail, toName string, b *domain.Booking) error {
	logger.Info("[DEV MAIL] Booking cancellation",
		"to", toEmail,
		"name", toName,
		"reference", b.Reference,
		"reason", b.CancellationReason,
	)
	return nil
}

func (d *DevMailer) SendRefundNotice(toEmail, toName string, rf *domain.Refund) error {
	logger.Info("[DEV MAIL] Refund notice",
		"to", toEmail,
		"name", toName,
		"reference", rf.Reference,
		"amount", rf.Amount,
	)
	return nil
}
