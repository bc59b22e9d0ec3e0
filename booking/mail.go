package booking

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nomadiclabs/tripway/config"
)

// SendConfirmationEmail mails a booking confirmation. Callers run it in a
// goroutine; delivery failures are logged, never surfaced to the request.
func SendConfirmationEmail(b *Booking, to string) {
	cfg := config.C
	if cfg.SMTPUsername == "" || cfg.SMTPPassword == "" || to == "" {
		return
	}

	subject := "Your booking is confirmed"
	body := fmt.Sprintf(
		"<p>Your booking #%d for %s on %s is confirmed.</p><p>Travelers: %d<br>Total: %.2f</p>",
		b.ID, b.Package.Title, b.BookingDate.Format(time.DateOnly), b.NumberOfTravelers, b.TotalAmount,
	)

	msg := "From: " + cfg.SMTPFrom + "\n" +
		"To: " + to + "\n" +
		"Subject: " + subject + "\n" +
		"MIME-version: 1.0;\n" +
		"Content-Type: text/html; charset=\"UTF-8\";\n\n" +
		body

	auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)

	if err := smtp.SendMail(addr, auth, cfg.SMTPFrom, []string{to}, []byte(msg)); err != nil {
		log.Error().Err(err).Uint("booking_id", b.ID).Msg("failed to send confirmation email")
	}
}
