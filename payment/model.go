package payment

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/nomadiclabs/tripway/booking"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

type Payment struct {
	ID                uint      `json:"id" gorm:"primarykey"`
	BookingID         uint      `json:"booking_id" gorm:"not null;index"`
	RazorpayOrderID   string    `json:"razorpay_order_id" gorm:"size:100;index"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" gorm:"size:100"`
	Amount            float64   `json:"amount" gorm:"not null"`
	Currency          string    `json:"currency" gorm:"size:3;default:INR;not null"`
	Status            Status    `json:"status" gorm:"size:20;default:pending;not null"`
	PaymentMethod     string    `json:"payment_method" gorm:"size:50"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Booking booking.Booking `json:"-" gorm:"foreignKey:BookingID"`
}

func Serialize(p *Payment) fiber.Map {
	return fiber.Map{
		"id":                  p.ID,
		"booking_id":          p.BookingID,
		"razorpay_order_id":   p.RazorpayOrderID,
		"razorpay_payment_id": p.RazorpayPaymentID,
		"amount":              p.Amount,
		"currency":            p.Currency,
		"status":              p.Status,
		"payment_method":      p.PaymentMethod,
		"created_at":          p.CreatedAt,
		"updated_at":          p.UpdatedAt,
	}
}
