package payment

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/nomadiclabs/tripway/booking"
	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

// toPaise converts a rupee amount to paise. Rounding guards against float
// representation error turning e.g. 19.99 into 1998.
func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type CreateOrderRequest struct {
	BookingID uint `json:"booking_id"`
}

func CreateOrder(c fiber.Ctx) error {
	if Gateway == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "payment gateway is not configured"})
	}

	userID := user.TokenUserID(c)

	req := new(CreateOrderRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.BookingID == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "booking_id is required"})
	}

	var b booking.Booking
	storage.DB.Preload("Package").Limit(1).Find(&b, req.BookingID)
	if b.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	if b.UserID != userID {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	if b.Status != booking.StatusPending {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Booking is not in pending status"})
	}

	var existing Payment
	storage.DB.Where("booking_id = ?", b.ID).Limit(1).Find(&existing)
	if existing.ID != 0 && existing.Status == StatusCompleted {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Payment already completed for this booking"})
	}

	// gateway call first; nothing is persisted when it fails
	amountPaise := toPaise(b.TotalAmount)
	orderID, err := Gateway.CreateOrder(amountPaise, "INR", fmt.Sprintf("booking_%d", b.ID), map[string]interface{}{
		"booking_id":    b.ID,
		"user_id":       userID,
		"package_title": b.Package.Title,
	})
	if err != nil {
		log.Error().Err(err).Uint("booking_id", b.ID).Msg("gateway order creation failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create payment order"})
	}

	// reuse a dangling pending row instead of stacking a second one
	p := &existing
	if p.ID != 0 {
		p.RazorpayOrderID = orderID
		p.Amount = b.TotalAmount
		p.Status = StatusPending
		if result := storage.DB.Save(p); result.Error != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save payment"})
		}
	} else {
		p = &Payment{
			BookingID:       b.ID,
			RazorpayOrderID: orderID,
			Amount:          b.TotalAmount,
			Currency:        "INR",
			Status:          StatusPending,
		}
		if result := storage.DB.Create(p); result.Error != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save payment"})
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"order_id":   orderID,
		"amount":     amountPaise,
		"currency":   "INR",
		"payment_id": p.ID,
	})
}

type VerifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func Verify(c fiber.Ctx) error {
	if Gateway == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "payment gateway is not configured"})
	}

	userID := user.TokenUserID(c)

	req := new(VerifyRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "razorpay_order_id, razorpay_payment_id and razorpay_signature are required"})
	}

	// signature check happens before any state is touched
	if !Gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Payment verification failed"})
	}

	var p Payment
	storage.DB.Preload("Booking").Preload("Booking.Package").Preload("Booking.User").
		Where("razorpay_order_id = ?", req.RazorpayOrderID).Limit(1).Find(&p)
	if p.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}

	if p.Booking.UserID != userID {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	if p.Status != StatusPending {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Payment is not in pending status"})
	}

	tx := storage.DB.Begin()

	if result := tx.Model(&Payment{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"razorpay_payment_id": req.RazorpayPaymentID,
		"status":              StatusCompleted,
		"payment_method":      "razorpay",
	}); result.Error != nil {
		tx.Rollback()
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update payment"})
	}

	if result := tx.Model(&booking.Booking{}).Where("id = ?", p.BookingID).
		Update("status", booking.StatusConfirmed); result.Error != nil {
		tx.Rollback()
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to confirm booking"})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to confirm booking"})
	}

	p.RazorpayPaymentID = req.RazorpayPaymentID
	p.Status = StatusCompleted
	p.PaymentMethod = "razorpay"
	p.Booking.Status = booking.StatusConfirmed

	go booking.SendConfirmationEmail(&p.Booking, p.Booking.User.Email)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Payment verified successfully",
		"payment": Serialize(&p),
		"booking": booking.Serialize(&p.Booking),
	})
}

func GetStatus(c fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid payment id"})
	}

	var p Payment
	storage.DB.Preload("Booking").Limit(1).Find(&p, id)
	if p.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}

	if p.Booking.UserID != user.TokenUserID(c) && !user.IsAdmin(user.TokenRole(c)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"payment": Serialize(&p)})
}

func ListForBooking(c fiber.Ctx) error {
	bookingID, err := strconv.Atoi(c.Params("bookingId"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid booking id"})
	}

	var b booking.Booking
	storage.DB.Limit(1).Find(&b, bookingID)
	if b.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	if b.UserID != user.TokenUserID(c) && !user.IsAdmin(user.TokenRole(c)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	var payments []Payment
	if result := storage.DB.Where("booking_id = ?", bookingID).Find(&payments); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list payments"})
	}

	list := make([]fiber.Map, 0, len(payments))
	for i := range payments {
		list = append(list, Serialize(&payments[i]))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"payments": list})
}

type RefundRequest struct {
	PaymentID uint   `json:"payment_id"`
	Reason    string `json:"reason"`
}

func Refund(c fiber.Ctx) error {
	if Gateway == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "payment gateway is not configured"})
	}

	if !user.IsAdmin(user.TokenRole(c)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
	}

	req := new(RefundRequest)
	if err := c.Bind().JSON(req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.PaymentID == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "payment_id is required"})
	}

	var p Payment
	storage.DB.Limit(1).Find(&p, req.PaymentID)
	if p.ID == 0 {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	}

	if p.Status != StatusCompleted {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Payment is not completed"})
	}

	reason := req.Reason
	if reason == "" {
		reason = "Refund requested by admin"
	}

	// external call first, local commit second
	refundID, err := Gateway.Refund(p.RazorpayPaymentID, toPaise(p.Amount), map[string]interface{}{
		"reason":     reason,
		"booking_id": p.BookingID,
	})
	if err != nil {
		log.Error().Err(err).Uint("payment_id", p.ID).Msg("gateway refund failed")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Refund failed"})
	}

	tx := storage.DB.Begin()

	if result := tx.Model(&Payment{}).Where("id = ?", p.ID).
		Update("status", StatusRefunded); result.Error != nil {
		tx.Rollback()
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update payment"})
	}

	if result := tx.Model(&booking.Booking{}).Where("id = ?", p.BookingID).
		Update("status", booking.StatusCancelled); result.Error != nil {
		tx.Rollback()
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to cancel booking"})
	}

	if err := tx.Commit().Error; err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to process refund"})
	}

	p.Status = StatusRefunded

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":   "Refund processed successfully",
		"refund_id": refundID,
		"payment":   Serialize(&p),
	})
}

func ListAll(c fiber.Ctx) error {
	if !user.IsAdmin(user.TokenRole(c)) {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "10"))

	query := storage.DB.Model(&Payment{})

	if status := c.Query("status"); status != "" {
		if !Status(status).Valid() {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		query = query.Where("status = ?", status)
	}
	if bookingFilter := c.Query("booking_id"); bookingFilter != "" {
		id, err := strconv.Atoi(bookingFilter)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking_id"})
		}
		query = query.Where("booking_id = ?", id)
	}

	var total int64
	if result := query.Count(&total); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list payments"})
	}

	var payments []Payment
	if result := query.Scopes(storage.Paginate(page, perPage)).Find(&payments); result.Error != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list payments"})
	}

	list := make([]fiber.Map, 0, len(payments))
	for i := range payments {
		list = append(list, Serialize(&payments[i]))
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"payments":     list,
		"total":        total,
		"pages":        storage.Pages(total, perPage),
		"current_page": page,
		"per_page":     perPage,
	})
}
