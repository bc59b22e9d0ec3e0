package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nomadiclabs/tripway/booking"
	"github.com/nomadiclabs/tripway/catalog"
	"github.com/nomadiclabs/tripway/storage"
	"github.com/nomadiclabs/tripway/user"
)

// fakeGateway stands in for Razorpay. A signature equals validSignature or it
// is rejected.
type fakeGateway struct {
	orders         int
	refunds        int
	validSignature string
}

func (g *fakeGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	g.orders++
	return fmt.Sprintf("order_test_%d", g.orders), nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == g.validSignature
}

func (g *fakeGateway) Refund(paymentID string, amount int64, notes map[string]interface{}) (string, error) {
	g.refunds++
	return fmt.Sprintf("rfnd_test_%d", g.refunds), nil
}

func setupDB(t *testing.T) *fakeGateway {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &catalog.Package{}, &booking.Booking{}, &Payment{}))
	storage.DB = db

	fake := &fakeGateway{validSignature: "good-signature"}
	Gateway = fake
	t.Cleanup(func() { Gateway = nil })
	return fake
}

func authAs(u *user.User) fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{
			"user_id": float64(u.ID),
			"role":    string(u.Role),
		}})
		return c.Next()
	}
}

func newApp(authed *user.User) *fiber.App {
	app := fiber.New()
	grp := app.Group("/api/payments")
	grp.Use(authAs(authed))
	grp.Post("/create-order", CreateOrder)
	grp.Post("/verify", Verify)
	grp.Post("/refund", Refund)
	grp.Get("/all", ListAll)
	grp.Get("/booking/:bookingId", ListForBooking)
	grp.Get("/status/:id", GetStatus)
	return app
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedUser(t *testing.T, username string, role user.Role) *user.User {
	t.Helper()
	u := &user.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
		Role:     role,
	}
	require.NoError(t, storage.DB.Create(u).Error)
	return u
}

func seedBooking(t *testing.T, u *user.User, status booking.Status, amount float64) *booking.Booking {
	t.Helper()
	now := time.Now().UTC().Truncate(24 * time.Hour)
	p := &catalog.Package{
		Title:         "Goa Getaway",
		Destination:   "Goa",
		DurationDays:  5,
		Price:         amount / 2,
		MaxTravelers:  10,
		AvailableFrom: now,
		AvailableTo:   now.AddDate(1, 0, 0),
		IsActive:      true,
	}
	require.NoError(t, storage.DB.Create(p).Error)

	b := &booking.Booking{
		UserID:            u.ID,
		PackageID:         p.ID,
		BookingDate:       now.AddDate(0, 1, 0),
		NumberOfTravelers: 2,
		TotalAmount:       amount,
		Status:            status,
	}
	require.NoError(t, storage.DB.Create(b).Error)
	return b
}

func TestCreateOrderConvertsToPaise(t *testing.T) {
	setupDB(t)
	u := seedUser(t, "ravi", user.RoleEndUser)
	b := seedBooking(t, u, booking.StatusPending, 30000)

	app := newApp(u)
	resp, err := app.Test(jsonRequest("POST", "/api/payments/create-order", fiber.Map{
		"booking_id": b.ID,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, float64(3000000), body["amount"])
	assert.Equal(t, "INR", body["currency"])
	assert.NotEmpty(t, body["order_id"])

	var p Payment
	storage.DB.Where("booking_id = ?", b.ID).First(&p)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, float64(30000), p.Amount)
}

func TestToPaiseRoundsFractionalAmounts(t *testing.T) {
	// 19.99*100 is 1998.999... in float64; truncation would lose a paisa
	assert.Equal(t, int64(1999), toPaise(19.99))
	assert.Equal(t, int64(1999998), toPaise(19999.98))
	assert.Equal(t, int64(3000000), toPaise(30000))
}

func TestCreateOrderReusesPendingRow(t *testing.T) {
	setupDB(t)
	u := seedUser(t, "ravi", user.RoleEndUser)
	b := seedBooking(t, u, booking.StatusPending, 30000)

	app := newApp(u)
	for i := 0; i < 2; i++ {
		resp, err := app.Test(jsonRequest("POST", "/api/payments/create-order", fiber.Map{
			"booking_id": b.ID,
		}))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var count int64
	storage.DB.Model(&Payment{}).Where("booking_id = ?", b.ID).Count(&count)
	assert.Equal(t, int64(1), count, "retry must not stack a second payment row")

	var p Payment
	storage.DB.Where("booking_id = ?", b.ID).First(&p)
	assert.Equal(t, "order_test_2", p.RazorpayOrderID)
}

func TestCreateOrderRejectsNonPendingBooking(t *testing.T) {
	setupDB(t)
	u := seedUser(t, "ravi", user.RoleEndUser)
	b := seedBooking(t, u, booking.StatusConfirmed, 30000)

	app := newApp(u)
	resp, err := app.Test(jsonRequest("POST", "/api/payments/create-order", fiber.Map{
		"booking_id": b.ID,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Booking is not in pending status", decode(t, resp)["error"])
}

func TestCreateOrderDeniedForOtherUsers(t *testing.T) {
	setupDB(t)
	owner := seedUser(t, "ravi", user.RoleEndUser)
	other := seedUser(t, "asha", user.RoleEndUser)
	b := seedBooking(t, owner, booking.StatusPending, 30000)

	app := newApp(other)
	resp, err := app.Test(jsonRequest("POST", "/api/payments/create-order", fiber.Map{
		"booking_id": b.ID,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func orderFor(t *testing.T, app *fiber.App, bookingID uint) string {
	t.Helper()
	resp, err := app.Test(jsonRequest("POST", "/api/payments/create-order", fiber.Map{
		"booking_id": bookingID,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode(t, resp)["order_id"].(string)
}

func TestVerifyBadSignatureLeavesStateUntouched(t *testing.T) {
	setupDB(t)
	u := seedUser(t, "ravi", user.RoleEndUser)
	b := seedBooking(t, u, booking.StatusPending, 30000)

	app := newApp(u)
	orderID := orderFor(t, app, b.ID)

	resp, err := app.Test(jsonRequest("POST", "/api/payments/verify", fiber.Map{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": "pay_test_1",
		"razorpay_signature":  "forged",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Payment verification failed", decode(t, resp)["error"])

	var stored booking.Booking
	storage.DB.First(&stored, b.ID)
	assert.Equal(t, booking.StatusPending, stored.Status)

	var p Payment
	storage.DB.Where("booking_id = ?", b.ID).First(&p)
	assert.Equal(t, StatusPending, p.Status)
	assert.Empty(t, p.RazorpayPaymentID)
}

func TestVerifyConfirmsBooking(t *testing.T) {
	setupDB(t)
	u := seedUser(t, "ravi", user.RoleEndUser)
	b := seedBooking(t, u, booking.StatusPending, 30000)

	app := newApp(u)
	orderID := orderFor(t, app, b.ID)

	resp, err := app.Test(jsonRequest("POST", "/api/payments/verify", fiber.Map{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": "pay_test_1",
		"razorpay_signature":  "good-signature",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stored booking.Booking
	storage.DB.First(&stored, b.ID)
	assert.Equal(t, booking.StatusConfirmed, stored.Status)

	var p Payment
	storage.DB.Where("booking_id = ?", b.ID).First(&p)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, "pay_test_1", p.RazorpayPaymentID)
	assert.Equal(t, "razorpay", p.PaymentMethod)
}

func TestVerifyRejectsReplay(t *testing.T) {
	setupDB(t)
	u := seedUser(t, "ravi", user.RoleEndUser)
	b := seedBooking(t, u, booking.StatusPending, 30000)

	app := newApp(u)
	orderID := orderFor(t, app, b.ID)

	payload := fiber.Map{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": "pay_test_1",
		"razorpay_signature":  "good-signature",
	}

	resp, err := app.Test(jsonRequest("POST", "/api/payments/verify", payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("POST", "/api/payments/verify", payload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Payment is not in pending status", decode(t, resp)["error"])
}

func TestRefundRequiresAdmin(t *testing.T) {
	setupDB(t)
	u := seedUser(t, "ravi", user.RoleEndUser)

	app := newApp(u)
	resp, err := app.Test(jsonRequest("POST", "/api/payments/refund", fiber.Map{
		"payment_id": 1,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRefundCancelsBooking(t *testing.T) {
	fake := setupDB(t)
	u := seedUser(t, "ravi", user.RoleEndUser)
	adminUser := seedUser(t, "admin", user.RoleAdmin)
	b := seedBooking(t, u, booking.StatusConfirmed, 30000)

	p := Payment{
		BookingID:         b.ID,
		RazorpayOrderID:   "order_test_1",
		RazorpayPaymentID: "pay_test_1",
		Amount:            30000,
		Currency:          "INR",
		Status:            StatusCompleted,
		PaymentMethod:     "razorpay",
	}
	require.NoError(t, storage.DB.Create(&p).Error)

	app := newApp(adminUser)
	resp, err := app.Test(jsonRequest("POST", "/api/payments/refund", fiber.Map{
		"payment_id": p.ID,
		"reason":     "trip withdrawn",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, fake.refunds)

	var storedPayment Payment
	storage.DB.First(&storedPayment, p.ID)
	assert.Equal(t, StatusRefunded, storedPayment.Status)

	var storedBooking booking.Booking
	storage.DB.First(&storedBooking, b.ID)
	assert.Equal(t, booking.StatusCancelled, storedBooking.Status)
}

func TestRefundRejectsNonCompletedPayment(t *testing.T) {
	setupDB(t)
	u := seedUser(t, "ravi", user.RoleEndUser)
	adminUser := seedUser(t, "admin", user.RoleAdmin)
	b := seedBooking(t, u, booking.StatusPending, 30000)

	p := Payment{BookingID: b.ID, RazorpayOrderID: "order_test_1", Amount: 30000, Status: StatusPending}
	require.NoError(t, storage.DB.Create(&p).Error)

	app := newApp(adminUser)
	resp, err := app.Test(jsonRequest("POST", "/api/payments/refund", fiber.Map{
		"payment_id": p.ID,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Payment is not completed", decode(t, resp)["error"])
}
