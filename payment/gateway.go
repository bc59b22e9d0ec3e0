package payment

import (
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// PaymentGateway abstracts the external payment provider: order creation,
// callback signature verification and refunds. Amounts are in the gateway's
// minor unit (paise).
type PaymentGateway interface {
	CreateOrder(amount int64, currency, receipt string, notes map[string]interface{}) (orderID string, err error)
	VerifySignature(orderID, paymentID, signature string) bool
	Refund(paymentID string, amount int64, notes map[string]interface{}) (refundID string, err error)
}

// Gateway is set at startup; payment endpoints fail cleanly when unset.
var Gateway PaymentGateway

var errGatewayResponse = errors.New("unexpected gateway response")

type razorpayGateway struct {
	client *razorpay.Client
	secret string
}

// NewRazorpayGateway wraps the Razorpay SDK in the PaymentGateway interface.
func NewRazorpayGateway(keyID, keySecret string) PaymentGateway {
	return &razorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		secret: keySecret,
	}
}

func (g *razorpayGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", err
	}

	id, ok := order["id"].(string)
	if !ok {
		return "", errGatewayResponse
	}
	return id, nil
}

func (g *razorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, signature, g.secret)
}

func (g *razorpayGateway) Refund(paymentID string, amount int64, notes map[string]interface{}) (string, error) {
	data := map[string]interface{}{
		"notes": notes,
	}

	refund, err := g.client.Payment.Refund(paymentID, int(amount), data, nil)
	if err != nil {
		return "", err
	}

	id, ok := refund["id"].(string)
	if !ok {
		return "", fmt.Errorf("refund for %s: %w", paymentID, errGatewayResponse)
	}
	return id, nil
}
