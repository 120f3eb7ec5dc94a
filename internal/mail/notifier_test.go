package mail

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestOrderConfirmed(t *testing.T) {
	rec := &recordingSender{}
	n := NewNotifier(rec, "Hank")

	err := n.OrderConfirmed(context.Background(), OrderSummary{
		OrderNumber:   "ORD-20260101-ABC123",
		CustomerName:  "Ayse",
		CustomerEmail: "ayse@example.com",
		Lines:         []OrderLine{{Name: "Collar", Quantity: 2, Total: decimal.NewFromInt(3000)}},
		Subtotal:      decimal.NewFromInt(3000),
		Discount:      decimal.NewFromInt(300),
		Shipping:      decimal.Zero,
		Total:         decimal.NewFromInt(2700),
		Currency:      "TL",
	})
	require.NoError(t, err)
	require.Len(t, rec.sent, 1)

	msg := rec.sent[0]
	assert.Equal(t, "ayse@example.com", msg.To)
	assert.Contains(t, msg.Subject, "ORD-20260101-ABC123")
	assert.Contains(t, msg.Text, "2 x Collar  3000.00 TL")
	assert.Contains(t, msg.Text, "Discount: -300.00 TL")
	assert.Contains(t, msg.Text, "Shipping: free")
	assert.Contains(t, msg.Text, "Total: 2700.00 TL")
}

func TestOrderShipped_NoRecipient(t *testing.T) {
	n := NewNotifier(&recordingSender{}, "Hank")
	err := n.OrderShipped(context.Background(), "", "x", "ORD-1", "TRK")
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSendGridSender_RequiresKey(t *testing.T) {
	s := NewSendGridSender("", "from@example.com", "Hank")
	err := s.Send(context.Background(), Message{To: "to@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is empty")
}
