package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderLine is one row of the order confirmation.
type OrderLine struct {
	Name     string
	Quantity int
	Total    decimal.Decimal
}

// OrderSummary carries what the confirmation email shows.
type OrderSummary struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Lines         []OrderLine
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Shipping      decimal.Decimal
	Total         decimal.Decimal
	Currency      string
}

// Notifier renders the store's transactional emails and hands them to a Sender.
type Notifier struct {
	sender    Sender
	storeName string
}

func NewNotifier(sender Sender, storeName string) *Notifier {
	return &Notifier{sender: sender, storeName: storeName}
}

func (n *Notifier) OrderConfirmed(ctx context.Context, s OrderSummary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nThank you for your order %s.\n\n", s.CustomerName, s.OrderNumber)
	for _, l := range s.Lines {
		fmt.Fprintf(&b, "%d x %s  %s %s\n", l.Quantity, l.Name, l.Total.StringFixed(2), s.Currency)
	}
	fmt.Fprintf(&b, "\nSubtotal: %s %s\n", s.Subtotal.StringFixed(2), s.Currency)
	if s.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -%s %s\n", s.Discount.StringFixed(2), s.Currency)
	}
	if s.Shipping.IsZero() {
		b.WriteString("Shipping: free\n")
	} else {
		fmt.Fprintf(&b, "Shipping: %s %s\n", s.Shipping.StringFixed(2), s.Currency)
	}
	fmt.Fprintf(&b, "Total: %s %s\n\n%s", s.Total.StringFixed(2), s.Currency, n.storeName)

	return n.sender.Send(ctx, Message{
		To:      s.CustomerEmail,
		ToName:  s.CustomerName,
		Subject: fmt.Sprintf("%s - order %s received", n.storeName, s.OrderNumber),
		Text:    b.String(),
	})
}

func (n *Notifier) OrderShipped(ctx context.Context, to, name, orderNumber, trackingNumber string) error {
	text := fmt.Sprintf("Hello %s,\n\nYour order %s has been shipped.\nTracking number: %s\n\n%s",
		name, orderNumber, trackingNumber, n.storeName)
	return n.sender.Send(ctx, Message{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("%s - order %s shipped", n.storeName, orderNumber),
		Text:    text,
	})
}

func (n *Notifier) QuoteAnswered(ctx context.Context, to, name, reply string) error {
	text := fmt.Sprintf("Hello %s,\n\n%s\n\n%s", name, reply, n.storeName)
	return n.sender.Send(ctx, Message{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("%s - your quote request", n.storeName),
		Text:    text,
	})
}
