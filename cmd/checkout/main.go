// Command checkout walks one storefront checkout end to end against a
// running API: sign in, fill the cart, go through the contact and address
// steps, print the payment iframe URL and wait for the gateway callback.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/j1vetr/hank-sub000/internal/checkout"
	"github.com/j1vetr/hank-sub000/internal/logger"
)

func main() {
	var (
		apiURL    = flag.String("api", "http://localhost:8080", "storefront API base URL")
		email     = flag.String("email", "", "account email")
		password  = flag.String("password", "", "account password")
		productID = flag.Int("product", 0, "product to add to the cart before checkout")
		variantID = flag.Int("variant", 0, "variant of -product")
		quantity  = flag.Int("qty", 1, "quantity of -product")
		code      = flag.String("coupon", "", "coupon code")
		name      = flag.String("name", "", "customer name")
		phone     = flag.String("phone", "", "customer phone")
		addr      = flag.String("address", "", "street address")
		city      = flag.String("city", "", "city")
		district  = flag.String("district", "", "district")
		postal    = flag.String("postal", "", "postal code")
		timeout   = flag.Duration("wait", checkout.DefaultPollTimeout, "how long to wait for the payment")
		interval  = flag.Duration("poll-interval", checkout.DefaultPollInterval, "delay between status polls")
		level     = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	log := logger.New(*level)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	form := checkout.FormData{
		CustomerName:  *name,
		CustomerEmail: *email,
		CustomerPhone: *phone,
		Address:       *addr,
		City:          *city,
		District:      *district,
		PostalCode:    *postal,
	}
	var variant *int
	if *variantID > 0 {
		variant = variantID
	}
	err := run(ctx, log, checkout.NewClient(*apiURL, 15*time.Second), runOptions{
		email: *email, password: *password,
		productID: *productID, variantID: variant, quantity: *quantity,
		coupon: *code, form: form, wait: *timeout, interval: *interval,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "checkout:", err)
		os.Exit(1)
	}
}

type runOptions struct {
	email, password string
	productID       int
	variantID       *int
	quantity        int
	coupon          string
	form            checkout.FormData
	wait            time.Duration
	interval        time.Duration
}

func run(ctx context.Context, log *slog.Logger, api *checkout.Client, opts runOptions) error {
	if err := api.SignIn(ctx, opts.email, opts.password); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	if opts.productID > 0 {
		if _, err := api.AddToCart(ctx, opts.productID, opts.variantID, opts.quantity); err != nil {
			return fmt.Errorf("add to cart: %w", err)
		}
	}
	cart, err := api.Cart(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return errors.New("cart is empty")
	}
	policy, err := api.ShippingPolicy(ctx)
	if err != nil {
		log.Warn("using default shipping policy", "error", err)
		policy = checkout.DefaultShippingPolicy()
	}
	if saved, err := api.Addresses(ctx); err == nil {
		mainID, err := api.MainAddressID(ctx)
		if err != nil {
			log.Warn("could not read main address", "error", err)
		}
		if a, ok := checkout.PickAddress(saved, mainID); ok {
			opts.form.Prefill(a)
		}
	}

	w := checkout.NewWizard(api, api)
	if err := w.SetForm(opts.form); err != nil {
		return err
	}
	if opts.coupon != "" {
		c, err := w.ApplyCoupon(ctx, opts.coupon, cart.Subtotal)
		if err != nil {
			return fmt.Errorf("coupon %s: %w", opts.coupon, err)
		}
		log.Info("coupon applied", "code", c.Code)
	}

	sum := w.Summary(cart.Subtotal, policy)
	fmt.Printf("subtotal %s  discount %s  shipping %s  total %s\n",
		sum.Subtotal.StringFixed(2), sum.Discount.StringFixed(2), sum.Shipping.StringFixed(2), sum.Total.StringFixed(2))

	for w.Step() != checkout.StepPayment {
		if err := w.Next(ctx); err != nil {
			return fmt.Errorf("%s step: %w", w.Step(), err)
		}
	}
	sess, _ := w.Session()
	fmt.Println("open to pay:", sess.IframeURL)

	p := checkout.NewPoller(api)
	p.Timeout = opts.wait
	p.Interval = opts.interval
	p.Log = log
	number, err := w.AwaitPayment(ctx, p)
	if err != nil {
		return err
	}
	fmt.Println("order placed:", number)
	return nil
}
