package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"staylane/internal/app/policies"
	"staylane/internal/domain/payment"
	"staylane/internal/domain/shared/money"
)

// Client creates and reads embedded Checkout sessions.
type Client struct {
	api    *client.API
	logger *slog.Logger
}

func New(secretKey string, logger *slog.Logger) (*Client, error) {
	return NewWithBackends(secretKey, NoRetryBackends(nil), logger)
}

// NoRetryBackends builds SDK backends from cfg with network retries off.
// Provider failures surface to the caller as they happen.
func NoRetryBackends(cfg *stripego.BackendConfig) *stripego.Backends {
	base := stripego.BackendConfig{}
	if cfg != nil {
		base = *cfg
	}
	base.MaxNetworkRetries = stripego.Int64(0)
	build := func(t stripego.SupportedBackend) stripego.Backend {
		c := base
		return stripego.GetBackendWithConfig(t, &c)
	}
	return &stripego.Backends{
		API:     build(stripego.APIBackend),
		Connect: build(stripego.ConnectBackend),
		Uploads: build(stripego.UploadsBackend),
	}
}

// NewWithBackends lets tests point the SDK at a local server.
func NewWithBackends(secretKey string, backends *stripego.Backends, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Client{api: api, logger: logger}, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	item := req.LineItem
	quantity := item.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	product := &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripego.String(item.Name),
	}
	if item.Description != "" {
		product.Description = stripego.String(item.Description)
	}
	if item.Image != "" {
		product.Images = []*string{stripego.String(item.Image)}
	}
	params := &stripego.CheckoutSessionParams{
		UIMode:    stripego.String(string(stripego.CheckoutSessionUIModeEmbedded)),
		Mode:      stripego.String(string(stripego.CheckoutSessionModePayment)),
		ReturnURL: stripego.String(req.ReturnURL),
		LineItems: []*stripego.CheckoutSessionLineItemParams{{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripego.String(strings.ToLower(item.Amount.Currency)),
				UnitAmount:  stripego.Int64(item.Amount.Amount),
				ProductData: product,
			},
			Quantity: stripego.Int64(quantity),
		}},
	}
	for k, v := range req.Metadata.Map() {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("stripe checkout session created", "session_id", s.ID, "booking_id", req.Metadata.BookingID)
	}
	return toSession(s), nil
}

func (c *Client) RetrieveSession(ctx context.Context, id payment.SessionID) (*payment.Session, error) {
	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx
	s, err := c.api.CheckoutSessions.Get(string(id), params)
	if err != nil {
		var stripeErr *stripego.Error
		if errors.As(err, &stripeErr) && (stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripego.ErrorCodeResourceMissing) {
			return nil, fmt.Errorf("%w: %s", payment.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("stripe: retrieve checkout session: %w", err)
	}
	return toSession(s), nil
}

func toSession(s *stripego.CheckoutSession) *payment.Session {
	out := &payment.Session{
		ID:           payment.SessionID(s.ID),
		Status:       payment.Status(s.Status),
		Metadata:     s.Metadata,
		ClientSecret: s.ClientSecret,
		URL:          s.URL,
	}
	if amount, err := money.New(s.AmountTotal, string(s.Currency)); err == nil {
		out.AmountTotal = amount
	}
	return out
}

var _ policies.PaymentsPort = (*Client)(nil)
