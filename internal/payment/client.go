// Package payment is the thin request/response boundary to the hosted payment
// processor. It creates checkout sessions and retrieves their order details;
// everything else about payment collection happens inside the processor's
// embedded widget, which consumes only the client secret.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/atalanta-ac/storefront/internal/domain/checkout"
)

// Compile-time check ensuring Client satisfies the flow's collaborator contract.
var _ checkout.SessionClient = (*Client)(nil)

// ErrRemote wraps any transport or non-2xx failure from the processor. The
// flow converts it into a user-visible notification and halts; it is never
// retried automatically.
var ErrRemote = errors.New("payment processor")

// Config holds the processor endpoint settings.
type Config struct {
	// BaseURL is the processor API root, e.g. https://api.example.com.
	BaseURL string
	// SecretKey authenticates server-side calls. Optional for processors
	// fronted by a trusted gateway.
	SecretKey string
	// Timeout bounds each request. Zero means 15s.
	Timeout time.Duration
}

// Client calls the processor over HTTP with an otel-instrumented transport.
type Client struct {
	base   string
	secret string
	http   *http.Client
}

// NewClient creates a Client for the given processor endpoint.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		secret: cfg.SecretKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Wire types. Field names follow the processor's API.

type lineItemJSON struct {
	PriceData priceDataJSON `json:"price_data"`
	Quantity  int           `json:"quantity"`
}

type priceDataJSON struct {
	Currency    string          `json:"currency"`
	ProductData productDataJSON `json:"product_data"`
	UnitAmount  int64           `json:"unit_amount"`
}

type productDataJSON struct {
	Name     string       `json:"name"`
	Images   []string     `json:"images"`
	Metadata metadataJSON `json:"metadata"`
}

type metadataJSON struct {
	Slug         string `json:"slug"`
	SelectedSize string `json:"selectedSize"`
}

type createSessionRequest struct {
	LineItems []lineItemJSON `json:"line_items"`
	Customer  any            `json:"customer"`
}

type createSessionResponse struct {
	SessionID    string `json:"sessionId"`
	ClientSecret string `json:"clientSecret"`
}

type retrieveSessionRequest struct {
	SessionID string `json:"session_id"`
}

type addressJSON struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type retrieveSessionResponse struct {
	Status          string `json:"status"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	ShippingAddress struct {
		Name    string      `json:"name"`
		Address addressJSON `json:"address"`
	} `json:"shipping_address"`
	OrderDate    int64 `json:"order_date"`
	OrderDetails struct {
		LineItems []struct {
			Description string          `json:"description"`
			Quantity    int             `json:"quantity"`
			Price       decimal.Decimal `json:"price"`
			Image       string          `json:"image,omitempty"`
		} `json:"line_items"`
		ShippingCost decimal.Decimal `json:"shipping_cost"`
		Tax          decimal.Decimal `json:"tax"`
		TotalPrice   decimal.Decimal `json:"total_price"`
	} `json:"order_details"`
	ClearCart bool `json:"clear_cart"`
}

// CreateSession asks the processor for a new embedded-checkout session for
// the given normalized lines. Customer may be nil for guest checkout.
func (c *Client) CreateSession(ctx context.Context, lines []checkout.SessionLineItem, customer *checkout.ShippingAddress) (*checkout.Session, error) {
	req := createSessionRequest{
		LineItems: make([]lineItemJSON, len(lines)),
	}
	for i, l := range lines {
		req.LineItems[i] = lineItemJSON{
			PriceData: priceDataJSON{
				Currency: "usd",
				ProductData: productDataJSON{
					Name:   l.Name,
					Images: []string{l.Image},
					Metadata: metadataJSON{
						Slug:         l.Slug,
						SelectedSize: l.SelectedSize,
					},
				},
				UnitAmount: l.UnitAmount,
			},
			Quantity: l.Quantity,
		}
	}
	if customer != nil {
		req.Customer = map[string]any{
			"name": customer.FirstName + " " + customer.LastName,
			"address": addressJSON{
				Line1:      customer.Address,
				Line2:      customer.AddressCont,
				City:       customer.City,
				State:      customer.State,
				PostalCode: customer.PostalCode,
				Country:    customer.Country,
			},
		}
	}

	var resp createSessionResponse
	if err := c.post(ctx, "/stripe/create-checkout-session", req, &resp); err != nil {
		return nil, err
	}
	return &checkout.Session{ID: resp.SessionID, ClientSecret: resp.ClientSecret}, nil
}

// RetrieveSession looks up the order details behind a checkout session.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*checkout.Order, error) {
	var resp retrieveSessionResponse
	err := c.post(ctx, "/stripe/retrieve-checkout-session", retrieveSessionRequest{SessionID: sessionID}, &resp)
	if err != nil {
		return nil, err
	}

	order := &checkout.Order{
		Status:        resp.Status,
		CustomerName:  resp.CustomerName,
		CustomerEmail: resp.CustomerEmail,
		ShippingName:  resp.ShippingAddress.Name,
		ShippingAddress: checkout.ShippingAddress{
			Address:     resp.ShippingAddress.Address.Line1,
			AddressCont: resp.ShippingAddress.Address.Line2,
			City:        resp.ShippingAddress.Address.City,
			State:       resp.ShippingAddress.Address.State,
			PostalCode:  resp.ShippingAddress.Address.PostalCode,
			Country:     resp.ShippingAddress.Address.Country,
		},
		PlacedAt:     resp.OrderDate,
		ShippingCost: resp.OrderDetails.ShippingCost,
		Tax:          resp.OrderDetails.Tax,
		Total:        resp.OrderDetails.TotalPrice,
		ClearCart:    resp.ClearCart,
	}
	for _, li := range resp.OrderDetails.LineItems {
		order.LineItems = append(order.LineItems, checkout.OrderLineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			Price:       li.Price,
			Image:       li.Image,
		})
	}
	return order, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(ErrRemote, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Bounded read: error bodies are informational only.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Wrapf(ErrRemote, "%s: %d %s", path, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(ErrRemote, "decode response: %s", err.Error())
	}
	return nil
}
