package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atalanta-ac/storefront/internal/domain/checkout"
)

func testLines() []checkout.SessionLineItem {
	return []checkout.SessionLineItem{
		{
			Name:         "Trail Runner",
			Image:        "https://cdn.example.com/shoe.jpg",
			Slug:         "trail-runner",
			SelectedSize: "9",
			UnitAmount:   8995,
			Quantity:     2,
		},
	}
}

func TestCreateSession(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/stripe/create-checkout-session", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"sessionId":    "cs_123",
			"clientSecret": "cs_123_secret",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test"})

	sess, err := client.CreateSession(context.Background(), testLines(), nil)
	require.NoError(t, err)
	assert.Equal(t, "cs_123", sess.ID)
	assert.Equal(t, "cs_123_secret", sess.ClientSecret)

	// Request carries the normalized line item shape.
	lineItems, ok := gotBody["line_items"].([]any)
	require.True(t, ok)
	require.Len(t, lineItems, 1)
	first := lineItems[0].(map[string]any)
	priceData := first["price_data"].(map[string]any)
	assert.EqualValues(t, 8995, priceData["unit_amount"])
	productData := priceData["product_data"].(map[string]any)
	metadata := productData["metadata"].(map[string]any)
	assert.Equal(t, "trail-runner", metadata["slug"])
	assert.Equal(t, "9", metadata["selectedSize"])
	assert.Nil(t, gotBody["customer"], "guest checkout sends null customer")
}

func TestCreateSession_WithCustomer(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]string{"sessionId": "cs_1", "clientSecret": "sec"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	addr := checkout.ShippingAddress{
		FirstName: "Ada", LastName: "Lovelace",
		Address: "12 Analytical Way", City: "London",
		State: "LDN", PostalCode: "N1 9GU", Country: "GB",
	}

	_, err := client.CreateSession(context.Background(), testLines(), &addr)
	require.NoError(t, err)

	customer := gotBody["customer"].(map[string]any)
	assert.Equal(t, "Ada Lovelace", customer["name"])
	address := customer["address"].(map[string]any)
	assert.Equal(t, "12 Analytical Way", address["line1"])
	assert.Equal(t, "GB", address["country"])
}

func TestCreateSession_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "session creation refused", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})

	_, err := client.CreateSession(context.Background(), testLines(), nil)
	require.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "502")
}

func TestRetrieveSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stripe/retrieve-checkout-session", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cs_123", req["session_id"])

		_, _ = w.Write([]byte(`{
			"status": "complete",
			"customer_name": "Ada Lovelace",
			"customer_email": "ada@example.com",
			"shipping_address": {
				"name": "Ada Lovelace",
				"address": {"line1":"12 Analytical Way","city":"London","state":"LDN","postal_code":"N1 9GU","country":"GB"}
			},
			"order_date": 1735689600,
			"order_details": {
				"line_items": [{"description":"Trail Runner","quantity":2,"price":89.95,"image":"https://cdn.example.com/shoe.jpg"}],
				"shipping_cost": 5.00,
				"tax": 14.39,
				"total_price": 199.29
			},
			"clear_cart": true
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})

	order, err := client.RetrieveSession(context.Background(), "cs_123")
	require.NoError(t, err)
	assert.Equal(t, "complete", order.Status)
	assert.Equal(t, "Ada Lovelace", order.ShippingName)
	assert.Equal(t, "London", order.ShippingAddress.City)
	assert.EqualValues(t, 1735689600, order.PlacedAt)
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, 2, order.LineItems[0].Quantity)
	assert.Equal(t, "199.29", order.Total.String())
	assert.True(t, order.ClearCart)
}

func TestRetrieveSession_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": `))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})

	_, err := client.RetrieveSession(context.Background(), "cs_123")
	require.ErrorIs(t, err, ErrRemote)
}
