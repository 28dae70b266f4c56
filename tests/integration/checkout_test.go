//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// The compose file points the payment backend at an unreachable address, so
// these tests cover the stage guards and the remote-failure path. The happy
// path against a live payment collaborator is covered in handler unit tests.

func TestCheckout_ShippingRequiresNonEmptyCart(t *testing.T) {
	resetSession(t)

	resp := doPut(t, "/api/checkout/shipping", shippingAddress{
		FirstName: "Ada", LastName: "Lovelace",
		Address: "12 Analytical Way", City: "London",
		State: "LDN", PostalCode: "N1 9GU", Country: "GB",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/cart" {
		t.Errorf("Location: got %q, want /cart", loc)
	}

	body := decodeJSON[redirectResponse](t, resp)
	if body.Step != "cart" {
		t.Errorf("step: got %q, want cart", body.Step)
	}
}

func TestCheckout_PaymentRequiresShipping(t *testing.T) {
	resetSession(t)

	resp := doPost(t, "/api/cart/items", addItemRequest{
		VariantID: "prod-linen-top-001", SelectedSize: "M", Quantity: 1,
	})
	resp.Body.Close()

	resp = doPut(t, "/api/checkout/payment-method", map[string]string{"method": "stripe"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/shipping" {
		t.Errorf("Location: got %q, want /shipping", loc)
	}
}

func TestCheckout_ShippingRoundTrip(t *testing.T) {
	resetSession(t)

	resp := doPost(t, "/api/cart/items", addItemRequest{
		VariantID: "prod-linen-top-001", SelectedSize: "M", Quantity: 1,
	})
	resp.Body.Close()

	addr := shippingAddress{
		FirstName: "Grace", LastName: "Hopper",
		Address: "1 Harbor St", City: "Arlington",
		State: "VA", PostalCode: "22201", Country: "US",
	}
	resp = doPut(t, "/api/checkout/shipping", addr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save shipping: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doGet(t, "/api/checkout/shipping")
	defer resp.Body.Close()

	got := decodeJSON[shippingAddress](t, resp)
	if got != addr {
		t.Errorf("shipping address round trip: got %+v, want %+v", got, addr)
	}
}

func TestCheckout_SessionWithEmptyCartRedirects(t *testing.T) {
	resetSession(t)

	resp := doPost(t, "/api/checkout/session", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/cart" {
		t.Errorf("Location: got %q, want /cart", loc)
	}
}

func TestCheckout_SessionRemoteFailure(t *testing.T) {
	resetSession(t)

	resp := doPost(t, "/api/cart/items", addItemRequest{
		VariantID: "prod-linen-top-001", SelectedSize: "M", Quantity: 1,
	})
	resp.Body.Close()

	resp = doPut(t, "/api/checkout/shipping", shippingAddress{
		FirstName: "Ada", LastName: "Lovelace",
		Address: "12 Analytical Way", City: "London",
		State: "LDN", PostalCode: "N1 9GU", Country: "GB",
	})
	resp.Body.Close()

	resp = doPut(t, "/api/checkout/payment-method", map[string]string{"method": "stripe"})
	resp.Body.Close()

	// The payment backend address in the compose file is unreachable.
	resp = doPost(t, "/api/checkout/session", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Message == "" {
		t.Error("error message missing")
	}
}

func TestCheckout_UnsupportedPaymentMethod(t *testing.T) {
	resetSession(t)

	resp := doPost(t, "/api/cart/items", addItemRequest{
		VariantID: "prod-linen-top-001", SelectedSize: "M", Quantity: 1,
	})
	resp.Body.Close()

	resp = doPut(t, "/api/checkout/shipping", shippingAddress{
		FirstName: "Ada", LastName: "Lovelace",
		Address: "12 Analytical Way", City: "London",
		State: "LDN", PostalCode: "N1 9GU", Country: "GB",
	})
	resp.Body.Close()

	resp = doPut(t, "/api/checkout/payment-method", map[string]string{"method": "barter"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
