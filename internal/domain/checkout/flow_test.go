package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atalanta-ac/storefront/internal/domain/cart"
	"github.com/atalanta-ac/storefront/internal/storage/memory"
)

// --- Mock implementations ---

type mockSessionClient struct {
	session   *Session
	order     *Order
	err       error
	createUps int
	lastLines []SessionLineItem
	lastCust  *ShippingAddress
}

func (m *mockSessionClient) CreateSession(_ context.Context, lines []SessionLineItem, customer *ShippingAddress) (*Session, error) {
	m.createUps++
	m.lastLines = lines
	m.lastCust = customer
	return m.session, m.err
}

func (m *mockSessionClient) RetrieveSession(_ context.Context, _ string) (*Order, error) {
	return m.order, m.err
}

// --- Helpers ---

func cartWith(t *testing.T, items ...cart.LineItem) *cart.Container {
	t.Helper()
	c, err := cart.Open(context.Background(), memory.New(), "cart:flow-test")
	require.NoError(t, err)
	for _, it := range items {
		require.NoError(t, c.AddOrUpdate(context.Background(), it))
	}
	return c
}

func flowLine(variantID, size string, qty int, price string) cart.LineItem {
	return cart.LineItem{
		VariantID:    variantID,
		Name:         "Product " + variantID,
		Slug:         "product-" + variantID,
		Image:        "https://cdn.example.com/" + variantID + ".jpg",
		Price:        decimal.RequireFromString(price),
		Quantity:     qty,
		SelectedSize: size,
	}
}

// --- Tests ---

func TestInitiateSession_EmptyCartSkipsRemoteCall(t *testing.T) {
	client := &mockSessionClient{}
	flow := NewFlow(client)

	_, err := flow.InitiateSession(context.Background(), nil, nil)

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, client.createUps, "remote endpoint must not be called")
}

func TestInitiateSession_NormalizesLineItems(t *testing.T) {
	client := &mockSessionClient{session: &Session{ID: "cs_1", ClientSecret: "secret_1"}}
	flow := NewFlow(client)

	addr := testAddress()
	items := []cart.LineItem{
		flowLine("a", "M", 3, "20.00"),
		flowLine("b", "9.5", 1, "89.95"),
	}

	sess, err := flow.InitiateSession(context.Background(), items, &addr)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, "secret_1", sess.ClientSecret)

	require.Len(t, client.lastLines, 2)
	assert.Equal(t, SessionLineItem{
		Name:         "Product a",
		Image:        "https://cdn.example.com/a.jpg",
		Slug:         "product-a",
		SelectedSize: "M",
		UnitAmount:   2000,
		Quantity:     3,
	}, client.lastLines[0])
	assert.EqualValues(t, 8995, client.lastLines[1].UnitAmount)
	require.NotNil(t, client.lastCust)
	assert.Equal(t, addr, *client.lastCust)
}

func TestInitiateSession_NilCustomerPassedThrough(t *testing.T) {
	client := &mockSessionClient{session: &Session{ID: "cs_1", ClientSecret: "secret_1"}}
	flow := NewFlow(client)

	_, err := flow.InitiateSession(context.Background(), []cart.LineItem{flowLine("a", "M", 1, "5.00")}, nil)
	require.NoError(t, err)
	assert.Nil(t, client.lastCust)
}

func TestInitiateSession_MissingFieldsFail(t *testing.T) {
	tests := []struct {
		name string
		sess *Session
	}{
		{"missing client secret", &Session{ID: "cs_1"}},
		{"missing session id", &Session{ClientSecret: "secret_1"}},
		{"both missing", &Session{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := NewFlow(&mockSessionClient{session: tt.sess})

			_, err := flow.InitiateSession(context.Background(), []cart.LineItem{flowLine("a", "M", 1, "5.00")}, nil)
			require.ErrorIs(t, err, ErrIncompleteSession)
		})
	}
}

func TestInitiateSession_RemoteFailureHaltsFlow(t *testing.T) {
	flow := NewFlow(&mockSessionClient{err: errors.New("upstream 502")})

	_, err := flow.InitiateSession(context.Background(), []cart.LineItem{flowLine("a", "M", 1, "5.00")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create checkout session")
}

func TestConfirmOrder_ClearSignalEmptiesCart(t *testing.T) {
	c := cartWith(t, flowLine("a", "M", 2, "20.00"))
	flow := NewFlow(&mockSessionClient{order: &Order{Status: "complete", ClearCart: true}})

	order, err := flow.ConfirmOrder(context.Background(), c, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "complete", order.Status)
	assert.True(t, c.Empty())
}

func TestConfirmOrder_NoSignalKeepsCart(t *testing.T) {
	c := cartWith(t, flowLine("a", "M", 2, "20.00"))
	flow := NewFlow(&mockSessionClient{order: &Order{Status: "open"}})

	_, err := flow.ConfirmOrder(context.Background(), c, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestConfirmOrder_RemoteFailure(t *testing.T) {
	c := cartWith(t, flowLine("a", "M", 2, "20.00"))
	flow := NewFlow(&mockSessionClient{err: errors.New("timeout")})

	_, err := flow.ConfirmOrder(context.Background(), c, "cs_1")
	require.Error(t, err)
	assert.Equal(t, 1, c.Len(), "cart untouched on failure")
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		price string
		want  int64
	}{
		{"20.00", 2000},
		{"89.95", 8995},
		{"0.999", 100},
		{"0", 0},
		{"149.955", 14996},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, minorUnits(decimal.RequireFromString(tt.price)), "price %s", tt.price)
	}
}
