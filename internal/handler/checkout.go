package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/atalanta-ac/storefront/internal/domain/checkout"
	"github.com/atalanta-ac/storefront/internal/payment"
)

type sessionResponse struct {
	SessionID    string `json:"sessionId"`
	ClientSecret string `json:"clientSecret"`
}

type orderLineItemResponse struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
}

type orderResponse struct {
	Status          string                   `json:"status"`
	CustomerName    string                   `json:"customerName"`
	CustomerEmail   string                   `json:"customerEmail"`
	ShippingName    string                   `json:"shippingName"`
	ShippingAddress checkout.ShippingAddress `json:"shippingAddress"`
	PlacedAt        int64                    `json:"placedAt"`
	LineItems       []orderLineItemResponse  `json:"lineItems"`
	ShippingCost    float64                  `json:"shippingCost"`
	Tax             float64                  `json:"tax"`
	Total           float64                  `json:"total"`
}

// guard verifies the prerequisites for entering target and, when unmet,
// answers with a corrective redirect. It reports whether the request may
// proceed.
func (h *Handler) guard(w http.ResponseWriter, r *http.Request, sessionID string, target checkout.Stage) bool {
	c, err := h.openCart(r.Context(), sessionID)
	if err != nil {
		writeInternal(w, r, err)
		return false
	}

	snap, err := h.openState(sessionID).Snapshot(r.Context(), c)
	if err != nil {
		writeInternal(w, r, err)
		return false
	}

	if redirect, ok := checkout.Guard(target, snap); !ok {
		redirectStage(w, redirect)
		return false
	}
	return true
}

// saveShipping validates the form fields (this is the form layer; the state
// container below assumes valid input) and stores the address wholesale.
func (h *Handler) saveShipping(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)
	if !h.guard(w, r, sessionID, checkout.StageShipping) {
		return
	}

	var addr checkout.ShippingAddress
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !addr.Complete() {
		writeError(w, http.StatusBadRequest, "all shipping fields except addressCont and phone are required")
		return
	}

	if err := h.openState(sessionID).SaveShippingAddress(r.Context(), addr); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (h *Handler) getShipping(w http.ResponseWriter, r *http.Request) {
	addr, ok, err := h.openState(h.session(w, r)).ShippingAddress(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no shipping address saved")
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (h *Handler) savePaymentMethod(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)
	if !h.guard(w, r, sessionID, checkout.StagePayment) {
		return
	}

	var req struct {
		Method checkout.Method `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !checkout.ValidMethod(req.Method) {
		writeError(w, http.StatusBadRequest, "unsupported payment method")
		return
	}

	if err := h.openState(sessionID).SavePaymentMethod(r.Context(), req.Method); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"method": string(req.Method)})
}

// createSession runs the place-order step: guards the full prerequisite
// chain, then asks the payment collaborator for an embedded-checkout session.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)
	if !h.guard(w, r, sessionID, checkout.StagePlaceOrder) {
		return
	}

	c, err := h.openCart(r.Context(), sessionID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	addr, ok, err := h.openState(sessionID).ShippingAddress(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	var customer *checkout.ShippingAddress
	if ok {
		customer = &addr
	}

	sess, err := h.flow.InitiateSession(r.Context(), c.Items(), customer)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			redirectStage(w, checkout.StageCart)
		case errors.Is(err, checkout.ErrIncompleteSession):
			// Treated as a failed session; the shopper retries from the cart.
			redirectStage(w, checkout.StageCart)
		case errors.Is(err, payment.ErrRemote):
			writeError(w, http.StatusBadGateway, "failed to create checkout session, please try again")
		default:
			writeInternal(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:    sess.ID,
		ClientSecret: sess.ClientSecret,
	})
}

// confirmOrder serves the confirmation view: it fetches the order behind the
// session and reconciles the local cart with the collaborator's clear-cart
// signal.
func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)

	checkoutSession := r.URL.Query().Get("session_id")
	if checkoutSession == "" {
		writeError(w, http.StatusBadRequest, "session_id query parameter required")
		return
	}

	c, err := h.openCart(r.Context(), sessionID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	order, err := h.flow.ConfirmOrder(r.Context(), c, checkoutSession)
	if err != nil {
		if errors.Is(err, payment.ErrRemote) {
			writeError(w, http.StatusBadGateway, "failed to load order details")
			return
		}
		writeInternal(w, r, err)
		return
	}

	resp := orderResponse{
		Status:          order.Status,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		ShippingName:    order.ShippingName,
		ShippingAddress: order.ShippingAddress,
		PlacedAt:        order.PlacedAt,
		ShippingCost:    order.ShippingCost.InexactFloat64(),
		Tax:             order.Tax.InexactFloat64(),
		Total:           order.Total.InexactFloat64(),
	}
	for _, li := range order.LineItems {
		resp.LineItems = append(resp.LineItems, orderLineItemResponse{
			Description: li.Description,
			Quantity:    li.Quantity,
			Price:       li.Price.InexactFloat64(),
			Image:       li.Image,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
