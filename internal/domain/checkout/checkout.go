// Package checkout holds the shipping/payment context gathered across the
// checkout screens and sequences the multi-step flow against the payment
// collaborator.
package checkout

import (
	"github.com/go-faster/errors"
)

// Method identifies a payment method the shopper can pick. The set is small
// and fixed; the value is stored verbatim as the session preference.
type Method string

const (
	MethodStripe Method = "stripe"
	MethodPayPal Method = "paypal"
)

// ValidMethod reports whether m is one of the supported methods.
func ValidMethod(m Method) bool {
	switch m {
	case MethodStripe, MethodPayPal:
		return true
	}
	return false
}

// ShippingAddress is the destination gathered on the shipping screen. Only
// AddressCont and Phone are optional.
type ShippingAddress struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address     string `json:"address"`
	AddressCont string `json:"addressCont,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	Phone       string `json:"phone,omitempty"`
}

// Complete reports whether every required field is present. The flow may not
// proceed past the shipping step until this holds.
func (a ShippingAddress) Complete() bool {
	return a.FirstName != "" &&
		a.LastName != "" &&
		a.Address != "" &&
		a.City != "" &&
		a.State != "" &&
		a.PostalCode != "" &&
		a.Country != ""
}

// Session is the opaque handle the payment collaborator issues for one
// checkout. Both fields are required to render the embedded payment widget;
// neither is ever persisted.
type Session struct {
	ID           string
	ClientSecret string
}

// Stage enumerates the checkout sequence. Stages are ordered; a shopper may
// only enter a stage once every earlier stage's data exists.
type Stage int

const (
	StageCart Stage = iota
	StageShipping
	StagePayment
	StagePlaceOrder
	StageConfirmed
)

// String returns the navigation path fragment for the stage, matching the
// storefront routes.
func (s Stage) String() string {
	switch s {
	case StageCart:
		return "cart"
	case StageShipping:
		return "shipping"
	case StagePayment:
		return "payment"
	case StagePlaceOrder:
		return "placeorder"
	case StageConfirmed:
		return "confirmed"
	}
	return "unknown"
}

// Snapshot is the state the stage guards evaluate: what the shopper has
// completed so far.
type Snapshot struct {
	CartEmpty       bool
	ShippingPresent bool
	MethodSelected  bool
}

// Guard decides whether the shopper may enter target. When the prerequisite
// data is missing it returns the earliest stage that still needs input and
// ok=false; the caller redirects there instead of raising an error.
func Guard(target Stage, snap Snapshot) (redirect Stage, ok bool) {
	// An empty cart bars every stage past the cart view.
	if target > StageCart && snap.CartEmpty {
		return StageCart, false
	}
	if target > StageShipping && !snap.ShippingPresent {
		return StageShipping, false
	}
	if target > StagePayment && !snap.MethodSelected {
		return StagePayment, false
	}
	return target, true
}

// Sentinel errors of the orchestration flow.
var (
	// ErrEmptyCart rejects session creation before any remote call is made.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrIncompleteSession means the collaborator responded without a session
	// id or client secret; the shopper is routed back to the cart.
	ErrIncompleteSession = errors.New("payment session missing id or client secret")
)
