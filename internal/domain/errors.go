package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
)

// Kind groups engine failures by how callers are expected to react.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindStock
	KindState
	KindUpstream
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStock:
		return "stock"
	case KindState:
		return "state"
	case KindUpstream:
		return "upstream"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by cart, checkout and order operations.
// Two errors match with errors.Is when their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Available is the quantity actually in stock for stock failures.
	Available int
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalidQuantity         = &Error{Kind: KindValidation, Code: "InvalidQuantity", Message: "quantity must be at least 1"}
	ErrInvalidDiscountCode     = &Error{Kind: KindValidation, Code: "InvalidDiscountCode", Message: "discount code is invalid or expired"}
	ErrNoAddressSelected       = &Error{Kind: KindValidation, Code: "NoAddressSelected", Message: "select a shipping address first"}
	ErrNoPaymentMethodSelected = &Error{Kind: KindValidation, Code: "NoPaymentMethodSelected", Message: "select a payment method first"}
	ErrInvalidPaymentMethod    = &Error{Kind: KindValidation, Code: "InvalidPaymentMethod", Message: "unsupported payment method"}
	ErrEmptyCart               = &Error{Kind: KindValidation, Code: "EmptyCart", Message: "cart is empty"}

	ErrItemNotFound    = &Error{Kind: KindNotFound, Code: "ItemNotFound", Message: "cart item not found"}
	ErrOrderNotFound   = &Error{Kind: KindNotFound, Code: "OrderNotFound", Message: "order not found"}
	ErrAddressNotFound = &Error{Kind: KindNotFound, Code: "AddressNotFound", Message: "address not found"}
	ErrVariantNotFound = &Error{Kind: KindNotFound, Code: "VariantNotFound", Message: "product variant not found"}

	ErrOutOfStock        = &Error{Kind: KindStock, Code: "OutOfStock", Message: "product variant is out of stock"}
	ErrInsufficientStock = &Error{Kind: KindStock, Code: "InsufficientStock", Message: "requested quantity exceeds available stock"}

	ErrOrderNotCancellable = &Error{Kind: KindState, Code: "OrderNotCancellable", Message: "order can no longer be cancelled"}
	ErrInvalidTransition   = &Error{Kind: KindState, Code: "InvalidTransition", Message: "status transition not allowed"}
	ErrCheckoutCompleted   = &Error{Kind: KindState, Code: "CheckoutCompleted", Message: "checkout already placed an order"}
	ErrInvalidStep         = &Error{Kind: KindState, Code: "InvalidStep", Message: "checkout step not reachable"}

	ErrSessionExpired = &Error{Kind: KindSession, Code: "SessionExpired", Message: "session expired"}
	ErrUpstream       = &Error{Kind: KindUpstream, Code: "Upstream", Message: "upstream call failed"}
)

// InsufficientStock reports a quantity request above what is available.
func InsufficientStock(available int) error {
	return &Error{
		Kind:      KindStock,
		Code:      ErrInsufficientStock.Code,
		Message:   fmt.Sprintf("only %d left in stock", available),
		Available: available,
	}
}

// OutOfStock reports a variant with nothing left.
func OutOfStock() error {
	return &Error{Kind: KindStock, Code: ErrOutOfStock.Code, Message: ErrOutOfStock.Message}
}

// Upstream wraps a failed call to a collaborator (stock, discount, persistence).
func Upstream(op string, err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: KindUpstream, Code: ErrUpstream.Code, Message: op, Err: err}
}

// KindOf returns the kind of a typed error, or zero for anything else.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return 0
}
