package domain

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipping   OrderStatus = "SHIPPING"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
	StatusReturned   OrderStatus = "RETURNED"
)

// DefaultCancelReason is recorded when a cancellation carries no reason.
const DefaultCancelReason = "Cancelled by customer"

// forward lists the transitions the fulfillment process may drive.
var forward = map[OrderStatus]OrderStatus{
	StatusPending:    StatusConfirmed,
	StatusConfirmed:  StatusProcessing,
	StatusProcessing: StatusShipping,
	StatusShipping:   StatusDelivered,
	StatusDelivered:  StatusReturned,
}

var statusLabels = map[OrderStatus]string{
	StatusPending:    "Order created",
	StatusConfirmed:  "Order confirmed",
	StatusProcessing: "Order is being prepared",
	StatusShipping:   "Order handed to carrier",
	StatusDelivered:  "Order delivered",
	StatusCancelled:  "Order cancelled",
	StatusReturned:   "Order returned",
}

// ParseOrderStatus accepts any casing of a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := statusLabels[st]
	return st, ok
}

func (s OrderStatus) Label() string {
	return statusLabels[s]
}

// Cancellable reports whether the customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentVNPay        PaymentMethod = "VNPAY"
	PaymentMoMo         PaymentMethod = "MOMO"
)

// ParsePaymentMethod validates a method against the supported set.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case PaymentCOD, PaymentBankTransfer, PaymentVNPay, PaymentMoMo:
		return m, true
	}
	return "", false
}

// Order is the snapshot taken when checkout is confirmed. Only status
// operations mutate it afterwards.
type Order struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	CustomerID      string          `json:"customerId"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Note            string          `json:"note,omitempty"`
	Subtotal        int64           `json:"subtotal"`
	DiscountCode    string          `json:"discountCode,omitempty"`
	Discount        int64           `json:"discount"`
	Shipping        int64           `json:"shipping"`
	Tax             int64           `json:"tax"`
	Total           int64           `json:"total"`
	Status          OrderStatus     `json:"status"`
	Timeline        []TimelineEntry `json:"timeline"`
	CancelReason    string          `json:"cancelReason,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is a price-frozen copy of a cart line.
type OrderItem struct {
	ProductID  string            `json:"productId"`
	VariantID  string            `json:"variantId"`
	Name       string            `json:"name"`
	Image      string            `json:"image,omitempty"`
	Brand      string            `json:"brand,omitempty"`
	SKU        string            `json:"sku,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	UnitPrice  int64             `json:"unitPrice"`
	Quantity   int               `json:"quantity"`
	Subtotal   int64             `json:"subtotal"`
}

// ShippingAddress is copied into the order so later address edits do not
// rewrite past orders.
type ShippingAddress struct {
	RecipientName string `json:"recipientName"`
	Phone         string `json:"phone"`
	Street        string `json:"street"`
	Ward          string `json:"ward,omitempty"`
	District      string `json:"district,omitempty"`
	Province      string `json:"province"`
}

func ShippingAddressFrom(a Address) ShippingAddress {
	return ShippingAddress{
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Street:        a.Street,
		Ward:          a.Ward,
		District:      a.District,
		Province:      a.Province,
	}
}

type TimelineEntry struct {
	Status      OrderStatus `json:"status"`
	Label       string      `json:"label"`
	Description string      `json:"description,omitempty"`
	At          time.Time   `json:"at"`
}

// NewOrderRequest carries everything needed to create an order.
type NewOrderRequest struct {
	CustomerID      string
	Items           []OrderItem
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
	Note            string
	Subtotal        int64
	DiscountCode    string
	Discount        int64
	Shipping        int64
	Tax             int64
	Total           int64
}

// OrderRequestFromCart freezes the cart's current lines and totals.
func OrderRequestFromCart(cart *Cart, addr Address, method PaymentMethod, note string) NewOrderRequest {
	items := make([]OrderItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, OrderItem{
			ProductID:  l.ProductID,
			VariantID:  l.VariantID,
			Name:       l.Name,
			Image:      l.Image,
			Brand:      l.Brand,
			SKU:        l.SKU,
			Attributes: l.Attributes,
			UnitPrice:  l.UnitPrice(),
			Quantity:   l.Quantity,
			Subtotal:   l.LineTotal(),
		})
	}
	req := NewOrderRequest{
		CustomerID:      cart.CustomerID,
		Items:           items,
		ShippingAddress: ShippingAddressFrom(addr),
		PaymentMethod:   method,
		Note:            strings.TrimSpace(note),
		Subtotal:        cart.Subtotal,
		Discount:        cart.DiscountAmount,
		Shipping:        cart.Shipping,
		Total:           cart.Total,
	}
	if cart.Discount != nil {
		req.DiscountCode = cart.Discount.Code
	}
	return req
}

// NewOrder builds a PENDING order with its first timeline entry.
func NewOrder(req NewOrderRequest, code string, now time.Time) Order {
	o := Order{
		Code:            code,
		CustomerID:      req.CustomerID,
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Note:            req.Note,
		Subtotal:        req.Subtotal,
		DiscountCode:    req.DiscountCode,
		Discount:        req.Discount,
		Shipping:        req.Shipping,
		Tax:             req.Tax,
		Total:           req.Total,
		Status:          StatusPending,
	}
	o.CreatedAt = o.appendEvent(StatusPending, "", now)
	return o
}

// Cancel moves a PENDING or CONFIRMED order to CANCELLED. On refusal the
// order is left untouched.
func (o *Order) Cancel(reason string, now time.Time) error {
	if !o.Status.Cancellable() {
		return ErrOrderNotCancellable
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}
	at := o.appendEvent(StatusCancelled, reason, now)
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &at
	return nil
}

// Advance applies a fulfillment-driven transition along the forward path.
func (o *Order) Advance(to OrderStatus, description string, now time.Time) error {
	if next, ok := forward[o.Status]; !ok || next != to {
		return ErrInvalidTransition
	}
	o.appendEvent(to, strings.TrimSpace(description), now)
	o.Status = to
	return nil
}

// appendEvent adds a timeline entry whose timestamp is strictly after the
// previous one and returns it.
func (o *Order) appendEvent(status OrderStatus, description string, now time.Time) time.Time {
	at := now.UTC().Truncate(time.Microsecond)
	if n := len(o.Timeline); n > 0 {
		last := o.Timeline[n-1].At
		if !at.After(last) {
			at = last.Add(time.Microsecond)
		}
	}
	o.Timeline = append(o.Timeline, TimelineEntry{
		Status:      status,
		Label:       status.Label(),
		Description: description,
		At:          at,
	})
	o.UpdatedAt = at
	return at
}

// FormatOrderCode renders the human-readable code for the seq-th order of day.
func FormatOrderCode(day time.Time, seq int) string {
	return fmt.Sprintf("ORD-%s-%03d", day.UTC().Format("20060102"), seq)
}
