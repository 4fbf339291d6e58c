package checkout

import (
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/domain"
)

// Step is a position in the checkout flow. Placed is terminal and only
// reachable through confirmation.
type Step int

const (
	StepAddress Step = iota
	StepPayment
	StepReview
	StepPlaced
)

func (s Step) String() string {
	switch s {
	case StepAddress:
		return "ADDRESS"
	case StepPayment:
		return "PAYMENT"
	case StepReview:
		return "REVIEW"
	case StepPlaced:
		return "PLACED"
	default:
		return "UNKNOWN"
	}
}

// Sequencer is the guarded Address → Payment → Review flow for one
// customer. It holds selections only; resolving them is the caller's job.
type Sequencer struct {
	step      Step
	addressID string
	payment   domain.PaymentMethod
	order     *domain.Order
}

func NewSequencer() *Sequencer {
	return &Sequencer{step: StepAddress}
}

func (q *Sequencer) Step() Step { return q.step }
func (q *Sequencer) AddressID() string { return q.addressID }
func (q *Sequencer) PaymentMethod() domain.PaymentMethod { return q.payment }
func (q *Sequencer) Order() *domain.Order { return q.order }

// SelectAddress records an address the caller has already resolved.
func (q *Sequencer) SelectAddress(id string) error {
	if q.step == StepPlaced {
		return domain.ErrCheckoutCompleted
	}
	q.addressID = id
	return nil
}

func (q *Sequencer) SelectPaymentMethod(method string) error {
	if q.step == StepPlaced {
		return domain.ErrCheckoutCompleted
	}
	m, ok := domain.ParsePaymentMethod(method)
	if !ok {
		return domain.ErrInvalidPaymentMethod
	}
	q.payment = m
	return nil
}

// Advance runs the current step's guard and moves forward one step.
func (q *Sequencer) Advance() error {
	switch q.step {
	case StepAddress:
		if q.addressID == "" {
			return domain.ErrNoAddressSelected
		}
		q.step = StepPayment
	case StepPayment:
		if q.payment == "" {
			return domain.ErrNoPaymentMethodSelected
		}
		q.step = StepReview
	case StepReview:
		return domain.ErrInvalidStep
	default:
		return domain.ErrCheckoutCompleted
	}
	return nil
}

// GoToStep moves back to an earlier step, or stays put. Selections are kept
// and nothing is re-validated.
func (q *Sequencer) GoToStep(to Step) error {
	if q.step == StepPlaced {
		return domain.ErrCheckoutCompleted
	}
	if to < StepAddress || to > q.step {
		return domain.ErrInvalidStep
	}
	q.step = to
	return nil
}

// ready re-checks every selection before an order is placed.
func (q *Sequencer) ready() error {
	switch {
	case q.step == StepPlaced:
		return domain.ErrCheckoutCompleted
	case q.step != StepReview:
		return domain.ErrInvalidStep
	case q.addressID == "":
		return domain.ErrNoAddressSelected
	case q.payment == "":
		return domain.ErrNoPaymentMethodSelected
	}
	return nil
}

func (q *Sequencer) placed(o *domain.Order) {
	q.step = StepPlaced
	q.order = o
}
