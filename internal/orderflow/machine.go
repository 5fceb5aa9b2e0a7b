package orderflow

import (
	"fmt"

	"github.com/Divam-dev/flower-shop-bot/internal/cart"
	"github.com/Divam-dev/flower-shop-bot/internal/validate"
	"github.com/Divam-dev/flower-shop-bot/internal/wayforpay"
)

// Message is one inbound chat message together with the sender profile fields
// the gateway wants on the invoice.
type Message struct {
	Text      string `json:"text"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// EffectKind tags what a transition asks the host to do. Effects are data,
// not callbacks: the transition function stays pure and every side effect is
// executed (and made durable) by the virtual object handler.
type EffectKind string

const (
	// EffectReply sends Text back to the user.
	EffectReply EffectKind = "reply"
	// EffectReplyWithLink sends Text with an inline link button.
	EffectReplyWithLink EffectKind = "reply_with_link"
	// EffectShowCart hands control back to the cart view.
	EffectShowCart EffectKind = "show_cart"
	// EffectClearCart empties the session's cart.
	EffectClearCart EffectKind = "clear_cart"
	// EffectCreateInvoice asks the host to call the payment gateway; the
	// result is fed back through ApplyInvoiceResult.
	EffectCreateInvoice EffectKind = "create_invoice"
	// EffectRecordOrder persists an order row.
	EffectRecordOrder EffectKind = "record_order"
	// EffectPublishEvent emits an order event to the bus.
	EffectPublishEvent EffectKind = "publish_event"
)

// Effect is one instruction to the host. Only the fields relevant to Kind are
// populated.
type Effect struct {
	Kind     EffectKind
	Text     string
	LinkText string
	LinkURL  string

	// create_invoice
	Customer wayforpay.Customer
	Items    []wayforpay.Item

	// record_order / publish_event
	Event string
	Order *OrderSummary
}

// OrderSummary is the order snapshot attached to record and publish effects,
// self-contained so the host does not need the (possibly already reset)
// draft.
type OrderSummary struct {
	OrderReference string  `json:"orderReference,omitempty"`
	DeliveryMethod string  `json:"deliveryMethod"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"`
	InvoiceURL     string  `json:"invoiceUrl,omitempty"`
}

// Order statuses recorded on terminal transitions.
const (
	OrderStatusPlaced          = "placed"
	OrderStatusAwaitingPayment = "awaiting_payment"
	OrderStatusPaid            = "paid"
	OrderStatusDeclined        = "declined"
)

// Event types published to the order bus.
const (
	EventOrderPlaced      = "OrderPlaced"
	EventInvoiceCreated   = "InvoiceCreated"
	EventPaymentCompleted = "PaymentCompleted"
	EventPaymentDeclined  = "PaymentDeclined"
)

// Transition is the outcome of feeding one message to the machine.
type Transition struct {
	Next    State
	Draft   OrderDraft
	Effects []Effect
}

func reply(text string) Effect { return Effect{Kind: EffectReply, Text: text} }

// Advance computes the transition for one inbound message. It never touches
// the outside world; the caller owns executing the returned effects in order.
// Sessions are evaluated one message at a time, so there is no concurrent
// mutation of draft or cart to defend against here.
func Advance(state State, draft OrderDraft, msg Message, crt cart.State) Transition {
	switch state {
	case StateChoosingDelivery:
		return advanceChoosingDelivery(state, draft, msg)
	case StateEnteringPhone:
		return advanceEnteringPhone(state, draft, msg)
	case StateEnteringEmail:
		return advanceEnteringEmail(state, draft, msg, crt)
	case StateConfirmingPayment:
		return advanceConfirmingPayment(draft, msg)
	default:
		// ChoosingCategory and anything unknown belong to the menu logic.
		return Transition{Next: state, Draft: draft}
	}
}

func advanceChoosingDelivery(state State, draft OrderDraft, msg Message) Transition {
	switch msg.Text {
	case ButtonSelfPickup:
		draft.DeliveryMethod = DeliverySelfPickup
		return Transition{
			Next:    StateEnteringPhone,
			Draft:   draft,
			Effects: []Effect{reply(msgSelfPickupChosen)},
		}
	case ButtonPayNow:
		draft.DeliveryMethod = DeliveryImmediatePayment
		return Transition{
			Next:    StateEnteringPhone,
			Draft:   draft,
			Effects: []Effect{reply(msgPayNowChosen)},
		}
	case ButtonBackToCart:
		return Transition{
			Next:    state,
			Draft:   draft,
			Effects: []Effect{{Kind: EffectShowCart}},
		}
	default:
		// Unrelated input; the menu router deals with it.
		return Transition{Next: state, Draft: draft}
	}
}

func advanceEnteringPhone(state State, draft OrderDraft, msg Message) Transition {
	if res := validate.Phone(msg.Text); !res.OK {
		return Transition{Next: state, Draft: draft, Effects: []Effect{reply(res.Reason)}}
	}
	draft.Phone = msg.Text
	return Transition{
		Next:    StateEnteringEmail,
		Draft:   draft,
		Effects: []Effect{reply(msgAskEmail)},
	}
}

func advanceEnteringEmail(state State, draft OrderDraft, msg Message, crt cart.State) Transition {
	if res := validate.Email(msg.Text); !res.OK {
		return Transition{Next: state, Draft: draft, Effects: []Effect{reply(res.Reason)}}
	}
	draft.Email = msg.Text

	if crt.Empty() {
		// Checkout precondition; nothing is called and the cart view will
		// show the user an empty cart.
		return Transition{Next: state, Draft: draft, Effects: []Effect{reply(msgEmptyCart)}}
	}

	if draft.DeliveryMethod == DeliverySelfPickup {
		summary := &OrderSummary{
			DeliveryMethod: draft.DeliveryMethod,
			Phone:          draft.Phone,
			Email:          draft.Email,
			Amount:         crt.Total(),
			Currency:       draft.currency(),
			Status:         OrderStatusPlaced,
		}
		return Transition{
			Next:  StateChoosingCategory,
			Draft: OrderDraft{},
			Effects: []Effect{
				reply(fmt.Sprintf(msgSelfPickupDone, draft.Phone)),
				{Kind: EffectClearCart},
				{Kind: EffectRecordOrder, Order: summary},
				{Kind: EffectPublishEvent, Event: EventOrderPlaced, Order: summary},
			},
		}
	}

	// Immediate payment: hand the gateway call to the host. State is settled
	// by ApplyInvoiceResult once the gateway answers.
	items := make([]wayforpay.Item, 0, len(crt.Items))
	for _, it := range crt.Items {
		items = append(items, wayforpay.Item{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return Transition{
		Next:  state,
		Draft: draft,
		Effects: []Effect{{
			Kind: EffectCreateInvoice,
			Customer: wayforpay.Customer{
				FirstName: msg.FirstName,
				LastName:  msg.LastName,
				Email:     draft.Email,
				Phone:     draft.Phone,
				Currency:  draft.currency(),
			},
			Items: items,
		}},
	}
}

// ApplyInvoiceResult settles the EnteringEmail → payment transition after the
// gateway call. callErr covers transport and decode failures; a response with
// reason != "Ok" is a logical decline. In both failure modes the session
// returns to the menu and the cart is deliberately left intact for a retry.
func ApplyInvoiceResult(draft OrderDraft, amount float64, resp *wayforpay.InvoiceResponse, callErr error) Transition {
	if callErr != nil {
		return Transition{
			Next:    StateChoosingCategory,
			Draft:   draft,
			Effects: []Effect{reply(fmt.Sprintf(msgInvoiceFailed, callErr))},
		}
	}

	if !resp.Ok() {
		reason := unknownGatewayReason
		if resp != nil && resp.Reason != "" {
			reason = resp.Reason
		}
		return Transition{
			Next:    StateChoosingCategory,
			Draft:   draft,
			Effects: []Effect{reply(fmt.Sprintf(msgInvoiceDeclined, reason))},
		}
	}

	draft.PaymentURL = resp.InvoiceURL
	draft.OrderReference = resp.OrderReference
	summary := &OrderSummary{
		OrderReference: resp.OrderReference,
		DeliveryMethod: draft.DeliveryMethod,
		Phone:          draft.Phone,
		Email:          draft.Email,
		Amount:         amount,
		Currency:       draft.currency(),
		Status:         OrderStatusAwaitingPayment,
		InvoiceURL:     resp.InvoiceURL,
	}
	return Transition{
		Next:  StateConfirmingPayment,
		Draft: draft,
		Effects: []Effect{
			{Kind: EffectReplyWithLink, Text: msgOrderReady, LinkText: ButtonPay, LinkURL: resp.InvoiceURL},
			{Kind: EffectRecordOrder, Order: summary},
			{Kind: EffectPublishEvent, Event: EventInvoiceCreated, Order: summary},
		},
	}
}

func advanceConfirmingPayment(draft OrderDraft, msg Message) Transition {
	if isCancel(msg.Text) {
		// Cart stays as-is so the user can come back and pay later.
		return Transition{
			Next:    StateChoosingCategory,
			Draft:   OrderDraft{},
			Effects: []Effect{reply(msgPaymentCancelled)},
		}
	}

	// No status polling happens here: the manager follows up by phone and the
	// stored link is restated for manual payment. A real status check would
	// query the gateway by order reference.
	return Transition{
		Next:  StateChoosingCategory,
		Draft: OrderDraft{},
		Effects: []Effect{
			reply(fmt.Sprintf(msgPaymentStatus, draft.Phone, draft.PaymentURL)),
			{Kind: EffectClearCart},
		},
	}
}
