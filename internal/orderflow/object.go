package orderflow

import (
	"context"
	"errors"
	"log"
	"time"

	restate "github.com/restatedev/sdk-go"

	"github.com/Divam-dev/flower-shop-bot/internal/cart"
	"github.com/Divam-dev/flower-shop-bot/internal/events"
	postgres "github.com/Divam-dev/flower-shop-bot/internal/storage/postgres"
	"github.com/Divam-dev/flower-shop-bot/internal/wayforpay"
)

const (
	stateKeyState = "state"
	stateKeyDraft = "draft"

	cartServiceName = "cart.sv1.CartService"
)

// Gateway is the outbound payment-gateway dependency; satisfied by
// *wayforpay.Client and by test fakes.
type Gateway interface {
	CreateInvoice(ctx context.Context, req *wayforpay.InvoiceRequest) (*wayforpay.InvoiceResponse, error)
}

// Publisher is the order-event bus dependency; satisfied by *events.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, evt events.Envelope) error
}

// Package-level collaborators, wired once at startup from main (same pattern
// the rest of the service uses for the repository). All of them are optional:
// a missing repository or publisher degrades to a logged warning, a missing
// gateway fails the payment path visibly.
var (
	repo        *postgres.Repository
	publisher   Publisher
	gateway     Gateway
	merchant    wayforpay.Merchant
	ordersTopic = "orders.v1"
)

func SetRepository(r *postgres.Repository) { repo = r }

func SetPublisher(p Publisher, topic string) {
	publisher = p
	if topic != "" {
		ordersTopic = topic
	}
}

func SetGateway(g Gateway, m wayforpay.Merchant) {
	gateway = g
	merchant = m
}

// Reply is one outbound message the chat frontend should render. Effects stay
// data all the way out: the transport decides how buttons and links look.
type Reply struct {
	Text     string   `json:"text"`
	LinkText string   `json:"link_text,omitempty"`
	LinkURL  string   `json:"link_url,omitempty"`
	Buttons  []string `json:"buttons,omitempty"`
	ShowCart bool     `json:"show_cart,omitempty"`
}

type HandleMessageResponse struct {
	State   State   `json:"state"`
	Replies []Reply `json:"replies"`
}

// StateView is the read-only session snapshot for GetOrderState.
type StateView struct {
	State State      `json:"state"`
	Draft OrderDraft `json:"draft"`
}

// StartCheckout moves the session from the cart view into the order flow.
// Called by the frontend when the user hits "checkout".
func StartCheckout(ctx restate.ObjectContext, _ restate.Void) (*HandleMessageResponse, error) {
	chatID := restate.Key(ctx)
	log.Printf("[OrderFlow %s] Checkout started", chatID)

	restate.Set(ctx, stateKeyState, StateChoosingDelivery)
	return &HandleMessageResponse{
		State: StateChoosingDelivery,
		Replies: []Reply{{
			Text:    msgChooseDelivery,
			Buttons: []string{ButtonSelfPickup, ButtonPayNow, ButtonBackToCart},
		}},
	}, nil
}

// HandleMessage dispatches one inbound chat message through the state
// machine. Restate serializes invocations per key, so each session processes
// at most one message at a time.
func HandleMessage(ctx restate.ObjectContext, msg *Message) (*HandleMessageResponse, error) {
	chatID := restate.Key(ctx)

	state, _ := restate.Get[State](ctx, stateKeyState)
	if state == "" {
		state = StateChoosingCategory
	}
	draft, _ := restate.Get[OrderDraft](ctx, stateKeyDraft)

	cartView, err := restate.Object[*cart.ViewCartResponse](ctx, cartServiceName, chatID, "ViewCart").
		Request(restate.Void{})
	if err != nil {
		return nil, err
	}

	tr := Advance(state, draft, *msg, cartView.State)
	replies, err := runEffects(ctx, chatID, &tr)
	if err != nil {
		return nil, err
	}

	restate.Set(ctx, stateKeyState, tr.Next)
	restate.Set(ctx, stateKeyDraft, tr.Draft)

	log.Printf("[OrderFlow %s] %s -> %s (%d replies)", chatID, state, tr.Next, len(replies))
	return &HandleMessageResponse{State: tr.Next, Replies: replies}, nil
}

// GetOrderState exposes the session state without mutating it.
func GetOrderState(ctx restate.ObjectSharedContext, _ restate.Void) (*StateView, error) {
	state, _ := restate.Get[State](ctx, stateKeyState)
	if state == "" {
		state = StateChoosingCategory
	}
	draft, _ := restate.Get[OrderDraft](ctx, stateKeyDraft)
	return &StateView{State: state, Draft: draft}, nil
}

// invoiceAttempt is the durable record of one gateway call. The call error is
// flattened to a string so the attempt journals cleanly and is never retried:
// a failed invoice is surfaced to the user, not replayed.
type invoiceAttempt struct {
	OrderReference string                     `json:"order_reference"`
	Response       *wayforpay.InvoiceResponse `json:"response,omitempty"`
	Error          string                     `json:"error,omitempty"`
}

func runEffects(ctx restate.ObjectContext, chatID string, tr *Transition) ([]Reply, error) {
	var replies []Reply

	for _, ef := range tr.Effects {
		switch ef.Kind {
		case EffectReply:
			replies = append(replies, Reply{Text: ef.Text})

		case EffectReplyWithLink:
			replies = append(replies, Reply{Text: ef.Text, LinkText: ef.LinkText, LinkURL: ef.LinkURL})

		case EffectShowCart:
			replies = append(replies, Reply{ShowCart: true})

		case EffectClearCart:
			if _, err := restate.Object[*cart.ClearCartResponse](ctx, cartServiceName, chatID, "ClearCart").
				Request(restate.Void{}); err != nil {
				log.Printf("[OrderFlow %s] Warning: failed to clear cart: %v", chatID, err)
			}

		case EffectCreateInvoice:
			next, err := createInvoice(ctx, chatID, tr.Draft, ef)
			if err != nil {
				return nil, err
			}
			more, err := runEffects(ctx, chatID, &next)
			if err != nil {
				return nil, err
			}
			replies = append(replies, more...)
			tr.Next = next.Next
			tr.Draft = next.Draft

		case EffectRecordOrder:
			recordOrder(ctx, chatID, ef.Order)

		case EffectPublishEvent:
			publishEvent(ctx, chatID, ef.Event, ef.Order)
		}
	}
	return replies, nil
}

// createInvoice performs the one external network effect of the flow: build,
// sign and submit the CREATE_INVOICE request, then settle the transition with
// the outcome.
func createInvoice(ctx restate.ObjectContext, chatID string, draft OrderDraft, ef Effect) (Transition, error) {
	if gateway == nil {
		return ApplyInvoiceResult(draft, 0, nil, errors.New("payment gateway is not configured")), nil
	}

	attempt, err := restate.Run(ctx, func(rc restate.RunContext) (invoiceAttempt, error) {
		now := time.Now()
		ref := wayforpay.OrderReference(chatID, now)
		req := wayforpay.BuildInvoiceRequest(merchant, ef.Items, ef.Customer, ref, now)
		log.Printf("[OrderFlow %s] Creating invoice %s (%d items)", chatID, ref, len(ef.Items))

		resp, callErr := gateway.CreateInvoice(rc, req)
		att := invoiceAttempt{OrderReference: ref, Response: resp}
		if callErr != nil {
			att.Error = callErr.Error()
		}
		return att, nil
	})
	if err != nil {
		return Transition{}, err
	}

	var callErr error
	if attempt.Error != "" {
		callErr = errors.New(attempt.Error)
	}

	var amount float64
	for _, it := range ef.Items {
		amount += float64(it.Quantity) * it.Price
	}
	return ApplyInvoiceResult(draft, amount, attempt.Response, callErr), nil
}

func recordOrder(ctx restate.ObjectContext, chatID string, summary *OrderSummary) {
	if repo == nil || summary == nil {
		return
	}
	_, err := restate.Run(ctx, func(rc restate.RunContext) (restate.Void, error) {
		ref := summary.OrderReference
		if ref == "" {
			ref = wayforpay.OrderReference(chatID, time.Now())
		}
		return restate.Void{}, repo.InsertOrder(rc, postgres.OrderRecord{
			OrderReference: ref,
			ChatID:         chatID,
			Phone:          summary.Phone,
			Email:          summary.Email,
			DeliveryMethod: summary.DeliveryMethod,
			Amount:         summary.Amount,
			Currency:       summary.Currency,
			Status:         summary.Status,
			InvoiceURL:     summary.InvoiceURL,
		})
	})
	if err != nil {
		log.Printf("[OrderFlow %s] Warning: failed to record order: %v", chatID, err)
	}
}

func publishEvent(ctx restate.ObjectContext, chatID, eventType string, summary *OrderSummary) {
	if publisher == nil || summary == nil {
		return
	}
	_, err := restate.Run(ctx, func(rc restate.RunContext) (restate.Void, error) {
		return restate.Void{}, publisher.Publish(rc, ordersTopic, chatID, events.Envelope{
			EventType:    eventType,
			EventVersion: "1",
			AggregateID:  chatID,
			Data:         summary,
		})
	})
	if err != nil {
		log.Printf("[OrderFlow %s] Warning: failed to publish %s: %v", chatID, eventType, err)
	}
}
