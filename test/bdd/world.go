package bdd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Divam-dev/flower-shop-bot/internal/cart"
	"github.com/Divam-dev/flower-shop-bot/internal/orderflow"
	"github.com/Divam-dev/flower-shop-bot/internal/wayforpay"
	"github.com/cucumber/godog"
)

const (
	gatewayModeOk       = "ok"
	gatewayModeDeclined = "declined"

	stubInvoiceURL = "https://secure.wayforpay.com/invoice/i9f2c1"
)

type sentLink struct {
	text string
	url  string
}

// ShopWorld drives the order state machine the way the virtual object host
// does: it feeds messages through Advance, executes the returned effects
// itself, and settles gateway calls through ApplyInvoiceResult against a
// stub WayForPay server.
type ShopWorld struct {
	t *testing.T

	state orderflow.State
	draft orderflow.OrderDraft
	cart  cart.State

	// seededItems keeps the original cart order for wire assertions even
	// after a clear-cart effect.
	seededItems []cart.Item

	merchant wayforpay.Merchant
	client   *wayforpay.Client
	gateway  *httptest.Server

	gatewayMode  string
	gatewayCalls int
	lastWire     *wayforpay.InvoiceRequest

	replies     []string
	links       []sentLink
	cartCleared bool
	recorded    []orderflow.OrderSummary
	published   []string
}

func NewShopWorld(t *testing.T) *ShopWorld {
	return &ShopWorld{t: t}
}

func (w *ShopWorld) Register(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w.resetScenarioState()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if w.gateway != nil {
			w.gateway.Close()
			w.gateway = nil
		}
		return ctx, nil
	})

	w.registerOrderSteps(sc)
}

func (w *ShopWorld) resetScenarioState() {
	w.state = orderflow.StateChoosingCategory
	w.draft = orderflow.OrderDraft{}
	w.cart = cart.State{ChatID: "42"}
	w.seededItems = nil
	w.gatewayMode = gatewayModeOk
	w.gatewayCalls = 0
	w.lastWire = nil
	w.replies = nil
	w.links = nil
	w.cartCleared = false
	w.recorded = nil
	w.published = nil

	if w.gateway != nil {
		w.gateway.Close()
	}
	w.gateway = httptest.NewServer(http.HandlerFunc(w.serveGateway))
	w.client = wayforpay.NewClient(w.gateway.URL)
	w.merchant = wayforpay.Merchant{
		Account:    "test_merch_n1",
		SecretKey:  "flk3409refn54t54t*FNJRET",
		DomainName: "www.yourdomain.com",
		ServiceURL: "https://yourdomain.com/wfpcallback",
	}
}

// serveGateway is the stub WayForPay endpoint. It records the wire request
// and answers according to the scenario's gateway mode.
func (w *ShopWorld) serveGateway(rw http.ResponseWriter, r *http.Request) {
	w.gatewayCalls++

	var req wayforpay.InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, "bad payload", http.StatusBadRequest)
		return
	}
	w.lastWire = &req

	resp := wayforpay.InvoiceResponse{Reason: "Declined"}
	if w.gatewayMode == gatewayModeOk {
		resp = wayforpay.InvoiceResponse{
			Reason:         "Ok",
			InvoiceURL:     stubInvoiceURL,
			OrderReference: req.OrderReference,
		}
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(resp)
}

// send feeds one user message through the machine and executes the effects.
func (w *ShopWorld) send(text string) {
	msg := orderflow.Message{Text: text, FirstName: "Олена", LastName: "Шевченко"}
	w.apply(orderflow.Advance(w.state, w.draft, msg, w.cart))
}

func (w *ShopWorld) apply(tr orderflow.Transition) {
	w.state = tr.Next
	w.draft = tr.Draft

	for _, ef := range tr.Effects {
		switch ef.Kind {
		case orderflow.EffectReply:
			w.replies = append(w.replies, ef.Text)
		case orderflow.EffectReplyWithLink:
			w.replies = append(w.replies, ef.Text)
			w.links = append(w.links, sentLink{text: ef.LinkText, url: ef.LinkURL})
		case orderflow.EffectShowCart:
			// The cart view is rendered by the frontend; nothing to do here.
		case orderflow.EffectClearCart:
			w.cart.Items = nil
			w.cartCleared = true
		case orderflow.EffectRecordOrder:
			w.recorded = append(w.recorded, *ef.Order)
		case orderflow.EffectPublishEvent:
			w.published = append(w.published, ef.Event)
		case orderflow.EffectCreateInvoice:
			w.apply(w.createInvoice(ef))
		}
	}
}

func (w *ShopWorld) createInvoice(ef orderflow.Effect) orderflow.Transition {
	now := time.Unix(1700000000, 0)
	ref := wayforpay.OrderReference(w.cart.ChatID, now)
	req := wayforpay.BuildInvoiceRequest(w.merchant, ef.Items, ef.Customer, ref, now)

	var amount float64
	for _, it := range ef.Items {
		amount += float64(it.Quantity) * it.Price
	}

	resp, err := w.client.CreateInvoice(context.Background(), req)
	return orderflow.ApplyInvoiceResult(w.draft, amount, resp, err)
}

func (w *ShopWorld) lastReply() string {
	if len(w.replies) == 0 {
		return ""
	}
	return w.replies[len(w.replies)-1]
}

func (w *ShopWorld) debugf(format string, args ...any) {
	if os.Getenv("BDD_DEBUG") != "" {
		w.t.Logf(format, args...)
	}
}
