package bdd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Divam-dev/flower-shop-bot/internal/cart"
	"github.com/Divam-dev/flower-shop-bot/internal/orderflow"
	"github.com/cucumber/godog"
)

func (w *ShopWorld) registerOrderSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a cart containing:$`, w.aCartContaining)
	sc.Step(`^an empty cart$`, w.anEmptyCart)
	sc.Step(`^checkout has started$`, w.checkoutHasStarted)
	sc.Step(`^the payment gateway (accepts|declines) invoices$`, w.thePaymentGatewayMode)

	sc.Step(`^the user chooses "([^"]*)"$`, w.theUserSends)
	sc.Step(`^the user enters "([^"]*)"$`, w.theUserSends)
	sc.Step(`^the user enters the phone "([^"]*)"$`, w.theUserSends)
	sc.Step(`^the user enters the email "([^"]*)"$`, w.theUserSends)

	sc.Step(`^the session is still waiting for a phone number$`, w.sessionWaitsForPhone)
	sc.Step(`^the session is waiting for an email$`, w.sessionWaitsForEmail)
	sc.Step(`^the session is awaiting payment confirmation$`, w.sessionAwaitsPayment)
	sc.Step(`^the session returns to the category menu$`, w.sessionBackToMenu)

	sc.Step(`^the cart is cleared$`, w.theCartIsCleared)
	sc.Step(`^the cart is not cleared$`, w.theCartIsNotCleared)
	sc.Step(`^the last reply mentions "([^"]*)"$`, w.lastReplyMentions)
	sc.Step(`^no reply mentions "([^"]*)"$`, w.noReplyMentions)
	sc.Step(`^the user receives a payment link$`, w.userReceivesPaymentLink)
	sc.Step(`^the invoice lists the products in cart order$`, w.invoiceListsProductsInCartOrder)
	sc.Step(`^an order is recorded with status "([^"]*)"$`, w.orderRecordedWithStatus)
	sc.Step(`^an event "([^"]*)" is published$`, w.eventIsPublished)
	sc.Step(`^the payment gateway was never called$`, w.gatewayNeverCalled)
}

func (w *ShopWorld) aCartContaining(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("cart table needs a header and at least one row")
	}
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 3 {
			return fmt.Errorf("cart row needs name, quantity, price")
		}
		qty, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return fmt.Errorf("invalid quantity %q: %w", row.Cells[1].Value, err)
		}
		price, err := strconv.ParseFloat(row.Cells[2].Value, 64)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", row.Cells[2].Value, err)
		}
		w.cart.Items = append(w.cart.Items, cart.Item{
			Name:     row.Cells[0].Value,
			Quantity: qty,
			Price:    price,
		})
	}
	w.seededItems = append([]cart.Item(nil), w.cart.Items...)
	return nil
}

func (w *ShopWorld) anEmptyCart() error {
	w.cart.Items = nil
	w.seededItems = nil
	return nil
}

func (w *ShopWorld) checkoutHasStarted() error {
	w.state = orderflow.StateChoosingDelivery
	w.draft = orderflow.OrderDraft{}
	return nil
}

func (w *ShopWorld) thePaymentGatewayMode(mode string) error {
	switch mode {
	case "accepts":
		w.gatewayMode = gatewayModeOk
	case "declines":
		w.gatewayMode = gatewayModeDeclined
	default:
		return fmt.Errorf("unknown gateway mode %q", mode)
	}
	return nil
}

func (w *ShopWorld) theUserSends(text string) error {
	w.send(text)
	w.debugf("state=%s draft=%+v replies=%d", w.state, w.draft, len(w.replies))
	return nil
}

func (w *ShopWorld) expectState(want orderflow.State) error {
	if w.state != want {
		return fmt.Errorf("expected state %q, got %q (last reply: %q)", want, w.state, w.lastReply())
	}
	return nil
}

func (w *ShopWorld) sessionWaitsForPhone() error {
	return w.expectState(orderflow.StateEnteringPhone)
}

func (w *ShopWorld) sessionWaitsForEmail() error {
	return w.expectState(orderflow.StateEnteringEmail)
}

func (w *ShopWorld) sessionAwaitsPayment() error {
	if err := w.expectState(orderflow.StateConfirmingPayment); err != nil {
		return err
	}
	if w.draft.PaymentURL == "" {
		return fmt.Errorf("expected a payment URL in the draft")
	}
	if w.draft.OrderReference == "" {
		return fmt.Errorf("expected an order reference in the draft")
	}
	return nil
}

func (w *ShopWorld) sessionBackToMenu() error {
	return w.expectState(orderflow.StateChoosingCategory)
}

func (w *ShopWorld) theCartIsCleared() error {
	if !w.cartCleared {
		return fmt.Errorf("expected the cart to be cleared")
	}
	return nil
}

func (w *ShopWorld) theCartIsNotCleared() error {
	if w.cartCleared {
		return fmt.Errorf("expected the cart to survive, but it was cleared")
	}
	if len(w.cart.Items) != len(w.seededItems) {
		return fmt.Errorf("expected %d items in the cart, got %d", len(w.seededItems), len(w.cart.Items))
	}
	return nil
}

func (w *ShopWorld) lastReplyMentions(substr string) error {
	if !strings.Contains(w.lastReply(), substr) {
		return fmt.Errorf("last reply %q does not mention %q", w.lastReply(), substr)
	}
	return nil
}

func (w *ShopWorld) noReplyMentions(substr string) error {
	for _, r := range w.replies {
		if strings.Contains(r, substr) {
			return fmt.Errorf("reply %q mentions %q", r, substr)
		}
	}
	return nil
}

func (w *ShopWorld) userReceivesPaymentLink() error {
	if len(w.links) == 0 {
		return fmt.Errorf("no payment link was sent")
	}
	link := w.links[len(w.links)-1]
	if link.url != stubInvoiceURL {
		return fmt.Errorf("expected link to %q, got %q", stubInvoiceURL, link.url)
	}
	return nil
}

func (w *ShopWorld) invoiceListsProductsInCartOrder() error {
	if w.lastWire == nil {
		return fmt.Errorf("the gateway never received an invoice")
	}
	if len(w.lastWire.ProductName) != len(w.seededItems) {
		return fmt.Errorf("expected %d products, got %d", len(w.seededItems), len(w.lastWire.ProductName))
	}
	for i, it := range w.seededItems {
		if w.lastWire.ProductName[i] != it.Name {
			return fmt.Errorf("product %d: expected %q, got %q", i, it.Name, w.lastWire.ProductName[i])
		}
		if w.lastWire.ProductCount[i] != it.Quantity {
			return fmt.Errorf("product %d: expected count %d, got %d", i, it.Quantity, w.lastWire.ProductCount[i])
		}
	}
	return nil
}

func (w *ShopWorld) orderRecordedWithStatus(status string) error {
	for _, rec := range w.recorded {
		if rec.Status == status {
			return nil
		}
	}
	return fmt.Errorf("no recorded order with status %q (got %d records)", status, len(w.recorded))
}

func (w *ShopWorld) eventIsPublished(eventType string) error {
	for _, evt := range w.published {
		if evt == eventType {
			return nil
		}
	}
	return fmt.Errorf("event %q was not published (got %v)", eventType, w.published)
}

func (w *ShopWorld) gatewayNeverCalled() error {
	if w.gatewayCalls != 0 {
		return fmt.Errorf("gateway was called %d times", w.gatewayCalls)
	}
	return nil
}
