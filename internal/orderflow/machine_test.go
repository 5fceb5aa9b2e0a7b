package orderflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divam-dev/flower-shop-bot/internal/cart"
	"github.com/Divam-dev/flower-shop-bot/internal/wayforpay"
)

func testCart() cart.State {
	return cart.State{
		ChatID: "42",
		Items: []cart.Item{
			{Name: "Rose", Quantity: 3, Price: 10.5},
			{Name: "Tulip", Quantity: 2, Price: 7.25},
		},
	}
}

func effectsOfKind(tr Transition, kind EffectKind) []Effect {
	var out []Effect
	for _, ef := range tr.Effects {
		if ef.Kind == kind {
			out = append(out, ef)
		}
	}
	return out
}

func hasEffect(tr Transition, kind EffectKind) bool {
	return len(effectsOfKind(tr, kind)) > 0
}

func TestChoosingDeliverySelfPickup(t *testing.T) {
	tr := Advance(StateChoosingDelivery, OrderDraft{}, Message{Text: ButtonSelfPickup}, testCart())

	assert.Equal(t, StateEnteringPhone, tr.Next)
	assert.Equal(t, DeliverySelfPickup, tr.Draft.DeliveryMethod)
	require.Len(t, tr.Effects, 1)
	assert.Equal(t, EffectReply, tr.Effects[0].Kind)
	assert.Contains(t, tr.Effects[0].Text, "+380XXXXXXXXX")
}

func TestChoosingDeliveryPayNow(t *testing.T) {
	tr := Advance(StateChoosingDelivery, OrderDraft{}, Message{Text: ButtonPayNow}, testCart())

	assert.Equal(t, StateEnteringPhone, tr.Next)
	assert.Equal(t, DeliveryImmediatePayment, tr.Draft.DeliveryMethod)
}

func TestChoosingDeliveryBackToCart(t *testing.T) {
	tr := Advance(StateChoosingDelivery, OrderDraft{}, Message{Text: ButtonBackToCart}, testCart())

	assert.Equal(t, StateChoosingDelivery, tr.Next)
	assert.True(t, hasEffect(tr, EffectShowCart))
}

func TestChoosingDeliveryIgnoresOtherInput(t *testing.T) {
	tr := Advance(StateChoosingDelivery, OrderDraft{}, Message{Text: "hello"}, testCart())

	assert.Equal(t, StateChoosingDelivery, tr.Next)
	assert.Empty(t, tr.Effects)
	assert.Empty(t, tr.Draft.DeliveryMethod)
}

func TestEnteringPhoneValid(t *testing.T) {
	draft := OrderDraft{DeliveryMethod: DeliverySelfPickup}
	tr := Advance(StateEnteringPhone, draft, Message{Text: "+380501234567"}, testCart())

	assert.Equal(t, StateEnteringEmail, tr.Next)
	assert.Equal(t, "+380501234567", tr.Draft.Phone)
}

func TestEnteringPhoneInvalidStaysAndKeepsDraft(t *testing.T) {
	draft := OrderDraft{DeliveryMethod: DeliverySelfPickup}
	for _, input := range []string{"0501234567", "+38050123456", "+380501234567x", "+3805012345678", ""} {
		tr := Advance(StateEnteringPhone, draft, Message{Text: input}, testCart())

		assert.Equal(t, StateEnteringPhone, tr.Next, "input %q", input)
		assert.Empty(t, tr.Draft.Phone, "input %q", input)
		require.Len(t, tr.Effects, 1)
		assert.Equal(t, EffectReply, tr.Effects[0].Kind)
	}
}

func TestEnteringEmailInvalidStays(t *testing.T) {
	draft := OrderDraft{DeliveryMethod: DeliverySelfPickup, Phone: "+380501234567"}
	for _, input := range []string{"nodot@com", "noat.com", ""} {
		tr := Advance(StateEnteringEmail, draft, Message{Text: input}, testCart())

		assert.Equal(t, StateEnteringEmail, tr.Next, "input %q", input)
		assert.Empty(t, tr.Draft.Email, "input %q", input)
	}
}

func TestEnteringEmailEmptyCartAborts(t *testing.T) {
	draft := OrderDraft{DeliveryMethod: DeliveryImmediatePayment, Phone: "+380501234567"}
	tr := Advance(StateEnteringEmail, draft, Message{Text: "a@b.com"}, cart.State{ChatID: "42"})

	assert.Equal(t, StateEnteringEmail, tr.Next)
	assert.False(t, hasEffect(tr, EffectCreateInvoice), "gateway must not be called on empty cart")
	assert.False(t, hasEffect(tr, EffectClearCart))
	require.Len(t, effectsOfKind(tr, EffectReply), 1)
	assert.Contains(t, tr.Effects[0].Text, "кошик порожній")
}

func TestEnteringEmailSelfPickupCompletes(t *testing.T) {
	draft := OrderDraft{DeliveryMethod: DeliverySelfPickup, Phone: "+380501234567"}
	tr := Advance(StateEnteringEmail, draft, Message{Text: "a@b.com"}, testCart())

	assert.Equal(t, StateChoosingCategory, tr.Next)
	assert.Equal(t, OrderDraft{}, tr.Draft, "draft resets on completion")
	assert.False(t, hasEffect(tr, EffectCreateInvoice), "self-pickup never calls the gateway")
	assert.True(t, hasEffect(tr, EffectClearCart))

	replies := effectsOfKind(tr, EffectReply)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "+380501234567")
	assert.Contains(t, replies[0].Text, "самовивіз")

	records := effectsOfKind(tr, EffectRecordOrder)
	require.Len(t, records, 1)
	assert.Equal(t, OrderStatusPlaced, records[0].Order.Status)
	assert.InDelta(t, 46.0, records[0].Order.Amount, 1e-9)
	assert.Equal(t, "UAH", records[0].Order.Currency)

	published := effectsOfKind(tr, EffectPublishEvent)
	require.Len(t, published, 1)
	assert.Equal(t, EventOrderPlaced, published[0].Event)
}

func TestEnteringEmailImmediatePaymentRequestsInvoice(t *testing.T) {
	draft := OrderDraft{DeliveryMethod: DeliveryImmediatePayment, Phone: "+380501234567"}
	tr := Advance(StateEnteringEmail, draft, Message{Text: "a@b.com", FirstName: "Олена", LastName: "Шевченко"}, testCart())

	// The state settles only once the gateway answers.
	assert.Equal(t, StateEnteringEmail, tr.Next)
	assert.Equal(t, "a@b.com", tr.Draft.Email)

	invoices := effectsOfKind(tr, EffectCreateInvoice)
	require.Len(t, invoices, 1)
	ef := invoices[0]

	assert.Equal(t, wayforpay.Customer{
		FirstName: "Олена",
		LastName:  "Шевченко",
		Email:     "a@b.com",
		Phone:     "+380501234567",
		Currency:  "UAH",
	}, ef.Customer)

	// Items preserve cart iteration order.
	require.Len(t, ef.Items, 2)
	assert.Equal(t, wayforpay.Item{Name: "Rose", Quantity: 3, Price: 10.5}, ef.Items[0])
	assert.Equal(t, wayforpay.Item{Name: "Tulip", Quantity: 2, Price: 7.25}, ef.Items[1])

	assert.False(t, hasEffect(tr, EffectClearCart), "cart stays until the gateway answers")
}

func TestApplyInvoiceResultOk(t *testing.T) {
	draft := OrderDraft{DeliveryMethod: DeliveryImmediatePayment, Phone: "+380501234567", Email: "a@b.com"}
	resp := &wayforpay.InvoiceResponse{Reason: "Ok", InvoiceURL: "https://pay/x", OrderReference: "order_123"}

	tr := ApplyInvoiceResult(draft, 46.0, resp, nil)

	assert.Equal(t, StateConfirmingPayment, tr.Next)
	assert.Equal(t, "https://pay/x", tr.Draft.PaymentURL)
	assert.Equal(t, "order_123", tr.Draft.OrderReference)

	links := effectsOfKind(tr, EffectReplyWithLink)
	require.Len(t, links, 1)
	assert.Equal(t, "https://pay/x", links[0].LinkURL)
	assert.Equal(t, ButtonPay, links[0].LinkText)

	records := effectsOfKind(tr, EffectRecordOrder)
	require.Len(t, records, 1)
	assert.Equal(t, OrderStatusAwaitingPayment, records[0].Order.Status)
	assert.Equal(t, "order_123", records[0].Order.OrderReference)

	assert.False(t, hasEffect(tr, EffectClearCart), "cart is only cleared after manual confirmation")
}

func TestApplyInvoiceResultDeclined(t *testing.T) {
	draft := OrderDraft{DeliveryMethod: DeliveryImmediatePayment, Phone: "+380501234567", Email: "a@b.com"}
	tr := ApplyInvoiceResult(draft, 46.0, &wayforpay.InvoiceResponse{Reason: "Declined"}, nil)

	assert.Equal(t, StateChoosingCategory, tr.Next)
	assert.False(t, hasEffect(tr, EffectClearCart), "cart preserved for retry")

	replies := effectsOfKind(tr, EffectReply)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Declined")
}

func TestApplyInvoiceResultMissingReason(t *testing.T) {
	tr := ApplyInvoiceResult(OrderDraft{}, 0, &wayforpay.InvoiceResponse{InvoiceURL: "https://pay/x"}, nil)

	assert.Equal(t, StateChoosingCategory, tr.Next)
	replies := effectsOfKind(tr, EffectReply)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, unknownGatewayReason)
}

func TestApplyInvoiceResultTransportError(t *testing.T) {
	tr := ApplyInvoiceResult(OrderDraft{}, 0, nil, errors.New("connection refused"))

	assert.Equal(t, StateChoosingCategory, tr.Next)
	assert.False(t, hasEffect(tr, EffectClearCart))

	replies := effectsOfKind(tr, EffectReply)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "connection refused")
}

func TestConfirmingPaymentCancelKeywords(t *testing.T) {
	draft := OrderDraft{Phone: "+380501234567", PaymentURL: "https://pay/x"}
	for _, input := range []string{"скасувати", "назад", "відмінити", "cancel", "CANCEL", "Скасувати"} {
		tr := Advance(StateConfirmingPayment, draft, Message{Text: input}, testCart())

		assert.Equal(t, StateChoosingCategory, tr.Next, "input %q", input)
		assert.Equal(t, OrderDraft{}, tr.Draft, "input %q", input)
		assert.False(t, hasEffect(tr, EffectClearCart), "cancelling keeps the cart, input %q", input)

		replies := effectsOfKind(tr, EffectReply)
		require.Len(t, replies, 1)
		assert.NotContains(t, replies[0].Text, "успішно", "no success message on cancel")
	}
}

func TestConfirmingPaymentOtherInputRestatesLinkAndResets(t *testing.T) {
	draft := OrderDraft{Phone: "+380501234567", PaymentURL: "https://pay/x"}
	tr := Advance(StateConfirmingPayment, draft, Message{Text: "я оплатив"}, testCart())

	assert.Equal(t, StateChoosingCategory, tr.Next)
	assert.True(t, hasEffect(tr, EffectClearCart))

	replies := effectsOfKind(tr, EffectReply)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "+380501234567")
	assert.Contains(t, replies[0].Text, "https://pay/x")
}

func TestChoosingCategoryIsInert(t *testing.T) {
	tr := Advance(StateChoosingCategory, OrderDraft{}, Message{Text: "anything"}, testCart())

	assert.Equal(t, StateChoosingCategory, tr.Next)
	assert.Empty(t, tr.Effects)
}
