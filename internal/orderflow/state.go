package orderflow

// State is the position of a chat session in the order flow.
//
// The flow is linear with one branch and loop-backs:
//
//	ChoosingDelivery → EnteringPhone → EnteringEmail
//	    → ChoosingCategory   (self-pickup: done, cart cleared)
//	    → ConfirmingPayment  (immediate payment: invoice issued)
//	ConfirmingPayment → ChoosingCategory (always)
//
// ChoosingCategory is the rest state owned by the menu logic outside this
// service; the flow only ever returns sessions to it.
type State string

const (
	StateChoosingCategory  State = "choosing_category"
	StateChoosingDelivery  State = "choosing_delivery"
	StateEnteringPhone     State = "entering_phone"
	StateEnteringEmail     State = "entering_email"
	StateConfirmingPayment State = "confirming_payment"
)

// Delivery methods stored on the draft.
const (
	DeliverySelfPickup       = "self_pickup"
	DeliveryImmediatePayment = "immediate_payment"
)

// OrderDraft accumulates the order fields collected across states. All fields
// are optional until set; phone, email and delivery method must all be
// present before an invoice can be built.
type OrderDraft struct {
	DeliveryMethod string `json:"delivery_method,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	PaymentURL     string `json:"payment_url,omitempty"`
	OrderReference string `json:"order_reference,omitempty"`
	Currency       string `json:"currency,omitempty"`
}

func (d OrderDraft) currency() string {
	if d.Currency == "" {
		return "UAH"
	}
	return d.Currency
}
