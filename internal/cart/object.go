package cart

import (
	"fmt"
	"log"
	"time"

	restate "github.com/restatedev/sdk-go"
)

// Item is one cart line. Items keep insertion order: the payment signature is
// computed over the product arrays in cart order, so the order a flower was
// added in is part of the contract with the gateway.
type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// State is the full cart of one chat session.
type State struct {
	ChatID    string    `json:"chat_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Total sums quantity × price over all lines.
func (s State) Total() float64 {
	var total float64
	for _, it := range s.Items {
		total += float64(it.Quantity) * it.Price
	}
	return total
}

// Empty reports whether the cart has no lines.
func (s State) Empty() bool { return len(s.Items) == 0 }

const stateKeyItems = "items"

type AddItemRequest struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type AddItemResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	State   State  `json:"state"`
}

type ViewCartResponse struct {
	State State `json:"state"`
}

type ClearCartResponse struct {
	Success bool `json:"success"`
}

// AddItem puts a flower into the session's cart, merging quantity when the
// same name is already present.
func AddItem(ctx restate.ObjectContext, req *AddItemRequest) (*AddItemResponse, error) {
	chatID := restate.Key(ctx)

	if req.Quantity < 1 {
		return nil, restate.TerminalError(fmt.Errorf("quantity must be at least 1"), 400)
	}
	if req.Price < 0 {
		return nil, restate.TerminalError(fmt.Errorf("price cannot be negative"), 400)
	}

	items, _ := restate.Get[[]Item](ctx, stateKeyItems)

	found := false
	for i := range items {
		if items[i].Name == req.Name {
			items[i].Quantity += req.Quantity
			items[i].Price = req.Price
			found = true
			break
		}
	}
	if !found {
		items = append(items, Item{Name: req.Name, Quantity: req.Quantity, Price: req.Price})
	}

	restate.Set(ctx, stateKeyItems, items)

	state := State{ChatID: chatID, Items: items, UpdatedAt: time.Now()}
	log.Printf("[Cart %s] Added %q x%d (%.2f); %d lines, total %.2f",
		chatID, req.Name, req.Quantity, req.Price, len(items), state.Total())

	return &AddItemResponse{Success: true, Message: "Item added to cart", State: state}, nil
}

// ViewCart returns the current cart contents without mutating them.
func ViewCart(ctx restate.ObjectSharedContext, _ restate.Void) (*ViewCartResponse, error) {
	chatID := restate.Key(ctx)
	items, _ := restate.Get[[]Item](ctx, stateKeyItems)
	return &ViewCartResponse{State: State{ChatID: chatID, Items: items}}, nil
}

// ClearCart empties the cart after a completed order.
func ClearCart(ctx restate.ObjectContext, _ restate.Void) (*ClearCartResponse, error) {
	chatID := restate.Key(ctx)
	restate.Set(ctx, stateKeyItems, []Item{})
	log.Printf("[Cart %s] Cart cleared", chatID)
	return &ClearCartResponse{Success: true}, nil
}
