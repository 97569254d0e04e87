package dialog

import (
	"fmt"
	"strings"

	"github.com/haivivi/tably/go/pkg/menu"
	"github.com/haivivi/tably/go/pkg/order"
)

// DefaultGreeting opens a session when no greeting is configured.
const DefaultGreeting = "Welcome! Say 'hey tably' to start ordering."

// Composer renders intent outcomes into the assistant's spoken lines.
// The zero value is ready to use.
type Composer struct {
	// Greeting opens the session; empty means DefaultGreeting.
	Greeting string
}

// Greet returns the session opening line.
func (c *Composer) Greet() string {
	if c.Greeting != "" {
		return c.Greeting
	}
	return DefaultGreeting
}

// Listening acknowledges a wake trigger.
func (c *Composer) Listening() string {
	return "Yes, I'm listening! What would you like to order?"
}

// DidntCatch asks the customer to repeat after an unusable transcript.
func (c *Composer) DidntCatch() string {
	return "I didn't catch that. Please speak clearly and try again."
}

// Unknown is the generic clarification for an unclassified utterance.
func (c *Composer) Unknown() string {
	return "I'm sorry, I didn't understand. Can you repeat that?"
}

// NoItems handles an order with no item mentions.
func (c *Composer) NoItems() string {
	return "I didn't catch which item you'd like. Can you repeat?"
}

// Added confirms the lines added by one utterance. Quantities are the
// amounts just added, not the merged ledger totals.
func (c *Composer) Added(lines []order.Line) string {
	var parts []string
	var total menu.Cents
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%d %s", l.Quantity, l.Name))
		total += l.Subtotal()
	}
	return fmt.Sprintf("Added %s to your order. That's %s.", joinAnd(parts), total.Dollars())
}

// AnythingElse tails a successful add.
func (c *Composer) AnythingElse() string {
	return "Anything else?"
}

// NotFound reports mentions that matched nothing on the menu.
func (c *Composer) NotFound(names []string) string {
	return fmt.Sprintf("Sorry, I couldn't find %s on our menu. Would you like to hear our suggestions?", joinAnd(names))
}

// DidYouMean asks the customer to pick between close matches.
func (c *Composer) DidYouMean(raw string, cands []menu.Candidate) string {
	names := make([]string, 0, 3)
	for _, cand := range cands {
		names = append(names, cand.Item.Name)
		if len(names) == 3 {
			break
		}
	}
	return fmt.Sprintf("For %s, did you mean %s?", raw, joinOr(names))
}

// Suggestions lists the popular items with prices.
func (c *Composer) Suggestions(items []*menu.Item) string {
	if len(items) == 0 {
		return "Let me tell you about our menu."
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s for %s", it.Name, it.Price.Dollars()))
	}
	return "Our popular items are: " + joinAnd(parts) + "."
}

// Confirmed acknowledges a confirmation and reprises the running total.
func (c *Composer) Confirmed(total menu.Cents, empty bool) string {
	if empty {
		return "Great! Your order is confirmed."
	}
	return fmt.Sprintf("Great! Your order is confirmed. Your total so far is %s.", total.Dollars())
}

// Canceled acknowledges a full order reset.
func (c *Composer) Canceled() string {
	return "No problem. What would you like instead?"
}

// Removed confirms a removed line.
func (c *Composer) Removed(line order.Line) string {
	return fmt.Sprintf("Removed %d %s from your order.", line.Quantity, line.Name)
}

// NotInOrder reports a removal that matched nothing in the order.
func (c *Composer) NotInOrder(name string) string {
	return fmt.Sprintf("I don't see %s in your order.", name)
}

// ItemInfo describes one menu item with its price.
func (c *Composer) ItemInfo(item *menu.Item) string {
	desc := item.Description
	if desc == "" {
		desc = "No description available"
	}
	return fmt.Sprintf("%s: %s. It costs %s.", item.Name, desc, item.Price.Dollars())
}

// NoInfo reports an info request for an unknown item.
func (c *Composer) NoInfo(name string) string {
	return fmt.Sprintf("Sorry, I don't have information about %s.", name)
}

// WhichItem handles an info request with no item mention.
func (c *Composer) WhichItem() string {
	return "Which item would you like to know about?"
}

// OrderSaved summarizes and closes a finalized order.
func (c *Composer) OrderSaved(lines []order.Line, total menu.Cents) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%d %s", l.Quantity, l.Name))
	}
	return fmt.Sprintf("Your order: %s. Total: %s. Thank you! Your order has been saved.",
		strings.Join(parts, ", "), total.Dollars())
}

// SaveFailed reports a persistence failure; the order is kept for retry.
func (c *Composer) SaveFailed() string {
	return "Sorry, I couldn't save your order. Let's try again in a moment."
}

// GoodbyeEmpty closes a session that ordered nothing.
func (c *Composer) GoodbyeEmpty() string {
	return "You haven't ordered anything yet. Thanks for stopping by!"
}

func joinAnd(parts []string) string { return joinWith(parts, "and") }

func joinOr(parts []string) string { return joinWith(parts, "or") }

func joinWith(parts []string, conj string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " " + conj + " " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", " + conj + " " + parts[len(parts)-1]
	}
}
