// Package order tracks the running order for one session and persists
// finalized orders as one JSON file each.
//
// The ledger is the only owner of the in-progress order. Finalize is
// atomic with respect to persistence: either the record is durably
// written and the ledger is cleared for a fresh session, or the write
// fails and the order stays intact for a later retry.
package order

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haivivi/tably/go/pkg/jsontime"
	"github.com/haivivi/tably/go/pkg/menu"
)

// ErrEmpty is returned by Finalize when the ledger has no lines.
var ErrEmpty = errors.New("order: order is empty")

// Line is one item entry in an order. An item id appears at most once;
// repeated adds merge by summing quantity.
type Line struct {
	ItemID    string     `json:"item_id" yaml:"item_id"`
	Name      string     `json:"name" yaml:"name"`
	Quantity  int        `json:"quantity" yaml:"quantity"`
	UnitPrice menu.Cents `json:"unit_price" yaml:"unit_price"`
}

// Subtotal returns quantity times unit price.
func (l Line) Subtotal() menu.Cents {
	return l.UnitPrice * menu.Cents(l.Quantity)
}

// Record is a finalized order as persisted to disk.
type Record struct {
	ID        string         `json:"id" yaml:"id"`
	SessionID string         `json:"session_id" yaml:"session_id"`
	CreatedAt jsontime.Milli `json:"created_at" yaml:"created_at"`
	Lines     []Line         `json:"lines" yaml:"lines"`
	Total     menu.Cents     `json:"total" yaml:"total"`
}

// Filename returns the storage name for the record,
// "<sessionID>-<unixmilli>.json".
func (r *Record) Filename() string {
	ms := r.CreatedAt.Time().UnixMilli()
	return r.SessionID + "-" + strconv.FormatInt(ms, 10) + ".json"
}

// Ledger accumulates order lines for one session.
type Ledger struct {
	mu        sync.Mutex
	store     *Store
	sessionID string
	createdAt time.Time
	lines     []Line
}

// NewLedger returns an empty ledger with a fresh session id. A nil
// store makes Finalize build records without persisting them.
func NewLedger(store *Store) *Ledger {
	l := &Ledger{store: store}
	l.rotate(time.Now())
	return l
}

func (l *Ledger) rotate(now time.Time) {
	l.sessionID = uuid.NewString()
	l.createdAt = now
	l.lines = nil
}

// SessionID returns the current session identifier.
func (l *Ledger) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

// Add merges qty of item into the order. Quantities below one count
// as one.
func (l *Ledger) Add(item *menu.Item, qty int) Line {
	if qty < 1 {
		qty = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.lines {
		if l.lines[i].ItemID == item.ID {
			l.lines[i].Quantity += qty
			return l.lines[i]
		}
	}
	l.lines = append(l.lines, Line{
		ItemID:    item.ID,
		Name:      item.Name,
		Quantity:  qty,
		UnitPrice: item.Price,
	})
	return l.lines[len(l.lines)-1]
}

// Remove deletes the line for itemID, reporting whether it was
// present. Removing an absent item is a no-op for the order.
func (l *Ledger) Remove(itemID string) (Line, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, ln := range l.lines {
		if ln.ItemID == itemID {
			l.lines = slices.Delete(l.lines, i, i+1)
			return ln, true
		}
	}
	return Line{}, false
}

// Lines returns a copy of the order lines in insertion order.
func (l *Ledger) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.lines)
}

// Empty reports whether the order has no lines.
func (l *Ledger) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines) == 0
}

// Total returns the exact order total in cents.
func (l *Ledger) Total() menu.Cents {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sumLines(l.lines)
}

func sumLines(lines []Line) menu.Cents {
	var total menu.Cents
	for _, ln := range lines {
		total += ln.Subtotal()
	}
	return total
}

// Reset clears the order lines. The session id is unchanged; the same
// customer is starting the order over.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

// Finalize persists the order and clears the ledger for a new session.
// An empty ledger returns ErrEmpty without touching storage. A failed
// write leaves the ledger intact so the next done intent can retry.
func (l *Ledger) Finalize(ctx context.Context) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return nil, ErrEmpty
	}
	now := time.Now()
	rec := &Record{
		ID:        "ORD-" + strconv.FormatInt(now.UnixMilli(), 10),
		SessionID: l.sessionID,
		CreatedAt: jsontime.Milli(now),
		Lines:     slices.Clone(l.lines),
		Total:     sumLines(l.lines),
	}
	if l.store != nil {
		if err := l.store.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("order: finalize %s: %w", rec.ID, err)
		}
	}
	l.rotate(now)
	return rec, nil
}
