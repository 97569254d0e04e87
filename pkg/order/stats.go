package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/tably/go/pkg/kv"
)

// Stats tallies order history in a KV store:
//
//	stats:item:<itemID>   msgpack int64, units ordered all-time
//	order:<yyyymmdd>:<id> msgpack Summary, date-partitioned index
//
// The index backs `orders list` without re-reading every order file.
type Stats struct {
	store kv.Store
}

// NewStats wraps store as a stats sink.
func NewStats(store kv.Store) *Stats {
	return &Stats{store: store}
}

// Close closes the underlying store.
func (s *Stats) Close() error {
	return s.store.Close()
}

// Summary is the compact index entry for one finalized order.
type Summary struct {
	ID        string `msgpack:"id"`
	SessionID string `msgpack:"session_id"`
	CreatedAt int64  `msgpack:"created_at"`
	Items     int    `msgpack:"items"`
	Units     int    `msgpack:"units"`
	Total     int64  `msgpack:"total"`
	File      string `msgpack:"file"`
}

func summarize(rec *Record) Summary {
	units := 0
	for _, ln := range rec.Lines {
		units += ln.Quantity
	}
	return Summary{
		ID:        rec.ID,
		SessionID: rec.SessionID,
		CreatedAt: rec.CreatedAt.Time().UnixMilli(),
		Items:     len(rec.Lines),
		Units:     units,
		Total:     int64(rec.Total),
		File:      rec.Filename(),
	}
}

// Record indexes one finalized order and bumps its item counters in a
// single batch.
func (s *Stats) Record(ctx context.Context, rec *Record) error {
	day := rec.CreatedAt.Time().UTC().Format("20060102")
	val, err := msgpack.Marshal(summarize(rec))
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	entries := []kv.Entry{{Key: kv.Key{"order", day, rec.ID}, Value: val}}
	for _, ln := range rec.Lines {
		n, err := s.ItemCount(ctx, ln.ItemID)
		if err != nil {
			return err
		}
		cnt, err := msgpack.Marshal(n + int64(ln.Quantity))
		if err != nil {
			return fmt.Errorf("encode count: %w", err)
		}
		entries = append(entries, kv.Entry{Key: kv.Key{"stats", "item", ln.ItemID}, Value: cnt})
	}
	return s.store.BatchSet(ctx, entries)
}

// ItemCount returns the all-time units ordered for an item, zero when
// the item has never been ordered.
func (s *Stats) ItemCount(ctx context.Context, itemID string) (int64, error) {
	data, err := s.store.Get(ctx, kv.Key{"stats", "item", itemID})
	if errors.Is(err, kv.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n int64
	if err := msgpack.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("decode count for %s: %w", itemID, err)
	}
	return n, nil
}

// ItemCounts returns every item counter.
func (s *Stats) ItemCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for entry, err := range s.store.List(ctx, kv.Key{"stats", "item"}) {
		if err != nil {
			return nil, err
		}
		var n int64
		if err := msgpack.Unmarshal(entry.Value, &n); err != nil {
			return nil, fmt.Errorf("decode count %s: %w", entry.Key, err)
		}
		counts[entry.Key[len(entry.Key)-1]] = n
	}
	return counts, nil
}

// Summaries returns the index entries for one day (yyyymmdd), or for
// all days when day is empty, in key order.
func (s *Stats) Summaries(ctx context.Context, day string) ([]Summary, error) {
	prefix := kv.Key{"order"}
	if day != "" {
		prefix = append(prefix, day)
	}
	var out []Summary
	for entry, err := range s.store.List(ctx, prefix) {
		if err != nil {
			return nil, err
		}
		var sum Summary
		if err := msgpack.Unmarshal(entry.Value, &sum); err != nil {
			return nil, fmt.Errorf("decode summary %s: %w", entry.Key, err)
		}
		out = append(out, sum)
	}
	return out, nil
}
