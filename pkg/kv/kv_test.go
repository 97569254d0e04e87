package kv_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/haivivi/tably/go/pkg/kv"
)

// Tests in this file run against the Memory implementation; the badger
// tests reuse the same scenarios against the real engine.
func newTestStore(t *testing.T, opts *kv.Options) kv.Store {
	t.Helper()
	s := kv.NewMemory(opts)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	key := kv.Key{"stats", "item", "beef-burger"}
	val := []byte("7")

	_, err := s.Get(ctx, key)
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, key, val); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("Get = %q, want %q", got, val)
	}

	if err := s.Set(ctx, key, []byte("8")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if string(got) != "8" {
		t.Fatalf("Get = %q, want %q", got, "8")
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := s.Delete(ctx, kv.Key{"no", "such", "key"}); err != nil {
		t.Fatalf("Delete non-existent: %v", err)
	}
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	seed := []kv.Entry{
		{Key: kv.Key{"order", "20260101", "ORD-1"}, Value: []byte("a")},
		{Key: kv.Key{"order", "20260101", "ORD-2"}, Value: []byte("b")},
		{Key: kv.Key{"order", "20260102", "ORD-3"}, Value: []byte("c")},
		{Key: kv.Key{"orders-other", "x"}, Value: []byte("d")},
		{Key: kv.Key{"stats", "item", "coffee"}, Value: []byte("e")},
	}
	if err := s.BatchSet(ctx, seed); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}

	var got []string
	for e, err := range s.List(ctx, kv.Key{"order"}) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		got = append(got, e.Key.String())
	}
	want := []string{
		"order:20260101:ORD-1",
		"order:20260101:ORD-2",
		"order:20260102:ORD-3",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}

func TestListStopsWhenYieldReturnsFalse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	for i := range 5 {
		key := kv.Key{"stats", "item", string(rune('a' + i))}
		if err := s.Set(ctx, key, []byte{byte(i)}); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	n := 0
	for _, err := range s.List(ctx, kv.Key{"stats"}) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("iterated %d entries, want 2", n)
	}
}

func TestBatchDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	keys := []kv.Key{
		{"stats", "item", "coffee"},
		{"stats", "item", "spring-rolls"},
	}
	for _, k := range keys {
		if err := s.Set(ctx, k, []byte("1")); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := s.BatchDelete(ctx, keys); err != nil {
		t.Fatalf("BatchDelete: %v", err)
	}
	for _, k := range keys {
		if _, err := s.Get(ctx, k); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("Get(%v) after BatchDelete = %v, want ErrNotFound", k, err)
		}
	}
}

func TestCustomSeparator(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &kv.Options{Separator: '/'})

	if err := s.Set(ctx, kv.Key{"a", "b"}, []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var got []string
	for e, err := range s.List(ctx, kv.Key{"a"}) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		got = append(got, e.Key.String())
	}
	if !slices.Equal(got, []string{"a:b"}) {
		t.Fatalf("List = %v", got)
	}
}
