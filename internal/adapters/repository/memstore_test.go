package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func entry(id string, opened time.Time) Entry {
	return Entry{ID: id, Label: "10.0.0.1", Slot: 1, Backend: "memory", OpenedAt: opened}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	t0 := time.Unix(1700000000, 0)

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.Add(ctx, entry("b", t0.Add(time.Second))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Add(ctx, entry("a", t0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Add(ctx, entry("c", t0.Add(time.Second))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count := store.Count(ctx); count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Backend != "memory" || !got.OpenedAt.Equal(t0) {
		t.Errorf("unexpected entry %+v", got)
	}

	list, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, e := range list {
		ids = append(ids, e.ID)
	}
	if fmt.Sprint(ids) != "[a b c]" {
		t.Errorf("expected oldest first with id tie-break, got %v", ids)
	}

	short, _ := store.List(ctx, 2)
	if len(short) != 2 {
		t.Errorf("expected 2 entries, got %d", len(short))
	}

	removed, err := store.Remove(ctx, "b")
	if err != nil || removed.ID != "b" {
		t.Fatalf("remove b: %+v, %v", removed, err)
	}
	if _, err := store.Get(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	list, _ = store.List(ctx, 10)
	if len(list) != 2 {
		t.Errorf("expected 2 entries after remove, got %d", len(list))
	}
}

func TestMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithMaxList(5))

	if err := store.Add(ctx, Entry{}); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("expected ErrInvalidEntry, got %v", err)
	}
	_ = store.Add(ctx, entry("x", time.Now()))
	if err := store.Add(ctx, entry("x", time.Now())); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if _, err := store.Remove(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	for _, limit := range []int{0, -1, 6} {
		if _, err := store.List(ctx, limit); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
	if store.MaxList() != 5 {
		t.Errorf("expected max list 5, got %d", store.MaxList())
	}
}

func TestMemoryStore_ListIsDetached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Add(ctx, entry("a", time.Now()))

	list, _ := store.List(ctx, 1)
	list[0].ID = "mutated"

	again, _ := store.List(ctx, 1)
	if again[0].ID != "a" {
		t.Errorf("snapshot was mutated through List result")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s-%d", i)
			if err := store.Add(ctx, entry(id, time.Now())); err != nil {
				t.Errorf("add %s: %v", id, err)
			}
			_, _ = store.List(ctx, 10)
			if i%2 == 0 {
				if _, err := store.Remove(ctx, id); err != nil {
					t.Errorf("remove %s: %v", id, err)
				}
			}
		}(i)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 25 {
		t.Errorf("expected 25 sessions, got %d", count)
	}
	list, _ := store.List(ctx, 1000)
	if len(list) != 25 {
		t.Errorf("expected snapshot of 25, got %d", len(list))
	}
}
