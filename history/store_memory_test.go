package history

import (
	"context"
	"testing"
)

func TestMemoryStore_AppendListRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"rec-a", "rec-b", "rec-c"} {
		rec := Record{ID: id, Tool: "analyze_cryptography", Outcome: OutcomeCompleted, Source: "mcp"}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}

	records, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 || records[0].ID != "rec-c" || records[2].ID != "rec-a" {
		t.Fatalf("order = %v", recordIDs(records))
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "rec-c" {
		t.Fatalf("limited = %v", recordIDs(limited))
	}
}

func TestMemoryStore_FillsCreatedAt(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Append(context.Background(), Record{ID: "rec-1"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	records, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if records[0].CreatedAt.IsZero() {
		t.Fatal("CreatedAt not filled on append")
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Append(ctx, Record{ID: "rec-1"}); err == nil {
		t.Error("Append() with canceled context expected error")
	}
	if _, err := store.List(ctx, 0); err == nil {
		t.Error("List() with canceled context expected error")
	}
}

func TestMemoryStore_Close(t *testing.T) {
	if err := NewMemoryStore().Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
