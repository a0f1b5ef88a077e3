package store

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
)

func TestMemoryStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) err = %v, want store not found", err)
	}

	if err := s.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k1")
	if err != nil || string(got) != "v1" {
		t.Fatalf("Get(k1) = (%q, %v)", got, err)
	}

	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k1"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after delete err = %v, want store not found", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.Set(ctx, "transient", []byte("v"), 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Get(ctx, "transient"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := s.Get(ctx, "transient"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after expiry err = %v, want store not found", err)
	}
}

func TestMemoryStoreBatchGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.Set(ctx, "a", []byte("1"))
	s.Set(ctx, "b", []byte("2"))

	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("BatchGet = %v", got)
	}
}

func TestMemoryStoreSortedSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	// same score entries must come back in member order for determinism
	s.ZAdd(ctx, "z", 3.0, "c")
	s.ZAdd(ctx, "z", 5.0, "a")
	s.ZAdd(ctx, "z", 3.0, "b")
	s.ZAdd(ctx, "z", 9.0, "d")

	members, err := s.ZRangeWithScores(ctx, "z", 0, 2)
	if err != nil {
		t.Fatalf("ZRangeWithScores: %v", err)
	}
	want := []core.ZMember{{Member: "d", Score: 9}, {Member: "a", Score: 5}, {Member: "b", Score: 3}}
	if len(members) != len(want) {
		t.Fatalf("ZRangeWithScores = %v, want %v", members, want)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Errorf("ZRangeWithScores[%d] = %v, want %v", i, members[i], want[i])
		}
	}

	ids, err := s.ZRange(ctx, "z", 0, -1)
	if err != nil || len(ids) != 4 {
		t.Fatalf("ZRange = (%v, %v)", ids, err)
	}
	if ids[0] != "d" || ids[3] != "c" {
		t.Errorf("ZRange order = %v", ids)
	}

	// Delete clears the sorted set as well
	if err := s.Delete(ctx, "z"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	members, _ = s.ZRangeWithScores(ctx, "z", 0, -1)
	if len(members) != 0 {
		t.Errorf("sorted set survived Delete: %v", members)
	}
}
