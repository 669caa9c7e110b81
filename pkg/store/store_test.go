package store

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(25, 10)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetBalanceSeedValues(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.GetBalance()
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}

	if snap.TotalDays != 25 {
		t.Errorf("Expected total 25, got %d", snap.TotalDays)
	}
	if snap.UsedDays != 10 {
		t.Errorf("Expected used 10, got %d", snap.UsedDays)
	}
	if snap.RemainingDays != 15 {
		t.Errorf("Expected remaining 15, got %d", snap.RemainingDays)
	}
	if len(snap.PendingRequests) != 0 {
		t.Errorf("Expected no pending requests, got %d", len(snap.PendingRequests))
	}
}

func TestSeedRejectsInvalidBalance(t *testing.T) {
	s, err := Open(MemoryDSN)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.Seed(10, 11); err == nil {
		t.Error("Expected error seeding used > total")
	}
}

func TestAppendPendingPreservesInsertionOrder(t *testing.T) {
	s := newTestStore(t)

	first, err := s.AppendPending("2025-07-04", "2025-07-06", 3)
	if err != nil {
		t.Fatalf("AppendPending failed: %v", err)
	}
	second, err := s.AppendPending("2025-08-01", "2025-08-01", 1)
	if err != nil {
		t.Fatalf("AppendPending failed: %v", err)
	}

	if first.Status != StatusPending || second.Status != StatusPending {
		t.Errorf("Expected pending status, got %q and %q", first.Status, second.Status)
	}
	if first.ID == second.ID {
		t.Error("Expected distinct request IDs")
	}

	snap, err := s.GetBalance()
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if len(snap.PendingRequests) != 2 {
		t.Fatalf("Expected 2 pending requests, got %d", len(snap.PendingRequests))
	}
	if snap.PendingRequests[0].ID != first.ID {
		t.Error("Expected first appended request first in snapshot")
	}
	if snap.PendingRequests[1].StartDate != "2025-08-01" {
		t.Errorf("Expected second request start 2025-08-01, got %s", snap.PendingRequests[1].StartDate)
	}
}

func TestAppendPendingIsNotIdempotent(t *testing.T) {
	// Current contract: identical arguments append identical rows.
	s := newTestStore(t)

	if _, err := s.AppendPending("2025-07-04", "2025-07-06", 3); err != nil {
		t.Fatalf("AppendPending failed: %v", err)
	}
	if _, err := s.AppendPending("2025-07-04", "2025-07-06", 3); err != nil {
		t.Fatalf("AppendPending failed: %v", err)
	}

	count, err := s.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 pending requests after duplicate append, got %d", count)
	}
}
