package timeoff

import (
	"strings"
	"testing"
	"time"

	"hrassist/pkg/store"
)

// fixedToday pins "today" so validation is deterministic.
var fixedToday = time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.OpenInMemory(25, 10)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, FixedClock(fixedToday)), st
}

func TestProposeRequestComputesInclusiveEndDate(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		startDate string
		days      int
		endDate   string
	}{
		{"2025-07-04", 3, "2025-07-06"},
		{"2025-07-01", 1, "2025-07-01"}, // today is valid
		{"2025-12-30", 5, "2026-01-03"}, // crosses year boundary
		{"2026-02-27", 2, "2026-02-28"}, // February, non-leap year
	}

	for _, tt := range tests {
		out := svc.ProposeRequest(tt.startDate, tt.days)
		if !out.Success {
			t.Errorf("ProposeRequest(%s, %d): expected success, got failure: %s", tt.startDate, tt.days, out.Message)
			continue
		}
		if !out.RequiresConfirmation {
			t.Errorf("ProposeRequest(%s, %d): expected RequiresConfirmation", tt.startDate, tt.days)
		}
		if out.RequestDetails == nil {
			t.Fatalf("ProposeRequest(%s, %d): missing request details", tt.startDate, tt.days)
		}
		if out.RequestDetails.EndDate != tt.endDate {
			t.Errorf("ProposeRequest(%s, %d): expected end %s, got %s", tt.startDate, tt.days, tt.endDate, out.RequestDetails.EndDate)
		}
		if out.RequestDetails.NumberOfDays != tt.days {
			t.Errorf("ProposeRequest(%s, %d): days not echoed back", tt.startDate, tt.days)
		}
	}
}

func TestProposeRequestRejectsPastDate(t *testing.T) {
	svc, _ := newTestService(t)

	out := svc.ProposeRequest("2020-01-01", 2)
	if out.Success {
		t.Fatal("Expected failure for past date")
	}
	if out.Reason != ReasonPastDate {
		t.Errorf("Expected reason %q, got %q", ReasonPastDate, out.Reason)
	}
	if !strings.Contains(out.Message, "past") {
		t.Errorf("Expected message mentioning past date, got: %s", out.Message)
	}
	if out.RequestDetails != nil {
		t.Error("Failure outcome must not carry request details")
	}
}

func TestProposeRequestYesterdayIsPast(t *testing.T) {
	svc, _ := newTestService(t)

	out := svc.ProposeRequest("2025-06-30", 1)
	if out.Success {
		t.Fatal("Expected failure for yesterday")
	}
	if out.Reason != ReasonPastDate {
		t.Errorf("Expected reason %q, got %q", ReasonPastDate, out.Reason)
	}
}

func TestProposeRequestRejectsMalformedDate(t *testing.T) {
	svc, _ := newTestService(t)

	for _, bad := range []string{"not-a-date", "07/04/2025", "2025-13-01", "2025-07-4", ""} {
		out := svc.ProposeRequest(bad, 1)
		if out.Success {
			t.Errorf("ProposeRequest(%q): expected failure", bad)
			continue
		}
		if out.Reason != ReasonInvalidDateFormat {
			t.Errorf("ProposeRequest(%q): expected reason %q, got %q", bad, ReasonInvalidDateFormat, out.Reason)
		}
		if !strings.Contains(out.Message, "format") {
			t.Errorf("ProposeRequest(%q): expected message mentioning format, got: %s", bad, out.Message)
		}
	}
}

func TestProposeRequestTrustsNumberOfDays(t *testing.T) {
	// Current contract: no positivity or upper-bound check on numberOfDays.
	svc, _ := newTestService(t)

	out := svc.ProposeRequest("2025-07-04", 0)
	if !out.Success {
		t.Fatalf("Expected success for zero days (trusted as-is), got: %s", out.Message)
	}
	if out.RequestDetails.EndDate != "2025-07-03" {
		t.Errorf("Expected end date 2025-07-03 for zero days, got %s", out.RequestDetails.EndDate)
	}
}

func TestProposeRequestDoesNotMutateStore(t *testing.T) {
	svc, st := newTestService(t)

	_ = svc.ProposeRequest("2025-07-04", 3)

	count, err := st.PendingCount()
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Propose must not mutate the store, found %d pending requests", count)
	}
}

func TestResolveRequestDeclinedLeavesStoreUntouched(t *testing.T) {
	svc, st := newTestService(t)

	out := svc.ResolveRequest("2025-07-04", "2025-07-06", 3, false)
	if !out.Success {
		t.Fatalf("Expected success for cancellation, got: %s", out.Message)
	}
	if out.Message != "Time off request cancelled." {
		t.Errorf("Unexpected cancellation message: %s", out.Message)
	}
	if out.Request != nil {
		t.Error("Cancellation must not carry a request record")
	}

	count, _ := st.PendingCount()
	if count != 0 {
		t.Errorf("Cancellation must not mutate the store, found %d pending requests", count)
	}
}

func TestResolveRequestConfirmedAppendsPending(t *testing.T) {
	svc, _ := newTestService(t)

	out := svc.ResolveRequest("2025-07-04", "2025-07-06", 3, true)
	if !out.Success {
		t.Fatalf("Expected success, got: %s", out.Message)
	}
	if out.Request == nil {
		t.Fatal("Expected submitted request record")
	}
	if out.Request.Status != store.StatusPending {
		t.Errorf("Expected status %q, got %q", store.StatusPending, out.Request.Status)
	}
	if out.Request.StartDate != "2025-07-04" || out.Request.EndDate != "2025-07-06" || out.Request.NumberOfDays != 3 {
		t.Errorf("Submitted record does not echo confirmed fields: %+v", out.Request)
	}

	snap, err := svc.GetBalance()
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if len(snap.PendingRequests) != 1 {
		t.Fatalf("Expected 1 pending request, got %d", len(snap.PendingRequests))
	}
}

func TestResolveRequestTwiceAppendsTwice(t *testing.T) {
	// Documented current behavior, not a guarantee: no idempotence.
	svc, st := newTestService(t)

	_ = svc.ResolveRequest("2025-07-04", "2025-07-06", 3, true)
	_ = svc.ResolveRequest("2025-07-04", "2025-07-06", 3, true)

	count, _ := st.PendingCount()
	if count != 2 {
		t.Errorf("Expected 2 pending requests after double confirm, got %d", count)
	}
}

func TestGetBalanceRemainingInvariant(t *testing.T) {
	svc, _ := newTestService(t)

	snap, err := svc.GetBalance()
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if snap.RemainingDays != snap.TotalDays-snap.UsedDays {
		t.Errorf("remaining %d != total %d - used %d", snap.RemainingDays, snap.TotalDays, snap.UsedDays)
	}
}

func TestEndToEndProposeThenConfirm(t *testing.T) {
	svc, _ := newTestService(t)

	proposed := svc.ProposeRequest("2025-07-04", 3)
	if !proposed.Success || !proposed.RequiresConfirmation {
		t.Fatalf("Expected confirmable proposal, got: %+v", proposed)
	}
	if proposed.RequestDetails.EndDate != "2025-07-06" {
		t.Fatalf("Expected end date 2025-07-06, got %s", proposed.RequestDetails.EndDate)
	}

	d := proposed.RequestDetails
	resolved := svc.ResolveRequest(d.StartDate, d.EndDate, d.NumberOfDays, true)
	if !resolved.Success {
		t.Fatalf("Expected submission success, got: %s", resolved.Message)
	}

	snap, _ := svc.GetBalance()
	if len(snap.PendingRequests) != 1 {
		t.Fatalf("Expected 1 pending request, got %d", len(snap.PendingRequests))
	}
	if snap.PendingRequests[0].Status != "pending" {
		t.Errorf("Expected pending status, got %q", snap.PendingRequests[0].Status)
	}
}
