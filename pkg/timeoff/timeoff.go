// Package timeoff implements the time-off request workflow: balance queries,
// request validation, and confirmation-gated submission.
//
// The two-phase contract is the load-bearing part: ProposeRequest only ever
// validates and returns a confirmable proposal, and ResolveRequest only ever
// applies or discards what the employee explicitly confirmed or declined.
// Nothing is written to the store between those two calls.
package timeoff

import (
	"fmt"
	"time"

	"hrassist/pkg/store"
)

// DateLayout is the calendar date format used on every external surface.
// Dates carry no time-of-day or timezone component.
const DateLayout = "2006-01-02"

// Reason tags a failure outcome. All failures are surfaced as structured
// payloads meant for direct display to the employee, never as faults.
type Reason string

const (
	ReasonInvalidDateFormat Reason = "invalid_date_format"
	ReasonPastDate          Reason = "past_date"
	ReasonInternalFailure   Reason = "internal_failure"
)

// Clock supplies "today" so validation is deterministic under test.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns process-local wall-clock time.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}

// FixedClock returns a clock pinned to t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// Proposal carries the validated fields of a not-yet-committed request. It is
// transient: the caller round-trips these fields back into ResolveRequest
// together with the employee's decision.
type Proposal struct {
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	NumberOfDays int    `json:"numberOfDays"`
}

// ProposeOutcome is the Validator result. Either a confirmable proposal
// (Success && RequiresConfirmation) or a tagged, displayable failure.
type ProposeOutcome struct {
	Success              bool      `json:"success"`
	RequiresConfirmation bool      `json:"requiresConfirmation,omitempty"`
	Message              string    `json:"message"`
	Reason               Reason    `json:"-"`
	RequestDetails       *Proposal `json:"requestDetails,omitempty"`
}

// ResolveOutcome is the Committer result.
type ResolveOutcome struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Reason  Reason                `json:"-"`
	Request *store.TimeOffRequest `json:"request,omitempty"`
}

// Service exposes the three tool operations over an explicitly owned store.
type Service struct {
	store *store.Store
	clock Clock
}

// NewService creates a Service. A nil clock defaults to the system clock.
func NewService(st *store.Store, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{store: st, clock: clock}
}

// GetBalance returns the current balance snapshot. Read-only.
func (s *Service) GetBalance() (store.BalanceSnapshot, error) {
	return s.store.GetBalance()
}

// truncateToDay drops the time-of-day component.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ProposeRequest validates a start date and duration and, when valid, returns
// a proposal requiring explicit confirmation. It never mutates the store.
//
// numberOfDays is trusted as given: no positivity or balance check is applied
// here, matching the committer's trust in the confirmed fields.
func (s *Service) ProposeRequest(startDate string, numberOfDays int) ProposeOutcome {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return ProposeOutcome{
			Success: false,
			Reason:  ReasonInvalidDateFormat,
			Message: fmt.Sprintf("Invalid date format %q. Please use YYYY-MM-DD (e.g., 2025-07-01).", startDate),
		}
	}

	today := truncateToDay(s.clock.Now())
	if truncateToDay(start).Before(today) {
		return ProposeOutcome{
			Success: false,
			Reason:  ReasonPastDate,
			Message: fmt.Sprintf("Start date %s is in the past. Time off requests must start today or later.", startDate),
		}
	}

	end := start.AddDate(0, 0, numberOfDays-1)
	endDate := end.Format(DateLayout)

	return ProposeOutcome{
		Success:              true,
		RequiresConfirmation: true,
		Message: fmt.Sprintf(
			"You are requesting %d day(s) of time off starting %s and ending %s. Please confirm to submit this request.",
			numberOfDays, startDate, endDate),
		RequestDetails: &Proposal{
			StartDate:    startDate,
			EndDate:      endDate,
			NumberOfDays: numberOfDays,
		},
	}
}

// ResolveRequest applies or discards a previously proposed request based on
// the employee's explicit decision. The fields are trusted as given; no
// re-validation runs here. Unexpected store faults become a generic failure
// outcome rather than propagating.
func (s *Service) ResolveRequest(startDate, endDate string, numberOfDays int, confirmed bool) ResolveOutcome {
	if !confirmed {
		return ResolveOutcome{
			Success: true,
			Message: "Time off request cancelled.",
		}
	}

	req, err := s.store.AppendPending(startDate, endDate, numberOfDays)
	if err != nil {
		return ResolveOutcome{
			Success: false,
			Reason:  ReasonInternalFailure,
			Message: fmt.Sprintf("Failed to submit time off request: %v", err),
		}
	}

	return ResolveOutcome{
		Success: true,
		Message: fmt.Sprintf(
			"Time off request submitted: %d day(s) from %s to %s, now pending approval.",
			numberOfDays, startDate, endDate),
		Request: &req,
	}
}
