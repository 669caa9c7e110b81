package store

import (
	"github.com/google/uuid"
)

// TimeOffRequest is a committed request awaiting HR review. Requests are
// created only after explicit employee confirmation and are never mutated
// or removed afterward.
type TimeOffRequest struct {
	ID           string `json:"id"`
	StartDate    string `json:"startDate"` // YYYY-MM-DD
	EndDate      string `json:"endDate"`   // YYYY-MM-DD, inclusive
	NumberOfDays int    `json:"numberOfDays"`
	Status       string `json:"status"`
}

// Request status constants. The assistant only ever produces "pending";
// later transitions belong to an HR system this assistant does not model.
const (
	StatusPending = "pending"
)

// BalanceSnapshot is the read-only projection returned by balance queries.
type BalanceSnapshot struct {
	TotalDays       int              `json:"totalDays"`
	UsedDays        int              `json:"usedDays"`
	RemainingDays   int              `json:"remainingDays"`
	PendingRequests []TimeOffRequest `json:"pendingRequests"`
}

// GenerateRequestID generates a new UUID for a time-off request.
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateSessionID generates a new UUID for a conversation session.
func GenerateSessionID() string {
	return uuid.New().String()
}
