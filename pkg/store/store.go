// Package store provides the employee leave balance store.
//
// The store is backed by an in-memory SQLite database: it is created at
// process start with seed values and lost on shutdown. It is an explicitly
// owned object passed by reference into the tool layer, not process-global
// state; callers needing per-session isolation open one store per session.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = "file::memory:?cache=private"

// Store holds a single employee's leave balance and pending requests.
// Safe for use from a single conversation goroutine; the mutex guards the
// SQLite connection against incidental concurrent reads (metrics, tests).
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates a store at the given DSN and initializes the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open balance store: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping balance store: %w", err)
	}

	// SQLite supports one writer; an in-memory db vanishes if all conns close.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenInMemory creates an ephemeral store seeded with the given balance.
func OpenInMemory(totalDays, usedDays int) (*Store, error) {
	s, err := Open(MemoryDSN)
	if err != nil {
		return nil, err
	}
	if err := s.Seed(totalDays, usedDays); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Seed sets the balance row. Called once at startup.
func (s *Store) Seed(totalDays, usedDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if usedDays > totalDays {
		return fmt.Errorf("seed invariant violated: used days (%d) exceed total days (%d)", usedDays, totalDays)
	}

	_, err := s.db.Exec(`
		INSERT INTO balance (id, total_days, used_days) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET total_days = excluded.total_days, used_days = excluded.used_days`,
		totalDays, usedDays)
	if err != nil {
		return fmt.Errorf("failed to seed balance: %w", err)
	}
	return nil
}

// GetBalance returns the current balance snapshot including all pending
// requests in insertion order. Read-only.
func (s *Store) GetBalance() (BalanceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap BalanceSnapshot
	err := s.db.QueryRow(`SELECT total_days, used_days FROM balance WHERE id = 1`).
		Scan(&snap.TotalDays, &snap.UsedDays)
	if err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to read balance: %w", err)
	}
	snap.RemainingDays = snap.TotalDays - snap.UsedDays

	rows, err := s.db.Query(`
		SELECT id, start_date, end_date, number_of_days, status
		FROM pending_requests ORDER BY position`)
	if err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to read pending requests: %w", err)
	}
	defer rows.Close()

	snap.PendingRequests = []TimeOffRequest{}
	for rows.Next() {
		var req TimeOffRequest
		if err := rows.Scan(&req.ID, &req.StartDate, &req.EndDate, &req.NumberOfDays, &req.Status); err != nil {
			return BalanceSnapshot{}, fmt.Errorf("failed to scan pending request: %w", err)
		}
		snap.PendingRequests = append(snap.PendingRequests, req)
	}
	if err := rows.Err(); err != nil {
		return BalanceSnapshot{}, fmt.Errorf("failed to iterate pending requests: %w", err)
	}

	return snap, nil
}

// AppendPending appends a request to the pending list and returns the stored
// record. This is the only mutation the assistant ever performs on the store.
// Intentionally not idempotent: identical arguments append identical rows
// with distinct IDs.
func (s *Store) AppendPending(startDate, endDate string, numberOfDays int) (TimeOffRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := TimeOffRequest{
		ID:           GenerateRequestID(),
		StartDate:    startDate,
		EndDate:      endDate,
		NumberOfDays: numberOfDays,
		Status:       StatusPending,
	}

	_, err := s.db.Exec(`
		INSERT INTO pending_requests (id, start_date, end_date, number_of_days, status)
		VALUES (?, ?, ?, ?, ?)`,
		req.ID, req.StartDate, req.EndDate, req.NumberOfDays, req.Status)
	if err != nil {
		return TimeOffRequest{}, fmt.Errorf("failed to append pending request: %w", err)
	}

	return req, nil
}

// PendingCount returns the number of pending requests.
func (s *Store) PendingCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pending_requests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending requests: %w", err)
	}
	return count, nil
}

// Close releases the underlying database. The in-memory store's contents are
// gone after this.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close balance store: %w", err)
	}
	return nil
}
