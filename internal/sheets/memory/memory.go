// Package memory provides an in-process sheets adapter for development and
// tests, so neither needs Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
)

type Store struct {
	mu    sync.Mutex
	table core.RateTable
	rows  []core.Transaction

	// FailAppend makes AppendTransaction return an error, for exercising
	// export retry paths.
	FailAppend bool
}

func New(table core.RateTable) *Store {
	return &Store{table: table}
}

// ReadRates returns the seeded rate table.
func (s *Store) ReadRates(_ context.Context) (core.RateTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table.Rates == nil {
		return core.RateTable{}, fmt.Errorf("no rate table seeded")
	}
	return s.table, nil
}

// SetRates replaces the seeded table.
func (s *Store) SetRates(table core.RateTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppend {
		return "", fmt.Errorf("append disabled")
	}
	s.rows = append(s.rows, tx)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...)
}
