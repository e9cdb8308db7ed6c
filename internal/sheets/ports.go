package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// RateReader fetches the current exchange rate table from an external
	// source of truth.
	RateReader interface {
		ReadRates(ctx context.Context) (core.RateTable, error)
	}

	// TransactionAppender pushes a transaction to the export destination and
	// returns a reference to the written row.
	TransactionAppender interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)
