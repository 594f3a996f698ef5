package repositories

import (
	"context"
	"fmt"

	"sitecanvas/internal/domain"
)

// ErrTxFailed marks failures to begin or commit a transaction. It matches domain.ErrPersistence.
var ErrTxFailed = fmt.Errorf("transaction failed: %w", domain.ErrPersistence)

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs a unit of work atomically. Every repository call made with
// the ctx passed to fn joins the transaction; when fn returns an error nothing is written.
type TransactionManager interface {
	// ExecTx executes a function within a transaction
	ExecTx(ctx context.Context, fn TxFn) error
}
