package models

import (
	"time"
)

type TransactionType string

const (
	TransactionTypeUse    TransactionType = "USE"
	TransactionTypeCancel TransactionType = "CANCEL"
)

type TransactionResult string

// Result values are persisted as single characters on the wire.
const (
	TransactionResultSuccess TransactionResult = "S"
	TransactionResultFail    TransactionResult = "F"
)

// Transaction is an immutable ledger entry. One row is written per
// attempted balance operation, failed attempts included. Rows are
// insert-only: no update or delete path exists anywhere in this module.
type Transaction struct {
	ID            int64  `json:"id" db:"id"`
	TransactionID string `json:"transaction_id" db:"transaction_id"`
	AccountID     int64  `json:"account_id" db:"account_id"`
	// AccountNumber is resolved through a join on reads; it is not a
	// column of the ledger table.
	AccountNumber   string            `json:"account_number,omitempty" db:"-"`
	Type            TransactionType   `json:"transaction_type" db:"transaction_type"`
	Result          TransactionResult `json:"transaction_result" db:"transaction_result"`
	Amount          int64             `json:"amount" db:"amount"`
	BalanceSnapshot int64             `json:"balance_snapshot" db:"balance_snapshot"`
	TransactedAt    time.Time         `json:"transacted_at" db:"transacted_at"`
}
