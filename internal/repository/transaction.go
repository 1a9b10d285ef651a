package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jhsfully/account/internal/models"
)

// TransactionRepository appends to and reads from the ledger. The table
// is insert-only: no update or delete is exposed, which is what keeps
// ledger entries immutable.
type TransactionRepository interface {
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	Save(ctx context.Context, txn *models.Transaction) error
	SaveTx(tx *sql.Tx, txn *models.Transaction) error
}

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func (r *PostgresTransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.QueryRowContext(ctx, `
		SELECT t.id, t.transaction_id, t.account_id, a.account_number,
		       t.transaction_type, t.transaction_result,
		       t.amount, t.balance_snapshot, t.transacted_at
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.transaction_id = $1
	`, transactionID).Scan(
		&txn.ID, &txn.TransactionID, &txn.AccountID, &txn.AccountNumber,
		&txn.Type, &txn.Result,
		&txn.Amount, &txn.BalanceSnapshot, &txn.TransactedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

const insertTransactionSQL = `
		INSERT INTO transactions
		(transaction_id, account_id, transaction_type, transaction_result, amount, balance_snapshot, transacted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

func (r *PostgresTransactionRepository) Save(ctx context.Context, txn *models.Transaction) error {
	err := r.db.QueryRowContext(ctx, insertTransactionSQL,
		txn.TransactionID, txn.AccountID, txn.Type, txn.Result,
		txn.Amount, txn.BalanceSnapshot, txn.TransactedAt,
	).Scan(&txn.ID)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (r *PostgresTransactionRepository) SaveTx(tx *sql.Tx, txn *models.Transaction) error {
	err := tx.QueryRow(insertTransactionSQL,
		txn.TransactionID, txn.AccountID, txn.Type, txn.Result,
		txn.Amount, txn.BalanceSnapshot, txn.TransactedAt,
	).Scan(&txn.ID)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}
