package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jhsfully/account/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestPostgresTransactionRepository_FindByTransactionID(t *testing.T) {
	t.Run("joins the owning account for its number", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()
		repo := NewPostgresTransactionRepository(db)

		transacted := time.Now()
		mock.ExpectQuery(`(?s)SELECT .+ FROM transactions t\s+JOIN accounts a ON a.id = t.account_id`).
			WithArgs("aaaabbbbccccddddeeeeffff00001111").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "transaction_id", "account_id", "account_number",
				"transaction_type", "transaction_result", "amount", "balance_snapshot", "transacted_at",
			}).AddRow(5, "aaaabbbbccccddddeeeeffff00001111", 1, "1000000000",
				"USE", "S", int64(1500), int64(8500), transacted))

		txn, err := repo.FindByTransactionID(context.Background(), "aaaabbbbccccddddeeeeffff00001111")
		assert.NoError(t, err)
		assert.Equal(t, "1000000000", txn.AccountNumber)
		assert.Equal(t, models.TransactionTypeUse, txn.Type)
		assert.Equal(t, models.TransactionResultSuccess, txn.Result)
		assert.Equal(t, int64(8500), txn.BalanceSnapshot)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id surfaces sql.ErrNoRows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		assert.NoError(t, err)
		defer db.Close()
		repo := NewPostgresTransactionRepository(db)

		mock.ExpectQuery(`(?s)SELECT .+ FROM transactions t`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err = repo.FindByTransactionID(context.Background(), "missing")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestPostgresTransactionRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := NewPostgresTransactionRepository(db)

	transacted := time.Now()
	txn := &models.Transaction{
		TransactionID:   "aaaabbbbccccddddeeeeffff00001111",
		AccountID:       1,
		Type:            models.TransactionTypeUse,
		Result:          models.TransactionResultFail,
		Amount:          1500,
		BalanceSnapshot: 1000,
		TransactedAt:    transacted,
	}

	mock.ExpectQuery(`(?s)INSERT INTO transactions\s+\(.+\)\s+VALUES .+ RETURNING id`).
		WithArgs("aaaabbbbccccddddeeeeffff00001111", int64(1), "USE", "F",
			int64(1500), int64(1000), transacted).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	err = repo.Save(context.Background(), txn)
	assert.NoError(t, err)
	assert.Equal(t, int64(9), txn.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransactionRepository_SaveTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := NewPostgresTransactionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	txn := &models.Transaction{
		TransactionID: "bbbbccccddddeeeeffff000011112222",
		AccountID:     1,
		Type:          models.TransactionTypeCancel,
		Result:        models.TransactionResultSuccess,
		TransactedAt:  time.Now(),
	}
	assert.NoError(t, repo.SaveTx(tx, txn))
	assert.Equal(t, int64(10), txn.ID)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
