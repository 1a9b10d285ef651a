package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhsfully/account/internal/models"
	"github.com/jhsfully/account/internal/repository"
)

// TransactionService is the balance engine. Every successful use or
// cancel applies the balance change and appends its ledger entry inside
// a single database transaction; a partial outcome is never observable.
// Callers serialize same-account operations with the lock service before
// invoking this engine; the engine itself holds no locks.
type TransactionService struct {
	db           *sql.DB
	owners       repository.OwnerRepository
	accounts     repository.AccountRepository
	transactions repository.TransactionRepository
	audit        *AuditLogger
}

func NewTransactionService(
	db *sql.DB,
	owners repository.OwnerRepository,
	accounts repository.AccountRepository,
	transactions repository.TransactionRepository,
) *TransactionService {
	return &TransactionService{
		db:           db,
		owners:       owners,
		accounts:     accounts,
		transactions: transactions,
		audit:        NewAuditLogger(),
	}
}

// newTransactionID returns the caller-facing correlation token: random,
// collision-resistant, so concurrent appends need no coordination.
func newTransactionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// UseBalance debits the account. Validation short-circuits in order:
// ownership, account status, sufficiency. The ledger snapshot is the
// balance after the decrement.
func (s *TransactionService) UseBalance(ctx context.Context, ownerID int64, accountNumber string, amount int64) (*models.Transaction, error) {
	owner, err := s.getOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	account, err := s.getAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if err := validateUseBalance(owner, account, amount); err != nil {
		return nil, err
	}

	txn, err := s.applyBalanceChange(ctx, account, models.TransactionTypeUse, amount, account.Balance-amount)
	if err != nil {
		return nil, err
	}

	s.audit.LogTransaction(txn.TransactionID, account.AccountNumber, string(txn.Type), amount, "SUCCESS")
	return txn, nil
}

func validateUseBalance(owner *models.AccountOwner, account *models.Account, amount int64) error {
	if owner.ID != account.OwnerID {
		return models.NewAccountError(models.ErrOwnerAccountMismatch)
	}
	if account.Status == models.AccountStatusUnregistered {
		return models.NewAccountError(models.ErrAccountAlreadyUnregistered)
	}
	if amount > account.Balance {
		return models.NewAccountError(models.ErrAmountExceedBalance)
	}
	return nil
}

// CancelBalance credits back a prior USE transaction. The cancel must
// reverse the original exactly (no partial cancellation) and within a
// year of the original transaction.
func (s *TransactionService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.Transaction, error) {
	original, err := s.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	account, err := s.getAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if err := validateCancelBalance(original, account, amount); err != nil {
		return nil, err
	}

	txn, err := s.applyBalanceChange(ctx, account, models.TransactionTypeCancel, amount, account.Balance+amount)
	if err != nil {
		return nil, err
	}

	s.audit.LogTransaction(txn.TransactionID, account.AccountNumber, string(txn.Type), amount, "SUCCESS")
	return txn, nil
}

func validateCancelBalance(original *models.Transaction, account *models.Account, amount int64) error {
	if original.AccountID != account.ID {
		return models.NewAccountError(models.ErrTransactionAccountMismatch)
	}
	if original.Amount != amount {
		return models.NewAccountError(models.ErrCancelMustFully)
	}
	if original.TransactedAt.Before(time.Now().AddDate(-1, 0, 0)) {
		return models.NewAccountError(models.ErrTooOldToCancel)
	}
	return nil
}

// applyBalanceChange writes the new balance and the SUCCESS ledger entry
// as one atomic unit.
func (s *TransactionService) applyBalanceChange(ctx context.Context, account *models.Account, txnType models.TransactionType, amount, newBalance int64) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.accounts.UpdateBalanceTx(tx, account.ID, newBalance); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		TransactionID:   newTransactionID(),
		AccountID:       account.ID,
		Type:            txnType,
		Result:          models.TransactionResultSuccess,
		Amount:          amount,
		BalanceSnapshot: newBalance,
		TransactedAt:    time.Now(),
	}
	if err := s.transactions.SaveTx(tx, txn); err != nil {
		s.audit.LogError(txn.TransactionID, account.AccountNumber, err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.audit.LogError(txn.TransactionID, account.AccountNumber, err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	account.Balance = newBalance
	return txn, nil
}

// SaveFailedUseTransaction durably records a USE attempt the orchestrating
// layer has already rejected. Only account existence is validated; the
// snapshot is the current, unmodified balance.
func (s *TransactionService) SaveFailedUseTransaction(ctx context.Context, accountNumber string, amount int64) error {
	return s.saveFailedTransaction(ctx, accountNumber, models.TransactionTypeUse, amount)
}

// SaveFailedCancelTransaction mirrors SaveFailedUseTransaction for
// rejected cancel attempts.
func (s *TransactionService) SaveFailedCancelTransaction(ctx context.Context, accountNumber string, amount int64) error {
	return s.saveFailedTransaction(ctx, accountNumber, models.TransactionTypeCancel, amount)
}

func (s *TransactionService) saveFailedTransaction(ctx context.Context, accountNumber string, txnType models.TransactionType, amount int64) error {
	account, err := s.getAccountByNumber(ctx, accountNumber)
	if err != nil {
		return err
	}

	txn := &models.Transaction{
		TransactionID:   newTransactionID(),
		AccountID:       account.ID,
		Type:            txnType,
		Result:          models.TransactionResultFail,
		Amount:          amount,
		BalanceSnapshot: account.Balance,
		TransactedAt:    time.Now(),
	}
	if err := s.transactions.Save(ctx, txn); err != nil {
		return err
	}

	log.Printf("[TRANSACTION] Recorded failed %s of %d on account %s", txnType, amount, accountNumber)
	s.audit.LogTransaction(txn.TransactionID, accountNumber, string(txnType), amount, "FAIL")
	return nil
}

// QueryTransaction is a pure read with no side effects.
func (s *TransactionService) QueryTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return s.getTransaction(ctx, transactionID)
}

func (s *TransactionService) getTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	txn, err := s.transactions.FindByTransactionID(ctx, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewAccountError(models.ErrTransactionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("transaction lookup failed: %w", err)
	}
	return txn, nil
}

func (s *TransactionService) getOwner(ctx context.Context, ownerID int64) (*models.AccountOwner, error) {
	owner, err := s.owners.FindByID(ctx, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewAccountError(models.ErrOwnerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("owner lookup failed: %w", err)
	}
	return owner, nil
}

func (s *TransactionService) getAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := s.accounts.FindByAccountNumber(ctx, accountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewAccountError(models.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	return account, nil
}
