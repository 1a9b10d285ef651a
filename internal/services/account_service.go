package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jhsfully/account/internal/models"
	"github.com/jhsfully/account/internal/repository"
)

// AccountService owns the account lifecycle: creation under the
// per-owner ceiling and soft retirement. Balance mutation is the
// TransactionService's job; this service never touches balances beyond
// the initial deposit.
type AccountService struct {
	owners   repository.OwnerRepository
	accounts repository.AccountRepository
	audit    *AuditLogger
}

func NewAccountService(owners repository.OwnerRepository, accounts repository.AccountRepository) *AccountService {
	return &AccountService{
		owners:   owners,
		accounts: accounts,
		audit:    NewAuditLogger(),
	}
}

// CreateAccount opens an ACTIVE account for the owner. The account
// number is the numeric value of the most recently created account's
// number plus one, or the fixed seed when no account exists yet.
// Callers wanting cross-instance safety on number assignment must
// serialize externally; the handler layer does so under the shared
// sequence lock.
func (s *AccountService) CreateAccount(ctx context.Context, ownerID int64, initialBalance int64) (*models.Account, error) {
	owner, err := s.getOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	count, err := s.accounts.CountByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if count >= models.MaxAccountsPerOwner {
		return nil, models.NewAccountError(models.ErrMaxAccountPerOwner)
	}

	accountNumber, err := s.nextAccountNumber(ctx)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		OwnerID:       owner.ID,
		AccountNumber: accountNumber,
		Status:        models.AccountStatusInUse,
		Balance:       initialBalance,
		RegisteredAt:  time.Now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	log.Printf("[ACCOUNT] Created account %s for owner %d, initial balance %d",
		account.AccountNumber, owner.ID, initialBalance)
	s.audit.LogLifecycle(account.AccountNumber, "REGISTER", owner.ID)
	return account, nil
}

func (s *AccountService) nextAccountNumber(ctx context.Context) (string, error) {
	latest, err := s.accounts.FindLatest(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SeedAccountNumber, nil
	}
	if err != nil {
		return "", err
	}

	number, err := strconv.ParseInt(latest.AccountNumber, 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed account number %q: %w", latest.AccountNumber, err)
	}
	return strconv.FormatInt(number+1, 10), nil
}

// RetireAccount soft-deletes an account: status goes to UNREGISTERED and
// the retirement timestamp is set. The row is never removed. Only an
// owned, still-active account with an empty balance may be retired.
func (s *AccountService) RetireAccount(ctx context.Context, ownerID int64, accountNumber string) (*models.Account, error) {
	owner, err := s.getOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	account, err := s.getAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if err := validateRetireAccount(owner, account); err != nil {
		return nil, err
	}

	now := time.Now()
	account.Status = models.AccountStatusUnregistered
	account.UnregisteredAt = &now
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	s.audit.LogLifecycle(account.AccountNumber, "UNREGISTER", owner.ID)
	return account, nil
}

func validateRetireAccount(owner *models.AccountOwner, account *models.Account) error {
	if owner.ID != account.OwnerID {
		return models.NewAccountError(models.ErrOwnerAccountMismatch)
	}
	if account.Status == models.AccountStatusUnregistered {
		return models.NewAccountError(models.ErrAccountAlreadyUnregistered)
	}
	if account.Balance > 0 {
		return models.NewAccountError(models.ErrBalanceNotEmpty)
	}
	return nil
}

// ListAccounts returns every account the owner holds, any status, in
// persisted order.
func (s *AccountService) ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error) {
	owner, err := s.getOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.accounts.ListByOwner(ctx, owner.ID)
}

func (s *AccountService) getOwner(ctx context.Context, ownerID int64) (*models.AccountOwner, error) {
	owner, err := s.owners.FindByID(ctx, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewAccountError(models.ErrOwnerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("owner lookup failed: %w", err)
	}
	return owner, nil
}

func (s *AccountService) getAccountByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	account, err := s.accounts.FindByAccountNumber(ctx, accountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewAccountError(models.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	return account, nil
}
