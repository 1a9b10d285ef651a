package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jhsfully/account/internal/models"
)

// AccountRepository persists accounts. Save-style operations are split
// into Create and Update; balance mutations that must commit together
// with a ledger insert go through UpdateBalanceTx on the caller's sql.Tx.
type AccountRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	FindLatest(ctx context.Context) (*models.Account, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
	UpdateBalanceTx(tx *sql.Tx, id int64, balance int64) error
}

type PostgresAccountRepository struct {
	db *sql.DB
}

func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

const accountColumns = `id, owner_id, account_number, status, balance, registered_at, unregistered_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID, &account.OwnerID, &account.AccountNumber, &account.Status,
		&account.Balance, &account.RegisteredAt, &account.UnregisteredAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *PostgresAccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1
	`, id))
}

func (r *PostgresAccountRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE account_number = $1
	`, accountNumber))
}

// FindLatest returns the most recently created account, used to derive
// the next account number. Returns sql.ErrNoRows when no account exists.
func (r *PostgresAccountRepository) FindLatest(ctx context.Context) (*models.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts ORDER BY id DESC LIMIT 1
	`))
}

// CountByOwner counts every account the owner has ever held, retired
// ones included.
func (r *PostgresAccountRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM accounts WHERE owner_id = $1
	`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

func (r *PostgresAccountRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var account models.Account
		err := rows.Scan(
			&account.ID, &account.OwnerID, &account.AccountNumber, &account.Status,
			&account.Balance, &account.RegisteredAt, &account.UnregisteredAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *PostgresAccountRepository) Create(ctx context.Context, account *models.Account) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (owner_id, account_number, status, balance, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, account.OwnerID, account.AccountNumber, account.Status, account.Balance,
		account.RegisteredAt).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *PostgresAccountRepository) Update(ctx context.Context, account *models.Account) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET status = $2, balance = $3, unregistered_at = $4
		WHERE id = $1
	`, account.ID, account.Status, account.Balance, account.UnregisteredAt)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresAccountRepository) UpdateBalanceTx(tx *sql.Tx, id int64, balance int64) error {
	result, err := tx.Exec(`
		UPDATE accounts SET balance = $2 WHERE id = $1
	`, id, balance)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
