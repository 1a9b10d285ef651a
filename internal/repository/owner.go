package repository

import (
	"context"
	"database/sql"

	"github.com/jhsfully/account/internal/models"
)

// OwnerRepository reads account owners. Owners are provisioned by an
// external process, so there is no write path here.
type OwnerRepository interface {
	FindByID(ctx context.Context, id int64) (*models.AccountOwner, error)
}

type PostgresOwnerRepository struct {
	db *sql.DB
}

func NewPostgresOwnerRepository(db *sql.DB) *PostgresOwnerRepository {
	return &PostgresOwnerRepository{db: db}
}

func (r *PostgresOwnerRepository) FindByID(ctx context.Context, id int64) (*models.AccountOwner, error) {
	var owner models.AccountOwner
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM account_owners WHERE id = $1
	`, id).Scan(&owner.ID, &owner.Name, &owner.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &owner, nil
}
