package models

import (
	"time"
)

type AccountStatus string

const (
	AccountStatusInUse        AccountStatus = "IN_USE"
	AccountStatusUnregistered AccountStatus = "UNREGISTERED"
)

// AccountOwner is provisioned externally; this service only reads it.
type AccountOwner struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Account is a monetary container. Balance is kept in the smallest
// currency unit and must never go negative. Retirement is a soft delete:
// status flips to UNREGISTERED and the row is never removed.
type Account struct {
	ID             int64         `json:"id" db:"id"`
	OwnerID        int64         `json:"owner_id" db:"owner_id"`
	AccountNumber  string        `json:"account_number" db:"account_number"`
	Status         AccountStatus `json:"status" db:"status"`
	Balance        int64         `json:"balance" db:"balance"`
	RegisteredAt   time.Time     `json:"registered_at" db:"registered_at"`
	UnregisteredAt *time.Time    `json:"unregistered_at,omitempty" db:"unregistered_at"`
}

// SeedAccountNumber is assigned to the very first account in the system.
// Subsequent accounts get the numeric value of the most recently created
// account number plus one.
const SeedAccountNumber = "1000000000"

// MaxAccountsPerOwner caps how many accounts an owner may hold,
// retired accounts included.
const MaxAccountsPerOwner = 10
