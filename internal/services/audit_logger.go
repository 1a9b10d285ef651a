package services

import (
	"encoding/json"
	"log"
	"time"
)

type AuditEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	AccountNumber string    `json:"account_number"`
	Amount        int64     `json:"amount,omitempty"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

// AuditLogger emits one structured line per balance-affecting event.
// The ledger table is the authoritative record; this stream exists so
// operators can follow activity without querying the store.
type AuditLogger struct{}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{}
}

func (a *AuditLogger) LogTransaction(transactionID, accountNumber, txnType string, amount int64, status string) {
	a.log(AuditEvent{
		Timestamp:     time.Now(),
		EventType:     txnType,
		TransactionID: transactionID,
		AccountNumber: accountNumber,
		Amount:        amount,
		Status:        status,
	})
}

func (a *AuditLogger) LogLifecycle(accountNumber, operation string, ownerID int64) {
	a.log(AuditEvent{
		Timestamp:     time.Now(),
		EventType:     operation,
		AccountNumber: accountNumber,
		Status:        "SUCCESS",
		Details:       map[string]int64{"owner_id": ownerID},
	})
}

func (a *AuditLogger) LogError(transactionID, accountNumber string, err error) {
	a.log(AuditEvent{
		Timestamp:     time.Now(),
		EventType:     "ERROR",
		TransactionID: transactionID,
		AccountNumber: accountNumber,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
