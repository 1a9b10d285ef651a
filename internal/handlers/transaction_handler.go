package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jhsfully/account/internal/lock"
	"github.com/jhsfully/account/internal/models"
	"github.com/jhsfully/account/internal/services"
)

// TransactionHandler brackets every balance mutation with the account
// lock, so same-account requests serialize across instances while
// different accounts proceed in parallel. When the engine rejects an
// attempt on business grounds, a FAIL ledger entry is recorded before
// the error goes back to the caller.
type TransactionHandler struct {
	service   *services.TransactionService
	lock      *lock.LockService
	validator *services.ValidationHelper
}

func NewTransactionHandler(service *services.TransactionService, lockService *lock.LockService) *TransactionHandler {
	return &TransactionHandler{
		service:   service,
		lock:      lockService,
		validator: services.NewValidationHelper(),
	}
}

type UseBalanceRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
	Amount        int64  `json:"amount" validate:"required,gte=10,lte=1000000000"`
}

type TransactionResponse struct {
	AccountNumber     string    `json:"accountNumber"`
	TransactionResult string    `json:"transactionResult"`
	TransactionID     string    `json:"transactionId"`
	Amount            int64     `json:"amount"`
	TransactedAt      time.Time `json:"transactedAt"`
}

// UseBalance debits an account
// @Summary Use balance
// @Description Debit an active, owned account and append the ledger entry
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body UseBalanceRequest true "Use request"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /transactions/use [post]
func (h *TransactionHandler) UseBalance(w http.ResponseWriter, r *http.Request) {
	var req UseBalanceRequest
	if !decodeRequest(w, r, &req, h.validator) {
		return
	}

	var txn *models.Transaction
	err := h.lock.WithLock(r.Context(), req.AccountNumber, func() error {
		var err error
		txn, err = h.service.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)
		if err != nil && models.AsAccountError(err) != nil {
			h.recordFailure(r, "use", req.AccountNumber, req.Amount,
				h.service.SaveFailedUseTransaction)
		}
		return err
	})
	if err != nil {
		respondError(w, "UseBalance", err)
		return
	}

	writeTransactionResponse(w, req.AccountNumber, txn)
}

type CancelBalanceRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
	Amount        int64  `json:"amount" validate:"required,gte=10,lte=1000000000"`
}

// CancelBalance reverses a prior use
// @Summary Cancel balance
// @Description Fully reverse a prior USE transaction within the cancel window
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body CancelBalanceRequest true "Cancel request"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /transactions/cancel [post]
func (h *TransactionHandler) CancelBalance(w http.ResponseWriter, r *http.Request) {
	var req CancelBalanceRequest
	if !decodeRequest(w, r, &req, h.validator) {
		return
	}

	var txn *models.Transaction
	err := h.lock.WithLock(r.Context(), req.AccountNumber, func() error {
		var err error
		txn, err = h.service.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
		if err != nil && models.AsAccountError(err) != nil {
			h.recordFailure(r, "cancel", req.AccountNumber, req.Amount,
				h.service.SaveFailedCancelTransaction)
		}
		return err
	})
	if err != nil {
		respondError(w, "CancelBalance", err)
		return
	}

	writeTransactionResponse(w, req.AccountNumber, txn)
}

type QueryTransactionResponse struct {
	AccountNumber     string    `json:"accountNumber"`
	TransactionType   string    `json:"transactionType"`
	TransactionResult string    `json:"transactionResult"`
	TransactionID     string    `json:"transactionId"`
	Amount            int64     `json:"amount"`
	TransactedAt      time.Time `json:"transactedAt"`
}

// QueryTransaction looks up a ledger entry by its transaction id
// @Summary Get transaction
// @Description Point lookup of a ledger entry; read-only
// @Tags transactions
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} QueryTransactionResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transactions/{transactionId} [get]
func (h *TransactionHandler) QueryTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")

	txn, err := h.service.QueryTransaction(r.Context(), transactionID)
	if err != nil {
		respondError(w, "QueryTransaction", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(QueryTransactionResponse{
		AccountNumber:     txn.AccountNumber,
		TransactionType:   string(txn.Type),
		TransactionResult: resultDescription(txn.Result),
		TransactionID:     txn.TransactionID,
		Amount:            txn.Amount,
		TransactedAt:      txn.TransactedAt,
	})
}

// recordFailure appends the FAIL ledger entry for a rejected attempt.
// Best effort: a missing account makes the record itself impossible, and
// the original business error still goes back to the caller.
func (h *TransactionHandler) recordFailure(r *http.Request, op, accountNumber string, amount int64, save func(ctx context.Context, accountNumber string, amount int64) error) {
	if err := save(r.Context(), accountNumber, amount); err != nil {
		log.Printf("[TRANSACTION] Could not record failed %s on %s: %v", op, accountNumber, err)
	}
}

func writeTransactionResponse(w http.ResponseWriter, accountNumber string, txn *models.Transaction) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TransactionResponse{
		AccountNumber:     accountNumber,
		TransactionResult: resultDescription(txn.Result),
		TransactionID:     txn.TransactionID,
		Amount:            txn.Amount,
		TransactedAt:      txn.TransactedAt,
	})
}

func resultDescription(result models.TransactionResult) string {
	if result == models.TransactionResultSuccess {
		return "SUCCESS"
	}
	return "FAIL"
}
