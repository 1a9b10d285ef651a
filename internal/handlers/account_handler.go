package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jhsfully/account/internal/lock"
	"github.com/jhsfully/account/internal/models"
	"github.com/jhsfully/account/internal/services"
)

// sequenceLockKey serializes account-number assignment across instances.
// Creation reads the current max number and writes max+1, which races
// without this.
const sequenceLockKey = "ACCOUNT_SEQUENCE"

type AccountHandler struct {
	service   *services.AccountService
	lock      *lock.LockService
	validator *services.ValidationHelper
}

func NewAccountHandler(service *services.AccountService, lockService *lock.LockService) *AccountHandler {
	return &AccountHandler{
		service:   service,
		lock:      lockService,
		validator: services.NewValidationHelper(),
	}
}

type CreateAccountRequest struct {
	UserID         int64 `json:"userId" validate:"required,min=1"`
	InitialBalance int64 `json:"initialBalance" validate:"min=0"`
}

type CreateAccountResponse struct {
	UserID        int64     `json:"userId"`
	AccountNumber string    `json:"accountNumber"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

// CreateAccount opens a new account for an owner
// @Summary Create account
// @Description Open a new account for an existing owner, subject to the per-owner account ceiling
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "Account creation request"
// @Success 201 {object} CreateAccountResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeRequest(w, r, &req, h.validator) {
		return
	}

	var account *models.Account
	err := h.lock.WithLock(r.Context(), sequenceLockKey, func() error {
		var err error
		account, err = h.service.CreateAccount(r.Context(), req.UserID, req.InitialBalance)
		return err
	})
	if err != nil {
		respondError(w, "CreateAccount", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateAccountResponse{
		UserID:        account.OwnerID,
		AccountNumber: account.AccountNumber,
		RegisteredAt:  account.RegisteredAt,
	})
}

type DeleteAccountRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
}

type DeleteAccountResponse struct {
	UserID         int64      `json:"userId"`
	AccountNumber  string     `json:"accountNumber"`
	UnregisteredAt *time.Time `json:"unregisteredAt"`
}

// DeleteAccount retires an account
// @Summary Retire account
// @Description Soft-delete an owned, active account whose balance is empty
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body DeleteAccountRequest true "Account retirement request"
// @Success 200 {object} DeleteAccountResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts [delete]
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req DeleteAccountRequest
	if !decodeRequest(w, r, &req, h.validator) {
		return
	}

	var account *models.Account
	err := h.lock.WithLock(r.Context(), req.AccountNumber, func() error {
		var err error
		account, err = h.service.RetireAccount(r.Context(), req.UserID, req.AccountNumber)
		return err
	})
	if err != nil {
		respondError(w, "DeleteAccount", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DeleteAccountResponse{
		UserID:         account.OwnerID,
		AccountNumber:  account.AccountNumber,
		UnregisteredAt: account.UnregisteredAt,
	})
}

type AccountInfo struct {
	AccountNumber string `json:"accountNumber"`
	Balance       int64  `json:"balance"`
}

// ListAccounts returns all accounts for an owner
// @Summary List accounts
// @Description List every account the owner holds, any status
// @Tags accounts
// @Produce json
// @Param user_id query int true "Owner ID"
// @Success 200 {array} AccountInfo
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID < 1 {
		services.SendErrorResponse(w, "user_id query parameter is required", http.StatusBadRequest, nil)
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), userID)
	if err != nil {
		respondError(w, "ListAccounts", err)
		return
	}

	infos := make([]AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		infos = append(infos, AccountInfo{
			AccountNumber: account.AccountNumber,
			Balance:       account.Balance,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

// decodeRequest applies the shared body hygiene: size cap, unknown-field
// rejection, single-object check, struct validation.
func decodeRequest(w http.ResponseWriter, r *http.Request, req any, validator *services.ValidationHelper) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	if err := validator.ValidateStruct(req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

// respondError routes business errors to their envelope and hides
// infrastructure faults behind a generic message.
func respondError(w http.ResponseWriter, operation string, err error) {
	if accErr := models.AsAccountError(err); accErr != nil {
		services.SendBusinessError(w, accErr)
		return
	}
	log.Printf("[HANDLER] %s failed: %v", operation, err)
	services.SendErrorResponse(w, "Failed to process request", http.StatusInternalServerError, nil)
}
