package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/service"
)

// WalletHandler handles wallet read endpoints.
type WalletHandler struct {
	walletSvc *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc *service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetWallet handles GET /wallet.
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	wallet, err := h.walletSvc.GetWallet(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, wallet)
}

// GetLedger handles GET /wallet/ledger.
func (h *WalletHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	entries, err := h.walletSvc.GetLedger(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, entries)
}

// RebuildWallet handles POST /ops/wallets/{userID}/rebuild (ops only).
func (h *WalletHandler) RebuildWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	result, err := h.walletSvc.RebuildWallet(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
