package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sharefolio/tracker/internal/export"
	"github.com/sharefolio/tracker/internal/portfolio"
)

// PortfolioHandler provides HTTP endpoints for accounts, holdings, and the
// valued dashboard. All endpoints run behind the session middleware.
type PortfolioHandler struct {
	portfolios *portfolio.Service
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(portfolios *portfolio.Service) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios}
}

// GetDashboard handles GET /api/v1/dashboard.
func (h *PortfolioHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.portfolios.GetDashboard(r.Context(), userFrom(r).ID)
	if err != nil {
		slog.Error("failed to build dashboard", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// ListAccounts handles GET /api/v1/accounts.
func (h *PortfolioHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.portfolios.ListAccounts(r.Context(), userFrom(r).ID)
	if err != nil {
		slog.Error("failed to list accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// CreateAccount handles POST /api/v1/accounts.
func (h *PortfolioHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	account, err := h.portfolios.CreateAccount(r.Context(), userFrom(r).ID, req.Name)
	if err != nil {
		if errors.Is(err, portfolio.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to create account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// DeleteAccount handles DELETE /api/v1/accounts/{id}.
func (h *PortfolioHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	if err := h.portfolios.DeleteAccount(r.Context(), userFrom(r).ID, accountID); err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		slog.Error("failed to delete account", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddHolding handles POST /api/v1/accounts/{id}/holdings.
func (h *PortfolioHandler) AddHolding(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req struct {
		Symbol   string          `json:"symbol"`
		Quantity int64           `json:"quantity"`
		BuyPrice decimal.Decimal `json:"buyPrice"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	holding, err := h.portfolios.AddHolding(r.Context(), userFrom(r).ID, accountID,
		req.Symbol, req.Quantity, req.BuyPrice)
	if err != nil {
		switch {
		case errors.Is(err, portfolio.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, portfolio.ErrNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		default:
			slog.Error("failed to add holding", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, holding)
}

// RemoveHolding handles DELETE /api/v1/holdings/{id}.
func (h *PortfolioHandler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	holdingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid holding id")
		return
	}

	if err := h.portfolios.RemoveHolding(r.Context(), userFrom(r).ID, holdingID); err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			writeError(w, http.StatusNotFound, "holding not found")
			return
		}
		slog.Error("failed to remove holding", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportWorkbook handles GET /api/v1/portfolio/export, streaming the
// dashboard as an XLSX download.
func (h *PortfolioHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.portfolios.GetDashboard(r.Context(), userFrom(r).ID)
	if err != nil {
		slog.Error("failed to build dashboard for export", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	filename := fmt.Sprintf("portfolio-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WritePortfolioWorkbook(w, dashboard); err != nil {
		// Headers are already out; nothing to do but log.
		slog.Error("failed to write workbook", "error", err)
	}
}
