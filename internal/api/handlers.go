/**
 * @description
 * HTTP handlers for the dashboard service. The confirmation endpoint
 * answers with redirects carrying a human-readable query parameter; the
 * data endpoints answer JSON with generic error bodies. No internal error
 * detail reaches the client either way.
 */
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/merchly/dashboard-service/internal/app"
	"github.com/merchly/dashboard-service/internal/domain"
	"github.com/merchly/dashboard-service/internal/store"
)

// Confirmer resolves an inbound verification request into an outcome.
type Confirmer interface {
	Confirm(ctx context.Context, req domain.VerificationRequest) (domain.ConfirmationOutcome, error)
}

// MerchantEnsurer guarantees a merchant row for a confirmed user.
type MerchantEnsurer interface {
	EnsureMerchant(ctx context.Context, user *domain.AuthUser)
}

// ComplianceService is the onboarding state surface the handlers need.
type ComplianceService interface {
	Progress(ctx context.Context, userID string) (*domain.ComplianceProgress, error)
	GuardStep(ctx context.Context, userID string, step domain.ComplianceStep) (*domain.ComplianceStep, error)
	MarkStepComplete(ctx context.Context, userID string, step domain.ComplianceStep) (*domain.ComplianceProgress, error)
}

// RatesProvider serves the current exchange rate snapshot.
type RatesProvider interface {
	GetRates(ctx context.Context) domain.ExchangeRates
}

// FixtureSource provides the static dashboard data.
type FixtureSource interface {
	TransactionList() ([]domain.Transaction, error)
	Transactions() (json.RawMessage, error)
	Customers() (json.RawMessage, error)
	PaymentVolume() (json.RawMessage, error)
}

// MerchantReader looks up merchant profiles.
type MerchantReader interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Merchant, error)
}

// Handler holds the application services the handlers interact with.
type Handler struct {
	confirmer  Confirmer
	ensurer    MerchantEnsurer
	compliance ComplianceService
	rates      RatesProvider
	fixtures   FixtureSource
	merchants  MerchantReader
	loginURL   string
	logger     *slog.Logger
}

// NewHandler creates a new Handler with its dependencies.
func NewHandler(
	confirmer Confirmer,
	ensurer MerchantEnsurer,
	compliance ComplianceService,
	rates RatesProvider,
	fixtures FixtureSource,
	merchants MerchantReader,
	loginURL string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		confirmer:  confirmer,
		ensurer:    ensurer,
		compliance: compliance,
		rates:      rates,
		fixtures:   fixtures,
		merchants:  merchants,
		loginURL:   loginURL,
		logger:     logger,
	}
}

// handleConfirm drives the verification-link confirmation flow. Every
// outcome, including failure, leaves through a redirect to the login
// surface; nothing is ever thrown past this handler.
func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := domain.VerificationRequest{
		AccessToken:  query.Get("access_token"),
		RefreshToken: query.Get("refresh_token"),
		TokenHash:    query.Get("token_hash"),
		Token:        query.Get("token"),
		Email:        query.Get("email"),
		Code:         query.Get("code"),
		OtpType:      query.Get("type"),
	}

	outcome, err := h.confirmer.Confirm(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidLink) {
			h.redirectToLogin(w, r, url.Values{"error": {"invalid_link"}})
			return
		}
		h.logger.Error("confirmation resolver failed", "error", err)
		h.redirectToLogin(w, r, url.Values{"error": {"verification_failed"}})
		return
	}

	if !outcome.Confirmed {
		params := url.Values{"error": {"verification_failed"}}
		if desc := outcome.LastError(); desc != "" {
			params.Set("error_description", desc)
		}
		h.redirectToLogin(w, r, params)
		return
	}

	// Merchant-row creation is best-effort, not transactional with
	// confirmation.
	h.ensurer.EnsureMerchant(r.Context(), outcome.User)

	h.redirectToLogin(w, r, url.Values{"confirmed": {"true"}})
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, params url.Values) {
	target, err := url.Parse(h.loginURL)
	if err != nil {
		target = &url.URL{Path: "/login"}
	}
	query := target.Query()
	for key, values := range params {
		for _, value := range values {
			query.Set(key, value)
		}
	}
	target.RawQuery = query.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// handleStats derives dashboard statistics from the transactions fixture.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.fixtures.TransactionList()
	if err != nil {
		h.logger.Error("failed to load transactions for stats", "error", err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to calculate stats"})
		return
	}
	respondWithJSON(w, http.StatusOK, app.ComputeStats(transactions))
}

// handleTransactions serves the transactions fixture verbatim.
func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	h.serveFixture(w, h.fixtures.Transactions, "Failed to load transactions")
}

// handleCustomers serves the customers fixture verbatim.
func (h *Handler) handleCustomers(w http.ResponseWriter, r *http.Request) {
	h.serveFixture(w, h.fixtures.Customers, "Failed to load customers")
}

// handlePaymentVolume serves the payment volume fixture verbatim.
func (h *Handler) handlePaymentVolume(w http.ResponseWriter, r *http.Request) {
	h.serveFixture(w, h.fixtures.PaymentVolume, "Failed to load payment volume")
}

func (h *Handler) serveFixture(w http.ResponseWriter, load func() (json.RawMessage, error), errMsg string) {
	raw, err := load()
	if err != nil {
		h.logger.Error("fixture load failed", "error", err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": errMsg})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// handleExchangeRates serves the current rate snapshot. Upstream failures
// are absorbed into a stale payload with HTTP 200; this endpoint never
// reports an error status.
func (h *Handler) handleExchangeRates(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.rates.GetRates(r.Context()))
}

// handleMerchantProfile returns the authenticated user's merchant row.
func (h *Handler) handleMerchantProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	merchant, err := h.merchants.FindByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrMerchantNotFound) {
			respondWithJSON(w, http.StatusNotFound, map[string]string{"error": "Merchant not found"})
			return
		}
		h.logger.Error("merchant lookup failed", "user_id", userID, "error", err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load merchant"})
		return
	}
	respondWithJSON(w, http.StatusOK, merchant)
}

// handleComplianceProgress returns the onboarding progress summary.
func (h *Handler) handleComplianceProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	progress, err := h.compliance.Progress(r.Context(), userID)
	if err != nil {
		h.complianceError(w, userID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

// handleComplianceNextStep returns the first incomplete onboarding step.
func (h *Handler) handleComplianceNextStep(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	progress, err := h.compliance.Progress(r.Context(), userID)
	if err != nil {
		h.complianceError(w, userID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"next_step": progress.NextStep})
}

// handleComplianceGuard tells the client whether the requested step page is
// accessible, and where to go instead when it is not. Forward skips are
// redirected; revisiting completed steps is allowed.
func (h *Handler) handleComplianceGuard(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	step, ok := domain.ParseComplianceStep(chi.URLParam(r, "step"))
	if !ok {
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "Unknown compliance step"})
		return
	}

	redirect, err := h.compliance.GuardStep(r.Context(), userID, step)
	if err != nil {
		h.complianceError(w, userID, err)
		return
	}

	if redirect != nil {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"allowed": false, "redirect_to": redirect})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"allowed": true})
}

// handleCompleteStep marks one onboarding step complete.
func (h *Handler) handleCompleteStep(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	step, ok := domain.ParseComplianceStep(chi.URLParam(r, "step"))
	if !ok {
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"error": "Unknown compliance step"})
		return
	}

	progress, err := h.compliance.MarkStepComplete(r.Context(), userID, step)
	if err != nil {
		h.complianceError(w, userID, err)
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

func (h *Handler) complianceError(w http.ResponseWriter, userID string, err error) {
	if errors.Is(err, store.ErrMerchantNotFound) {
		respondWithJSON(w, http.StatusNotFound, map[string]string{"error": "Merchant not found"})
		return
	}
	h.logger.Error("compliance operation failed", "user_id", userID, "error", err)
	respondWithJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load compliance state"})
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
