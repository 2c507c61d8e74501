// Package server exposes the trip API over JSON HTTP. Routes are keyed by
// the trip access token; destructive operations additionally require the
// creator token in the X-Creator-Token header.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ferd/tripsplit/internal/auth"
	"github.com/ferd/tripsplit/internal/exchange"
	"github.com/ferd/tripsplit/internal/models"
	"github.com/ferd/tripsplit/internal/service"
	"github.com/ferd/tripsplit/internal/storage"
)

const creatorTokenHeader = "X-Creator-Token"

// Server routes HTTP requests to the trip and balance services.
type Server struct {
	trips    *service.TripService
	balances *service.BalanceService
}

// New creates a Server over the given services.
func New(trips *service.TripService, balances *service.BalanceService) *Server {
	return &Server{trips: trips, balances: balances}
}

// Handler returns the full route table wrapped in logging, CORS, and metrics
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/trips", s.handleCreateTrip)
	mux.HandleFunc("GET /api/trips/{token}", s.withTrip(s.handleGetTrip))
	mux.HandleFunc("GET /api/trips/{token}/members", s.withTrip(s.handleListMembers))
	mux.HandleFunc("POST /api/trips/{token}/members", s.withTrip(s.handleAddMember))
	mux.HandleFunc("PATCH /api/trips/{token}/members/{id}", s.withTrip(s.handleUpdateMember))
	mux.HandleFunc("GET /api/trips/{token}/expenses", s.withTrip(s.handleListExpenses))
	mux.HandleFunc("POST /api/trips/{token}/expenses", s.withTrip(s.handleAddExpense))
	mux.HandleFunc("DELETE /api/trips/{token}/expenses/{id}", s.withTrip(s.handleDeleteExpense))
	mux.HandleFunc("GET /api/trips/{token}/settlements", s.withTrip(s.handleListSettlements))
	mux.HandleFunc("POST /api/trips/{token}/settlements", s.withTrip(s.handleAddSettlement))
	mux.HandleFunc("DELETE /api/trips/{token}/settlements/{id}", s.withTrip(s.handleDeleteSettlement))
	mux.HandleFunc("GET /api/trips/{token}/balances", s.withTrip(s.handleBalances))
	mux.HandleFunc("GET /api/trips/{token}/exchange-rates", s.withTrip(s.handleRates))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(corsMiddleware(metricsMiddleware(mux)))
}

// tripHandler handles a request already resolved to a trip.
type tripHandler func(w http.ResponseWriter, r *http.Request, trip *models.Trip)

// withTrip resolves the {token} path segment to a trip before dispatching.
func (s *Server) withTrip(next tripHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trip, err := s.trips.GetTrip(r.Context(), r.PathValue("token"))
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, trip)
	}
}

// requireCreator checks the creator token header against the trip. It writes
// the error response itself and reports whether the caller may proceed.
func (s *Server) requireCreator(w http.ResponseWriter, r *http.Request, trip *models.Trip) bool {
	if err := s.trips.Authorize(trip, r.Header.Get(creatorTokenHeader)); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

type createTripRequest struct {
	Name               string   `json:"name"`
	Currency           string   `json:"currency"`
	SettlementCurrency string   `json:"settlementCurrency"`
	Members            []string `json:"members"`
}

type createTripResponse struct {
	Trip         *models.Trip    `json:"trip"`
	Members      []models.Member `json:"members"`
	CreatorToken string          `json:"creatorToken"`
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	trip, members, creatorToken, err := s.trips.CreateTrip(r.Context(), req.Name, req.Currency, req.SettlementCurrency, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createTripResponse{
		Trip:         trip,
		Members:      members,
		CreatorToken: creatorToken,
	})
}

type tripResponse struct {
	Trip    *models.Trip    `json:"trip"`
	Members []models.Member `json:"members"`
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	members, err := s.trips.Members(r.Context(), trip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tripResponse{Trip: trip, Members: members})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	members, err := s.trips.Members(r.Context(), trip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type memberRequest struct {
	Name               *string `json:"name"`
	SettledByID        *string `json:"settledById"`
	SettlementCurrency *string `json:"settlementCurrency"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	member, err := s.trips.AddMember(r.Context(), trip,
		strValue(req.Name), strValue(req.SettledByID), strValue(req.SettlementCurrency))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	if !s.requireCreator(w, r, trip) {
		return
	}
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	member, err := s.trips.UpdateMember(r.Context(), trip, r.PathValue("id"),
		req.Name, req.SettledByID, req.SettlementCurrency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	expenses, err := s.trips.Expenses(r.Context(), trip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	var expense models.Expense
	if !decodeJSON(w, r, &expense) {
		return
	}
	if err := s.trips.AddExpense(r.Context(), trip, &expense); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	if !s.requireCreator(w, r, trip) {
		return
	}
	if err := s.trips.DeleteExpense(r.Context(), trip, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	settlements, err := s.trips.Settlements(r.Context(), trip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlements)
}

func (s *Server) handleAddSettlement(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	var settlement models.Settlement
	if !decodeJSON(w, r, &settlement) {
		return
	}
	if err := s.trips.AddSettlement(r.Context(), trip, &settlement); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, settlement)
}

func (s *Server) handleDeleteSettlement(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	if !s.requireCreator(w, r, trip) {
		return
	}
	if err := s.trips.DeleteSettlement(r.Context(), trip, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	report, err := s.balances.Report(r.Context(), trip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request, trip *models.Trip) {
	target := r.URL.Query().Get("target")
	if target == "" {
		target = trip.Currency
	}
	sheet, err := s.balances.Rates(r.Context(), trip, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCreatorToken):
		status = http.StatusForbidden
	case errors.Is(err, exchange.ErrRatesUnavailable):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
