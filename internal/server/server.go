// Package server exposes the comparison engine and the offer store over a
// JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/internal/projection"
	"github.com/iwvelando/loan-compare/internal/store"
	"github.com/iwvelando/loan-compare/internal/summary"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger      *zap.Logger
	engine      *projection.Engine
	offers      store.OfferStore
	maxBodySize int64
	version     string

	mu       sync.RWMutex
	scenario scenarioContext
}

// scenarioContext is the shared project plus rate forecast and expense
// schedule the stored offers are evaluated against.
type scenarioContext struct {
	Project        config.Project     `json:"project" yaml:"project"`
	RatesForecast  []config.RateDelta `json:"ratesForecast,omitempty" yaml:"ratesForecast,omitempty"`
	FutureExpenses []config.Expense   `json:"futureExpenses,omitempty" yaml:"futureExpenses,omitempty"`
}

// NewHandler constructs the HTTP handler that serves the comparison API. The
// initial scenario context and offers come from the loaded configuration.
func NewHandler(logger *zap.Logger, engine *projection.Engine, offers store.OfferStore,
	conf *config.Configuration, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}
	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		engine:      engine,
		offers:      offers,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		scenario: scenarioContext{
			Project:        conf.Project,
			RatesForecast:  conf.RatesForecast,
			FutureExpenses: conf.FutureExpenses,
		},
	}

	router := mux.NewRouter()
	router.Use(h.requestID)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)
	api.HandleFunc("/scenario", h.handleGetScenario).Methods(http.MethodGet)
	api.HandleFunc("/scenario", h.handlePutScenario).Methods(http.MethodPut)
	api.HandleFunc("/offers", h.handleListOffers).Methods(http.MethodGet)
	api.HandleFunc("/offers", h.handlePutOffer).Methods(http.MethodPost)
	api.HandleFunc("/offers/{name}", h.handleGetOffer).Methods(http.MethodGet)
	api.HandleFunc("/offers/{name}", h.handleDeleteOffer).Methods(http.MethodDelete)
	api.HandleFunc("/projection", h.handleProjection).Methods(http.MethodPost)
	api.HandleFunc("/summary", h.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/export", h.handleExport).Methods(http.MethodGet)

	return router
}

// requestID tags every request with a UUID for log correlation.
func (h *handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		h.logger.Debug(fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			zap.String("op", "server.requestID"),
			zap.String("requestId", id),
		)
		next.ServeHTTP(w, r)
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	scenario := h.scenario
	h.mu.RUnlock()
	h.writeJSON(w, http.StatusOK, scenario)
}

func (h *handler) handlePutScenario(w http.ResponseWriter, r *http.Request) {
	var scenario scenarioContext
	if !h.decodeJSON(w, r, &scenario, "server.handlePutScenario") {
		return
	}
	if scenario.Project.SettlementDate == "" {
		h.respondError(w, http.StatusBadRequest, "project.settlementDate is required")
		return
	}
	if err := scenario.Project.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.mu.Lock()
	h.scenario = scenario
	h.mu.Unlock()
	h.writeJSON(w, http.StatusOK, scenario)
}

func (h *handler) handleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.offers.List()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list offers: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, offers)
}

func (h *handler) handlePutOffer(w http.ResponseWriter, r *http.Request) {
	var offer config.Offer
	if !h.decodeJSON(w, r, &offer, "server.handlePutOffer") {
		return
	}
	if err := offer.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.offers.Put(offer); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store offer: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, offer)
}

func (h *handler) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	offer, err := h.offers.Get(name)
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("no offer named %q", name))
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load offer: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, offer)
}

func (h *handler) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	err := h.offers.Delete(name)
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("no offer named %q", name))
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete offer: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// projectionRequest is the invocation bundle with config-style string dates
// for the forecast and expense lists.
type projectionRequest struct {
	projection.Input
	RatesForecast  []config.RateDelta `json:"ratesForecast,omitempty"`
	FutureExpenses []config.Expense   `json:"futureExpenses,omitempty"`
}

type projectionResponse struct {
	Feasible   bool             `json:"feasible"`
	Incomplete bool             `json:"incomplete,omitempty"`
	Rows       []projection.Row `json:"rows,omitempty"`
}

func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	var request projectionRequest
	if !h.decodeJSON(w, r, &request, "server.handleProjection") {
		return
	}

	input := request.Input
	var err error
	if input.RatesForecast, err = config.ProjectionDeltas(request.RatesForecast); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.FutureExpenses, err = config.ProjectionExpenses(request.FutureExpenses); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, feasible, err := h.engine.Evaluate(input)
	if errors.Is(err, projection.ErrIncompleteInput) {
		// The incomplete sentinel is a well-defined absence of result, not a
		// server failure.
		h.writeJSON(w, http.StatusUnprocessableEntity, projectionResponse{Incomplete: true})
		return
	}
	if errors.Is(err, projection.ErrConfiguration) {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, projectionResponse{Feasible: feasible, Rows: series.Rows})
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	scenario := h.scenario
	h.mu.RUnlock()

	conf := config.Configuration{
		Project:        scenario.Project,
		RatesForecast:  scenario.RatesForecast,
		FutureExpenses: scenario.FutureExpenses,
	}
	conf.ApplyDefaults()

	project, err := conf.ProjectionProject()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	forecast, err := conf.ProjectionForecast()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	expenses, err := conf.ProjectionExpenses()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := h.offers.List()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list offers: %v", err))
		return
	}
	offers := make([]projection.Offer, 0, len(stored))
	for _, offer := range stored {
		offers = append(offers, offer.ProjectionOffer())
	}

	summaries := summary.Compare(h.logger, h.engine, project, offers, forecast, expenses)
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	scenario := h.scenario
	h.mu.RUnlock()

	offers, err := h.offers.List()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list offers: %v", err))
		return
	}

	export := struct {
		scenarioContext `yaml:",inline"`
		Offers          []config.Offer `yaml:"offers,omitempty"`
	}{scenarioContext: scenario, Offers: offers}

	yamlBytes, err := yaml.Marshal(export)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}, op string) bool {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize))
			return false
		}
		h.logger.Debug(fmt.Sprintf("failed to decode request: %v", err),
			zap.String("op", op),
		)
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err))
		return false
	}
	return true
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
