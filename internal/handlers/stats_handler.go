package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shaibs3/groupdir/internal/store"
	"go.uber.org/zap"
)

type Stats struct {
	TotalGroups     int `json:"totalGroups"`
	TotalCategories int `json:"totalCategories"`
	TotalCountries  int `json:"totalCountries"`
}

type StatsHandler struct {
	store  store.GroupStore
	logger *zap.Logger
}

func NewStatsHandler(groupStore store.GroupStore) *StatsHandler {
	return &StatsHandler{store: groupStore, logger: zap.NewNop()}
}

// RegisterRoutes registers the routes for this handler
func (h *StatsHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	h.logger = logger.Named("stats")
	router.HandleFunc("/api/stats", h.handleStats).Methods(http.MethodGet)
}

// handleStats counts distinct categories and countries over a full scan
func (h *StatsHandler) handleStats(w http.ResponseWriter, req *http.Request) {
	groups, err := h.store.ListGroups(req.Context())
	if err != nil {
		h.logger.Error("failed to fetch stats", zap.Error(err))
		writeMessage(w, h.logger, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	categories := make(map[string]struct{})
	countries := make(map[string]struct{})
	for _, g := range groups {
		categories[g.Category] = struct{}{}
		countries[g.Country] = struct{}{}
	}
	writeJSON(w, h.logger, http.StatusOK, Stats{
		TotalGroups:     len(groups),
		TotalCategories: len(categories),
		TotalCountries:  len(countries),
	})
}
