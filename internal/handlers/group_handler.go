package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shaibs3/groupdir/internal/db"
	"github.com/shaibs3/groupdir/internal/store"
	"github.com/shaibs3/groupdir/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	SortPopular      = "popular"
	SortAlphabetical = "alphabetical"
)

// GroupHandler serves the listing, lookup, submission and view endpoints
type GroupHandler struct {
	store     store.GroupStore
	validator *validation.Validator
	logger    *zap.Logger
}

func NewGroupHandler(groupStore store.GroupStore, validator *validation.Validator) *GroupHandler {
	return &GroupHandler{
		store:     groupStore,
		validator: validator,
		logger:    zap.NewNop(),
	}
}

// RegisterRoutes registers the routes for this handler
func (h *GroupHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	h.logger = logger.Named("groups")
	router.HandleFunc("/api/groups", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/api/groups", h.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/api/groups/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/api/groups/{id}/view", h.handleView).Methods(http.MethodPost)
}

// handleList applies search, then category, then country; the first
// non-empty one wins
func (h *GroupHandler) handleList(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	q := req.URL.Query()

	var groups []db.Group
	var err error
	switch {
	case q.Get("search") != "":
		groups, err = h.store.SearchGroups(ctx, q.Get("search"))
	case q.Get("category") != "":
		groups, err = h.store.ListGroupsByCategory(ctx, q.Get("category"))
	case q.Get("country") != "":
		groups, err = h.store.ListGroupsByCountry(ctx, q.Get("country"))
	default:
		groups, err = h.store.ListGroups(ctx)
	}
	if err != nil {
		h.logger.Error("failed to fetch groups", zap.Error(err))
		writeMessage(w, h.logger, http.StatusInternalServerError, "Failed to fetch groups")
		return
	}
	if groups == nil {
		groups = []db.Group{}
	}

	SortGroups(groups, q.Get("sort"))
	writeJSON(w, h.logger, http.StatusOK, groups)
}

// SortGroups reorders groups in place. Unknown modes keep the store order.
func SortGroups(groups []db.Group, mode string) {
	switch mode {
	case SortPopular:
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].ViewCount > groups[j].ViewCount
		})
	case SortAlphabetical:
		// A Collator is not safe for concurrent use
		c := collate.New(language.English)
		sort.SliceStable(groups, func(i, j int) bool {
			return c.CompareString(groups[i].Title, groups[j].Title) < 0
		})
	}
}

func (h *GroupHandler) handleGet(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	group, err := h.store.GetGroup(req.Context(), id)
	if err != nil {
		h.logger.Error("failed to fetch group", zap.String("id", id), zap.Error(err))
		writeMessage(w, h.logger, http.StatusInternalServerError, "Failed to fetch group")
		return
	}
	if group == nil {
		writeMessage(w, h.logger, http.StatusNotFound, "Group not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, group)
}

func (h *GroupHandler) handleCreate(w http.ResponseWriter, req *http.Request) {
	var body validation.GroupRequest
	if err := decodeJSON(w, req, &body); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, messageResponse{
			Message: "Invalid group data",
			Errors:  map[string]string{"body": "request body must be a JSON object"},
		})
		return
	}

	in, err := h.validator.Group(body)
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, h.logger, http.StatusBadRequest, messageResponse{
			Message: "Invalid group data",
			Errors:  verrs,
		})
		return
	}
	if err != nil {
		h.logger.Error("failed to validate group", zap.Error(err))
		writeMessage(w, h.logger, http.StatusInternalServerError, "Failed to create group")
		return
	}

	if !strings.Contains(in.WhatsappLink, db.WhatsappInviteMarker) {
		writeMessage(w, h.logger, http.StatusBadRequest, "Invalid WhatsApp link format")
		return
	}

	group, err := h.store.CreateGroup(req.Context(), in)
	if err != nil {
		h.logger.Error("failed to create group", zap.Error(err))
		writeMessage(w, h.logger, http.StatusInternalServerError, "Failed to create group")
		return
	}
	h.logger.Info("group created", zap.String("id", group.ID), zap.String("category", group.Category))
	writeJSON(w, h.logger, http.StatusCreated, group)
}

// handleView answers success for unknown ids too
func (h *GroupHandler) handleView(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if err := h.store.IncrementViewCount(req.Context(), id); err != nil {
		h.logger.Error("failed to increment view count", zap.String("id", id), zap.Error(err))
		writeMessage(w, h.logger, http.StatusInternalServerError, "Failed to increment view count")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]bool{"success": true})
}
