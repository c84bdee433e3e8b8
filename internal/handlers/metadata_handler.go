package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shaibs3/groupdir/internal/db"
	"github.com/shaibs3/groupdir/internal/metadata"
	"go.uber.org/zap"
)

// MetadataResolver produces a display pair for a link and never fails
type MetadataResolver interface {
	Resolve(ctx context.Context, link string) metadata.Metadata
}

type MetadataHandler struct {
	resolver MetadataResolver
	logger   *zap.Logger
}

func NewMetadataHandler(resolver MetadataResolver) *MetadataHandler {
	return &MetadataHandler{resolver: resolver, logger: zap.NewNop()}
}

// RegisterRoutes registers the routes for this handler
func (h *MetadataHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	h.logger = logger.Named("metadata")
	router.HandleFunc("/api/extract-metadata", h.handleExtract).Methods(http.MethodPost)
}

func (h *MetadataHandler) handleExtract(w http.ResponseWriter, req *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(w, req, &body); err != nil || !strings.Contains(body.URL, db.WhatsappInviteMarker) {
		writeMessage(w, h.logger, http.StatusBadRequest, "Invalid WhatsApp link")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.resolver.Resolve(req.Context(), body.URL))
}
