package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/repositories"
	"github.com/desertthunder/sortifyr/internal/shared"
)

const maxBodyBytes = 1 << 20

// LinkStore is the persistence the link endpoints need.
type LinkStore interface {
	List(ctx context.Context) ([]models.Link, error)
	Sync(ctx context.Context, links []models.Link) (repositories.SyncResult, error)
}

// LinkHandler serves GET /api/link and POST /api/link/sync.
type LinkHandler struct {
	store  LinkStore
	logger *log.Logger
}

// NewLinkHandler creates a [LinkHandler].
func NewLinkHandler(store LinkStore, logger *log.Logger) *LinkHandler {
	return &LinkHandler{store: store, logger: logger}
}

// Routes implements [Handler].
func (h *LinkHandler) Routes() []string {
	return []string{"/api/link", "/api/link/sync"}
}

// ServeHTTP implements [Handler].
func (h *LinkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/link" && r.Method == http.MethodGet:
		h.list(w, r)
	case r.URL.Path == "/api/link/sync" && r.Method == http.MethodPost:
		h.sync(w, r)
	default:
		allow := http.MethodGet
		if r.URL.Path == "/api/link/sync" {
			allow = http.MethodPost
		}
		w.Header().Set("Allow", allow)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", RequestID: RequestIDFrom(r.Context())})
	}
}

func (h *LinkHandler) list(w http.ResponseWriter, r *http.Request) {
	links, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *LinkHandler) sync(w http.ResponseWriter, r *http.Request) {
	var links []models.Link

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&links); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large", RequestID: RequestIDFrom(r.Context())})
			return
		}
		writeError(w, r, h.logger, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	result, err := h.store.Sync(r.Context(), links)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("links synced",
		"request_id", RequestIDFrom(r.Context()),
		"created", result.Created,
		"updated", result.Updated,
		"deleted", result.Deleted,
	)
	writeJSON(w, http.StatusOK, result.Links)
}
