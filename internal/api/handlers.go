package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dshills/haru-search/internal/history"
	"github.com/dshills/haru-search/internal/ratelimit"
	"github.com/dshills/haru-search/internal/searcher"
	"github.com/dshills/haru-search/pkg/types"
)

// APIHandler serves the search API
type APIHandler struct {
	searcher *searcher.Searcher
	history  *history.Log
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
}

// NewAPIHandler creates a handler. limiter may be nil to disable throttling.
func NewAPIHandler(s *searcher.Searcher, h *history.Log, limiter *ratelimit.Limiter, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{searcher: s, history: h, limiter: limiter, logger: logger}
}

// HealthHandler reports liveness
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GlobalSearchHandler returns all four entity lists; it always answers 200
func (h *APIHandler) GlobalSearchHandler(w http.ResponseWriter, r *http.Request) {
	results := h.searcher.GlobalSearch(r.Context(), r.URL.Query().Get("q"), CallerID(r.Context()))
	writeJSON(w, http.StatusOK, results)
}

// EntitySearchHandler searches one entity type
func (h *APIHandler) EntitySearchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	callerID := CallerID(ctx)

	switch chi.URLParam(r, "entity") {
	case "companions":
		writeJSON(w, http.StatusOK, h.searcher.SearchCompanions(ctx, query, callerID))
	case "users":
		writeJSON(w, http.StatusOK, h.searcher.SearchUsers(ctx, query, callerID))
	case "messages":
		writeJSON(w, http.StatusOK, h.searcher.SearchMessages(ctx, query, callerID))
	case "checkpoints":
		writeJSON(w, http.StatusOK, h.searcher.SearchCheckpoints(ctx, query, callerID))
	default:
		writeError(w, http.StatusNotFound, "unknown search entity")
	}
}

// ChatSearchHandler searches inside one chat the caller owns
func (h *APIHandler) ChatSearchHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chatID := chi.URLParam(r, "chatID")
	callerID := CallerID(ctx)

	results, err := h.searcher.SearchWithinChat(ctx, chatID, r.URL.Query().Get("q"), callerID)
	switch {
	case errors.Is(err, types.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case err != nil:
		h.logger.Error("chat search failed", "chat", chatID, "caller", callerID, "err", err)
		writeError(w, http.StatusInternalServerError, "search failed")
	default:
		writeJSON(w, http.StatusOK, results)
	}
}

// ListTagsHandler returns the tag catalog
func (h *APIHandler) ListTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := h.searcher.ListTags(r.Context())
	if err != nil {
		h.logger.Error("listing tags failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// SearchTagsHandler filters the catalog by name substring
func (h *APIHandler) SearchTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := h.searcher.SearchTags(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("searching tags failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to search tags")
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// CompanionsByTagHandler lists visible companions carrying a tag
func (h *APIHandler) CompanionsByTagHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	results := h.searcher.SearchCompanionsByTag(ctx, chi.URLParam(r, "name"), CallerID(ctx))
	writeJSON(w, http.StatusOK, results)
}

// AddHistoryRequest is the body of POST /api/search/history
type AddHistoryRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
}

// ListHistoryHandler returns the caller's recent searches, newest first
func (h *APIHandler) ListHistoryHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.List(r.Context(), CallerID(r.Context()))
	if err != nil {
		h.historyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// AddHistoryHandler records a search
func (h *APIHandler) AddHistoryHandler(w http.ResponseWriter, r *http.Request) {
	var req AddHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entry, err := h.history.Add(r.Context(), CallerID(r.Context()), req.Query, req.Category)
	if err != nil {
		h.historyError(w, err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// DeleteHistoryHandler removes one query (?q=) or clears the log
func (h *APIHandler) DeleteHistoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := CallerID(ctx)

	var err error
	if q := r.URL.Query().Get("q"); q != "" {
		err = h.history.Remove(ctx, callerID, q)
	} else {
		err = h.history.Clear(ctx, callerID)
	}
	if err != nil {
		h.historyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteHistoryEntryHandler removes one entry by id
func (h *APIHandler) DeleteHistoryEntryHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.history.RemoveByID(r.Context(), CallerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.historyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) historyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrCallerRequired):
		writeError(w, http.StatusUnauthorized, "caller identity required")
	case errors.Is(err, history.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, history.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "history entry not found")
	default:
		h.logger.Error("search history failed", "err", err)
		writeError(w, http.StatusInternalServerError, "search history unavailable")
	}
}
