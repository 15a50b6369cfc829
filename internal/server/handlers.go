package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/subsync/internal/models"
	"github.com/desertthunder/subsync/internal/shared"
	"github.com/desertthunder/subsync/internal/tasks"
)

// RunFunc triggers a sync run, optionally restricted to the given row
// positions.
type RunFunc func(ctx context.Context, only []int) (*tasks.RunResult, error)

// RowsFunc loads the tracked rows for playlist lookups.
type RowsFunc func() ([]models.TrackedRow, error)

// SyncHandler serves the web trigger endpoints. GET /sync?update=True runs
// a sync pass; GET /playlist redirects to a row's destination playlist.
// Both accept pl=N to select a row by its 1-based position.
type SyncHandler struct {
	run    RunFunc
	rows   RowsFunc
	logger *log.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(run RunFunc, rows RowsFunc, logger *log.Logger) *SyncHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncHandler{run: run, rows: rows, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SyncHandler) Routes() []string {
	return []string{"/sync", "/playlist"}
}

// ServeHTTP dispatches to the sync trigger or the playlist redirect.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/sync":
		h.handleSync(w, r)
	case "/playlist":
		h.handlePlaylist(w, r)
	default:
		http.NotFound(w, r)
	}
}

// syncResponse is the JSON body for a completed sync trigger.
type syncResponse struct {
	StartedAt   string        `json:"started_at"`
	TotalErrors int           `json:"total_errors"`
	Rows        []syncRowInfo `json:"rows"`
	Error       string        `json:"error,omitempty"`
}

type syncRowInfo struct {
	Position           int    `json:"position"`
	PlaylistID         string `json:"playlist_id"`
	Skipped            bool   `json:"skipped"`
	Videos             int    `json:"videos"`
	Added              int    `json:"added"`
	Errors             int    `json:"errors"`
	CheckpointAdvanced bool   `json:"checkpoint_advanced"`
}

func (h *SyncHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.URL.Query().Get("update"), "true") {
		http.Error(w, "Pass update=True to trigger a sync run", http.StatusBadRequest)
		return
	}

	var only []int
	if pl := r.URL.Query().Get("pl"); pl != "" {
		position, err := strconv.Atoi(pl)
		if err != nil || position < 1 {
			http.Error(w, "Invalid pl parameter", http.StatusBadRequest)
			return
		}
		only = []int{position}
	}

	result, err := h.run(r.Context(), only)
	if err != nil && !errors.Is(err, shared.ErrRunFailed) {
		h.logger.Error("sync trigger failed", "err", err)
		http.Error(w, fmt.Sprintf("Sync failed: %v", err), http.StatusInternalServerError)
		return
	}

	resp := syncResponse{
		StartedAt:   shared.FormatTimestamp(result.StartedAt),
		TotalErrors: result.TotalErrors,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	for _, rr := range result.Rows {
		resp.Rows = append(resp.Rows, syncRowInfo{
			Position:           rr.Position,
			PlaylistID:         rr.PlaylistID,
			Skipped:            rr.Skipped,
			Videos:             rr.Videos,
			Added:              rr.Added,
			Errors:             rr.Errors,
			CheckpointAdvanced: rr.CheckpointAdvanced,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *SyncHandler) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	position := 1
	if pl := r.URL.Query().Get("pl"); pl != "" {
		parsed, err := strconv.Atoi(pl)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid pl parameter", http.StatusBadRequest)
			return
		}
		position = parsed
	}

	rows, err := h.rows()
	if err != nil {
		h.logger.Error("failed to load tracked rows", "err", err)
		http.Error(w, "Cannot load tracked rows", http.StatusInternalServerError)
		return
	}

	for _, row := range rows {
		if row.Position != position {
			continue
		}
		if row.PlaylistID == "" {
			http.Error(w, "Row has no destination playlist", http.StatusNotFound)
			return
		}
		http.Redirect(w, r, "https://www.youtube.com/playlist?list="+row.PlaylistID, http.StatusFound)
		return
	}

	http.Error(w, fmt.Sprintf("No tracked row at position %d", position), http.StatusNotFound)
}
