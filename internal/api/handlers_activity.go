package api

import (
	"net/http"
	"time"

	pberrors "github.com/randalmurphal/pulseboard/internal/errors"
	"github.com/randalmurphal/pulseboard/internal/heatmap"
)

// handleGetActivity returns the completion-activity grid for the
// trailing year.
func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.ListTasks(r.Context())
	if err != nil {
		HandleError(w, pberrors.ErrStoreFailure("list tasks", err))
		return
	}

	grid := heatmap.Build(records, time.Now())
	JSONResponse(w, grid)
}

// handleGetStats returns the summary card numbers without the grid.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.ListTasks(r.Context())
	if err != nil {
		HandleError(w, pberrors.ErrStoreFailure("list tasks", err))
		return
	}

	grid := heatmap.Build(records, time.Now())
	JSONResponse(w, grid.Stats)
}
