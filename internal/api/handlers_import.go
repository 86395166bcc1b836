package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	pberrors "github.com/randalmurphal/pulseboard/internal/errors"
	"github.com/randalmurphal/pulseboard/internal/events"
	"github.com/randalmurphal/pulseboard/internal/task"
)

// ImportRequest is the body of POST /api/import.
type ImportRequest struct {
	Tasks []task.ImportTask `json:"tasks"`
}

// ImportResponse reports how many records the batch wrote.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// handleImport ingests an exporter batch. The whole batch is validated
// before anything is written; a single bad record rejects all of it.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.checkImportAuth(r); err != nil {
		HandleError(w, err)
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if recordErrs := task.ValidateBatch(req.Tasks); recordErrs != nil {
		HandleError(w, pberrors.ErrValidationFailed(recordErrs))
		return
	}

	now := time.Now().UTC()
	records := make([]task.Task, len(req.Tasks))
	for i := range req.Tasks {
		records[i] = req.Tasks[i].Canonical(now, s.appConfig.Import.PseudonymizeNames)
	}

	written, err := s.db.UpsertTasks(r.Context(), records)
	if err != nil {
		s.logger.Error("import batch failed", "records", len(records), "error", err)
		HandleError(w, pberrors.ErrStoreFailure("upsert tasks", err))
		return
	}

	s.logger.Info("import batch applied", "imported", written)
	s.publisher.Publish(events.NewEvent(events.EventImportCompleted, events.ImportCompletedData{Imported: written}))
	s.publisher.Publish(events.NewEvent(events.EventTasksUpdated, nil))

	JSONResponse(w, ImportResponse{Imported: written})
}

// checkImportAuth verifies the shared import secret. A missing server
// secret is a server misconfiguration, never an auth failure, so the
// endpoint fails closed with a 5xx rather than inviting retries.
func (s *Server) checkImportAuth(r *http.Request) error {
	secret := s.appConfig.Import.Secret
	if secret == "" {
		return pberrors.ErrAuthNotConfigured()
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return pberrors.ErrUnauthorized()
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return pberrors.ErrUnauthorized()
	}
	return nil
}
