package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	pberrors "github.com/randalmurphal/pulseboard/internal/errors"
	"github.com/randalmurphal/pulseboard/internal/task"
)

// DisplayTask is the dashboard list view of a stored record. Project
// and flagged come out of the verbatim raw payload so exporter fields
// this schema version doesn't model still show up.
type DisplayTask struct {
	ExternalID     string     `json:"externalId"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	Completed      bool       `json:"completed"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	Project        string     `json:"project,omitempty"`
	Flagged        bool       `json:"flagged,omitempty"`
	ImportedAt     time.Time  `json:"importedAt"`
}

// TaskListResponse is the body of GET /api/tasks.
type TaskListResponse struct {
	Tasks []DisplayTask `json:"tasks"`
	Total int           `json:"total"`
}

// handleListTasks returns stored tasks, newest import first. Supports
// ?status=completed and ?limit=N filters.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.ListTasks(r.Context())
	if err != nil {
		HandleError(w, pberrors.ErrStoreFailure("list tasks", err))
		return
	}

	statusFilter := r.URL.Query().Get("status")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			JSONError(w, "invalid limit: "+v, http.StatusBadRequest)
			return
		}
		limit = n
	}

	// Total counts every match; limit only truncates the page.
	display := make([]DisplayTask, 0, len(records))
	total := 0
	for i := range records {
		d := displayTask(&records[i])
		if statusFilter != "" && !strings.EqualFold(d.Status, statusFilter) {
			continue
		}
		total++
		if limit == 0 || len(display) < limit {
			display = append(display, d)
		}
	}

	JSONResponse(w, TaskListResponse{Tasks: display, Total: total})
}

// handleGetTask returns a single task by external ID.
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	externalID := r.PathValue("id")

	record, err := s.db.GetTask(r.Context(), externalID)
	if err != nil {
		HandleError(w, pberrors.ErrStoreFailure("get task", err))
		return
	}
	if record == nil {
		HandleError(w, pberrors.ErrTaskNotFound(externalID))
		return
	}

	JSONResponse(w, displayTask(record))
}

// displayTask flattens a stored record for the dashboard. Fields the
// canonical schema doesn't carry are read back out of raw_data.
func displayTask(t *task.Task) DisplayTask {
	raw := gjson.Parse(t.RawData)
	project := raw.Get("projectName").String()
	if project == "" {
		project = raw.Get("project").String()
	}

	return DisplayTask{
		ExternalID:     t.ExternalID,
		Name:           t.Name,
		Status:         t.EffectiveStatus(),
		Completed:      t.IsCompleted(),
		CompletionDate: t.CompletionDate,
		DueDate:        t.DueDate,
		Tags:           t.Tags,
		Project:        project,
		Flagged:        raw.Get("flagged").Bool(),
		ImportedAt:     t.ImportedAt,
	}
}
