package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func seedTasks(t *testing.T, server *Server) {
	t.Helper()
	body := `{"tasks": [
		{"externalId": "t1", "name": "Ship release", "status": "completed", "completionDate": "2026-08-20T10:00:00Z", "projectName": "Launch", "flagged": true, "tags": ["work"]},
		{"externalId": "t2", "name": "Water plants", "status": "active"},
		{"externalId": "t3", "name": "File taxes", "taskStatus": "completed"}
	]}`
	rr := postImport(t, server, "s", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("seed import failed: %d: %s", rr.Code, rr.Body.String())
	}
}

func TestListTasks(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, "s")
	seedTasks(t, server)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp TaskListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("expected 3 tasks, got %d", resp.Total)
	}

	byID := map[string]DisplayTask{}
	for _, d := range resp.Tasks {
		byID[d.ExternalID] = d
	}

	// Unknown exporter fields come back out of the raw payload.
	if byID["t1"].Project != "Launch" {
		t.Errorf("expected project Launch, got %q", byID["t1"].Project)
	}
	if !byID["t1"].Flagged {
		t.Error("expected t1 to be flagged")
	}
	if !byID["t1"].Completed {
		t.Error("expected t1 completed")
	}

	// taskStatus drives completion when status is absent.
	if !byID["t3"].Completed {
		t.Error("expected t3 completed via taskStatus")
	}
	if byID["t2"].Completed {
		t.Error("expected t2 not completed")
	}
}

func TestListTasksFilters(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, "s")
	seedTasks(t, server)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=completed", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	var resp TaskListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected 2 completed tasks, got %d", resp.Total)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tasks?limit=1", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// limit truncates the page; total still counts every match.
	if len(resp.Tasks) != 1 {
		t.Errorf("expected limit=1 to return 1 task, got %d", len(resp.Tasks))
	}
	if resp.Total != 3 {
		t.Errorf("expected total 3 with limit=1, got %d", resp.Total)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tasks?limit=nope", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rr.Code)
	}
}

func TestListTasksStatusFilterIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, "s")

	body := `{"tasks": [
		{"externalId": "t1", "name": "A", "status": "Completed"},
		{"externalId": "t2", "name": "B", "status": "COMPLETED"},
		{"externalId": "t3", "name": "C", "status": "active"}
	]}`
	rr := postImport(t, server, "s", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("seed import failed: %d: %s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks?status=completed", nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	var resp TaskListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected 2 tasks for mixed-case statuses, got %d", resp.Total)
	}
}

func TestListTasksStoreFailure(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, "s")

	// A closed store must surface the persistence taxonomy, not the
	// generic fallback.
	server.db.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var apiErr APIError
	if err := json.NewDecoder(rr.Body).Decode(&apiErr); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if apiErr.Code != "STORE_FAILURE" {
		t.Errorf("expected code STORE_FAILURE, got %q", apiErr.Code)
	}
}

func TestGetTask(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, "s")
	seedTasks(t, server)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/t1", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var d DisplayTask
	if err := json.NewDecoder(rr.Body).Decode(&d); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if d.Name != "Ship release" {
		t.Errorf("expected name %q, got %q", "Ship release", d.Name)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	t.Parallel()
	server := newTestServer(t, "s")

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/missing", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}

	var apiErr APIError
	if err := json.NewDecoder(rr.Body).Decode(&apiErr); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if apiErr.Code != "TASK_NOT_FOUND" {
		t.Errorf("expected code TASK_NOT_FOUND, got %q", apiErr.Code)
	}
}
