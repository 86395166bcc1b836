// Package task defines the canonical task record and the import wire
// shape that external exporters submit.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StatusCompleted is the only status value with semantic meaning to
// the activity aggregation. Matching is case-insensitive.
const StatusCompleted = "completed"

// Task is the canonical stored record. Optional fields are explicit
// pointers so a conflict-update writes NULL rather than dropping the
// column (schema-drift strategy: absent means null, never omitted).
type Task struct {
	ExternalID     string     `json:"externalId"`
	Name           string     `json:"name"`
	Status         *string    `json:"status"`
	TaskStatus     *string    `json:"taskStatus"`
	Active         *bool      `json:"active"`
	Added          *time.Time `json:"added"`
	Modified       *time.Time `json:"modified"`
	Completed      *time.Time `json:"completed"`
	CompletionDate *time.Time `json:"completionDate"`
	DueDate        *time.Time `json:"dueDate"`
	Note           *string    `json:"note"`
	Tags           []string   `json:"tags"`

	// RawData is the original wire record retained verbatim for
	// forward-compatible redisplay. Always present after import.
	RawData string `json:"rawData"`

	// ImportedAt is server-assigned at write time.
	ImportedAt time.Time `json:"importedAt"`
}

// EffectiveStatus returns the status driving the completed check:
// status when set, else the alternative task_status field.
func (t *Task) EffectiveStatus() string {
	if t.Status != nil && *t.Status != "" {
		return *t.Status
	}
	if t.TaskStatus != nil {
		return *t.TaskStatus
	}
	return ""
}

// IsCompleted reports whether the record counts as completed,
// case-insensitively.
func (t *Task) IsCompleted() bool {
	return strings.EqualFold(t.EffectiveStatus(), StatusCompleted)
}

// ImportTask is one element of an import batch. Timestamps arrive as
// ISO-8601 strings. The raw request bytes are captured during
// unmarshaling so the stored record keeps fields this version of the
// schema doesn't know about.
type ImportTask struct {
	ExternalID     string   `json:"externalId"`
	Name           string   `json:"name"`
	Status         *string  `json:"status"`
	TaskStatus     *string  `json:"taskStatus"`
	Active         *bool    `json:"active"`
	Added          *string  `json:"added"`
	Modified       *string  `json:"modified"`
	Completed      *string  `json:"completed"`
	CompletionDate *string  `json:"completionDate"`
	DueDate        *string  `json:"dueDate"`
	Note           *string  `json:"note"`
	Tags           []string `json:"tags"`

	raw json.RawMessage
}

// UnmarshalJSON captures the verbatim record bytes before decoding
// the named fields.
func (t *ImportTask) UnmarshalJSON(data []byte) error {
	type alias ImportTask
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = ImportTask(a)
	t.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the verbatim wire bytes of the record.
func (t *ImportTask) Raw() json.RawMessage {
	return t.raw
}

// FieldError describes one invalid field of an import record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RecordError collects the field errors of one rejected record.
type RecordError struct {
	Index      int          `json:"index"`
	ExternalID string       `json:"externalId,omitempty"`
	Fields     []FieldError `json:"fields"`
}

// Validate checks the record's structural requirements: externalId and
// name present, all timestamp strings parseable. It returns nil when
// the record is acceptable.
func (t *ImportTask) Validate() []FieldError {
	var errs []FieldError

	if t.ExternalID == "" {
		errs = append(errs, FieldError{Field: "externalId", Message: "required"})
	}
	if t.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}

	timestamps := []struct {
		field string
		value *string
	}{
		{"added", t.Added},
		{"modified", t.Modified},
		{"completed", t.Completed},
		{"completionDate", t.CompletionDate},
		{"dueDate", t.DueDate},
	}
	for _, ts := range timestamps {
		if ts.value == nil {
			continue
		}
		if _, err := time.Parse(time.RFC3339, *ts.value); err != nil {
			errs = append(errs, FieldError{
				Field:   ts.field,
				Message: fmt.Sprintf("not a valid ISO-8601 timestamp: %q", *ts.value),
			})
		}
	}

	return errs
}

// ValidateBatch validates every record of a batch. A non-empty result
// means the whole batch must be rejected; no partial apply.
func ValidateBatch(batch []ImportTask) []RecordError {
	var errs []RecordError
	for i, t := range batch {
		if fields := t.Validate(); fields != nil {
			errs = append(errs, RecordError{
				Index:      i,
				ExternalID: t.ExternalID,
				Fields:     fields,
			})
		}
	}
	return errs
}

// Canonical maps a validated import record into the canonical stored
// shape. Absent optional fields become explicit nulls. The stored
// completed timestamp falls back to completionDate when the exporter
// omitted it; completionDate itself is never derived and remains the
// sole source for activity aggregation.
func (t *ImportTask) Canonical(now time.Time, pseudonymize bool) Task {
	name := t.Name
	if pseudonymize {
		name = PseudonymizeName(name)
	}

	completed := parseTime(t.Completed)
	if completed == nil {
		completed = parseTime(t.CompletionDate)
	}

	raw := t.raw
	if raw == nil {
		// Records constructed in code rather than decoded from a
		// request still need a verbatim raw_data payload.
		raw, _ = json.Marshal(t)
	}

	return Task{
		ExternalID:     t.ExternalID,
		Name:           name,
		Status:         t.Status,
		TaskStatus:     t.TaskStatus,
		Active:         t.Active,
		Added:          parseTime(t.Added),
		Modified:       parseTime(t.Modified),
		Completed:      completed,
		CompletionDate: parseTime(t.CompletionDate),
		DueDate:        parseTime(t.DueDate),
		Note:           t.Note,
		Tags:           t.Tags,
		RawData:        string(raw),
		ImportedAt:     now,
	}
}

// parseTime parses an RFC3339 string, returning nil for absent or
// malformed values. Validation has already rejected malformed input
// on the import path.
func parseTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &ts
}
