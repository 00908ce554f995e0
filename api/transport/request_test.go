package transport

import (
	"encoding/json"
	"testing"

	"github.com/fastygo/taskshare/domain"
)

func decodePatch(t *testing.T, body string) domain.TaskPatch {
	t.Helper()
	var req TaskUpdateRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	patch, err := req.Patch()
	if err != nil {
		t.Fatalf("patch %s: %v", body, err)
	}
	return patch
}

func TestTaskUpdateRequestOmittedFieldsKeepValues(t *testing.T) {
	patch := decodePatch(t, `{"title":"new"}`)
	if patch.Title == nil || *patch.Title != "new" {
		t.Fatalf("title = %v", patch.Title)
	}
	if patch.Description != nil || patch.DueDate != nil || patch.ClearDueDate {
		t.Fatalf("unexpected patch: %#v", patch)
	}
}

func TestTaskUpdateRequestClearsDueDate(t *testing.T) {
	for _, body := range []string{`{"due_date":null}`, `{"due_date":""}`} {
		patch := decodePatch(t, body)
		if !patch.ClearDueDate || patch.DueDate != nil {
			t.Fatalf("%s: expected clear, got %#v", body, patch)
		}
		if patch.Empty() {
			t.Fatalf("%s: clearing patch reported empty", body)
		}
	}

	patch := decodePatch(t, `{"due_date":"2026-01-02"}`)
	if patch.ClearDueDate || patch.DueDate == nil || patch.DueDate.Day() != 2 {
		t.Fatalf("expected due date, got %#v", patch)
	}
}

func TestTaskUpdateRequestClearsDescription(t *testing.T) {
	for _, body := range []string{`{"description":null}`, `{"description":""}`} {
		patch := decodePatch(t, body)
		if patch.Description == nil || *patch.Description != "" {
			t.Fatalf("%s: expected empty description, got %v", body, patch.Description)
		}
	}
}

func TestTaskUpdateRequestRejectsBadDueDate(t *testing.T) {
	var req TaskUpdateRequest
	if err := json.Unmarshal([]byte(`{"due_date":"tomorrow"}`), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := req.Patch(); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if err := json.Unmarshal([]byte(`{"due_date":5}`), &req); err == nil {
		t.Fatalf("expected decode error for numeric due_date")
	}
}
