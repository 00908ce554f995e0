package domain

import (
	"testing"
	"time"
)

func TestTaskNormalizeDefaults(t *testing.T) {
	task := &Task{Title: "  write report ", OwnerID: "u1"}
	task.Normalize()

	if task.Title != "write report" {
		t.Fatalf("title = %q", task.Title)
	}
	if task.Status != StatusTodo {
		t.Fatalf("status = %q, want todo", task.Status)
	}
	if task.Version != InitialVersion {
		t.Fatalf("version = %d, want %d", task.Version, InitialVersion)
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestTaskValidate(t *testing.T) {
	cases := map[string]*Task{
		"empty title":    {Title: " ", Status: StatusTodo, OwnerID: "u1"},
		"unknown status": {Title: "x", Status: "blocked", OwnerID: "u1"},
		"missing owner":  {Title: "x", Status: StatusTodo},
	}
	for name, task := range cases {
		if err := task.Validate(); !IsDomainError(err, ErrCodeInvalid) {
			t.Fatalf("%s: expected invalid error, got %v", name, err)
		}
	}
}

func TestTaskPatchApplyKeepsOmittedFields(t *testing.T) {
	due := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	task := &Task{
		Title:       "old",
		Description: "keep me",
		Status:      StatusTodo,
		DueDate:     &due,
	}

	title := "new"
	status := StatusInProgress
	TaskPatch{Title: &title, Status: &status}.Apply(task)

	if task.Title != "new" || task.Status != StatusInProgress {
		t.Fatalf("patched fields not applied: %#v", task)
	}
	if task.Description != "keep me" {
		t.Fatalf("description changed: %q", task.Description)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Fatalf("due date changed: %v", task.DueDate)
	}
}

func TestTaskPatchValidate(t *testing.T) {
	blank := ""
	if err := (TaskPatch{Title: &blank}).Validate(); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected invalid title, got %v", err)
	}
	bad := TaskStatus("done")
	if err := (TaskPatch{Status: &bad}).Validate(); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if !(TaskPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
}

func TestTaskPatchNormalizedTrimsTitle(t *testing.T) {
	title := "  spaced  "
	patch := TaskPatch{Title: &title}.Normalized()
	if *patch.Title != "spaced" {
		t.Fatalf("title = %q", *patch.Title)
	}
	if title != "  spaced  " {
		t.Fatalf("Normalized mutated caller's string: %q", title)
	}
}

func TestTaskPatchClearDueDate(t *testing.T) {
	due := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	task := &Task{Title: "t", Status: StatusTodo, DueDate: &due}

	patch := TaskPatch{ClearDueDate: true}
	if patch.Empty() {
		t.Fatalf("clearing patch should not be empty")
	}
	patch.Apply(task)
	if task.DueDate != nil {
		t.Fatalf("due date not cleared: %v", task.DueDate)
	}

	if err := (TaskPatch{ClearDueDate: true, DueDate: &due}).Validate(); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected invalid for set and clear, got %v", err)
	}
}
