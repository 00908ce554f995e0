package domain

import (
	"strings"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// InitialVersion is the version a task receives on creation.
const InitialVersion = 1

// Task represents a user-owned activity item. Shares are not embedded; they
// are queried from the share registry by task id.
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// Normalize fills creation defaults.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Version <= 0 {
		t.Version = InitialVersion
	}
}

// Validate checks the fields every stored task must satisfy.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(t.Title) == "" {
		return Invalid("title", "must not be empty")
	}
	if !t.Status.Valid() {
		return Invalid("status", "must be one of todo, in_progress, completed")
	}
	if t.OwnerID == "" {
		return Invalid("owner_id", "must not be empty")
	}
	return nil
}

// TaskPatch carries the fields of a partial update. Nil fields keep their
// stored value. ClearDueDate removes the due date.
type TaskPatch struct {
	Title        *string     `json:"title,omitempty"`
	Description  *string     `json:"description,omitempty"`
	Status       *TaskStatus `json:"status,omitempty"`
	DueDate      *time.Time  `json:"due_date,omitempty"`
	ClearDueDate bool        `json:"clear_due_date,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.DueDate == nil && !p.ClearDueDate
}

// Normalized returns the patch with the title trimmed, so every store saves
// the same value.
func (p TaskPatch) Normalized() TaskPatch {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.ClearDueDate {
		p.DueDate = nil
	}
	return p
}

// Validate checks only the fields that are present.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Invalid("title", "must not be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return Invalid("status", "must be one of todo, in_progress, completed")
	}
	if p.ClearDueDate && p.DueDate != nil {
		return Invalid("due_date", "cannot be set and cleared at once")
	}
	return nil
}

// Apply merges the patch into t. Version and timestamps are left to the store.
func (p TaskPatch) Apply(t *Task) {
	if t == nil {
		return
	}
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		due := *p.DueDate
		t.DueDate = &due
	}
}

// TaskDetails is a task together with its shares and the caller's role on it.
type TaskDetails struct {
	Task
	Shares []Share `json:"shares"`
	Role   Role    `json:"role"`
}
