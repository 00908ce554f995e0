package transport

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/fastygo/taskshare/domain"
)

type ProfileUpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`
}

// NullableString tells an omitted JSON field apart from an explicit null.
// Set is true whenever the key was present; Value is nil for null.
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}

// TaskUpdateRequest is a partial update; omitted fields keep their value.
// A null or empty due_date clears it and a null description empties it.
// Version, when present, is the version the client last read.
type TaskUpdateRequest struct {
	Title       *string        `json:"title"`
	Description NullableString `json:"description"`
	Status      *string        `json:"status"`
	DueDate     NullableString `json:"due_date"`
	Version     *int           `json:"version"`
}

// Patch converts the request into a domain patch.
func (r TaskUpdateRequest) Patch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{Title: r.Title}
	if r.Description.Set {
		description := ""
		if r.Description.Value != nil {
			description = *r.Description.Value
		}
		patch.Description = &description
	}
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		patch.Status = &status
	}
	if r.DueDate.Set {
		var raw string
		if r.DueDate.Value != nil {
			raw = *r.DueDate.Value
		}
		due, err := ParseDueDate(raw)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		if due == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = due
		}
	}
	return patch, nil
}

type ShareRequest struct {
	SharedWithID string `json:"shared_with_id"`
	Permission   string `json:"permission"`
}

type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}

// ParseDueDate accepts RFC3339 timestamps and plain dates. Empty input yields nil.
func ParseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			parsed = parsed.UTC()
			return &parsed, nil
		}
	}
	return nil, domain.Invalid("due_date", "must be RFC3339 or YYYY-MM-DD")
}
