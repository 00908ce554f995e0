package domain

import "time"

// Permission is the level granted by a share.
type Permission string

const (
	PermissionView  Permission = "view"
	PermissionEdit  Permission = "edit"
	PermissionAdmin Permission = "admin"
)

func (p Permission) Valid() bool {
	switch p {
	case PermissionView, PermissionEdit, PermissionAdmin:
		return true
	}
	return false
}

// Share grants a permission on a task to a user other than its owner.
// At most one share exists per (TaskID, SharedWithID).
type Share struct {
	ID           string     `json:"id"`
	TaskID       string     `json:"task_id"`
	SharedWithID string     `json:"shared_with_id"`
	Permission   Permission `json:"permission"`
	SharedAt     time.Time  `json:"shared_at"`
}

// ShareEntry is a share joined with the grantee's public profile.
type ShareEntry struct {
	ID           string      `json:"id"`
	SharedWithID string      `json:"shared_with_id"`
	Permission   Permission  `json:"permission"`
	SharedAt     time.Time   `json:"shared_at"`
	SharedWith   UserSummary `json:"shared_with"`
}
