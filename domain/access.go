package domain

// Role is a caller's effective permission on a task, ordered from none to owner.
type Role string

const (
	RoleNone  Role = "none"
	RoleView  Role = "view"
	RoleEdit  Role = "edit"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

var roleRank = map[Role]int{
	RoleNone:  0,
	RoleView:  1,
	RoleEdit:  2,
	RoleAdmin: 3,
	RoleOwner: 4,
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Action names an operation subject to the access policy.
type Action string

const (
	ActionRead       Action = "read"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionShare      Action = "share"
	ActionUnshare    Action = "unshare"
	ActionListShares Action = "list_shares"
)

// policy maps each action to the minimum role allowed to perform it.
// Admin shares carry no rights beyond edit.
var policy = map[Action]Role{
	ActionRead:       RoleView,
	ActionUpdate:     RoleEdit,
	ActionDelete:     RoleOwner,
	ActionShare:      RoleOwner,
	ActionUnshare:    RoleOwner,
	ActionListShares: RoleOwner,
}

// RequiredRole returns the minimum role for action. Unknown actions require owner.
func RequiredRole(action Action) Role {
	if role, ok := policy[action]; ok {
		return role
	}
	return RoleOwner
}

// EffectivePermission computes the caller's role on task from ownership and shares.
func EffectivePermission(task *Task, shares []Share, callerID string) Role {
	if task == nil || callerID == "" {
		return RoleNone
	}
	if task.OwnerID == callerID {
		return RoleOwner
	}
	for _, share := range shares {
		if share.TaskID != "" && share.TaskID != task.ID {
			continue
		}
		if share.SharedWithID == callerID {
			if role := Role(share.Permission); roleRank[role] > 0 && role != RoleOwner {
				return role
			}
			return RoleNone
		}
	}
	return RoleNone
}

// Authorize returns an access-denied error when role is below what action requires.
func Authorize(role Role, action Action, taskID string) error {
	if role.AtLeast(RequiredRole(action)) {
		return nil
	}
	return NewAccessDenied(action, taskID)
}
