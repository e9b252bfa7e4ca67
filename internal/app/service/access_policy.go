package service

import (
	"sheet_analytics/internal/domain/model"
)

// Action identifies one protected operation of the role state machine.
type Action string

const (
	ActionListUsers      Action = "users.list"
	ActionSetRole        Action = "users.set_role"
	ActionDeleteUser     Action = "users.delete"
	ActionRequestRole    Action = "role_requests.create"
	ActionListOwnRequest Action = "role_requests.list_own"
	ActionListPending    Action = "role_requests.list_pending"
	ActionResolveRequest Action = "role_requests.resolve"
	ActionViewCounts     Action = "counts.view"
)

// rolePermissions is the single permission table consulted for every
// role-gated operation. Per-target rules (self-deletion, demoting another
// superadmin) are enforced by the services on top of this table.
var rolePermissions = map[string]map[Action]bool{
	model.RoleUser: {},
	model.RoleAdmin: {
		ActionListUsers:      true,
		ActionRequestRole:    true,
		ActionListOwnRequest: true,
		ActionViewCounts:     true,
	},
	model.RoleSuperadmin: {
		ActionListUsers:      true,
		ActionSetRole:        true,
		ActionDeleteUser:     true,
		ActionListPending:    true,
		ActionResolveRequest: true,
		ActionViewCounts:     true,
	},
}

// Allows reports whether the given role may perform the action.
func Allows(role string, action Action) bool {
	return rolePermissions[role][action]
}
