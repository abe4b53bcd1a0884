package rbac

// Action represents an operation that can be performed on tenant data.
type Action string

const (
	ActionCreate Action = "create"
	ActionSend   Action = "send"
	ActionSign   Action = "sign"
	ActionCancel Action = "cancel"
	ActionView   Action = "view"
	ActionManage Action = "manage"
)

// Actions returns every known action in a stable order.
func Actions() []Action {
	return []Action{ActionCreate, ActionSend, ActionSign, ActionCancel, ActionView, ActionManage}
}

// PermissionSet maps every action to an allow/deny bit. A valid set is
// complete: it contains an entry for each known action.
type PermissionSet map[Action]bool

// Allows reports whether the set permits the given action. Missing entries
// deny.
func (ps PermissionSet) Allows(a Action) bool {
	return ps[a]
}

// Clone returns an independent copy so that callers cannot mutate shared
// role tables.
func (ps PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(ps))
	for k, v := range ps {
		out[k] = v
	}
	return out
}

// normalize fills in missing actions as denied so every resolved set is
// complete.
func (ps PermissionSet) normalize() PermissionSet {
	out := make(PermissionSet, len(Actions()))
	for _, a := range Actions() {
		out[a] = ps[a]
	}
	return out
}

// RoleName identifies one of the built-in base roles.
type RoleName string

const (
	RoleSystemAdmin RoleName = "system_admin"
	RoleHRAdmin     RoleName = "hr_admin"
	RoleHRManager   RoleName = "hr_manager"
	RoleEmployee    RoleName = "employee"
	RoleCustomer    RoleName = "customer"
)

// BaseRoles returns the names of all built-in roles in a stable order.
func BaseRoles() []RoleName {
	return []RoleName{RoleSystemAdmin, RoleHRAdmin, RoleHRManager, RoleEmployee, RoleCustomer}
}

// basePermissions is the fixed permission matrix for the built-in roles.
func basePermissions() map[RoleName]PermissionSet {
	return map[RoleName]PermissionSet{
		RoleSystemAdmin: {
			ActionCreate: true, ActionSend: true, ActionSign: true,
			ActionCancel: true, ActionView: true, ActionManage: true,
		},
		RoleHRAdmin: {
			ActionCreate: true, ActionSend: true, ActionSign: true,
			ActionCancel: true, ActionView: true, ActionManage: true,
		},
		RoleHRManager: {
			ActionCreate: true, ActionSend: true, ActionSign: true,
			ActionCancel: true, ActionView: true, ActionManage: false,
		},
		RoleEmployee: {
			ActionCreate: true, ActionSend: true, ActionSign: true,
			ActionCancel: true, ActionView: true, ActionManage: false,
		},
		RoleCustomer: {
			ActionCreate: false, ActionSend: false, ActionSign: true,
			ActionCancel: false, ActionView: true, ActionManage: false,
		},
	}
}

// BasePermissions returns a copy of the built-in permission set for a role.
func BasePermissions(name RoleName) PermissionSet {
	if ps, ok := basePermissions()[name]; ok {
		return ps.Clone()
	}
	return basePermissions()[RoleEmployee].Clone()
}

// broadAuthority lists the roles that bypass instance-level ownership checks.
var broadAuthority = map[RoleName]bool{
	RoleSystemAdmin: true,
	RoleHRAdmin:     true,
	RoleHRManager:   true,
}

// HasBroadAuthority reports whether a role string resolves to a role that
// skips ownership gating on instance-level actions.
func HasBroadAuthority(role string) bool {
	return broadAuthority[Classify(role)]
}

// Decision is the structured result of an authorization check. Denials always
// carry a reason; they are never silently converted into an allow.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Allow returns an allowing decision with the given reason.
func Allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

// Deny returns a denying decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
