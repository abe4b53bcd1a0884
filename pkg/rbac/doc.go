// Package rbac provides role-based access control for the Quill document
// signing platform.
//
// # Overview
//
// Every operation against tenant data is gated by this package. A caller
// presents a role string (from the authenticated principal's claims) and an
// action; the engine resolves the role to a complete permission set and
// produces an allow/deny decision. Resolution is total: any role string,
// including the empty string and names never seen before, resolves to a valid
// permission set. Unknown roles never produce an error.
//
// # Actions and Roles
//
// Actions are the operations of the document signing domain:
//
//	ActionCreate - create a signable document
//	ActionSend   - send a document to recipients
//	ActionSign   - sign a received document
//	ActionCancel - cancel an in-flight document
//	ActionView   - view a document
//	ActionManage - administer users, roles, and tenant settings
//
// Base roles and their permission matrix are fixed:
//
//	system_admin - everything, across all tenants
//	hr_admin     - everything within a tenant
//	hr_manager   - create/send/sign/cancel/view, no manage
//	employee     - create/send/sign/view, cancel and view gated by ownership
//	customer     - sign and view only
//
// # Resolution Order
//
// GetPermissions resolves a role string in four steps, first match wins:
//
//  1. Runtime-registered custom roles
//  2. Built-in base roles
//  3. Keyword classification of unknown names (see Classify)
//  4. The employee permission set as the minimal default
//
// # Custom Roles
//
// Custom roles are registered at runtime with an explicit permission map.
// By default they live in process memory and are lost on restart. Two durable
// options ship: a Postgres-backed RoleStore loaded at engine construction, and
// a YAML role file with fsnotify hot reload (see LoadRoleFile and Watcher).
//
// # Two-Phase Authorization
//
// Actions on a specific workflow instance (cancel, view) require both the
// capability and an ownership check. Authorize evaluates the capability gate
// first and short-circuits before the ownership predicate runs; roles with
// broad authority (system_admin, hr_admin, hr_manager) bypass the ownership
// phase entirely.
//
//	decision := engine.Authorize("employee", rbac.ActionCancel, rbac.CreatorIs("u1", actor))
//	if !decision.Allowed {
//		return decision.Reason
//	}
//
// # Related Packages
//
//   - pkg/workflow: the document state machine gated by this engine
//   - pkg/tenant: principals carrying the role strings resolved here
package rbac
