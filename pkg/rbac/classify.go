package rbac

import "strings"

// Classification keyword tables. These are documented fallback policy for
// role strings that match neither a custom nor a built-in role, not an
// incidental convenience: tenants routinely sync role names from external HR
// systems ("People Ops Manager", "sr-staff-engineer") and every such name must
// land on a sensible permission set.
var (
	systemMarkers   = []string{"system", "super", "root", "global"}
	adminMarkers    = []string{"admin", "administrator"}
	managerMarkers  = []string{"manager", "supervisor", "lead", "director", "head"}
	employeeMarkers = []string{"employee", "staff", "member", "user", "worker"}
	customerMarkers = []string{"customer", "client", "guest", "signer", "external"}
)

// Classify maps an arbitrary role string onto one of the built-in base roles.
//
// Exact base role names map to themselves. Anything else is classified by
// keyword: admin-like names become hr_admin (or system_admin when a
// system/super marker is also present), manager-like names become hr_manager,
// employee-like names become employee, and customer-like names become
// customer. Names matching no pattern default to employee, the minimal
// internal role.
func Classify(role string) RoleName {
	normalized := strings.ToLower(strings.TrimSpace(role))

	switch RoleName(normalized) {
	case RoleSystemAdmin, RoleHRAdmin, RoleHRManager, RoleEmployee, RoleCustomer:
		return RoleName(normalized)
	}

	if containsAny(normalized, adminMarkers) {
		if containsAny(normalized, systemMarkers) {
			return RoleSystemAdmin
		}
		return RoleHRAdmin
	}
	if containsAny(normalized, managerMarkers) {
		return RoleHRManager
	}
	if containsAny(normalized, employeeMarkers) {
		return RoleEmployee
	}
	if containsAny(normalized, customerMarkers) {
		return RoleCustomer
	}

	return RoleEmployee
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
