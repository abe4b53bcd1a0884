package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		role     string
		expected RoleName
	}{
		// Exact base names map to themselves.
		{"system_admin", RoleSystemAdmin},
		{"hr_admin", RoleHRAdmin},
		{"hr_manager", RoleHRManager},
		{"employee", RoleEmployee},
		{"customer", RoleCustomer},
		{"  HR_Manager  ", RoleHRManager},

		// Admin-like names.
		{"office_admin", RoleHRAdmin},
		{"Administrator", RoleHRAdmin},
		{"superadmin", RoleSystemAdmin},
		{"system administrator", RoleSystemAdmin},
		{"global-admin", RoleSystemAdmin},

		// Manager-like names.
		{"people ops manager", RoleHRManager},
		{"team_lead", RoleHRManager},
		{"shift supervisor", RoleHRManager},
		{"Director of HR", RoleHRManager},

		// Employee-like names.
		{"staff", RoleEmployee},
		{"sr-staff-engineer", RoleEmployee},
		{"regular_user", RoleEmployee},

		// Customer-like names.
		{"client", RoleCustomer},
		{"external signer", RoleCustomer},
		{"guest", RoleCustomer},

		// No pattern: minimal internal role.
		{"", RoleEmployee},
		{"wizard", RoleEmployee},
		{"日本語ロール", RoleEmployee},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.role))
		})
	}
}

func TestHasBroadAuthority(t *testing.T) {
	assert.True(t, HasBroadAuthority("system_admin"))
	assert.True(t, HasBroadAuthority("hr_admin"))
	assert.True(t, HasBroadAuthority("hr_manager"))
	assert.True(t, HasBroadAuthority("people ops manager"))
	assert.False(t, HasBroadAuthority("employee"))
	assert.False(t, HasBroadAuthority("customer"))
	assert.False(t, HasBroadAuthority("wizard"))
}
