package tenant

import (
	"errors"
	"fmt"
)

// ErrTenantNotFound is returned when a tenant id is unknown to the registry.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrPrincipalNotFound is returned when an identity does not exist in any
// scanned tenant. Callers must treat this distinctly from connectivity
// failures.
var ErrPrincipalNotFound = errors.New("principal not found")

// ErrDescriptorImmutable is returned on attempts to change a tenant's
// connection descriptor after its database has been provisioned.
var ErrDescriptorImmutable = errors.New("tenant descriptor is immutable after provisioning")

// ConfigurationError indicates a malformed connection descriptor. It is fatal
// at handle-creation time and surfaced immediately.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// ConnectivityError indicates a transient failure reaching a tenant database.
// Callers may retry; liveness probes convert it into a boolean instead.
type ConnectivityError struct {
	TenantID string
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity error for tenant %q: %v", e.TenantID, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// SchemaDriftError indicates that an expected schema object is still missing
// after a provisioning attempt. It is logged and retried on the next access,
// never fatal to the triggering call's primary purpose.
type SchemaDriftError struct {
	TenantID string
	Missing  []string
	Err      error
}

func (e *SchemaDriftError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema drift for tenant %q: missing objects %v", e.TenantID, e.Missing)
	}
	return fmt.Sprintf("schema drift for tenant %q: %v", e.TenantID, e.Err)
}

func (e *SchemaDriftError) Unwrap() error {
	return e.Err
}

// PermissionDeniedError is the structured denial surfaced to callers when an
// action is not permitted. Authorization failures are never silently
// downgraded to an allow.
type PermissionDeniedError struct {
	Role   string
	Action string
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: role %q may not %q: %s", e.Role, e.Action, e.Reason)
}
