package rbac

import "fmt"

// OwnershipPredicate is the instance-level second phase of an authorization
// check: it reports whether the acting principal stands in the required
// relationship to a specific workflow instance (creator, named recipient).
// A nil predicate means the action is not instance-scoped.
type OwnershipPredicate func() bool

// CreatorIs returns a predicate satisfied when the actor created the
// instance.
func CreatorIs(creator, actor string) OwnershipPredicate {
	return func() bool { return creator != "" && creator == actor }
}

// RecipientIs returns a predicate satisfied when the actor is one of the
// instance's named recipients.
func RecipientIs(recipients []string, actor string) OwnershipPredicate {
	return func() bool {
		for _, r := range recipients {
			if r == actor {
				return true
			}
		}
		return false
	}
}

// AnyOf combines predicates with OR.
func AnyOf(preds ...OwnershipPredicate) OwnershipPredicate {
	return func() bool {
		for _, p := range preds {
			if p != nil && p() {
				return true
			}
		}
		return false
	}
}

// Authorize performs the two-phase authorization check. The capability gate
// runs first and short-circuits: the ownership predicate is evaluated only
// when the role has the base capability and lacks broad authority.
func (e *Engine) Authorize(role string, action Action, ownership OwnershipPredicate) Decision {
	if !e.HasPermission(role, action) {
		return Deny(fmt.Sprintf("role %q lacks the %q capability", role, action))
	}

	if ownership == nil {
		return Allow(fmt.Sprintf("role %q has the %q capability", role, action))
	}

	if HasBroadAuthority(role) {
		return Allow(fmt.Sprintf("role %q has broad authority for %q", role, action))
	}

	if ownership() {
		return Allow(fmt.Sprintf("role %q owns the instance for %q", role, action))
	}
	return Deny(fmt.Sprintf("role %q may only %q its own instances", role, action))
}

// CanCancel is the ownership-aware cancel gate: broad-authority roles cancel
// anything, everyone else only what they created.
func (e *Engine) CanCancel(role, creator, actor string) bool {
	return e.Authorize(role, ActionCancel, CreatorIs(creator, actor)).Allowed
}

// CanView is the ownership-aware view gate: creators and named recipients see
// an instance, broad-authority roles see everything.
func (e *Engine) CanView(role, creator string, recipients []string, actor string) bool {
	return e.Authorize(role, ActionView, AnyOf(
		CreatorIs(creator, actor),
		RecipientIs(recipients, actor),
	)).Allowed
}
