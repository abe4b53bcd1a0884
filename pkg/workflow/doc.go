// Package workflow implements the signable-document state machine.
//
// # States
//
// A document moves through:
//
//	pending -> sent -> signed -> completed
//	pending -> cancelled
//	sent    -> cancelled | expired
//
// pending is the initial state; completed, cancelled, and expired are
// terminal. Every transition is guarded by the permission engine (pkg/rbac):
// the actor's role must carry the capability, and for ownership-aware
// transitions (cancel) the actor must additionally be the document's creator
// unless the role has broad authority. Signing additionally requires the
// actor to be one of the document's named recipients; that is a domain
// invariant, not an ownership gate, so no role bypasses it.
package workflow
