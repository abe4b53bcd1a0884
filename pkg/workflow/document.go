package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quillhq/quill/pkg/rbac"
	"github.com/quillhq/quill/pkg/tenant"
)

// State represents a document's position in the signing workflow.
type State string

const (
	StatePending   State = "pending"
	StateSent      State = "sent"
	StateSigned    State = "signed"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateExpired   State = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateExpired:
		return true
	}
	return false
}

// InvalidTransitionError is returned when a transition is attempted from a
// state that does not permit it.
type InvalidTransitionError struct {
	DocumentID string
	From       State
	To         State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("document %s: invalid transition %s -> %s", e.DocumentID, e.From, e.To)
}

// Document is one signable document instance.
type Document struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Title      string    `json:"title"`
	Creator    string    `json:"creator"`
	Recipients []string  `json:"recipients"`
	State      State     `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// signedBy tracks which recipients have signed so far.
	signedBy map[string]bool
}

// New creates a document in the pending state, gated on the creator's create
// capability.
func New(engine *rbac.Engine, tenantID, role, creator, title string, recipients []string) (*Document, error) {
	if decision := engine.Authorize(role, rbac.ActionCreate, nil); !decision.Allowed {
		return nil, &tenant.PermissionDeniedError{Role: role, Action: string(rbac.ActionCreate), Reason: decision.Reason}
	}

	now := time.Now().UTC()
	return &Document{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Title:      title,
		Creator:    creator,
		Recipients: recipients,
		State:      StatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
		signedBy:   make(map[string]bool),
	}, nil
}

// Send moves the document from pending to sent.
func (d *Document) Send(engine *rbac.Engine, role, actor string) error {
	if decision := engine.Authorize(role, rbac.ActionSend, rbac.CreatorIs(d.Creator, actor)); !decision.Allowed {
		return &tenant.PermissionDeniedError{Role: role, Action: string(rbac.ActionSend), Reason: decision.Reason}
	}
	if d.State != StatePending {
		return &InvalidTransitionError{DocumentID: d.ID, From: d.State, To: StateSent}
	}
	d.transition(StateSent)
	return nil
}

// Sign records one recipient's signature on a sent document. The document
// moves to signed once every recipient has signed. Signing requires both the
// sign capability and membership in the recipient list; the latter is never
// bypassed.
func (d *Document) Sign(engine *rbac.Engine, role, actor string) error {
	if decision := engine.Authorize(role, rbac.ActionSign, nil); !decision.Allowed {
		return &tenant.PermissionDeniedError{Role: role, Action: string(rbac.ActionSign), Reason: decision.Reason}
	}
	if !d.isRecipient(actor) {
		return &tenant.PermissionDeniedError{
			Role:   role,
			Action: string(rbac.ActionSign),
			Reason: fmt.Sprintf("%q is not a recipient of document %s", actor, d.ID),
		}
	}
	if d.State != StateSent {
		return &InvalidTransitionError{DocumentID: d.ID, From: d.State, To: StateSigned}
	}

	if d.signedBy == nil {
		d.signedBy = make(map[string]bool)
	}
	d.signedBy[actor] = true

	if len(d.signedBy) == len(d.Recipients) {
		d.transition(StateSigned)
	} else {
		d.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Complete finalizes a fully signed document. It is driven by the platform
// after the last signature lands, not by a caller role, so the guard is
// state-only.
func (d *Document) Complete() error {
	if d.State != StateSigned {
		return &InvalidTransitionError{DocumentID: d.ID, From: d.State, To: StateCompleted}
	}
	d.transition(StateCompleted)
	return nil
}

// Cancel moves a pending or sent document to cancelled. The ownership gate
// applies: only the creator (or a broad-authority role) may cancel.
func (d *Document) Cancel(engine *rbac.Engine, role, actor string) error {
	if decision := engine.Authorize(role, rbac.ActionCancel, rbac.CreatorIs(d.Creator, actor)); !decision.Allowed {
		return &tenant.PermissionDeniedError{Role: role, Action: string(rbac.ActionCancel), Reason: decision.Reason}
	}
	if d.State != StatePending && d.State != StateSent {
		return &InvalidTransitionError{DocumentID: d.ID, From: d.State, To: StateCancelled}
	}
	d.transition(StateCancelled)
	return nil
}

// Expire moves a sent document to expired. Driven by the deadline sweeper,
// state-only guard.
func (d *Document) Expire() error {
	if d.State != StateSent {
		return &InvalidTransitionError{DocumentID: d.ID, From: d.State, To: StateExpired}
	}
	d.transition(StateExpired)
	return nil
}

// CanBeViewedBy applies the ownership-aware view gate.
func (d *Document) CanBeViewedBy(engine *rbac.Engine, role, actor string) bool {
	return engine.CanView(role, d.Creator, d.Recipients, actor)
}

// SignedBy reports whether the given recipient has already signed.
func (d *Document) SignedBy(actor string) bool {
	return d.signedBy[actor]
}

func (d *Document) isRecipient(actor string) bool {
	for _, r := range d.Recipients {
		if r == actor {
			return true
		}
	}
	return false
}

func (d *Document) transition(to State) {
	d.State = to
	d.UpdatedAt = time.Now().UTC()
}
