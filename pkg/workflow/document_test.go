package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/quill/pkg/rbac"
	"github.com/quillhq/quill/pkg/tenant"
)

func newTestEngine(t *testing.T) *rbac.Engine {
	t.Helper()
	engine, err := rbac.NewEngine(context.Background(), rbac.EngineConfig{})
	require.NoError(t, err)
	return engine
}

func newSentDocument(t *testing.T, engine *rbac.Engine, recipients []string) *Document {
	t.Helper()
	doc, err := New(engine, "acme", "employee", "alice@acme.test", "Offer Letter", recipients)
	require.NoError(t, err)
	require.NoError(t, doc.Send(engine, "employee", "alice@acme.test"))
	return doc
}

func TestNew_RequiresCreateCapability(t *testing.T) {
	engine := newTestEngine(t)

	doc, err := New(engine, "acme", "employee", "alice@acme.test", "Offer Letter", []string{"bob@example.test"})
	require.NoError(t, err)
	assert.Equal(t, StatePending, doc.State)
	assert.NotEmpty(t, doc.ID)

	_, err = New(engine, "acme", "customer", "client@example.test", "Nope", nil)
	require.Error(t, err)
	var denied *tenant.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestHappyPath_PendingToCompleted(t *testing.T) {
	engine := newTestEngine(t)
	doc := newSentDocument(t, engine, []string{"bob@example.test", "carol@example.test"})
	assert.Equal(t, StateSent, doc.State)

	// Partial signatures keep the document in sent.
	require.NoError(t, doc.Sign(engine, "customer", "bob@example.test"))
	assert.Equal(t, StateSent, doc.State)
	assert.True(t, doc.SignedBy("bob@example.test"))

	require.NoError(t, doc.Sign(engine, "customer", "carol@example.test"))
	assert.Equal(t, StateSigned, doc.State)

	require.NoError(t, doc.Complete())
	assert.Equal(t, StateCompleted, doc.State)
	assert.True(t, doc.State.Terminal())
}

func TestSign_RecipientOnly(t *testing.T) {
	engine := newTestEngine(t)
	doc := newSentDocument(t, engine, []string{"bob@example.test"})

	// Even hr_admin cannot sign a document addressed to someone else.
	err := doc.Sign(engine, "hr_admin", "admin@acme.test")
	var denied *tenant.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Reason, "not a recipient")
}

func TestCancel_OwnershipGate(t *testing.T) {
	engine := newTestEngine(t)

	doc := newSentDocument(t, engine, []string{"bob@example.test"})
	// A different employee may not cancel.
	err := doc.Cancel(engine, "employee", "mallory@acme.test")
	var denied *tenant.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, StateSent, doc.State)

	// The creator may.
	require.NoError(t, doc.Cancel(engine, "employee", "alice@acme.test"))
	assert.Equal(t, StateCancelled, doc.State)

	// Broad authority cancels anything.
	other := newSentDocument(t, engine, []string{"bob@example.test"})
	require.NoError(t, other.Cancel(engine, "hr_admin", "someone-else@acme.test"))
}

func TestInvalidTransitions(t *testing.T) {
	engine := newTestEngine(t)

	doc, err := New(engine, "acme", "employee", "alice@acme.test", "Offer", []string{"bob@example.test"})
	require.NoError(t, err)

	// Cannot sign or expire a pending document.
	var invalid *InvalidTransitionError
	require.ErrorAs(t, doc.Sign(engine, "customer", "bob@example.test"), &invalid)
	require.ErrorAs(t, doc.Expire(), &invalid)
	require.ErrorAs(t, doc.Complete(), &invalid)

	// Cannot send twice.
	require.NoError(t, doc.Send(engine, "employee", "alice@acme.test"))
	require.ErrorAs(t, doc.Send(engine, "employee", "alice@acme.test"), &invalid)
	assert.Equal(t, StateSent, invalid.From)

	// Terminal states reject everything.
	require.NoError(t, doc.Cancel(engine, "employee", "alice@acme.test"))
	require.ErrorAs(t, doc.Cancel(engine, "employee", "alice@acme.test"), &invalid)
	require.ErrorAs(t, doc.Expire(), &invalid)
}

func TestExpire_FromSent(t *testing.T) {
	engine := newTestEngine(t)
	doc := newSentDocument(t, engine, []string{"bob@example.test"})

	require.NoError(t, doc.Expire())
	assert.Equal(t, StateExpired, doc.State)
	assert.True(t, doc.State.Terminal())
}

func TestCanBeViewedBy(t *testing.T) {
	engine := newTestEngine(t)
	doc := newSentDocument(t, engine, []string{"bob@example.test"})

	assert.True(t, doc.CanBeViewedBy(engine, "employee", "alice@acme.test"), "creator")
	assert.True(t, doc.CanBeViewedBy(engine, "customer", "bob@example.test"), "recipient")
	assert.False(t, doc.CanBeViewedBy(engine, "employee", "mallory@acme.test"), "stranger")
	assert.True(t, doc.CanBeViewedBy(engine, "hr_manager", "mallory@acme.test"), "broad authority")
}
