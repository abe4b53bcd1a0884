package rbac

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRoleStore_LoadAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	perms, _ := json.Marshal(PermissionSet{ActionView: true, ActionSign: true})
	mock.ExpectQuery(`SELECT name, permissions FROM custom_roles`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "permissions"}).
			AddRow("auditor", perms))

	store := NewPostgresRoleStore(db)
	roles, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.True(t, roles["auditor"].Allows(ActionView))
	assert.False(t, roles["auditor"].Allows(ActionManage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRoleStore_SaveAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO custom_roles`).
		WithArgs("auditor", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM custom_roles`).
		WithArgs("auditor").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresRoleStore(db)
	require.NoError(t, store.Save(context.Background(), "auditor", PermissionSet{ActionView: true}))
	require.NoError(t, store.Delete(context.Background(), "auditor"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestNewEngine_LoadsPersistedRoles verifies the durable custom role path:
// roles saved by a previous process are live after construction.
func TestNewEngine_LoadsPersistedRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	perms, _ := json.Marshal(PermissionSet{ActionSign: true, ActionView: true})
	mock.ExpectQuery(`SELECT name, permissions FROM custom_roles`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "permissions"}).
			AddRow("contractor", perms))

	engine, err := NewEngine(context.Background(), EngineConfig{
		Store: NewPostgresRoleStore(db),
	})
	require.NoError(t, err)

	got := engine.GetPermissions("contractor")
	assert.True(t, got.Allows(ActionSign))
	assert.False(t, got.Allows(ActionCreate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterCustomRole_PersistsThroughStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT name, permissions FROM custom_roles`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "permissions"}))
	mock.ExpectExec(`INSERT INTO custom_roles`).
		WithArgs("auditor", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	engine, err := NewEngine(context.Background(), EngineConfig{
		Store: NewPostgresRoleStore(db),
	})
	require.NoError(t, err)
	require.NoError(t, engine.RegisterCustomRole(context.Background(), "auditor", PermissionSet{ActionView: true}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
