package repository

import (
	"testing"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleRepository_AssignAndReplace(t *testing.T) {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)
	users := NewUserRepository(testDB)
	roles := NewRoleRepository(testDB)

	user := createTestUser(t, users, "Ann", "ann@example.com")
	userRole, err := roles.FirstOrCreate(model.RoleUser)
	require.NoError(t, err)
	editor, err := roles.FirstOrCreate(model.RoleEditor)
	require.NoError(t, err)

	again, err := roles.FirstOrCreate(model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, userRole.ID, again.ID)

	require.NoError(t, roles.AttachToUser(user.ID, []model.Role{*userRole}))
	require.NoError(t, roles.AttachToUser(user.ID, []model.Role{*userRole}))

	held, err := roles.RolesOfUser(user.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, model.RoleUser, held[0].Name)

	require.NoError(t, roles.ReplaceForUser(user.ID, []model.Role{*editor}))
	held, err = roles.RolesOfUser(user.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, model.RoleEditor, held[0].Name)

	require.NoError(t, roles.ReplaceForUser(user.ID, nil))
	held, err = roles.RolesOfUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestRoleRepository_FindByNames(t *testing.T) {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)
	roles := NewRoleRepository(testDB)

	for _, name := range []string{model.RoleUser, model.RoleEditor, model.RoleAdmin} {
		_, err := roles.FirstOrCreate(name)
		require.NoError(t, err)
	}

	found, err := roles.FindByNames([]string{model.RoleAdmin, "ghost"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, model.RoleAdmin, found[0].Name)

	all, err := roles.List()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRoleRepository_GrantPermissions(t *testing.T) {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)
	roles := NewRoleRepository(testDB)

	admin, err := roles.FirstOrCreate(model.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, roles.GrantPermissions(admin, []string{"edit user", "delete user"}))
	require.NoError(t, roles.GrantPermissions(admin, []string{"edit user"}))

	var loaded model.Role
	require.NoError(t, testDB.Preload("Permissions").First(&loaded, admin.ID).Error)
	assert.Len(t, loaded.Permissions, 2)
}
