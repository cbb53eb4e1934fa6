package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantScreenAccess(t *testing.T) {
	t.Parallel()

	ctx := AccessContext{
		UserID:          "tenant-1",
		Role:            RoleTenant,
		IsAuthenticated: true,
	}

	assert.False(t, HasScreenAccess(ctx, ScreenProperties))
	assert.True(t, HasScreenAccess(ctx, ScreenDashboard))
}

func TestUnauthenticatedDeniedEverything(t *testing.T) {
	t.Parallel()

	ctx := AccessContext{Role: RoleAdmin, IsAuthenticated: false}
	for _, screen := range AllScreens() {
		assert.False(t, HasScreenAccess(ctx, screen), "screen %s", screen)
	}
}

func TestUnknownRoleDenied(t *testing.T) {
	t.Parallel()

	ctx := AccessContext{Role: ProfileRole("superuser"), IsAuthenticated: true}
	for _, screen := range AllScreens() {
		assert.False(t, HasScreenAccess(ctx, screen), "screen %s", screen)
	}
}

func TestScreenAccessByRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role    ProfileRole
		screen  ScreenID
		allowed bool
	}{
		{RoleTenant, ScreenDashboard, true},
		{RoleTenant, ScreenMaintenance, true},
		{RoleTenant, ScreenDocuments, true},
		{RoleTenant, ScreenNotifications, true},
		{RoleTenant, ScreenSettings, true},
		{RoleTenant, ScreenProperties, false},
		{RoleTenant, ScreenTenants, false},
		{RoleTenant, ScreenFinance, false},
		{RoleTenant, ScreenReports, false},
		{RoleManager, ScreenProperties, true},
		{RoleManager, ScreenTenants, true},
		{RoleManager, ScreenFinance, true},
		{RoleManager, ScreenReports, true},
		{RoleOwner, ScreenProperties, true},
		{RoleOwner, ScreenReports, true},
		{RoleAdmin, ScreenProperties, true},
		{RoleAdmin, ScreenSettings, true},
	}

	for _, tc := range tests {
		ctx := AccessContext{Role: tc.role, IsAuthenticated: true}
		assert.Equal(t, tc.allowed, HasScreenAccess(ctx, tc.screen),
			"role %s screen %s", tc.role, tc.screen)
	}
}

func TestNavigationPermissionsCoversAllScreens(t *testing.T) {
	t.Parallel()

	ctx := AccessContext{Role: RoleTenant, IsAuthenticated: true}
	perms := NavigationPermissions(ctx)

	require.Len(t, perms, len(AllScreens()))
	for _, screen := range AllScreens() {
		perm, ok := perms[screen]
		require.True(t, ok, "missing screen %s", screen)
		assert.Equal(t, screen, perm.Screen)
		assert.Equal(t, HasScreenAccess(ctx, screen), perm.Visible)
	}

	assert.False(t, perms[ScreenProperties].Visible)
	assert.True(t, perms[ScreenDashboard].Visible)
}

func TestNavigationPermissionsDeterministic(t *testing.T) {
	t.Parallel()

	ctx := AccessContext{Role: RoleManager, IsAuthenticated: true}
	assert.Equal(t, NavigationPermissions(ctx), NavigationPermissions(ctx))
}

func TestRoleIsValid(t *testing.T) {
	t.Parallel()

	for _, role := range AllRoles() {
		assert.True(t, role.IsValid())
	}
	assert.False(t, ProfileRole("").IsValid())
	assert.False(t, ProfileRole("landlord").IsValid())
}

func TestRoleIsAtLeast(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleAdmin.IsAtLeast(RoleTenant))
	assert.True(t, RoleManager.IsAtLeast(RoleManager))
	assert.False(t, RoleTenant.IsAtLeast(RoleManager))
	assert.False(t, ProfileRole("landlord").IsAtLeast(RoleTenant))
	assert.False(t, RoleAdmin.IsAtLeast(ProfileRole("landlord")))
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, ok := ParseRole("tenant")
	assert.True(t, ok)
	assert.Equal(t, RoleTenant, role)

	_, ok = ParseRole("landlord")
	assert.False(t, ok)
}

func TestDefaultProfileType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ProfileTypeTenant, RoleTenant.DefaultProfileType())
	assert.Equal(t, ProfileTypeManager, RoleManager.DefaultProfileType())
	assert.Equal(t, ProfileTypeOwner, RoleOwner.DefaultProfileType())
	assert.Equal(t, ProfileTypeAdmin, RoleAdmin.DefaultProfileType())
}
