package provision

import "github.com/google/uuid"

// ScreenID identifies a navigable screen of the product
type ScreenID string

const (
	ScreenDashboard     ScreenID = "dashboard"
	ScreenProperties    ScreenID = "properties"
	ScreenTenants       ScreenID = "tenants"
	ScreenFinance       ScreenID = "finance"
	ScreenMaintenance   ScreenID = "maintenance"
	ScreenDocuments     ScreenID = "documents"
	ScreenNotifications ScreenID = "notifications"
	ScreenReports       ScreenID = "reports"
	ScreenSettings      ScreenID = "settings"
)

// AllScreens returns every screen the policy knows about
func AllScreens() []ScreenID {
	return []ScreenID{
		ScreenDashboard,
		ScreenProperties,
		ScreenTenants,
		ScreenFinance,
		ScreenMaintenance,
		ScreenDocuments,
		ScreenNotifications,
		ScreenReports,
		ScreenSettings,
	}
}

// AccessContext is the caller-side view the policy decides over
type AccessContext struct {
	UserID            string
	Role              ProfileRole
	IsAuthenticated   bool
	RentedPropertyIDs []uuid.UUID
}

// NavigationPermission is the per-screen visibility decision
type NavigationPermission struct {
	Screen  ScreenID `json:"screen"`
	Visible bool     `json:"visible"`
}

// HasScreenAccess reports whether the context may open the given
// screen. Pure function: no I/O, deterministic for a given input.
// Unauthenticated callers and unknown roles are denied everything.
func HasScreenAccess(ctx AccessContext, screen ScreenID) bool {
	if !ctx.IsAuthenticated {
		return false
	}

	if !ctx.Role.IsValid() {
		return false
	}

	return ctx.Role.canView(screen)
}

// NavigationPermissions evaluates every known screen for the context.
// Consumed by navigation menus; screens absent from AllScreens are not
// represented and default to denied via HasScreenAccess.
func NavigationPermissions(ctx AccessContext) map[ScreenID]NavigationPermission {
	perms := make(map[ScreenID]NavigationPermission, len(AllScreens()))
	for _, screen := range AllScreens() {
		perms[screen] = NavigationPermission{
			Screen:  screen,
			Visible: HasScreenAccess(ctx, screen),
		}
	}
	return perms
}

// IsValid checks if the role is one of the predefined valid roles
func (r ProfileRole) IsValid() bool {
	switch r {
	case RoleTenant, RoleManager, RoleOwner, RoleAdmin:
		return true
	default:
		return false
	}
}

// canView is the per-role screen policy. Tenants see only their own
// slice of the product; management screens require manager or above.
func (r ProfileRole) canView(screen ScreenID) bool {
	switch r {
	case RoleTenant:
		switch screen {
		case ScreenDashboard, ScreenMaintenance, ScreenDocuments, ScreenNotifications, ScreenSettings:
			return true
		default:
			return false
		}
	case RoleManager, RoleOwner, RoleAdmin:
		switch screen {
		case ScreenDashboard, ScreenProperties, ScreenTenants, ScreenFinance,
			ScreenMaintenance, ScreenDocuments, ScreenNotifications,
			ScreenReports, ScreenSettings:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r ProfileRole) IsAtLeast(minRole ProfileRole) bool {
	roleHierarchy := map[ProfileRole]int{
		RoleTenant:  0,
		RoleManager: 1,
		RoleOwner:   2,
		RoleAdmin:   3,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// AllRoles returns all predefined roles in hierarchical order
func AllRoles() []ProfileRole {
	return []ProfileRole{
		RoleTenant,
		RoleManager,
		RoleOwner,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a ProfileRole type
func ParseRole(roleStr string) (ProfileRole, bool) {
	role := ProfileRole(roleStr)
	return role, role.IsValid()
}
