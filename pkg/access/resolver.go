package access

// AllCapabilities returns a set with every capability key granted
func AllCapabilities() PermissionSet {
	return PermissionSet{
		ViewDashboard:      true,
		ViewAthletes:       true,
		ManageAthletes:     true,
		ViewEnrollments:    true,
		ManageEnrollments:  true,
		ViewTrainings:      true,
		ManageTrainings:    true,
		ViewCompetitions:   true,
		ManageCompetitions: true,
		ViewGames:          true,
		ManageGames:        true,
		ViewFinance:        true,
		ManageFinance:      true,
		ViewMonthlyFees:    true,
		ManageMonthlyFees:  true,
		ManageSettings:     true,
		ManageUsers:        true,
	}
}

// DefaultPermissions returns the static default set for a role. An
// unrecognized role degrades to the member default rather than failing;
// lockout is worse than over-restriction within the default set.
func DefaultPermissions(role Role) PermissionSet {
	switch role {
	case RoleAdmin:
		return AllCapabilities()
	case RoleManager:
		return PermissionSet{
			ViewDashboard:      true,
			ViewAthletes:       true,
			ManageAthletes:     true,
			ViewEnrollments:    true,
			ManageEnrollments:  true,
			ViewTrainings:      true,
			ManageTrainings:    true,
			ViewCompetitions:   true,
			ManageCompetitions: true,
			ViewGames:          true,
			ManageGames:        true,
			ViewFinance:        true,
			ViewMonthlyFees:    true,
		}
	default:
		// Member and anything unrecognized: view everything, manage nothing.
		return PermissionSet{
			ViewDashboard:    true,
			ViewAthletes:     true,
			ViewEnrollments:  true,
			ViewTrainings:    true,
			ViewCompetitions: true,
			ViewGames:        true,
			ViewFinance:      true,
			ViewMonthlyFees:  true,
		}
	}
}

// Resolve maps a membership's role, owner flag, and stored override to the
// effective capability set. An owner gets every capability regardless of
// role and override. A present, non-empty override is returned verbatim; it
// is written complete, never merged with defaults. Otherwise the role's
// default set applies. Resolve never fails.
func Resolve(role Role, isOwner bool, override *PermissionSet) PermissionSet {
	if isOwner {
		return AllCapabilities()
	}
	if override != nil && !override.IsZero() {
		return *override
	}
	return DefaultPermissions(role)
}

// Access is a resolved capability set plus the owner flag. CanView and
// CanManage are the authorization contract for the rest of the system;
// they centralize the owner bypass so no call site can forget it.
type Access struct {
	IsOwner bool
	set     PermissionSet
}

// NewAccess resolves a membership into its effective access
func NewAccess(m *Membership) Access {
	return Access{
		IsOwner: m.IsOwner,
		set:     Resolve(m.Role, m.IsOwner, m.Override),
	}
}

// AccessFromSet wraps an already-resolved permission set
func AccessFromSet(set PermissionSet, isOwner bool) Access {
	return Access{IsOwner: isOwner, set: set}
}

// Permissions returns the resolved capability set
func (a Access) Permissions() PermissionSet {
	return a.set
}

// CanView reports whether the resource may be viewed: the view key, the
// manage key, or ownership each suffice
func (a Access) CanView(r Resource) bool {
	if a.IsOwner {
		return true
	}
	return a.set.view(r) || a.set.manage(r)
}

// CanManage reports whether the resource may be mutated
func (a Access) CanManage(r Resource) bool {
	if a.IsOwner {
		return true
	}
	return a.set.manage(r)
}
