package access

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a membership role within a tenant. Ownership is carried
// by a separate flag on the membership, not by a role value.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// Valid reports whether the role is one of the known role values
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// Resource represents an application area a capability applies to
type Resource string

const (
	ResourceDashboard    Resource = "dashboard"
	ResourceAthletes     Resource = "athletes"
	ResourceEnrollments  Resource = "enrollments"
	ResourceTrainings    Resource = "trainings"
	ResourceCompetitions Resource = "competitions"
	ResourceGames        Resource = "games"
	ResourceFinance      Resource = "finance"
	ResourceMonthlyFees  Resource = "monthly_fees"
	ResourceSettings     Resource = "settings"
	ResourceUsers        Resource = "users"
)

// PermissionSet is the closed capability vocabulary: one boolean per known
// key. A fixed struct keeps misspelled keys from being silently ignored the
// way a dynamic map would. Dashboard has no manage key; settings and users
// have no view key.
type PermissionSet struct {
	ViewDashboard      bool `json:"view_dashboard"`
	ViewAthletes       bool `json:"view_athletes"`
	ManageAthletes     bool `json:"manage_athletes"`
	ViewEnrollments    bool `json:"view_enrollments"`
	ManageEnrollments  bool `json:"manage_enrollments"`
	ViewTrainings      bool `json:"view_trainings"`
	ManageTrainings    bool `json:"manage_trainings"`
	ViewCompetitions   bool `json:"view_competitions"`
	ManageCompetitions bool `json:"manage_competitions"`
	ViewGames          bool `json:"view_games"`
	ManageGames        bool `json:"manage_games"`
	ViewFinance        bool `json:"view_finance"`
	ManageFinance      bool `json:"manage_finance"`
	ViewMonthlyFees    bool `json:"view_monthly_fees"`
	ManageMonthlyFees  bool `json:"manage_monthly_fees"`
	ManageSettings     bool `json:"manage_settings"`
	ManageUsers        bool `json:"manage_users"`
}

// IsZero reports whether no capability is granted. A zero override stored
// on a membership is treated as absent.
func (p PermissionSet) IsZero() bool {
	return p == PermissionSet{}
}

// view reports the raw view_<resource> key. Callers outside this package
// must go through Access.CanView, which owns the owner bypass.
func (p PermissionSet) view(r Resource) bool {
	switch r {
	case ResourceDashboard:
		return p.ViewDashboard
	case ResourceAthletes:
		return p.ViewAthletes
	case ResourceEnrollments:
		return p.ViewEnrollments
	case ResourceTrainings:
		return p.ViewTrainings
	case ResourceCompetitions:
		return p.ViewCompetitions
	case ResourceGames:
		return p.ViewGames
	case ResourceFinance:
		return p.ViewFinance
	case ResourceMonthlyFees:
		return p.ViewMonthlyFees
	default:
		return false
	}
}

// manage reports the raw manage_<resource> key
func (p PermissionSet) manage(r Resource) bool {
	switch r {
	case ResourceAthletes:
		return p.ManageAthletes
	case ResourceEnrollments:
		return p.ManageEnrollments
	case ResourceTrainings:
		return p.ManageTrainings
	case ResourceCompetitions:
		return p.ManageCompetitions
	case ResourceGames:
		return p.ManageGames
	case ResourceFinance:
		return p.ManageFinance
	case ResourceMonthlyFees:
		return p.ManageMonthlyFees
	case ResourceSettings:
		return p.ManageSettings
	case ResourceUsers:
		return p.ManageUsers
	default:
		return false
	}
}

// Membership associates a user with a tenant, a role, the owner flag, and
// an optional stored permission override
type Membership struct {
	TenantID  uuid.UUID      `json:"tenant_id"`
	UserID    uuid.UUID      `json:"user_id"`
	Role      Role           `json:"role"`
	IsOwner   bool           `json:"is_owner"`
	Override  *PermissionSet `json:"permission_override,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
