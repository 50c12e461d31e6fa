// Package access resolves what a club member is allowed to see and do.
//
// A membership binds a user to a tenant with a role, an owner flag, and an
// optional permission override. Resolve turns those three inputs into an
// effective capability set:
//
//	owner              - every capability, unconditionally
//	override (if set)  - used verbatim, replacing the role defaults
//	role defaults      - admin, manager, or member presets
//
// Callers never inspect the raw capability set for authorization. The
// Access type exposes exactly two questions, CanView and CanManage, and
// both apply the owner bypass and the manage-implies-view rule in one
// place. Unknown roles resolve to member defaults rather than failing.
//
// Checker layers an optional Redis cache over the membership store; role
// writes invalidate the cached entry so permission changes take effect on
// the next check.
package access
