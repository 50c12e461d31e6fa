package access

import "errors"

// ErrMembershipNotFound is returned when no membership exists for the
// tenant/user pair, distinct from a store fault.
var ErrMembershipNotFound = errors.New("membership not found")

// ErrInvalidRole is returned when a write names a role outside the known
// vocabulary. Reads never fail this way: an unrecognized stored role
// resolves to the member default instead.
var ErrInvalidRole = errors.New("invalid role")
