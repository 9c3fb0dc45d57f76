package auth

// Authorize returns ErrForbidden unless the user's role is in allowed.
func Authorize(u User, allowed ...Role) error {
	for _, role := range allowed {
		if u.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// ConditionalAccess is the dual-mode policy used by routes that serve both a
// site-scoped view and an unscoped admin view. Scoped requests are open to
// admins, engineers and any extra roles the route grants; unscoped requests
// are admin only.
func ConditionalAccess(u User, scoped bool, extra ...Role) error {
	if !scoped {
		return Authorize(u, RoleAdmin)
	}
	allowed := append([]Role{RoleAdmin, RoleEngineer}, extra...)
	return Authorize(u, allowed...)
}
