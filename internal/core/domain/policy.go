package domain

// CanAccess is the authorization policy for owned resources: administrators
// may act on anything, everyone else only on what they own.
func CanAccess(p Principal, ownerID string) bool {
	if p.IsAdmin() {
		return true
	}
	return p.ID != "" && p.ID == ownerID
}
