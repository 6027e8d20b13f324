package domain

// AuthenticatedUser is the identity the auth gate resolves from a bearer token.
// Handlers pass it explicitly into services.
type AuthenticatedUser struct {
	UserID     int64
	Role       UserRole
	TokenRowID int64
	TokenID    string
	FamilyID   string
	User       *User
}

func (a *AuthenticatedUser) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}
