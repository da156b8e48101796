package sessions

// AccountRole is the account's role
type AccountRole = string

const (
	// RoleUser is the default role for every new account
	RoleUser AccountRole = "user"
	// RoleAdmin can manage catalog content and ban accounts
	RoleAdmin AccountRole = "admin"
	// RoleSuperAdmin is the bootstrap role, at most one account holds it
	RoleSuperAdmin AccountRole = "super-admin"
)

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r AccountRole) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// RoleIsAtLeast checks if role meets the minimum required level
func RoleIsAtLeast(r, minRole AccountRole) bool {
	roleHierarchy := map[AccountRole]int{
		RoleUser:       0,
		RoleAdmin:      1,
		RoleSuperAdmin: 2,
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

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []AccountRole {
	return []AccountRole{
		RoleUser,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// ParseRole safely parses a string into an AccountRole
func ParseRole(roleStr string) (AccountRole, bool) {
	role := AccountRole(roleStr)
	return role, IsValidRole(role)
}

// Authorize permits the account iff its role is a member of the required
// set. An empty set means no restriction. It runs only after the identity
// guard has resolved the account.
func Authorize(account *Account, required ...AccountRole) error {
	if len(required) == 0 {
		return nil
	}

	if account == nil {
		return ErrInsufficientRole
	}

	role := account.GetRole()
	for _, r := range required {
		if role == r {
			return nil
		}
	}

	return ErrInsufficientRole
}
