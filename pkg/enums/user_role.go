package enums

// UserRole separates the four actor surfaces of the platform.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleVendor   UserRole = "vendor"
	UserRolePartner  UserRole = "delivery_partner"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCustomer, UserRoleVendor, UserRolePartner, UserRoleAdmin:
		return true
	}
	return false
}

func (r UserRole) String() string { return string(r) }

func ParseUserRole(value string) (UserRole, bool) {
	role := UserRole(value)
	return role, role.IsValid()
}
