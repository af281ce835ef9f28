package domain

// Role tags a portal capability carried by a user profile.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCenterAdmin Role = "center_admin"
	RoleTeacher     Role = "teacher"
	RoleAssistant   Role = "assistant"
	RoleStudent     Role = "student"
	RoleParent      Role = "parent"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusPending  UserStatus = "pending"
	UserStatusInactive UserStatus = "inactive"
)

// ApprovalStatus gates center admins independently of UserStatus.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalRejected ApprovalStatus = "rejected"
)

// User is the profile returned by the backend and cached next to the session token.
type User struct {
	ID             int64          `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email"`
	Roles          []Role         `json:"roles"`
	Role           Role           `json:"role,omitempty"`
	Status         UserStatus     `json:"status"`
	ApprovalStatus ApprovalStatus `json:"approval_status,omitempty"`
	IsDataComplete bool           `json:"is_data_complete"`
}

// HasRole reports whether role is in the user's role set.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
