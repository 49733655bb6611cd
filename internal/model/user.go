package model

// Role enumerates account roles. Any authenticated role may create rooms.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User is a registered account.
type User struct {
	ID        int64  `json:"user_id"`
	Username  string `json:"username"`
	PassHash  string `json:"-"`
	Role      Role   `json:"role"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
}
