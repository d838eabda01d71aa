package usermodels

// Role is the principal's role as assigned by the server.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// User is the authenticated principal. It is immutable for the lifetime of a
// session.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	TeamID    string `json:"teamId,omitempty"`
	ManagerID string `json:"managerId,omitempty"`
}

func (u User) IsManager() bool {
	return u.Role == RoleManager
}

// Initials returns the first letter of each word of the display name.
func (u User) Initials() string {
	var out []rune
	start := true
	for _, r := range u.Name {
		if r == ' ' {
			start = true
			continue
		}
		if start {
			out = append(out, r)
			start = false
		}
	}
	return string(out)
}
