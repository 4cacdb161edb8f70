// Structure of User Model in Smeta.

package entity

// User represents an authenticated account able to hold live stream connections.
// Role holds the display name of the user's role, e.g. "менеджер" or "прораб".
type User struct {
	ID       uint64 `json:"user_id" redis:"id"`
	Email    string `json:"email" redis:"email"`
	FullName string `json:"full_name" redis:"full_name"`
	Role     string `json:"role" redis:"role"`
}
