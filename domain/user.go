package domain

// User is an entry of the user directory.
// Empty fields are unknown and are omitted from sender snapshots.
type User struct {
	ID          string
	DisplayName string
	Username    string
	Role        string
	Department  string
	Email       string
}

func (u User) Snapshot() SenderSnapshot {
	return SenderSnapshot{
		ID:          u.ID,
		DisplayName: optional(u.DisplayName),
		Username:    optional(u.Username),
		Role:        optional(u.Role),
		Department:  optional(u.Department),
		Email:       optional(u.Email),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
