package directory

import "time"

// Organization is a tenant.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStatus is the lifecycle state of a directory user.
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
	UserInvited UserStatus = "invited"
)

// User mirrors the identity provider's view of a person, kept locally
// for statistics and ownership references. Credentials live with the
// provider, never here.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	EmailVerified  bool       `json:"email_verified"`
	Name           string     `json:"name"`
	OrganizationID string     `json:"organization_id"`
	Status         UserStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// Team is an organization-scoped group with an owning user.
type Team struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	OrganizationID string    `json:"organization_id"`
	OwnerID        string    `json:"owner_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ResourceOrganizationID makes Team an organization-scoped resource.
func (t Team) ResourceOrganizationID() string { return t.OrganizationID }

// ResourceOwnerID makes Team an owned resource.
func (t Team) ResourceOwnerID() string { return t.OwnerID }

// UserStats aggregates directory users for compliance reporting.
// Soft-deleted users are excluded everywhere.
type UserStats struct {
	TotalUsers         int     `json:"total_users"`
	ActiveUsers        int     `json:"active_users"`
	BlockedUsers       int     `json:"blocked_users"`
	EmailVerifiedUsers int     `json:"email_verified_users"`
	VerificationRate   float64 `json:"verification_rate"`
}
