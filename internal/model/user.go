package model

import "time"

// Roles form a closed enumeration. Every user row stores exactly one of
// these values and new accounts always start as RoleUser; admins are
// promoted out of band (seed script or manual SQL).
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// birthDateLayout is the wire format for birth dates (DATE column).
const birthDateLayout = "2006-01-02"

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column in the database. The struct
// carries the password and refresh-token hashes for internal use; it is
// never serialized directly. Handlers convert to PublicUser before
// writing a response.
//
// Fields:
//  ID               – uuid primary key, generated at registration, immutable.
//  FullName         – display name of the user.
//  BirthDate        – date of birth (time portion is always midnight UTC).
//  Email            – unique email address, lowercased at the boundary.
//  PasswordHash     – bcrypt hashed password.
//  Role             – RoleUser or RoleAdmin.
//  IsActive         – false when the account is blocked.
//  RefreshTokenHash – SHA-256 hex digest of the latest refresh token,
//                     empty when the user has never logged in. Overwritten
//                     on every login and refresh (last write wins).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               string    // users.id
	FullName         string    // users.full_name
	BirthDate        time.Time // users.birth_date
	Email            string    // users.email
	PasswordHash     string    // users.password_hash
	Role             string    // users.role
	IsActive         bool      // users.is_active
	RefreshTokenHash string    // users.refresh_token_hash (nullable)
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}

// PublicUser is the outward-facing view of a user. It deliberately has no
// password or refresh-token fields so a handler cannot leak them by
// accident.
type PublicUser struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	BirthDate string    `json:"birthDate"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the sanitized view of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FullName:  u.FullName,
		BirthDate: u.BirthDate.Format(birthDateLayout),
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
