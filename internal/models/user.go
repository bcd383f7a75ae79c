package models

import (
	"time"

	"gorm.io/gorm"
)

// Role determines which request-lifecycle operations a user may perform.
// It is fixed at registration and never changed by the API.
type Role string

const (
	// RoleSenior creates help requests and sees only their own.
	RoleSenior Role = "senior"
	// RoleVolunteer accepts, completes and cancels requests.
	RoleVolunteer Role = "volunteer"
	// RoleAdmin has full visibility and may accept/assign on behalf of the pool.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleSenior, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// User represents an actor in the SeniorAid application.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:120;not null" json:"name"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Role      Role           `gorm:"type:varchar(20);not null;default:'senior';index" json:"role"`
	Address   string         `json:"address,omitempty"`
	Phone     string         `gorm:"size:30" json:"phone,omitempty"`
	Age       int            `json:"age,omitempty"`
	Gender    string         `gorm:"size:10" json:"gender,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Assignments is the derived set of requests currently claimed by this
	// user. The authoritative state lives on each Request's status/accepted_by
	// pair; this association only backs the "my assignments" query.
	Assignments []Assignment `gorm:"foreignKey:VolunteerID" json:"assignments,omitempty"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// Summary is the display identity embedded in request listings.
type Summary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary returns the user's display identity for read-side joins.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}
