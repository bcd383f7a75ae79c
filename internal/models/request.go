package models

import "time"

// RequestStatus is the lifecycle state of a help request.
type RequestStatus string

const (
	// StatusPending indicates the request is open and unclaimed.
	StatusPending RequestStatus = "Pending"
	// StatusAccepted indicates a volunteer has claimed the request.
	StatusAccepted RequestStatus = "Accepted"
	// StatusCompleted indicates the claimed work is done. Terminal.
	StatusCompleted RequestStatus = "Completed"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCompleted:
		return true
	}
	return false
}

// RequestType categorizes the kind of assistance needed. Fixed at creation.
type RequestType string

const (
	TypeMedicine  RequestType = "Medicine"
	TypeGrocery   RequestType = "Grocery"
	TypeTransport RequestType = "Transport"
	TypeCompanion RequestType = "Companion"
	TypeSOS       RequestType = "SOS"
)

// Valid reports whether the type is one of the known request types.
func (t RequestType) Valid() bool {
	switch t {
	case TypeMedicine, TypeGrocery, TypeTransport, TypeCompanion, TypeSOS:
		return true
	}
	return false
}

// Urgency indicates how time-critical a request is.
type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyMedium   Urgency = "Medium"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
)

// Valid reports whether the urgency is one of the known levels.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Request is a unit of assistance work with a lifecycle status.
//
// Invariant: AcceptedByID is set if and only if Status is Accepted or
// Completed, and names the identity that most recently performed the Accept
// transition. Status and AcceptedByID are written only through the
// conditional-update methods on RequestRepository.
type Request struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Title       string        `gorm:"size:200;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	Type        RequestType   `gorm:"type:varchar(20);not null;index" json:"type"`
	Urgency     Urgency       `gorm:"type:varchar(20);not null;default:'Low'" json:"urgency"`
	Destination string        `gorm:"size:255" json:"destination,omitempty"`
	Status      RequestStatus `gorm:"type:varchar(20);not null;default:'Pending';index:idx_requests_status" json:"status"`

	CreatedByID  uint  `gorm:"not null;index" json:"created_by_id"`
	AcceptedByID *uint `gorm:"index" json:"accepted_by_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships (read-side join for display identity)
	CreatedBy  *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	AcceptedBy *User `gorm:"foreignKey:AcceptedByID" json:"accepted_by,omitempty"`
}

// TableName specifies the table name for GORM
func (Request) TableName() string {
	return "requests"
}

// Assignment is one membership row of a volunteer's derived assignment set.
// It is a secondary index over requests.accepted_by_id, maintained
// best-effort after each successful transition and rebuildable at any time.
type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	VolunteerID uint      `gorm:"not null;uniqueIndex:idx_assignment_member" json:"volunteer_id"`
	RequestID   uint      `gorm:"not null;uniqueIndex:idx_assignment_member" json:"request_id"`
	CreatedAt   time.Time `json:"created_at"`

	Request *Request `gorm:"foreignKey:RequestID" json:"request,omitempty"`
}

// TableName specifies the table name for GORM
func (Assignment) TableName() string {
	return "assignments"
}
