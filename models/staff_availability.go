// models/staff_availability.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStats are informational counters, monotonic within a reporting period.
type TaskStats struct {
	WithdrawalsHandled int     `json:"withdrawalsHandled" bson:"withdrawalsHandled"`
	WithdrawalsValue   float64 `json:"withdrawalsValue" bson:"withdrawalsValue"`
	TicketsHandled     int     `json:"ticketsHandled" bson:"ticketsHandled"`
}

// StaffAvailability tracks a staff member's online/offline state. When
// LockedByAdmin is set, only an admin may flip IsAvailable.
type StaffAvailability struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID `json:"userId" bson:"userId"`
	IsAvailable   bool               `json:"isAvailable" bson:"isAvailable"`
	LockedByAdmin bool               `json:"lockedByAdmin" bson:"lockedByAdmin"`
	TaskStats     TaskStats          `json:"taskStats" bson:"taskStats"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// SetAvailabilityRequest toggles a staff member's availability. AdminLock is
// only honored for admin actors.
type SetAvailabilityRequest struct {
	IsAvailable bool  `json:"isAvailable"`
	AdminLock   *bool `json:"adminLock,omitempty"`
}

// ReassignmentResult reports how much in-flight work moved when a staff
// member went offline.
type ReassignmentResult struct {
	WithdrawalsReassigned int `json:"withdrawalsReassigned"`
	TicketsReassigned     int `json:"ticketsReassigned"`
}

// SetAvailabilityResponse is returned to the caller for confirmation
// messaging.
type SetAvailabilityResponse struct {
	Availability StaffAvailability  `json:"availability"`
	Reassigned   ReassignmentResult `json:"reassigned"`
}
