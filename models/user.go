// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User types
const (
	UserTypeBuyer  = "buyer"
	UserTypeSeller = "seller"
	UserTypeStaff  = "staff"
	UserTypeAdmin  = "admin"
)

// Staff permissions
const (
	PermissionProcessWithdrawals = "process_withdrawals"
	PermissionSupportTickets     = "support_tickets"
	PermissionManageStaff        = "manage_staff"
)

// User model
type User struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email            string             `json:"email" bson:"email"`
	Password         string             `json:"password,omitempty" bson:"password"`
	Username         string             `json:"username" bson:"username"`
	FullName         string             `json:"fullName" bson:"fullName"`
	UserType         string             `json:"userType" bson:"userType"` // "buyer", "seller", "staff", "admin"
	Permissions      []string           `json:"permissions,omitempty" bson:"permissions,omitempty"`
	Status           string             `json:"status,omitempty" bson:"status,omitempty"` // "active", "suspended"
	HiveUsername     string             `json:"hiveUsername,omitempty" bson:"hiveUsername,omitempty"`
	AvailableBalance float64            `json:"availableBalance" bson:"availableBalance"`
	PendingEarnings  float64            `json:"pendingEarnings" bson:"pendingEarnings"`
	ProfilePic       string             `json:"profilePic,omitempty" bson:"profilePic,omitempty"`
	Country          string             `json:"country,omitempty" bson:"country,omitempty"`
	LastActivityAt   time.Time          `json:"lastActivityAt" bson:"lastActivityAt"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// IsStaff reports whether the user may act on the withdrawal ledger or tickets.
func (u *User) IsStaff() bool {
	return u.UserType == UserTypeStaff || u.UserType == UserTypeAdmin
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}

// HasPermission checks a staff permission. Admins hold every permission.
func (u *User) HasPermission(permission string) bool {
	if u.UserType == UserTypeAdmin {
		return true
	}
	if u.UserType != UserTypeStaff {
		return false
	}
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
