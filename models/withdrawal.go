// models/withdrawal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal statuses. "completed" and "rejected" are final.
const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusInProgress = "in_progress"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusRejected   = "rejected"
)

// IsTerminalWithdrawalStatus reports whether a status admits no further
// transitions.
func IsTerminalWithdrawalStatus(status string) bool {
	return status == WithdrawalStatusCompleted || status == WithdrawalStatusRejected
}

// HiveTransaction identifies an on-chain transfer.
type HiveTransaction struct {
	TxID      string    `json:"txId" bson:"txId"`
	BlockNum  int64     `json:"blockNum,omitempty" bson:"blockNum,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
}

// WithdrawalNote is a staff annotation on a withdrawal.
type WithdrawalNote struct {
	Author    primitive.ObjectID `json:"author" bson:"author"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// Withdrawal model
type Withdrawal struct {
	ID              primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          primitive.ObjectID  `json:"userId" bson:"userId"`
	Amount          float64             `json:"amount" bson:"amount"`
	Fee             float64             `json:"fee" bson:"fee"`
	HiveAccount     string              `json:"hiveAccount" bson:"hiveAccount"`
	Memo            string              `json:"memo,omitempty" bson:"memo,omitempty"`
	Status          string              `json:"status" bson:"status"`
	AssignedTo      *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	LockedBy        *primitive.ObjectID `json:"lockedBy,omitempty" bson:"lockedBy,omitempty"`
	LockExpiry      *time.Time          `json:"lockExpiry,omitempty" bson:"lockExpiry,omitempty"`
	ProcessedBy     *primitive.ObjectID `json:"processedBy,omitempty" bson:"processedBy,omitempty"`
	ProcessedAt     *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	HiveTransaction *HiveTransaction    `json:"hiveTransaction,omitempty" bson:"hiveTransaction,omitempty"`
	RejectionReason string              `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	Notes           []WithdrawalNote    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// WithdrawalRequest is the requester-facing payload.
type WithdrawalRequest struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	HiveAccount string  `json:"hiveAccount" validate:"required"`
	Memo        string  `json:"memo"`
}

// ProcessWithdrawalRequest carries a staff approval or rejection. LockToken
// is the token returned by the lock endpoint, if the staff member took one.
type ProcessWithdrawalRequest struct {
	Action    string `json:"action" validate:"required,oneof=approve reject"`
	TxID      string `json:"txId"`
	BlockNum  int64  `json:"blockNum"`
	Reason    string `json:"reason"`
	Note      string `json:"note"`
	LockToken string `json:"lockToken"`
}
