// models/ticket.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ticket statuses
const (
	TicketStatusOpen         = "open"
	TicketStatusInProgress   = "in_progress"
	TicketStatusWaitingReply = "waiting_reply"
	TicketStatusSolved       = "solved"
	TicketStatusClosed       = "closed"
)

// TicketMessage is one entry in a ticket conversation.
type TicketMessage struct {
	Sender    primitive.ObjectID `json:"sender" bson:"sender"`
	Content   string             `json:"content" bson:"content"`
	IsStaff   bool               `json:"isStaff" bson:"isStaff"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// SupportTicket model
type SupportTicket struct {
	ID         primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     primitive.ObjectID  `json:"userId" bson:"userId"`
	Subject    string              `json:"subject" bson:"subject"`
	Category   string              `json:"category" bson:"category"`
	Priority   string              `json:"priority" bson:"priority"` // "low", "normal", "high"
	Status     string              `json:"status" bson:"status"`
	AssignedTo *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	Messages   []TicketMessage     `json:"messages" bson:"messages"`
	ResolvedAt *time.Time          `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	ResolvedBy *primitive.ObjectID `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// CreateTicketRequest opens a new support ticket.
type CreateTicketRequest struct {
	Subject  string `json:"subject" validate:"required"`
	Category string `json:"category" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high"`
	Message  string `json:"message" validate:"required"`
}

// TicketMessageRequest appends a reply to a ticket.
type TicketMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// UpdateTicketRequest changes ticket status or assignment.
type UpdateTicketRequest struct {
	Status     string `json:"status" validate:"omitempty,oneof=open in_progress waiting_reply solved closed"`
	AssignedTo string `json:"assignedTo"`
}
