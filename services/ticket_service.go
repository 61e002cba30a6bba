package services

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vyldo/vyldo_backend/models"
	"github.com/vyldo/vyldo_backend/utils"
)

// TicketStore is the persistence surface for support tickets. Implemented by
// repositories.TicketRepository.
type TicketStore interface {
	Insert(ctx context.Context, ticket *models.SupportTicket) error
	FindByID(ctx context.Context, ticketID primitive.ObjectID) (*models.SupportTicket, error)
	List(ctx context.Context, status string, assignedTo *primitive.ObjectID, userID *primitive.ObjectID) ([]models.SupportTicket, error)
	AppendMessage(ctx context.Context, ticketID primitive.ObjectID, message models.TicketMessage) (*models.SupportTicket, error)
	UpdateStatus(ctx context.Context, ticketID primitive.ObjectID, status string, actorID primitive.ObjectID) (*models.SupportTicket, error)
	Assign(ctx context.Context, ticketID primitive.ObjectID, assignee *primitive.ObjectID) error
	CountOpenAssigned(ctx context.Context, staffID primitive.ObjectID) (int64, error)
}

// TicketStats records resolution counters.
type TicketStats interface {
	ListAvailable(ctx context.Context) ([]primitive.ObjectID, error)
	RecordTicketHandled(ctx context.Context, staffID primitive.ObjectID) error
}

// TicketService handles the support ticket lifecycle. Assignment follows the
// same pattern as withdrawals: advisory, load-based among available staff.
type TicketService struct {
	tickets  TicketStore
	accounts AccountStore
	stats    TicketStats
	notifier Notifier
}

func NewTicketService(tickets TicketStore, accounts AccountStore, stats TicketStats, notifier Notifier) *TicketService {
	return &TicketService{
		tickets:  tickets,
		accounts: accounts,
		stats:    stats,
		notifier: notifier,
	}
}

// Create opens a ticket and assigns it to the least-loaded available support
// staff member when one is online.
func (s *TicketService) Create(ctx context.Context, requester *models.User, req *models.CreateTicketRequest) (*models.SupportTicket, error) {
	priority := req.Priority
	if priority == "" {
		priority = "normal"
	}

	now := time.Now()
	ticket := &models.SupportTicket{
		UserID:   requester.ID,
		Subject:  utils.SanitizeInput(req.Subject),
		Category: req.Category,
		Priority: priority,
		Status:   models.TicketStatusOpen,
		Messages: []models.TicketMessage{{
			Sender:    requester.ID,
			Content:   utils.SanitizeInput(req.Message),
			IsStaff:   false,
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if assignee := s.pickAssignee(ctx); assignee != nil {
		ticket.AssignedTo = assignee
	}

	if err := s.tickets.Insert(ctx, ticket); err != nil {
		return nil, err
	}

	if ticket.AssignedTo != nil && s.notifier != nil {
		s.notifier.Notify(*ticket.AssignedTo, models.NotificationTypeTicketAssigned,
			"Ticket assigned", "A new support ticket was assigned to you",
			map[string]interface{}{"ticketId": ticket.ID.Hex()})
	}

	return ticket, nil
}

func (s *TicketService) pickAssignee(ctx context.Context) *primitive.ObjectID {
	available, err := s.stats.ListAvailable(ctx)
	if err != nil || len(available) == 0 {
		return nil
	}
	availableSet := make(map[primitive.ObjectID]bool, len(available))
	for _, id := range available {
		availableSet[id] = true
	}

	staff, err := s.accounts.FindStaff(ctx, models.PermissionSupportTickets)
	if err != nil {
		return nil
	}

	var best *primitive.ObjectID
	bestLoad := int64(-1)
	for i := range staff {
		if !availableSet[staff[i].ID] {
			continue
		}
		load, err := s.tickets.CountOpenAssigned(ctx, staff[i].ID)
		if err != nil {
			continue
		}
		if bestLoad < 0 || load < bestLoad {
			id := staff[i].ID
			best = &id
			bestLoad = load
		}
	}
	return best
}

// Reply appends a message. Ticket owners and support staff may post;
// everyone else is rejected.
func (s *TicketService) Reply(ctx context.Context, actor *models.User, ticketID primitive.ObjectID, content string) (*models.SupportTicket, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("message content must not be empty")
	}

	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	isStaff := actor.HasPermission(models.PermissionSupportTickets)
	if ticket.UserID != actor.ID && !isStaff {
		return nil, models.ErrNotPermitted
	}

	message := models.TicketMessage{
		Sender:    actor.ID,
		Content:   utils.SanitizeInput(content),
		IsStaff:   isStaff,
		CreatedAt: time.Now(),
	}

	updated, err := s.tickets.AppendMessage(ctx, ticketID, message)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if isStaff {
			s.notifier.Notify(ticket.UserID, models.NotificationTypeTicketReply,
				"Support replied", "Your support ticket has a new reply",
				map[string]interface{}{"ticketId": ticketID.Hex()})
		} else if ticket.AssignedTo != nil {
			s.notifier.Notify(*ticket.AssignedTo, models.NotificationTypeTicketReply,
				"Ticket updated", "The requester replied on a ticket assigned to you",
				map[string]interface{}{"ticketId": ticketID.Hex()})
		}
	}

	return updated, nil
}

// Update changes status or assignment. Staff-only; solving a ticket bumps
// the resolver's task stats.
func (s *TicketService) Update(ctx context.Context, actor *models.User, ticketID primitive.ObjectID, req *models.UpdateTicketRequest) (*models.SupportTicket, error) {
	if !actor.HasPermission(models.PermissionSupportTickets) {
		return nil, models.ErrNotPermitted
	}

	if req.AssignedTo != "" {
		assigneeID, err := primitive.ObjectIDFromHex(req.AssignedTo)
		if err != nil {
			return nil, models.NewValidationError("invalid assignee id")
		}
		assignee, err := s.accounts.FindByID(ctx, assigneeID)
		if err != nil {
			return nil, err
		}
		if !assignee.HasPermission(models.PermissionSupportTickets) {
			return nil, models.ErrNotPermitted
		}
		if err := s.tickets.Assign(ctx, ticketID, &assigneeID); err != nil {
			return nil, err
		}
	}

	if req.Status == "" {
		return s.tickets.FindByID(ctx, ticketID)
	}

	ticket, err := s.tickets.UpdateStatus(ctx, ticketID, req.Status, actor.ID)
	if err != nil {
		return nil, err
	}

	if req.Status == models.TicketStatusSolved {
		if err := s.stats.RecordTicketHandled(ctx, actor.ID); err != nil {
			log.Printf("Failed to record ticket stats for staff %s: %v", actor.ID.Hex(), err)
		}
	}

	return ticket, nil
}

// List scopes tickets to the actor: requesters see their own, staff see
// their assignments, admins may see all.
func (s *TicketService) List(ctx context.Context, actor *models.User, status, assigneeFilter string) ([]models.SupportTicket, error) {
	if !actor.IsStaff() {
		return s.tickets.List(ctx, status, nil, &actor.ID)
	}
	if assigneeFilter == "all" {
		if !actor.IsAdmin() {
			return nil, models.ErrNotPermitted
		}
		return s.tickets.List(ctx, status, nil, nil)
	}
	return s.tickets.List(ctx, status, &actor.ID, nil)
}
