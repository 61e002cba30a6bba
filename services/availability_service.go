package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vyldo/vyldo_backend/models"
)

// AvailabilityStore is the persistence surface for staff availability rows.
// Implemented by repositories.AvailabilityRepository.
type AvailabilityStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.StaffAvailability, error)
	Save(ctx context.Context, userID primitive.ObjectID, isAvailable bool, adminLock *bool) (*models.StaffAvailability, error)
	ListAvailable(ctx context.Context) ([]primitive.ObjectID, error)
	ListAll(ctx context.Context) ([]models.StaffAvailability, error)
	FindAvailableUnlocked(ctx context.Context, userIDs []primitive.ObjectID) ([]models.StaffAvailability, error)
}

// WithdrawalAssignments is the slice of the ledger the availability
// controller may touch: finding and moving open assignments.
type WithdrawalAssignments interface {
	FindOpenAssigned(ctx context.Context, staffID primitive.ObjectID) ([]primitive.ObjectID, error)
	Reassign(ctx context.Context, withdrawalID primitive.ObjectID, newAssignee *primitive.ObjectID) error
}

// TicketAssignments mirrors WithdrawalAssignments for support tickets.
type TicketAssignments interface {
	FindOpenAssigned(ctx context.Context, staffID primitive.ObjectID) ([]primitive.ObjectID, error)
	Reassign(ctx context.Context, ticketID primitive.ObjectID, newAssignee *primitive.ObjectID) error
}

// StaffDirectory resolves staff users and their permissions.
type StaffDirectory interface {
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindStaff(ctx context.Context, permission string) ([]models.User, error)
	FindInactiveStaffIDs(ctx context.Context, cutoff time.Time) ([]primitive.ObjectID, error)
}

// AvailabilityService owns staff online/offline state. Going offline
// redistributes the staff member's open withdrawals and tickets among the
// remaining available staff holding the matching permission.
type AvailabilityService struct {
	availability AvailabilityStore
	withdrawals  WithdrawalAssignments
	tickets      TicketAssignments
	directory    StaffDirectory
	notifier     Notifier
}

func NewAvailabilityService(availability AvailabilityStore, withdrawals WithdrawalAssignments, tickets TicketAssignments, directory StaffDirectory, notifier Notifier) *AvailabilityService {
	return &AvailabilityService{
		availability: availability,
		withdrawals:  withdrawals,
		tickets:      tickets,
		directory:    directory,
		notifier:     notifier,
	}
}

// Get returns the availability row for a staff member.
func (s *AvailabilityService) Get(ctx context.Context, staffID primitive.ObjectID) (*models.StaffAvailability, error) {
	return s.availability.FindByUser(ctx, staffID)
}

// Roster returns every availability row. Admin-only.
func (s *AvailabilityService) Roster(ctx context.Context, actor *models.User) ([]models.StaffAvailability, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrNotPermitted
	}
	return s.availability.ListAll(ctx)
}

// SetAvailability flips a staff member's availability. An admin lock on the
// row means only an admin may change it; a self-toggle by the locked staff
// member fails with ErrLockedByAdmin. Going offline triggers reassignment
// and the counts are returned for confirmation messaging.
func (s *AvailabilityService) SetAvailability(ctx context.Context, actor *models.User, targetID primitive.ObjectID, req *models.SetAvailabilityRequest) (*models.SetAvailabilityResponse, error) {
	target, err := s.directory.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !target.IsStaff() {
		return nil, models.ErrStaffNotFound
	}
	if actor.ID != targetID && !actor.IsAdmin() {
		return nil, models.ErrNotPermitted
	}

	row, err := s.availability.FindByUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if row.LockedByAdmin && !actor.IsAdmin() {
		return nil, models.ErrLockedByAdmin
	}

	adminLock := req.AdminLock
	if !actor.IsAdmin() {
		adminLock = nil
	}

	updated, err := s.availability.Save(ctx, targetID, req.IsAvailable, adminLock)
	if err != nil {
		return nil, err
	}

	var reassigned models.ReassignmentResult
	if row.IsAvailable && !req.IsAvailable {
		reassigned = s.reassignFrom(ctx, targetID)
		log.Printf("Staff %s went offline: reassigned %d withdrawals, %d tickets",
			targetID.Hex(), reassigned.WithdrawalsReassigned, reassigned.TicketsReassigned)
	}

	if actor.ID != targetID && s.notifier != nil {
		message := "An administrator set you as unavailable"
		if req.IsAvailable {
			message = "An administrator set you as available"
		}
		s.notifier.Notify(targetID, models.NotificationTypeAvailabilityChanged, "Availability changed", message, nil)
	}

	return &models.SetAvailabilityResponse{
		Availability: *updated,
		Reassigned:   reassigned,
	}, nil
}

// reassignFrom redistributes the staff member's open withdrawals and tickets
// among remaining available staff with the matching permission, falling back
// to unassigned when nobody else is online.
func (s *AvailabilityService) reassignFrom(ctx context.Context, staffID primitive.ObjectID) models.ReassignmentResult {
	var result models.ReassignmentResult

	withdrawalTargets := s.eligibleTargets(ctx, staffID, models.PermissionProcessWithdrawals)
	ids, err := s.withdrawals.FindOpenAssigned(ctx, staffID)
	if err != nil {
		log.Printf("Failed to list open withdrawals for %s: %v", staffID.Hex(), err)
	}
	for i, id := range ids {
		assignee := roundRobinPick(withdrawalTargets, i)
		if err := s.withdrawals.Reassign(ctx, id, assignee); err != nil {
			log.Printf("Failed to reassign withdrawal %s: %v", id.Hex(), err)
			continue
		}
		result.WithdrawalsReassigned++
		s.notifyAssignment(assignee, models.NotificationTypeWithdrawalAssigned,
			"Withdrawal reassigned", "A withdrawal request was reassigned to you",
			map[string]interface{}{"withdrawalId": id.Hex()})
	}

	ticketTargets := s.eligibleTargets(ctx, staffID, models.PermissionSupportTickets)
	ticketIDs, err := s.tickets.FindOpenAssigned(ctx, staffID)
	if err != nil {
		log.Printf("Failed to list open tickets for %s: %v", staffID.Hex(), err)
	}
	for i, id := range ticketIDs {
		assignee := roundRobinPick(ticketTargets, i)
		if err := s.tickets.Reassign(ctx, id, assignee); err != nil {
			log.Printf("Failed to reassign ticket %s: %v", id.Hex(), err)
			continue
		}
		result.TicketsReassigned++
		s.notifyAssignment(assignee, models.NotificationTypeTicketAssigned,
			"Ticket reassigned", "A support ticket was reassigned to you",
			map[string]interface{}{"ticketId": id.Hex()})
	}

	return result
}

// eligibleTargets lists available staff other than the departing one that
// hold the given permission.
func (s *AvailabilityService) eligibleTargets(ctx context.Context, excludeID primitive.ObjectID, permission string) []primitive.ObjectID {
	available, err := s.availability.ListAvailable(ctx)
	if err != nil {
		return nil
	}
	availableSet := make(map[primitive.ObjectID]bool, len(available))
	for _, id := range available {
		if id != excludeID {
			availableSet[id] = true
		}
	}

	staff, err := s.directory.FindStaff(ctx, permission)
	if err != nil {
		return nil
	}

	targets := []primitive.ObjectID{}
	for i := range staff {
		if availableSet[staff[i].ID] {
			targets = append(targets, staff[i].ID)
		}
	}
	return targets
}

func roundRobinPick(targets []primitive.ObjectID, i int) *primitive.ObjectID {
	if len(targets) == 0 {
		return nil
	}
	id := targets[i%len(targets)]
	return &id
}

func (s *AvailabilityService) notifyAssignment(assignee *primitive.ObjectID, notifType, title, message string, data interface{}) {
	if assignee == nil || s.notifier == nil {
		return
	}
	s.notifier.Notify(*assignee, notifType, title, message, data)
}

// SweepInactive marks staff with stale heartbeats unavailable, running the
// normal reassignment path for each. Admin-locked rows are left alone.
// Called periodically from main.
func (s *AvailabilityService) SweepInactive(ctx context.Context, inactiveThreshold time.Duration) int {
	cutoff := time.Now().Add(-inactiveThreshold)
	staleIDs, err := s.directory.FindInactiveStaffIDs(ctx, cutoff)
	if err != nil {
		log.Printf("Availability sweep failed to list inactive staff: %v", err)
		return 0
	}

	rows, err := s.availability.FindAvailableUnlocked(ctx, staleIDs)
	if err != nil {
		log.Printf("Availability sweep failed to load rows: %v", err)
		return 0
	}

	swept := 0
	for _, row := range rows {
		if _, err := s.availability.Save(ctx, row.UserID, false, nil); err != nil {
			log.Printf("Availability sweep failed for staff %s: %v", row.UserID.Hex(), err)
			continue
		}
		reassigned := s.reassignFrom(ctx, row.UserID)
		log.Printf("Marked inactive staff %s unavailable (%d withdrawals, %d tickets reassigned)",
			row.UserID.Hex(), reassigned.WithdrawalsReassigned, reassigned.TicketsReassigned)
		swept++
	}
	return swept
}
