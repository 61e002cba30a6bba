package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vyldo/vyldo_backend/models"
)

type fakeAvailabilityStore struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*models.StaffAvailability
}

func newFakeAvailabilityStore() *fakeAvailabilityStore {
	return &fakeAvailabilityStore{rows: make(map[primitive.ObjectID]*models.StaffAvailability)}
}

func (s *fakeAvailabilityStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.StaffAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		row = &models.StaffAvailability{ID: primitive.NewObjectID(), UserID: userID}
		s.rows[userID] = row
	}
	copied := *row
	return &copied, nil
}

func (s *fakeAvailabilityStore) Save(ctx context.Context, userID primitive.ObjectID, isAvailable bool, adminLock *bool) (*models.StaffAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[userID]
	if !ok {
		row = &models.StaffAvailability{ID: primitive.NewObjectID(), UserID: userID}
		s.rows[userID] = row
	}
	row.IsAvailable = isAvailable
	if adminLock != nil {
		row.LockedByAdmin = *adminLock
	}
	row.UpdatedAt = time.Now()
	copied := *row
	return &copied, nil
}

func (s *fakeAvailabilityStore) ListAvailable(ctx context.Context) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []primitive.ObjectID
	for id, row := range s.rows {
		if row.IsAvailable {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *fakeAvailabilityStore) ListAll(ctx context.Context) ([]models.StaffAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StaffAvailability
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (s *fakeAvailabilityStore) FindAvailableUnlocked(ctx context.Context, userIDs []primitive.ObjectID) ([]models.StaffAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StaffAvailability
	for _, id := range userIDs {
		row, ok := s.rows[id]
		if ok && row.IsAvailable && !row.LockedByAdmin {
			out = append(out, *row)
		}
	}
	return out, nil
}

// fakeAssignments serves as both WithdrawalAssignments and
// TicketAssignments.
type fakeAssignments struct {
	mu    sync.Mutex
	open  map[primitive.ObjectID][]primitive.ObjectID // staff -> item ids
	moves map[primitive.ObjectID]*primitive.ObjectID  // item -> new assignee
}

func newFakeAssignments() *fakeAssignments {
	return &fakeAssignments{
		open:  make(map[primitive.ObjectID][]primitive.ObjectID),
		moves: make(map[primitive.ObjectID]*primitive.ObjectID),
	}
}

func (s *fakeAssignments) FindOpenAssigned(ctx context.Context, staffID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]primitive.ObjectID{}, s.open[staffID]...), nil
}

func (s *fakeAssignments) Reassign(ctx context.Context, itemID primitive.ObjectID, newAssignee *primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves[itemID] = newAssignee
	return nil
}

func (s *fakeAssignments) movedTo(staffID primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, assignee := range s.moves {
		if assignee != nil && *assignee == staffID {
			count++
		}
	}
	return count
}

func (s *fakeAssignments) unassigned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, assignee := range s.moves {
		if assignee == nil {
			count++
		}
	}
	return count
}

type fakeStaffDirectory struct {
	users    map[primitive.ObjectID]*models.User
	inactive []primitive.ObjectID
}

func newFakeStaffDirectory(users ...*models.User) *fakeStaffDirectory {
	d := &fakeStaffDirectory{users: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeStaffDirectory) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, ok := d.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (d *fakeStaffDirectory) FindStaff(ctx context.Context, permission string) ([]models.User, error) {
	var out []models.User
	for _, u := range d.users {
		if u.HasPermission(permission) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (d *fakeStaffDirectory) FindInactiveStaffIDs(ctx context.Context, cutoff time.Time) ([]primitive.ObjectID, error) {
	return append([]primitive.ObjectID{}, d.inactive...), nil
}

type availabilityFixture struct {
	svc          *AvailabilityService
	availability *fakeAvailabilityStore
	withdrawals  *fakeAssignments
	tickets      *fakeAssignments
	directory    *fakeStaffDirectory
	notifier     *fakeNotifier
}

func newAvailabilityFixture(users ...*models.User) *availabilityFixture {
	f := &availabilityFixture{
		availability: newFakeAvailabilityStore(),
		withdrawals:  newFakeAssignments(),
		tickets:      newFakeAssignments(),
		directory:    newFakeStaffDirectory(users...),
		notifier:     &fakeNotifier{},
	}
	f.svc = NewAvailabilityService(f.availability, f.withdrawals, f.tickets, f.directory, f.notifier)
	return f
}

func TestSetAvailabilitySelfToggle(t *testing.T) {
	staff := withdrawalStaff(models.PermissionProcessWithdrawals)
	f := newAvailabilityFixture(staff)

	resp, err := f.svc.SetAvailability(context.Background(), staff, staff.ID, &models.SetAvailabilityRequest{IsAvailable: true})
	require.NoError(t, err)
	assert.True(t, resp.Availability.IsAvailable)

	// AdminLock from a non-admin actor is ignored.
	lock := true
	resp, err = f.svc.SetAvailability(context.Background(), staff, staff.ID, &models.SetAvailabilityRequest{IsAvailable: false, AdminLock: &lock})
	require.NoError(t, err)
	assert.False(t, resp.Availability.IsAvailable)
	assert.False(t, resp.Availability.LockedByAdmin)
}

func TestSetAvailabilityAdminLock(t *testing.T) {
	staff := withdrawalStaff(models.PermissionProcessWithdrawals)
	admin := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeAdmin}
	f := newAvailabilityFixture(staff, admin)

	lock := true
	resp, err := f.svc.SetAvailability(context.Background(), admin, staff.ID, &models.SetAvailabilityRequest{IsAvailable: false, AdminLock: &lock})
	require.NoError(t, err)
	assert.True(t, resp.Availability.LockedByAdmin)
	assert.Equal(t, 1, f.notifier.countFor(staff.ID, models.NotificationTypeAvailabilityChanged))

	// The locked staff member cannot flip themselves back online.
	_, err = f.svc.SetAvailability(context.Background(), staff, staff.ID, &models.SetAvailabilityRequest{IsAvailable: true})
	assert.ErrorIs(t, err, models.ErrLockedByAdmin)

	// The admin can, clearing the lock at the same time.
	unlock := false
	resp, err = f.svc.SetAvailability(context.Background(), admin, staff.ID, &models.SetAvailabilityRequest{IsAvailable: true, AdminLock: &unlock})
	require.NoError(t, err)
	assert.True(t, resp.Availability.IsAvailable)
	assert.False(t, resp.Availability.LockedByAdmin)
}

func TestSetAvailabilityPermissions(t *testing.T) {
	staff := withdrawalStaff(models.PermissionProcessWithdrawals)
	other := withdrawalStaff(models.PermissionProcessWithdrawals)
	buyer := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeBuyer}
	f := newAvailabilityFixture(staff, other, buyer)

	// Staff cannot toggle each other.
	_, err := f.svc.SetAvailability(context.Background(), staff, other.ID, &models.SetAvailabilityRequest{IsAvailable: false})
	assert.ErrorIs(t, err, models.ErrNotPermitted)

	// A non-staff target is rejected before anything else.
	admin := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeAdmin}
	f.directory.users[admin.ID] = admin
	_, err = f.svc.SetAvailability(context.Background(), admin, buyer.ID, &models.SetAvailabilityRequest{IsAvailable: true})
	assert.ErrorIs(t, err, models.ErrStaffNotFound)
}

func TestGoingOfflineReassignsOpenWork(t *testing.T) {
	departing := &models.User{
		ID:          primitive.NewObjectID(),
		UserType:    models.UserTypeStaff,
		Permissions: []string{models.PermissionProcessWithdrawals, models.PermissionSupportTickets},
	}
	remaining := &models.User{
		ID:          primitive.NewObjectID(),
		UserType:    models.UserTypeStaff,
		Permissions: []string{models.PermissionProcessWithdrawals, models.PermissionSupportTickets},
	}
	f := newAvailabilityFixture(departing, remaining)

	_, err := f.availability.Save(context.Background(), departing.ID, true, nil)
	require.NoError(t, err)
	_, err = f.availability.Save(context.Background(), remaining.ID, true, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		f.withdrawals.open[departing.ID] = append(f.withdrawals.open[departing.ID], primitive.NewObjectID())
	}
	for i := 0; i < 2; i++ {
		f.tickets.open[departing.ID] = append(f.tickets.open[departing.ID], primitive.NewObjectID())
	}

	resp, err := f.svc.SetAvailability(context.Background(), departing, departing.ID, &models.SetAvailabilityRequest{IsAvailable: false})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Reassigned.WithdrawalsReassigned)
	assert.Equal(t, 2, resp.Reassigned.TicketsReassigned)
	assert.Equal(t, 3, f.withdrawals.movedTo(remaining.ID))
	assert.Equal(t, 2, f.tickets.movedTo(remaining.ID))
	assert.Equal(t, 3, f.notifier.countFor(remaining.ID, models.NotificationTypeWithdrawalAssigned))
	assert.Equal(t, 2, f.notifier.countFor(remaining.ID, models.NotificationTypeTicketAssigned))
}

func TestGoingOfflineWithNobodyLeft(t *testing.T) {
	departing := &models.User{
		ID:          primitive.NewObjectID(),
		UserType:    models.UserTypeStaff,
		Permissions: []string{models.PermissionProcessWithdrawals},
	}
	f := newAvailabilityFixture(departing)

	_, err := f.availability.Save(context.Background(), departing.ID, true, nil)
	require.NoError(t, err)
	f.withdrawals.open[departing.ID] = []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}

	resp, err := f.svc.SetAvailability(context.Background(), departing, departing.ID, &models.SetAvailabilityRequest{IsAvailable: false})
	require.NoError(t, err)

	// The items go back to the unassigned queue rather than staying with
	// an offline staff member.
	assert.Equal(t, 2, resp.Reassigned.WithdrawalsReassigned)
	assert.Equal(t, 2, f.withdrawals.unassigned())
}

func TestReassignmentSkipsStaffWithoutPermission(t *testing.T) {
	departing := &models.User{
		ID:          primitive.NewObjectID(),
		UserType:    models.UserTypeStaff,
		Permissions: []string{models.PermissionProcessWithdrawals},
	}
	ticketOnly := &models.User{
		ID:          primitive.NewObjectID(),
		UserType:    models.UserTypeStaff,
		Permissions: []string{models.PermissionSupportTickets},
	}
	f := newAvailabilityFixture(departing, ticketOnly)

	_, err := f.availability.Save(context.Background(), departing.ID, true, nil)
	require.NoError(t, err)
	_, err = f.availability.Save(context.Background(), ticketOnly.ID, true, nil)
	require.NoError(t, err)
	f.withdrawals.open[departing.ID] = []primitive.ObjectID{primitive.NewObjectID()}

	_, err = f.svc.SetAvailability(context.Background(), departing, departing.ID, &models.SetAvailabilityRequest{IsAvailable: false})
	require.NoError(t, err)

	// The ticket-only staff member must not receive withdrawal work.
	assert.Zero(t, f.withdrawals.movedTo(ticketOnly.ID))
	assert.Equal(t, 1, f.withdrawals.unassigned())
}

func TestRosterAdminOnly(t *testing.T) {
	staff := withdrawalStaff(models.PermissionProcessWithdrawals)
	admin := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeAdmin}
	f := newAvailabilityFixture(staff, admin)

	_, err := f.svc.Roster(context.Background(), staff)
	assert.ErrorIs(t, err, models.ErrNotPermitted)

	_, err = f.svc.Roster(context.Background(), admin)
	assert.NoError(t, err)
}

func TestSweepInactive(t *testing.T) {
	stale := &models.User{
		ID:          primitive.NewObjectID(),
		UserType:    models.UserTypeStaff,
		Permissions: []string{models.PermissionProcessWithdrawals},
	}
	active := &models.User{
		ID:          primitive.NewObjectID(),
		UserType:    models.UserTypeStaff,
		Permissions: []string{models.PermissionProcessWithdrawals},
	}
	locked := &models.User{
		ID:          primitive.NewObjectID(),
		UserType:    models.UserTypeStaff,
		Permissions: []string{models.PermissionSupportTickets},
	}
	f := newAvailabilityFixture(stale, active, locked)

	_, err := f.availability.Save(context.Background(), stale.ID, true, nil)
	require.NoError(t, err)
	_, err = f.availability.Save(context.Background(), active.ID, true, nil)
	require.NoError(t, err)
	lock := true
	_, err = f.availability.Save(context.Background(), locked.ID, true, &lock)
	require.NoError(t, err)

	f.withdrawals.open[stale.ID] = []primitive.ObjectID{primitive.NewObjectID()}
	f.directory.inactive = []primitive.ObjectID{stale.ID, locked.ID}

	swept := f.svc.SweepInactive(context.Background(), 30*time.Minute)

	// Only the unlocked stale row is swept; the admin-locked one stays.
	assert.Equal(t, 1, swept)
	row, err := f.availability.FindByUser(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.False(t, row.IsAvailable)

	lockedRow, err := f.availability.FindByUser(context.Background(), locked.ID)
	require.NoError(t, err)
	assert.True(t, lockedRow.IsAvailable)

	// The stale member's open withdrawal moved to the active one.
	assert.Equal(t, 1, f.withdrawals.movedTo(active.ID))
}
