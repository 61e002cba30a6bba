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

// WithdrawalLockTTL bounds how long a staff member can hold a withdrawal
// open before the advisory lock expires on its own.
const WithdrawalLockTTL = 2 * time.Minute

// WithdrawalStore is the persistence surface of the ledger. Implemented by
// repositories.WithdrawalRepository.
type WithdrawalStore interface {
	Insert(ctx context.Context, withdrawal *models.Withdrawal) error
	FindByID(ctx context.Context, withdrawalID primitive.ObjectID) (*models.Withdrawal, error)
	Complete(ctx context.Context, withdrawalID, staffID primitive.ObjectID, tx models.HiveTransaction) (*models.Withdrawal, error)
	Reject(ctx context.Context, withdrawalID, staffID primitive.ObjectID, reason string) (*models.Withdrawal, error)
	MarkInProgress(ctx context.Context, withdrawalID, staffID primitive.ObjectID) error
	SetLockFields(ctx context.Context, withdrawalID, staffID primitive.ObjectID, expiry time.Time) error
	ClearLockFields(ctx context.Context, withdrawalID primitive.ObjectID) error
	AddNote(ctx context.Context, withdrawalID primitive.ObjectID, note models.WithdrawalNote) error
	List(ctx context.Context, status string, assignedTo *primitive.ObjectID, userID *primitive.ObjectID) ([]models.Withdrawal, error)
	CountOpenAssigned(ctx context.Context, staffID primitive.ObjectID) (int64, error)
}

// AccountStore gives the ledger access to requester accounts and the staff
// roster. Implemented by repositories.UserRepository.
type AccountStore interface {
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	DebitAvailableBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error
	CreditAvailableBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error
	FindStaff(ctx context.Context, permission string) ([]models.User, error)
}

// StatsStore records per-staff task counters and the availability roster.
// Implemented by repositories.AvailabilityRepository.
type StatsStore interface {
	ListAvailable(ctx context.Context) ([]primitive.ObjectID, error)
	RecordWithdrawalHandled(ctx context.Context, staffID primitive.ObjectID, amount float64) error
}

// WithdrawalService implements the withdrawal ledger: request intake with an
// atomic balance debit, advisory locking, CAS terminal transitions and
// load-based assignment to available staff.
type WithdrawalService struct {
	withdrawals WithdrawalStore
	accounts    AccountStore
	stats       StatsStore
	locker      Locker
	notifier    Notifier
	flatFee     float64
}

func NewWithdrawalService(withdrawals WithdrawalStore, accounts AccountStore, stats StatsStore, locker Locker, notifier Notifier, flatFee float64) *WithdrawalService {
	return &WithdrawalService{
		withdrawals: withdrawals,
		accounts:    accounts,
		stats:       stats,
		locker:      locker,
		notifier:    notifier,
		flatFee:     flatFee,
	}
}

// Request creates a pending withdrawal. The balance check and debit are one
// conditional write in the account store, so two concurrent requests cannot
// jointly exceed the balance; the debit is rolled back if the insert fails.
func (s *WithdrawalService) Request(ctx context.Context, requester *models.User, req *models.WithdrawalRequest) (*models.Withdrawal, error) {
	if req.Amount <= 0 {
		return nil, models.NewValidationError("withdrawal amount must be greater than zero")
	}
	hiveAccount, err := utils.SanitizeHiveAccount(req.HiveAccount)
	if err != nil {
		return nil, models.NewValidationError("destination hive account is invalid")
	}
	if requester.Status == "suspended" {
		return nil, models.ErrUserSuspended
	}

	amount := utils.RoundAmount(req.Amount)
	if err := s.accounts.DebitAvailableBalance(ctx, requester.ID, amount); err != nil {
		return nil, err
	}

	now := time.Now()
	withdrawal := &models.Withdrawal{
		UserID:      requester.ID,
		Amount:      amount,
		Fee:         s.flatFee,
		HiveAccount: hiveAccount,
		Memo:        utils.SanitizeInput(req.Memo),
		Status:      models.WithdrawalStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if assignee := s.pickAssignee(ctx); assignee != nil {
		withdrawal.AssignedTo = assignee
	}

	if err := s.withdrawals.Insert(ctx, withdrawal); err != nil {
		if creditErr := s.accounts.CreditAvailableBalance(ctx, requester.ID, amount); creditErr != nil {
			log.Printf("Failed to roll back debit for user %s: %v", requester.ID.Hex(), creditErr)
		}
		return nil, err
	}

	if withdrawal.AssignedTo != nil && s.notifier != nil {
		s.notifier.Notify(*withdrawal.AssignedTo, models.NotificationTypeWithdrawalAssigned,
			"Withdrawal assigned", "A new withdrawal request was assigned to you",
			map[string]interface{}{"withdrawalId": withdrawal.ID.Hex(), "amount": withdrawal.Amount})
	}

	log.Printf("Withdrawal %s requested by %s: %.3f to @%s", withdrawal.ID.Hex(), requester.ID.Hex(), amount, withdrawal.HiveAccount)
	return withdrawal, nil
}

// pickAssignee chooses the available staff member holding the withdrawal
// permission with the fewest open assignments. Assignment is advisory;
// returning nil leaves the request unassigned.
func (s *WithdrawalService) pickAssignee(ctx context.Context) *primitive.ObjectID {
	available, err := s.stats.ListAvailable(ctx)
	if err != nil || len(available) == 0 {
		return nil
	}
	availableSet := make(map[primitive.ObjectID]bool, len(available))
	for _, id := range available {
		availableSet[id] = true
	}

	staff, err := s.accounts.FindStaff(ctx, models.PermissionProcessWithdrawals)
	if err != nil {
		return nil
	}

	var best *primitive.ObjectID
	bestLoad := int64(-1)
	for i := range staff {
		if !availableSet[staff[i].ID] {
			continue
		}
		load, err := s.withdrawals.CountOpenAssigned(ctx, staff[i].ID)
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

func lockKey(withdrawalID primitive.ObjectID) string {
	return "withdrawal_lock:" + withdrawalID.Hex()
}

// AcquireLock grants the staff member a short-lived exclusive hold on the
// withdrawal and marks it in_progress. Two staff cannot hold it at once; the
// TTL keeps a crashed client from blocking it forever.
func (s *WithdrawalService) AcquireLock(ctx context.Context, staff *models.User, withdrawalID primitive.ObjectID) (string, error) {
	if !staff.HasPermission(models.PermissionProcessWithdrawals) {
		return "", models.ErrNotPermitted
	}

	withdrawal, err := s.withdrawals.FindByID(ctx, withdrawalID)
	if err != nil {
		return "", err
	}
	if models.IsTerminalWithdrawalStatus(withdrawal.Status) {
		return "", models.ErrAlreadyProcessed
	}

	token, err := s.locker.TryLock(ctx, lockKey(withdrawalID), staff.ID.Hex(), WithdrawalLockTTL)
	if err != nil {
		return "", err
	}

	expiry := time.Now().Add(WithdrawalLockTTL)
	if err := s.withdrawals.SetLockFields(ctx, withdrawalID, staff.ID, expiry); err != nil {
		log.Printf("Failed to mirror lock on withdrawal %s: %v", withdrawalID.Hex(), err)
	}
	if err := s.withdrawals.MarkInProgress(ctx, withdrawalID, staff.ID); err != nil {
		log.Printf("Failed to mark withdrawal %s in progress: %v", withdrawalID.Hex(), err)
	}

	return token, nil
}

// ReleaseLock gives the hold back without processing.
func (s *WithdrawalService) ReleaseLock(ctx context.Context, staff *models.User, withdrawalID primitive.ObjectID, token string) error {
	if !staff.HasPermission(models.PermissionProcessWithdrawals) {
		return models.ErrNotPermitted
	}
	if err := s.locker.Unlock(ctx, lockKey(withdrawalID), token); err != nil {
		return err
	}
	return s.withdrawals.ClearLockFields(ctx, withdrawalID)
}

// Process applies a staff approval or rejection. The terminal transition is
// a compare-and-swap on status: exactly one of any concurrent approve/reject
// calls wins, every other caller gets ErrAlreadyProcessed and must not
// retry-overwrite. Holding the advisory lock is not required, but a lock
// held by somebody else blocks the call.
func (s *WithdrawalService) Process(ctx context.Context, staff *models.User, withdrawalID primitive.ObjectID, req *models.ProcessWithdrawalRequest) (*models.Withdrawal, error) {
	if !staff.HasPermission(models.PermissionProcessWithdrawals) {
		return nil, models.ErrNotPermitted
	}

	holder, err := s.locker.Holder(ctx, lockKey(withdrawalID))
	if err != nil {
		return nil, err
	}
	if holder != "" && holder != staff.ID.Hex() {
		return nil, models.ErrLockConflict
	}

	var withdrawal *models.Withdrawal
	switch req.Action {
	case "approve":
		if strings.TrimSpace(req.TxID) == "" {
			return nil, models.NewValidationError("transaction id is required to approve")
		}
		tx := models.HiveTransaction{
			TxID:      strings.TrimSpace(req.TxID),
			BlockNum:  req.BlockNum,
			Timestamp: time.Now(),
		}
		withdrawal, err = s.withdrawals.Complete(ctx, withdrawalID, staff.ID, tx)
	case "reject":
		if strings.TrimSpace(req.Reason) == "" {
			return nil, models.ErrRejectionReason
		}
		withdrawal, err = s.withdrawals.Reject(ctx, withdrawalID, staff.ID, strings.TrimSpace(req.Reason))
	default:
		return nil, models.NewValidationError("action must be approve or reject")
	}
	if err != nil {
		return nil, err
	}

	if req.Note != "" {
		note := models.WithdrawalNote{Author: staff.ID, Content: req.Note, CreatedAt: time.Now()}
		if noteErr := s.withdrawals.AddNote(ctx, withdrawalID, note); noteErr != nil {
			log.Printf("Failed to add note on withdrawal %s: %v", withdrawalID.Hex(), noteErr)
		} else {
			withdrawal.Notes = append(withdrawal.Notes, note)
		}
	}

	s.finishProcessing(ctx, staff, withdrawal, req.LockToken)
	return withdrawal, nil
}

// finishProcessing handles the after-effects of a terminal transition:
// refunds on rejection, task stats, lock cleanup and requester notification.
func (s *WithdrawalService) finishProcessing(ctx context.Context, staff *models.User, withdrawal *models.Withdrawal, lockToken string) {
	if withdrawal.Status == models.WithdrawalStatusRejected {
		if err := s.accounts.CreditAvailableBalance(ctx, withdrawal.UserID, withdrawal.Amount); err != nil {
			log.Printf("Failed to refund rejected withdrawal %s: %v", withdrawal.ID.Hex(), err)
		}
	}

	if err := s.stats.RecordWithdrawalHandled(ctx, staff.ID, withdrawal.Amount); err != nil {
		log.Printf("Failed to record task stats for staff %s: %v", staff.ID.Hex(), err)
	}

	if lockToken != "" {
		if err := s.locker.Unlock(ctx, lockKey(withdrawal.ID), lockToken); err != nil && err != models.ErrLockConflict {
			log.Printf("Failed to release lock on withdrawal %s: %v", withdrawal.ID.Hex(), err)
		}
	}

	if s.notifier != nil {
		title := "Withdrawal completed"
		message := "Your withdrawal has been sent to @" + withdrawal.HiveAccount
		if withdrawal.Status == models.WithdrawalStatusRejected {
			title = "Withdrawal rejected"
			message = "Your withdrawal was rejected: " + withdrawal.RejectionReason
		}
		s.notifier.Notify(withdrawal.UserID, models.NotificationTypeWithdrawalProcessed, title, message,
			map[string]interface{}{"withdrawalId": withdrawal.ID.Hex(), "status": withdrawal.Status})
	}

	log.Printf("Withdrawal %s %s by staff %s", withdrawal.ID.Hex(), withdrawal.Status, staff.ID.Hex())
}

// AddNote appends a standalone staff note.
func (s *WithdrawalService) AddNote(ctx context.Context, staff *models.User, withdrawalID primitive.ObjectID, content string) error {
	if !staff.HasPermission(models.PermissionProcessWithdrawals) {
		return models.ErrNotPermitted
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("note content must not be empty")
	}
	note := models.WithdrawalNote{Author: staff.ID, Content: content, CreatedAt: time.Now()}
	return s.withdrawals.AddNote(ctx, withdrawalID, note)
}

// List returns withdrawals for the staff queue. Non-admin staff only see
// their own assignments; "all" is admin-only.
func (s *WithdrawalService) List(ctx context.Context, actor *models.User, status, assigneeFilter string) ([]models.Withdrawal, error) {
	if !actor.HasPermission(models.PermissionProcessWithdrawals) {
		return nil, models.ErrNotPermitted
	}

	if assigneeFilter == "all" {
		if !actor.IsAdmin() {
			return nil, models.ErrNotPermitted
		}
		return s.withdrawals.List(ctx, status, nil, nil)
	}
	return s.withdrawals.List(ctx, status, &actor.ID, nil)
}

// ListMine returns the requester's own withdrawals.
func (s *WithdrawalService) ListMine(ctx context.Context, actor *models.User) ([]models.Withdrawal, error) {
	return s.withdrawals.List(ctx, "", nil, &actor.ID)
}
