package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vyldo/vyldo_backend/models"
)

// fakeNotifier records delivered notifications. Shared by the service tests
// in this package.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []fakeNotification
}

type fakeNotification struct {
	UserID primitive.ObjectID
	Type   string
}

func (n *fakeNotifier) Notify(userID primitive.ObjectID, notifType, title, message string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, fakeNotification{UserID: userID, Type: notifType})
}

func (n *fakeNotifier) countFor(userID primitive.ObjectID, notifType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.sent {
		if s.UserID == userID && s.Type == notifType {
			count++
		}
	}
	return count
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
	byTx   map[string]primitive.ObjectID
	memos  map[string]*models.PaymentMemo
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[primitive.ObjectID]*models.Order),
		byTx:   make(map[string]primitive.ObjectID),
		memos:  make(map[string]*models.PaymentMemo),
	}
}

func (s *fakeOrderStore) Insert(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byTx[order.PaymentTxID]; dup {
		return models.ErrDuplicatePayment
	}
	for _, existing := range s.orders {
		if existing.PaymentMemo == order.PaymentMemo {
			return models.ErrDuplicatePayment
		}
	}
	order.ID = primitive.NewObjectID()
	s.orders[order.ID] = order
	s.byTx[order.PaymentTxID] = order.ID
	return nil
}

func (s *fakeOrderStore) FindByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *fakeOrderStore) FindByTxID(ctx context.Context, txID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byTx[txID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	copied := *s.orders[id]
	return &copied, nil
}

func (s *fakeOrderStore) FindForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, order := range s.orders {
		if order.BuyerID == userID || order.SellerID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) MarkCompleted(ctx context.Context, orderID, releasedBy primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPaid {
		return nil, models.ErrOrderNotPaid
	}
	now := time.Now()
	order.Status = models.OrderStatusCompleted
	order.CompletedAt = &now
	order.ReleasedBy = &releasedBy
	copied := *order
	return &copied, nil
}

func (s *fakeOrderStore) InsertMemo(ctx context.Context, memo *models.PaymentMemo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.memos[memo.Memo]; dup {
		return models.ErrMemoUnavailable
	}
	memo.ID = primitive.NewObjectID()
	s.memos[memo.Memo] = memo
	return nil
}

func (s *fakeOrderStore) FindMemo(ctx context.Context, memo string, buyerID primitive.ObjectID) (*models.PaymentMemo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.memos[memo]
	if !ok || issued.BuyerID != buyerID {
		return nil, models.ErrUnknownMemo
	}
	copied := *issued
	return &copied, nil
}

func (s *fakeOrderStore) ConsumeMemo(ctx context.Context, memo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.memos[memo]
	if !ok {
		return models.ErrUnknownMemo
	}
	now := time.Now()
	issued.ConsumedAt = &now
	return nil
}

type fakeGigStore struct {
	gigs map[primitive.ObjectID]*models.Gig
}

func (s *fakeGigStore) FindByID(ctx context.Context, gigID primitive.ObjectID) (*models.Gig, error) {
	gig, ok := s.gigs[gigID]
	if !ok {
		return nil, models.ErrGigNotFound
	}
	copied := *gig
	return &copied, nil
}

type fakeBalanceStore struct {
	mu       sync.Mutex
	pending  map[primitive.ObjectID]float64
	released map[primitive.ObjectID]float64
}

func newFakeBalanceStore() *fakeBalanceStore {
	return &fakeBalanceStore{
		pending:  make(map[primitive.ObjectID]float64),
		released: make(map[primitive.ObjectID]float64),
	}
}

func (s *fakeBalanceStore) CreditPendingEarnings(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] += amount
	return nil
}

func (s *fakeBalanceStore) ReleasePendingEarnings(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[userID] < amount {
		return models.ErrInsufficientBalance
	}
	s.pending[userID] -= amount
	s.released[userID] += amount
	return nil
}

// fakeOracle answers VerifyTransfer from a canned response.
type fakeOracle struct {
	proof *models.HiveTransaction
	err   error
	calls int
}

func (o *fakeOracle) VerifyTransfer(ctx context.Context, txID, expectedMemo string, expectedAmount float64, expectedDestination string) (*models.HiveTransaction, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	if o.proof != nil {
		return o.proof, nil
	}
	return &models.HiveTransaction{TxID: txID, BlockNum: 1000, Timestamp: time.Now()}, nil
}

func testGig(sellerID primitive.ObjectID, price float64) *models.Gig {
	return &models.Gig{
		ID:       primitive.NewObjectID(),
		SellerID: sellerID,
		Title:    "Logo design",
		Status:   "active",
		Packages: map[string]models.GigPackage{
			"basic":   {Title: "Basic", Price: price, DeliveryDays: 3, Active: true},
			"premium": {Title: "Premium", Price: price * 4, DeliveryDays: 7, Active: false},
		},
	}
}

func newOrderServiceForTest(gig *models.Gig, oracle ChainOracle) (*OrderService, *fakeOrderStore, *fakeBalanceStore, *fakeNotifier) {
	orders := newFakeOrderStore()
	balances := newFakeBalanceStore()
	notifier := &fakeNotifier{}
	gigs := &fakeGigStore{gigs: map[primitive.ObjectID]*models.Gig{gig.ID: gig}}
	svc := NewOrderService(orders, gigs, balances, oracle, notifier, "vyldo-escrow", "HBD")
	return svc, orders, balances, notifier
}

func TestCheckoutIssuesMemoAndQR(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeBuyer}
	gig := testGig(primitive.NewObjectID(), 2500)
	svc, orders, _, _ := newOrderServiceForTest(gig, &fakeOracle{})

	resp, err := svc.Checkout(context.Background(), buyer, &models.CheckoutRequest{
		GigID:       gig.ID.Hex(),
		PackageType: "basic",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Memo, "VYLDO-"))
	assert.Equal(t, "vyldo-escrow", resp.EscrowAccount)
	assert.Equal(t, 2500.0, resp.Amount)
	assert.Equal(t, "HBD", resp.Currency)
	assert.Equal(t, 200.0, resp.Fees.PlatformFee)
	assert.NotEmpty(t, resp.QRCode)

	issued, err := orders.FindMemo(context.Background(), resp.Memo, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, gig.ID, issued.GigID)
	assert.Nil(t, issued.ConsumedAt)
}

func TestCheckoutInactivePackage(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID()}
	gig := testGig(primitive.NewObjectID(), 2500)
	svc, _, _, _ := newOrderServiceForTest(gig, &fakeOracle{})

	_, err := svc.Checkout(context.Background(), buyer, &models.CheckoutRequest{
		GigID:       gig.ID.Hex(),
		PackageType: "premium",
	})
	assert.ErrorIs(t, err, models.ErrPackageUnavailable)
}

func checkoutAndSubmit(t *testing.T, svc *OrderService, buyer *models.User, gig *models.Gig, txID string) (*models.Order, error) {
	t.Helper()
	resp, err := svc.Checkout(context.Background(), buyer, &models.CheckoutRequest{
		GigID:       gig.ID.Hex(),
		PackageType: "basic",
	})
	require.NoError(t, err)

	return svc.CreateOrder(context.Background(), buyer, &models.CreateOrderRequest{
		GigID:        gig.ID.Hex(),
		PackageType:  "basic",
		Requirements: "Please use the attached brand colors",
		TxID:         txID,
		Memo:         resp.Memo,
	})
}

func TestCreateOrderSuccess(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeBuyer}
	sellerID := primitive.NewObjectID()
	gig := testGig(sellerID, 2500)
	svc, orders, balances, notifier := newOrderServiceForTest(gig, &fakeOracle{})

	order, err := checkoutAndSubmit(t, svc, buyer, gig, "abc123")
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, buyer.ID, order.BuyerID)
	assert.Equal(t, sellerID, order.SellerID)
	assert.Equal(t, 2500.0, order.Price)
	assert.Equal(t, 200.0, order.PlatformFee)
	assert.Equal(t, 2300.0, order.SellerEarnings)
	assert.Equal(t, 8.0, order.FeePercentage)
	assert.Equal(t, "abc123", order.PaymentTxID)
	assert.Equal(t, "abc123", order.PaymentProof.TxID)
	assert.Equal(t, int64(1000), order.PaymentProof.BlockNum)
	assert.False(t, order.PaymentVerifiedAt.IsZero())

	// Seller earnings land in pending, the memo is burned, and the seller
	// hears about it.
	assert.Equal(t, 2300.0, balances.pending[sellerID])
	issued, err := orders.FindMemo(context.Background(), order.PaymentMemo, buyer.ID)
	require.NoError(t, err)
	assert.NotNil(t, issued.ConsumedAt)
	assert.Equal(t, 1, notifier.countFor(sellerID, models.NotificationTypeOrderCreated))
}

func TestCreateOrderRecordsChainProof(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeBuyer}
	gig := testGig(primitive.NewObjectID(), 2500)
	chainTime := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	oracle := &fakeOracle{proof: &models.HiveTransaction{
		TxID:      "tx-proof",
		BlockNum:  87654321,
		Timestamp: chainTime,
	}}
	svc, orders, _, _ := newOrderServiceForTest(gig, oracle)

	order, err := checkoutAndSubmit(t, svc, buyer, gig, "tx-proof")
	require.NoError(t, err)

	// The block number and timestamp the oracle verified stay on the order.
	assert.Equal(t, "tx-proof", order.PaymentProof.TxID)
	assert.Equal(t, int64(87654321), order.PaymentProof.BlockNum)
	assert.Equal(t, chainTime, order.PaymentProof.Timestamp)

	stored, err := orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentProof, stored.PaymentProof)
}

func TestCreateOrderDuplicateTransaction(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID()}
	gig := testGig(primitive.NewObjectID(), 2500)
	svc, _, balances, _ := newOrderServiceForTest(gig, &fakeOracle{})

	_, err := checkoutAndSubmit(t, svc, buyer, gig, "tx-1")
	require.NoError(t, err)

	_, err = checkoutAndSubmit(t, svc, buyer, gig, "tx-1")
	assert.ErrorIs(t, err, models.ErrDuplicatePayment)

	// The seller is credited exactly once.
	assert.Equal(t, 2300.0, balances.pending[gig.SellerID])
}

func TestCreateOrderVerificationFailure(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID()}
	gig := testGig(primitive.NewObjectID(), 2500)
	oracle := &fakeOracle{err: models.ErrPaymentVerificationFailed}
	svc, orders, balances, _ := newOrderServiceForTest(gig, oracle)

	_, err := checkoutAndSubmit(t, svc, buyer, gig, "tx-bad")
	assert.ErrorIs(t, err, models.ErrPaymentVerificationFailed)

	// Nothing was persisted: no order, no credit, memo still live.
	assert.Empty(t, orders.orders)
	assert.Zero(t, balances.pending[gig.SellerID])
	for _, memo := range orders.memos {
		assert.Nil(t, memo.ConsumedAt)
	}
}

func TestCreateOrderOracleUnavailable(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID()}
	gig := testGig(primitive.NewObjectID(), 2500)
	svc, orders, _, _ := newOrderServiceForTest(gig, &fakeOracle{err: models.ErrOracleUnavailable})

	_, err := checkoutAndSubmit(t, svc, buyer, gig, "tx-2")
	assert.ErrorIs(t, err, models.ErrOracleUnavailable)
	assert.Empty(t, orders.orders)
}

func TestCreateOrderUnknownMemo(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID()}
	gig := testGig(primitive.NewObjectID(), 2500)
	oracle := &fakeOracle{}
	svc, _, _, _ := newOrderServiceForTest(gig, oracle)

	_, err := svc.CreateOrder(context.Background(), buyer, &models.CreateOrderRequest{
		GigID:        gig.ID.Hex(),
		PackageType:  "basic",
		Requirements: "anything",
		TxID:         "tx-3",
		Memo:         "VYLDO-ffffff-ffffff-000001",
	})
	assert.ErrorIs(t, err, models.ErrUnknownMemo)
	assert.Zero(t, oracle.calls)
}

func TestCreateOrderMemoForDifferentBuyer(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID()}
	other := &models.User{ID: primitive.NewObjectID()}
	gig := testGig(primitive.NewObjectID(), 2500)
	svc, _, _, _ := newOrderServiceForTest(gig, &fakeOracle{})

	resp, err := svc.Checkout(context.Background(), buyer, &models.CheckoutRequest{
		GigID:       gig.ID.Hex(),
		PackageType: "basic",
	})
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), other, &models.CreateOrderRequest{
		GigID:        gig.ID.Hex(),
		PackageType:  "basic",
		Requirements: "anything",
		TxID:         "tx-4",
		Memo:         resp.Memo,
	})
	assert.ErrorIs(t, err, models.ErrUnknownMemo)
}

func TestCreateOrderEmptyRequirements(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID()}
	gig := testGig(primitive.NewObjectID(), 2500)
	oracle := &fakeOracle{}
	svc, _, _, _ := newOrderServiceForTest(gig, oracle)

	_, err := svc.CreateOrder(context.Background(), buyer, &models.CreateOrderRequest{
		GigID:        gig.ID.Hex(),
		PackageType:  "basic",
		Requirements: "   ",
		TxID:         "tx-5",
		Memo:         "VYLDO-ffffff-ffffff-000001",
	})
	assert.ErrorIs(t, err, models.ErrInvalidRequirements)
	assert.Zero(t, oracle.calls)
}

func TestCreateOrderGigNotFound(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID()}
	gig := testGig(primitive.NewObjectID(), 2500)
	svc, _, _, _ := newOrderServiceForTest(gig, &fakeOracle{})

	_, err := svc.CreateOrder(context.Background(), buyer, &models.CreateOrderRequest{
		GigID:        primitive.NewObjectID().Hex(),
		PackageType:  "basic",
		Requirements: "anything",
		TxID:         "tx-6",
		Memo:         "VYLDO-ffffff-ffffff-000001",
	})
	assert.ErrorIs(t, err, models.ErrGigNotFound)
}

func TestGetOrderVisibility(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeBuyer}
	gig := testGig(primitive.NewObjectID(), 2500)
	svc, _, _, _ := newOrderServiceForTest(gig, &fakeOracle{})

	order, err := checkoutAndSubmit(t, svc, buyer, gig, "tx-7")
	require.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), buyer, order.ID)
	assert.NoError(t, err)

	seller := &models.User{ID: gig.SellerID, UserType: models.UserTypeSeller}
	_, err = svc.GetOrder(context.Background(), seller, order.ID)
	assert.NoError(t, err)

	stranger := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeBuyer}
	_, err = svc.GetOrder(context.Background(), stranger, order.ID)
	assert.ErrorIs(t, err, models.ErrNotPermitted)
}

func TestReleaseEarnings(t *testing.T) {
	buyer := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeBuyer}
	admin := &models.User{ID: primitive.NewObjectID(), UserType: models.UserTypeAdmin}
	gig := testGig(primitive.NewObjectID(), 2500)
	svc, _, balances, _ := newOrderServiceForTest(gig, &fakeOracle{})

	order, err := checkoutAndSubmit(t, svc, buyer, gig, "tx-8")
	require.NoError(t, err)

	// Only admins may release.
	_, err = svc.ReleaseEarnings(context.Background(), buyer, order.ID)
	assert.ErrorIs(t, err, models.ErrNotPermitted)

	released, err := svc.ReleaseEarnings(context.Background(), admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, released.Status)
	assert.Equal(t, 2300.0, balances.released[gig.SellerID])
	assert.Zero(t, balances.pending[gig.SellerID])

	// A second release hits the status CAS and fails without moving money.
	_, err = svc.ReleaseEarnings(context.Background(), admin, order.ID)
	assert.ErrorIs(t, err, models.ErrOrderNotPaid)
	assert.Equal(t, 2300.0, balances.released[gig.SellerID])
}
