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

// OrderStore is the persistence surface the order service needs. Implemented
// by repositories.OrderRepository.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error)
	FindByTxID(ctx context.Context, txID string) (*models.Order, error)
	FindForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	MarkCompleted(ctx context.Context, orderID, releasedBy primitive.ObjectID) (*models.Order, error)
	InsertMemo(ctx context.Context, memo *models.PaymentMemo) error
	FindMemo(ctx context.Context, memo string, buyerID primitive.ObjectID) (*models.PaymentMemo, error)
	ConsumeMemo(ctx context.Context, memo string) error
}

// GigStore resolves gigs for order intake.
type GigStore interface {
	FindByID(ctx context.Context, gigID primitive.ObjectID) (*models.Gig, error)
}

// BalanceStore moves seller earnings between pending and available.
type BalanceStore interface {
	CreditPendingEarnings(ctx context.Context, userID primitive.ObjectID, amount float64) error
	ReleasePendingEarnings(ctx context.Context, userID primitive.ObjectID, amount float64) error
}

// Notifier delivers in-app and push notifications. Nil-safe stubs are used
// in tests.
type Notifier interface {
	Notify(userID primitive.ObjectID, notifType, title, message string, data interface{})
}

// OrderService implements checkout memo issuance and verified order intake.
type OrderService struct {
	orders        OrderStore
	gigs          GigStore
	balances      BalanceStore
	oracle        ChainOracle
	notifier      Notifier
	escrowAccount string
	currency      string
}

func NewOrderService(orders OrderStore, gigs GigStore, balances BalanceStore, oracle ChainOracle, notifier Notifier, escrowAccount, currency string) *OrderService {
	return &OrderService{
		orders:        orders,
		gigs:          gigs,
		balances:      balances,
		oracle:        oracle,
		notifier:      notifier,
		escrowAccount: escrowAccount,
		currency:      currency,
	}
}

// FeeQuote returns the fee breakdown for a price.
func (s *OrderService) FeeQuote(price float64) (models.FeeBreakdown, error) {
	return utils.ComputeFee(price)
}

// Checkout issues a fresh payment memo for a gig package and records the
// issuance. Each call produces a new memo; earlier unconsumed memos stay
// valid until an order is created against them.
func (s *OrderService) Checkout(ctx context.Context, buyer *models.User, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	gigID, err := primitive.ObjectIDFromHex(req.GigID)
	if err != nil {
		return nil, models.NewValidationError("invalid gig id")
	}

	gig, err := s.gigs.FindByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	pkg, ok := gig.Package(req.PackageType)
	if !ok {
		return nil, models.ErrPackageUnavailable
	}

	fees, err := utils.ComputeFee(pkg.Price)
	if err != nil {
		return nil, err
	}

	// Memo collisions are possible within the same millisecond; retry with a
	// fresh timestamp a couple of times before giving up.
	var issued *models.PaymentMemo
	for attempt := 0; attempt < 3; attempt++ {
		memo := utils.GenerateMemo(gig.ID.Hex(), buyer.ID.Hex(), time.Now())
		issued = &models.PaymentMemo{
			Memo:          memo,
			GigID:         gig.ID,
			BuyerID:       buyer.ID,
			PackageType:   req.PackageType,
			QuotedPrice:   pkg.Price,
			EscrowAccount: s.escrowAccount,
			CreatedAt:     time.Now(),
		}
		err = s.orders.InsertMemo(ctx, issued)
		if err == nil {
			break
		}
		if err != models.ErrMemoUnavailable {
			return nil, err
		}
		time.Sleep(time.Millisecond)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Issued payment memo %s for gig %s buyer %s", issued.Memo, gig.ID.Hex(), buyer.ID.Hex())

	qrCode, err := utils.GeneratePaymentQR(s.escrowAccount, pkg.Price, s.currency, issued.Memo)
	if err != nil {
		return nil, err
	}

	return &models.CheckoutResponse{
		Memo:          issued.Memo,
		EscrowAccount: s.escrowAccount,
		Amount:        pkg.Price,
		Currency:      s.currency,
		Fees:          fees,
		QRCode:        qrCode,
	}, nil
}

// CreateOrder validates the submission, verifies the payment on chain and
// creates the order in a single insert-if-absent write. Nothing is persisted
// on any failure path: a submission either fully succeeds or fully fails and
// the buyer may retry.
func (s *OrderService) CreateOrder(ctx context.Context, buyer *models.User, req *models.CreateOrderRequest) (*models.Order, error) {
	gigID, err := primitive.ObjectIDFromHex(req.GigID)
	if err != nil {
		return nil, models.NewValidationError("invalid gig id")
	}

	gig, err := s.gigs.FindByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	pkg, ok := gig.Package(req.PackageType)
	if !ok {
		return nil, models.ErrPackageUnavailable
	}

	if strings.TrimSpace(req.Requirements) == "" {
		return nil, models.ErrInvalidRequirements
	}

	issued, err := s.orders.FindMemo(ctx, req.Memo, buyer.ID)
	if err != nil {
		return nil, err
	}
	if issued.GigID != gig.ID {
		return nil, models.NewValidationError("payment memo was issued for a different gig")
	}

	// Fail fast on an obvious replay before paying for an oracle round trip.
	// The unique index on the insert below remains the real guard.
	if _, err := s.orders.FindByTxID(ctx, req.TxID); err == nil {
		return nil, models.ErrDuplicatePayment
	} else if err != models.ErrOrderNotFound {
		return nil, err
	}

	// Price is read from the package at submission time. If the listing
	// changed since checkout the charged amount follows the listing, and
	// verification runs against the current price.
	fees, err := utils.ComputeFee(pkg.Price)
	if err != nil {
		return nil, err
	}

	proof, err := s.oracle.VerifyTransfer(ctx, req.TxID, req.Memo, pkg.Price, s.escrowAccount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		BuyerID:           buyer.ID,
		SellerID:          gig.SellerID,
		GigID:             gig.ID,
		GigTitle:          gig.Title,
		PackageType:       req.PackageType,
		Requirements:      utils.SanitizeInput(req.Requirements),
		RequirementImages: utils.SanitizeStringArray(req.RequirementImages),
		Price:             pkg.Price,
		PlatformFee:       fees.PlatformFee,
		SellerEarnings:    fees.SellerEarnings,
		FeePercentage:     fees.FeePercentage,
		PaymentMemo:       req.Memo,
		PaymentTxID:       req.TxID,
		PaymentProof:      *proof,
		PaymentVerifiedAt: now,
		Status:            models.OrderStatusPaid,
		DeliveryDue:       now.AddDate(0, 0, pkg.DeliveryDays),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	if err := s.orders.ConsumeMemo(ctx, req.Memo); err != nil {
		log.Printf("Failed to mark memo %s consumed: %v", req.Memo, err)
	}
	if err := s.balances.CreditPendingEarnings(ctx, gig.SellerID, order.SellerEarnings); err != nil {
		log.Printf("Failed to credit pending earnings for order %s: %v", order.ID.Hex(), err)
	}

	if s.notifier != nil {
		s.notifier.Notify(gig.SellerID, models.NotificationTypeOrderCreated,
			"New order", "You received a new order for "+gig.Title,
			map[string]interface{}{"orderId": order.ID.Hex()})
	}

	log.Printf("Order %s created: gig %s buyer %s tx %s", order.ID.Hex(), gig.ID.Hex(), buyer.ID.Hex(), req.TxID)
	return order, nil
}

// GetOrder returns an order visible to the actor (buyer, seller or staff).
func (s *OrderService) GetOrder(ctx context.Context, actor *models.User, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actor.ID && order.SellerID != actor.ID && !actor.IsStaff() {
		return nil, models.ErrNotPermitted
	}
	return order, nil
}

// ListOrders returns the actor's orders, as buyer or seller.
func (s *OrderService) ListOrders(ctx context.Context, actor *models.User) ([]models.Order, error) {
	return s.orders.FindForUser(ctx, actor.ID)
}

// ReleaseEarnings completes a paid order and moves its seller earnings from
// pending to available. Admin-only; the status CAS prevents double release.
func (s *OrderService) ReleaseEarnings(ctx context.Context, actor *models.User, orderID primitive.ObjectID) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrNotPermitted
	}

	order, err := s.orders.MarkCompleted(ctx, orderID, actor.ID)
	if err != nil {
		return nil, err
	}

	if err := s.balances.ReleasePendingEarnings(ctx, order.SellerID, order.SellerEarnings); err != nil {
		log.Printf("Failed to release earnings for order %s: %v", order.ID.Hex(), err)
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(order.SellerID, models.NotificationTypeEarningsReleased,
			"Earnings released", "Funds for your order are now available for withdrawal",
			map[string]interface{}{"orderId": order.ID.Hex(), "amount": order.SellerEarnings})
	}

	return order, nil
}
