// models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. Orders only exist once payment is verified, so there is no
// pending-payment status.
const (
	OrderStatusPaid      = "paid"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// FeeBreakdown is the platform's cut of a package price.
type FeeBreakdown struct {
	Price          float64 `json:"price"`
	PlatformFee    float64 `json:"platformFee"`
	SellerEarnings float64 `json:"sellerEarnings"`
	FeePercentage  float64 `json:"feePercentage"`
}

// Order model. Price and the fee split are snapshotted at creation and never
// recomputed.
type Order struct {
	ID                primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	BuyerID           primitive.ObjectID  `json:"buyerId" bson:"buyerId"`
	SellerID          primitive.ObjectID  `json:"sellerId" bson:"sellerId"`
	GigID             primitive.ObjectID  `json:"gigId" bson:"gigId"`
	GigTitle          string              `json:"gigTitle" bson:"gigTitle"`
	PackageType       string              `json:"packageType" bson:"packageType"`
	Requirements      string              `json:"requirements" bson:"requirements"`
	RequirementImages []string            `json:"requirementImages,omitempty" bson:"requirementImages,omitempty"`
	Price             float64             `json:"price" bson:"price"`
	PlatformFee       float64             `json:"platformFee" bson:"platformFee"`
	SellerEarnings    float64             `json:"sellerEarnings" bson:"sellerEarnings"`
	FeePercentage     float64             `json:"feePercentage" bson:"feePercentage"`
	PaymentMemo       string              `json:"paymentMemo" bson:"paymentMemo"`
	PaymentTxID       string              `json:"paymentTxId" bson:"paymentTxId"`
	PaymentProof      HiveTransaction     `json:"paymentProof" bson:"paymentProof"`
	PaymentVerifiedAt time.Time           `json:"paymentVerifiedAt" bson:"paymentVerifiedAt"`
	Status            string              `json:"status" bson:"status"`
	DeliveryDue       time.Time           `json:"deliveryDue" bson:"deliveryDue"`
	CompletedAt       *time.Time          `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	ReleasedBy        *primitive.ObjectID `json:"releasedBy,omitempty" bson:"releasedBy,omitempty"`
	CreatedAt         time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// PaymentMemo records a memo issued at checkout. Issuance is a discrete,
// logged event so a submitted transaction can always be traced back to the
// checkout that produced its memo. ConsumedAt is set when an order is created
// against the memo.
type PaymentMemo struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Memo          string             `json:"memo" bson:"memo"`
	GigID         primitive.ObjectID `json:"gigId" bson:"gigId"`
	BuyerID       primitive.ObjectID `json:"buyerId" bson:"buyerId"`
	PackageType   string             `json:"packageType" bson:"packageType"`
	QuotedPrice   float64            `json:"quotedPrice" bson:"quotedPrice"`
	EscrowAccount string             `json:"escrowAccount" bson:"escrowAccount"`
	ConsumedAt    *time.Time         `json:"consumedAt,omitempty" bson:"consumedAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// CheckoutRequest asks for a fresh payment memo for a gig package.
type CheckoutRequest struct {
	GigID       string `json:"gigId" validate:"required"`
	PackageType string `json:"packageType" validate:"required,oneof=basic standard premium"`
}

// CheckoutResponse carries everything the buyer needs to pay: the escrow
// account, the exact amount, the memo, and a QR code encoding the transfer.
type CheckoutResponse struct {
	Memo          string       `json:"memo"`
	EscrowAccount string       `json:"escrowAccount"`
	Amount        float64      `json:"amount"`
	Currency      string       `json:"currency"`
	Fees          FeeBreakdown `json:"fees"`
	QRCode        string       `json:"qrCode"` // base64 PNG
}

// CreateOrderRequest is the buyer's order submission after paying on chain.
type CreateOrderRequest struct {
	GigID             string   `json:"gigId" validate:"required"`
	PackageType       string   `json:"packageType" validate:"required,oneof=basic standard premium"`
	Requirements      string   `json:"requirements"`
	RequirementImages []string `json:"requirementImages"`
	TxID              string   `json:"txId" validate:"required"`
	Memo              string   `json:"memo" validate:"required"`
}
