// models/gig.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Package types
const (
	PackageBasic    = "basic"
	PackageStandard = "standard"
	PackagePremium  = "premium"
)

// GigPackage is one of the three price tiers offered on a gig.
type GigPackage struct {
	Title        string   `json:"title" bson:"title"`
	Description  string   `json:"description,omitempty" bson:"description,omitempty"`
	Price        float64  `json:"price" bson:"price"`
	DeliveryDays int      `json:"deliveryDays" bson:"deliveryDays"`
	Revisions    int      `json:"revisions" bson:"revisions"`
	Features     []string `json:"features,omitempty" bson:"features,omitempty"`
	Active       bool     `json:"active" bson:"active"`
}

// Gig model
type Gig struct {
	ID          primitive.ObjectID    `json:"id,omitempty" bson:"_id,omitempty"`
	SellerID    primitive.ObjectID    `json:"sellerId" bson:"sellerId"`
	Title       string                `json:"title" bson:"title"`
	Description string                `json:"description" bson:"description"`
	Category    string                `json:"category" bson:"category"`
	SubCategory string                `json:"subCategory,omitempty" bson:"subCategory,omitempty"`
	Tags        []string              `json:"tags,omitempty" bson:"tags,omitempty"`
	Images      []string              `json:"images,omitempty" bson:"images,omitempty"`
	Packages    map[string]GigPackage `json:"packages" bson:"packages"` // keyed by package type
	Status      string                `json:"status" bson:"status"`     // "active", "paused", "deleted"
	CreatedAt   time.Time             `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt" bson:"updatedAt"`
}

// Package returns the named package if it exists and is active.
func (g *Gig) Package(packageType string) (GigPackage, bool) {
	pkg, ok := g.Packages[packageType]
	if !ok || !pkg.Active {
		return GigPackage{}, false
	}
	return pkg, true
}

// CreateGigRequest is the seller-facing payload for creating a gig.
type CreateGigRequest struct {
	Title       string                `json:"title" validate:"required"`
	Description string                `json:"description" validate:"required"`
	Category    string                `json:"category" validate:"required"`
	SubCategory string                `json:"subCategory"`
	Tags        []string              `json:"tags"`
	Images      []string              `json:"images"`
	Packages    map[string]GigPackage `json:"packages" validate:"required"`
}
