// controllers/gig_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vyldo/vyldo_backend/models"
	"github.com/vyldo/vyldo_backend/repositories"
)

// GigController handles gig listing management for sellers
type GigController struct {
	gigs  *repositories.GigRepository
	users *repositories.UserRepository
}

// NewGigController creates a new gig controller
func NewGigController(gigs *repositories.GigRepository, users *repositories.UserRepository) *GigController {
	return &GigController{gigs: gigs, users: users}
}

// CreateGig publishes a new gig for the authenticated seller
func (c *GigController) CreateGig(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if user.UserType != models.UserTypeSeller {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only sellers can create gigs",
		})
	}

	var req models.CreateGigRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := ctx.Validate(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	for tier, pkg := range req.Packages {
		if tier != "basic" && tier != "standard" && tier != "premium" {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Package tier must be basic, standard or premium",
			})
		}
		if pkg.Price <= 0 {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Package price must be positive",
			})
		}
	}

	now := time.Now()
	gig := models.Gig{
		SellerID:    user.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Tags:        req.Tags,
		Images:      req.Images,
		Packages:    req.Packages,
		Status:      "active",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.gigs.Insert(context.Background(), &gig); err != nil {
		log.Printf("Failed to insert gig: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create gig",
		})
	}

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Gig created successfully",
		Data:    gig,
	})
}

// GetGig returns a single gig by ID
func (c *GigController) GetGig(ctx echo.Context) error {
	gigID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid gig ID",
		})
	}

	gig, err := c.gigs.FindByID(context.Background(), gigID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Gig retrieved successfully",
		Data:    gig,
	})
}

// ListMyGigs returns the authenticated seller's gigs
func (c *GigController) ListMyGigs(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	gigs, err := c.gigs.FindBySeller(context.Background(), user.ID)
	if err != nil {
		log.Printf("Failed to list gigs for seller %s: %v", user.ID.Hex(), err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve gigs",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Gigs retrieved successfully",
		Data:    gigs,
	})
}
