package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sarkuru13/homestay/internal/config"
	"github.com/sarkuru13/homestay/internal/models"
	"github.com/sarkuru13/homestay/internal/services"
	"github.com/sarkuru13/homestay/internal/tasks"
)

// AdminHandler handles the admin console REST endpoints. All routes are
// behind AuthMiddleware plus AdminMiddleware.
type AdminHandler struct {
	cfg                  *config.Config
	vendorService        services.IVendorService
	accommodationService services.IAccommodationService
	bookingService       services.IBookingService
	taskClient           IAsynqClient
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	cfg *config.Config,
	vendorService services.IVendorService,
	accommodationService services.IAccommodationService,
	bookingService services.IBookingService,
	taskClient IAsynqClient,
) *AdminHandler {
	return &AdminHandler{
		cfg:                  cfg,
		vendorService:        vendorService,
		accommodationService: accommodationService,
		bookingService:       bookingService,
		taskClient:           taskClient,
	}
}

// ListVendors handles GET /v1/admin/vendors
func (h *AdminHandler) ListVendors(c *gin.Context) {
	vendors, err := h.vendorService.FindAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vendors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vendors})
}

type vendorStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateVendorStatus handles PUT /v1/admin/vendor/:id/status
func (h *AdminHandler) UpdateVendorStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor ID format"})
		return
	}

	var req vendorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	updated, err := h.vendorService.UpdateStatus(c.Request.Context(), id, models.VendorStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadVendorStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrVendorFinalStatus):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vendor status"})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// ListAccommodations handles GET /v1/admin/accommodations
func (h *AdminHandler) ListAccommodations(c *gin.Context) {
	accommodations, err := h.accommodationService.FindAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accommodations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accommodations})
}

type verifyAccommodationRequest struct {
	IsVerified *bool `json:"is_verified" binding:"required"`
}

// VerifyAccommodation handles PUT /v1/admin/accommodation/:id/verify
func (h *AdminHandler) VerifyAccommodation(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation ID format"})
		return
	}

	var req verifyAccommodationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	updated, err := h.accommodationService.SetVerified(c.Request.Context(), id, *req.IsVerified)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Accommodation not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update verification"})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

type adminAccommodationRequest struct {
	accommodationRequest
	VendorID   string `json:"vendor_id" binding:"required"`
	IsVerified bool   `json:"is_verified"`
}

// CreateAccommodation handles POST /v1/admin/accommodation
//
// Admins list on behalf of a vendor and may pre-verify in one step.
func (h *AdminHandler) CreateAccommodation(c *gin.Context) {
	var req adminAccommodationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	vendorID, err := primitive.ObjectIDFromHex(req.VendorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor ID format"})
		return
	}
	if _, err := h.vendorService.FindByID(c.Request.Context(), vendorID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve vendor"})
		}
		return
	}

	created, err := h.accommodationService.Create(c.Request.Context(), &models.Accommodation{
		Name:              req.Name,
		Type:              models.AccommodationType(req.Type),
		Location:          req.Location,
		ExactAddress:      req.ExactAddress,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		MaxCapacity:       req.MaxCapacity,
		BreakfastIncluded: req.BreakfastIncluded,
		LunchIncluded:     req.LunchIncluded,
		DinnerIncluded:    req.DinnerIncluded,
		PricePerNight:     req.PricePerNight,
		ContactNumber:     req.ContactNumber,
		Description:       req.Description,
		VendorID:          vendorID,
		IsVerified:        req.IsVerified,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields),
			errors.Is(err, services.ErrBadType),
			errors.Is(err, services.ErrBadCapacity),
			errors.Is(err, services.ErrBadPrice):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create accommodation"})
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// DeleteAccommodation handles DELETE /v1/admin/accommodation/:id
func (h *AdminHandler) DeleteAccommodation(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation ID format"})
		return
	}

	deleted, err := h.accommodationService.Delete(c.Request.Context(), id, nil)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Accommodation not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete accommodation"})
		}
		return
	}

	if task, terr := tasks.NewImageCleanupTask(false); terr == nil {
		if _, terr = h.taskClient.EnqueueContext(c.Request.Context(), task, asynq.Queue("low")); terr != nil {
			log.Printf("Failed to enqueue image cleanup sweep: %v", terr)
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted.ID.Hex()})
}

// ListBookings handles GET /v1/admin/bookings
func (h *AdminHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookingService.FindAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bookings})
}

type bookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateBookingStatus handles PUT /v1/admin/booking/:id/status
func (h *AdminHandler) UpdateBookingStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	var req bookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	updated, err := h.bookingService.UpdateStatus(c.Request.Context(), id, models.BookingStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadBookingStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrBookingFinalStatus):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update booking status"})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}
