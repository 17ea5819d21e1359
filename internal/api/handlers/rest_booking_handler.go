package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sarkuru13/homestay/internal/models"
	"github.com/sarkuru13/homestay/internal/services"
	"github.com/sarkuru13/homestay/internal/storage"
)

// RestBookingHandler handles public REST requests for bookings.
type RestBookingHandler struct {
	bookingService services.IBookingService
	storageService storage.IS3Storage
}

// NewRestBookingHandler creates a new RestBookingHandler.
func NewRestBookingHandler(bookingService services.IBookingService, storageService storage.IS3Storage) *RestBookingHandler {
	return &RestBookingHandler{
		bookingService: bookingService,
		storageService: storageService,
	}
}

// createBookingRequest is the public booking payload. No total field: the
// amount is always computed server-side from the stored nightly price.
type createBookingRequest struct {
	AccommodationID string `json:"accommodation_id" binding:"required"`
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerEmail   string `json:"customer_email" binding:"required,email"`
	CustomerPhone   string `json:"customer_phone" binding:"required"`
	CheckInDate     string `json:"check_in_date" binding:"required"`
	CheckOutDate    string `json:"check_out_date" binding:"required"`
	GuestsCount     int    `json:"guests_count" binding:"required"`
}

// CreateBooking handles POST /v1/booking
func (h *RestBookingHandler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	accommodationID, err := primitive.ObjectIDFromHex(req.AccommodationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation ID format"})
		return
	}

	booking := &models.Booking{
		AccommodationID: accommodationID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CheckInDate:     req.CheckInDate,
		CheckOutDate:    req.CheckOutDate,
		GuestsCount:     req.GuestsCount,
	}

	created, err := h.bookingService.Create(c.Request.Context(), booking)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotBookable):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrBadDateFormat),
			errors.Is(err, services.ErrBadBookingDates),
			errors.Is(err, services.ErrPastCheckIn),
			errors.Is(err, services.ErrBadGuestCount):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetBookingByReference handles GET /v1/booking/:reference
//
// Pending and cancelled bookings resolve exactly like unknown references,
// so holding a reference discloses nothing until an admin confirms.
func (h *RestBookingHandler) GetBookingByReference(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Booking reference required"})
		return
	}

	details, err := h.bookingService.FindDetailsByReference(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve booking"})
		}
		return
	}

	details.Accommodation = withImageURLs(h.storageService, details.Accommodation)

	c.JSON(http.StatusOK, details)
}
