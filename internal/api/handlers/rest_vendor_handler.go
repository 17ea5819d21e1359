package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sarkuru13/homestay/internal/api/middleware"
	"github.com/sarkuru13/homestay/internal/config"
	"github.com/sarkuru13/homestay/internal/models"
	"github.com/sarkuru13/homestay/internal/services"
	"github.com/sarkuru13/homestay/internal/storage"
	"github.com/sarkuru13/homestay/internal/tasks"
)

// IAsynqClient abstracts the task client for easier mocking than the
// concrete asynq.Client.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RestVendorHandler handles authenticated vendor REST requests.
type RestVendorHandler struct {
	cfg                  *config.Config
	vendorService        services.IVendorService
	accommodationService services.IAccommodationService
	storageService       storage.IS3Storage
	taskClient           IAsynqClient
}

// NewRestVendorHandler creates a new RestVendorHandler.
func NewRestVendorHandler(
	cfg *config.Config,
	vendorService services.IVendorService,
	accommodationService services.IAccommodationService,
	storageService storage.IS3Storage,
	taskClient IAsynqClient,
) *RestVendorHandler {
	return &RestVendorHandler{
		cfg:                  cfg,
		vendorService:        vendorService,
		accommodationService: accommodationService,
		storageService:       storageService,
		taskClient:           taskClient,
	}
}

// currentVendor resolves the vendor profile for the authenticated identity.
// Writes the error response itself and returns nil when resolution fails.
func (h *RestVendorHandler) currentVendor(c *gin.Context) *models.Vendor {
	email := c.GetString(middleware.ContextKeyEmail)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil
	}
	vendor, err := h.vendorService.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No vendor profile for this account"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve vendor profile"})
		}
		return nil
	}
	return vendor
}

type registerVendorRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// RegisterVendor handles POST /v1/vendor
//
// The email comes from the verified token, not the request body, so a
// vendor profile is always bound to the identity that created it.
func (h *RestVendorHandler) RegisterVendor(c *gin.Context) {
	var req registerVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	email := c.GetString(middleware.ContextKeyEmail)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	vendor, err := h.vendorService.Register(c.Request.Context(), &models.Vendor{
		Email: email,
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		if errors.Is(err, services.ErrVendorExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register vendor"})
		}
		return
	}

	c.JSON(http.StatusCreated, vendor)
}

// GetMe handles GET /v1/vendor/me
func (h *RestVendorHandler) GetMe(c *gin.Context) {
	vendor := h.currentVendor(c)
	if vendor == nil {
		return
	}
	c.JSON(http.StatusOK, vendor)
}

// ListMyAccommodations handles GET /v1/vendor/me/accommodations
func (h *RestVendorHandler) ListMyAccommodations(c *gin.Context) {
	vendor := h.currentVendor(c)
	if vendor == nil {
		return
	}

	accommodations, err := h.accommodationService.FindByVendorID(c.Request.Context(), vendor.ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accommodations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accommodations})
}

type accommodationRequest struct {
	Name              string   `json:"name" binding:"required"`
	Type              string   `json:"type" binding:"required"`
	Location          string   `json:"location" binding:"required"`
	ExactAddress      string   `json:"exact_address" binding:"required"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	MaxCapacity       int      `json:"max_capacity" binding:"required"`
	BreakfastIncluded bool     `json:"breakfast_included"`
	LunchIncluded     bool     `json:"lunch_included"`
	DinnerIncluded    bool     `json:"dinner_included"`
	PricePerNight     float64  `json:"price_per_night"`
	ContactNumber     string   `json:"contact_number" binding:"required"`
	Description       string   `json:"description"`
}

// CreateAccommodation handles POST /v1/vendor/accommodation
//
// New listings always start unverified regardless of the request body; a
// rejected vendor cannot create listings at all.
func (h *RestVendorHandler) CreateAccommodation(c *gin.Context) {
	vendor := h.currentVendor(c)
	if vendor == nil {
		return
	}
	if vendor.Status == models.VendorRejected {
		c.JSON(http.StatusForbidden, gin.H{"error": "Rejected vendors cannot create listings"})
		return
	}

	var req accommodationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
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
		VendorID:          vendor.ID,
		IsVerified:        false,
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

// UpdateAccommodation handles PATCH /v1/vendor/accommodation/:id
func (h *RestVendorHandler) UpdateAccommodation(c *gin.Context) {
	vendor := h.currentVendor(c)
	if vendor == nil {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation ID format"})
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	updated, err := h.accommodationService.Update(c.Request.Context(), id, &vendor.ID, updates)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Accommodation not found"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteAccommodation handles DELETE /v1/vendor/accommodation/:id
func (h *RestVendorHandler) DeleteAccommodation(c *gin.Context) {
	vendor := h.currentVendor(c)
	if vendor == nil {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation ID format"})
		return
	}

	deleted, err := h.accommodationService.Delete(c.Request.Context(), id, &vendor.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Accommodation not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete accommodation"})
		}
		return
	}

	h.enqueueCleanupSweep(c)

	c.JSON(http.StatusOK, gin.H{"deleted": deleted.ID.Hex()})
}

type presignImageRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignImageUpload handles POST /v1/vendor/accommodation/:id/image/presign
func (h *RestVendorHandler) PresignImageUpload(c *gin.Context) {
	vendor := h.currentVendor(c)
	if vendor == nil {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation ID format"})
		return
	}
	if !h.ownsAccommodation(c, id, vendor.ID) {
		return
	}

	var req presignImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content type must be an image"})
		return
	}

	url, key, err := h.storageService.GeneratePresignedPutURL(
		c.Request.Context(), vendor.ID.Hex(), id.Hex(), req.Filename, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"upload_url": url, "object_key": key})
}

type attachImageRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

// AttachImage handles POST /v1/vendor/accommodation/:id/image/attach
//
// The uploaded object is normalized by the image worker, which attaches the
// key to the listing once processing succeeds.
func (h *RestVendorHandler) AttachImage(c *gin.Context) {
	vendor := h.currentVendor(c)
	if vendor == nil {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation ID format"})
		return
	}
	if !h.ownsAccommodation(c, id, vendor.ID) {
		return
	}

	var req attachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	// The key must have been presigned for this vendor and listing
	expectedPrefix := fmt.Sprintf("accommodations/%s/%s/", vendor.ID.Hex(), id.Hex())
	if !strings.HasPrefix(req.ObjectKey, expectedPrefix) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Object key does not belong to this accommodation"})
		return
	}

	payload, err := tasks.NewImageProcessTask(req.ObjectKey, id)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule image processing"})
		return
	}
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), payload, asynq.Queue("images"), asynq.MaxRetry(5)); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule image processing"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "processing"})
}

type removeImageRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

// RemoveImage handles DELETE /v1/vendor/accommodation/:id/image
//
// Detaches the key from the listing; the stored object is reclaimed by the
// next cleanup sweep.
func (h *RestVendorHandler) RemoveImage(c *gin.Context) {
	vendor := h.currentVendor(c)
	if vendor == nil {
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation ID format"})
		return
	}

	var req removeImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	// Clients may send either the stored key or the public URL they were served
	key := h.storageService.KeyFromURL(req.ObjectKey)

	err = h.accommodationService.RemoveImage(c.Request.Context(), id, &vendor.ID, key)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Accommodation not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove image"})
		}
		return
	}

	h.enqueueCleanupSweep(c)

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// ownsAccommodation verifies the accommodation exists and belongs to the
// vendor, writing the error response itself on failure.
func (h *RestVendorHandler) ownsAccommodation(c *gin.Context, id, vendorID primitive.ObjectID) bool {
	accommodation, err := h.accommodationService.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Accommodation not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve accommodation"})
		}
		return false
	}
	if accommodation.VendorID != vendorID {
		// Not-found rather than forbidden: don't reveal other vendors' IDs
		c.JSON(http.StatusNotFound, gin.H{"error": "Accommodation not found"})
		return false
	}
	return true
}

// enqueueCleanupSweep schedules a one-off orphan sweep. Failures are logged
// only: the periodic sweep will reclaim the objects regardless.
func (h *RestVendorHandler) enqueueCleanupSweep(c *gin.Context) {
	task, err := tasks.NewImageCleanupTask(false)
	if err == nil {
		_, err = h.taskClient.EnqueueContext(c.Request.Context(), task, asynq.Queue("low"))
	}
	if err != nil {
		log.Printf("Failed to enqueue image cleanup sweep: %v", err)
	}
}
