package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sarkuru13/homestay/internal/models"
	"github.com/sarkuru13/homestay/internal/services"
	"github.com/sarkuru13/homestay/internal/storage"
)

// RestAccommodationHandler handles public REST requests for accommodations.
type RestAccommodationHandler struct {
	accommodationService services.IAccommodationService
	storageService       storage.IS3Storage
}

// NewRestAccommodationHandler creates a new RestAccommodationHandler.
func NewRestAccommodationHandler(accommodationService services.IAccommodationService, storageService storage.IS3Storage) *RestAccommodationHandler {
	return &RestAccommodationHandler{
		accommodationService: accommodationService,
		storageService:       storageService,
	}
}

// withImageURLs swaps the stored object keys on a public view for
// dereferenceable URLs.
func withImageURLs(storageService storage.IS3Storage, a *models.Accommodation) *models.Accommodation {
	if a == nil {
		return nil
	}
	for i, key := range a.Images {
		a.Images[i] = storageService.PublicURL(key)
	}
	return a
}

// SearchAccommodations handles GET /v1/accommodation/search
func (h *RestAccommodationHandler) SearchAccommodations(c *gin.Context) {
	filters := models.SearchFilters{
		Location: c.Query("location"),
		Type:     models.AccommodationType(c.Query("type")),
	}
	if filters.Type != "" && !models.ValidAccommodationType(filters.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation type"})
		return
	}
	if capStr := c.Query("maxCapacity"); capStr != "" {
		capacity, err := strconv.Atoi(capStr)
		if err != nil || capacity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maxCapacity"})
			return
		}
		filters.MaxCapacity = capacity
	}
	// Meal flags narrow the result only when explicitly set to true
	filters.BreakfastIncluded = c.Query("breakfastIncluded") == "true"
	filters.LunchIncluded = c.Query("lunchIncluded") == "true"
	filters.DinnerIncluded = c.Query("dinnerIncluded") == "true"

	results, err := h.accommodationService.Search(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search accommodations"})
		return
	}
	for i := range results {
		withImageURLs(h.storageService, &results[i])
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

// GetAccommodationByID handles GET /v1/accommodation/:id
func (h *RestAccommodationHandler) GetAccommodationByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid accommodation ID format"})
		return
	}

	accommodation, err := h.accommodationService.FindPublicByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Accommodation not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve accommodation"})
		}
		return
	}

	c.JSON(http.StatusOK, withImageURLs(h.storageService, accommodation))
}
