package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sarkuru13/homestay/internal/api/handlers"
	"github.com/sarkuru13/homestay/internal/models"
)

func setupAccommodationRouter(svc *MockAccommodationService, store *MockS3Storage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewRestAccommodationHandler(svc, store)
	r.GET("/v1/accommodation/search", h.SearchAccommodations)
	r.GET("/v1/accommodation/:id", h.GetAccommodationByID)
	return r
}

func TestSearchAccommodations_FilterParsing(t *testing.T) {
	mockSvc := new(MockAccommodationService)
	mockStore := new(MockS3Storage)
	router := setupAccommodationRouter(mockSvc, mockStore)

	expectedFilters := models.SearchFilters{
		Location:          "Diphu",
		Type:              models.TypeHomestay,
		MaxCapacity:       4,
		BreakfastIncluded: true,
		DinnerIncluded:    true,
	}
	mockSvc.On("Search", mock.Anything, expectedFilters).Return([]models.Accommodation{
		{Name: "Hillview Homestay"},
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/accommodation/search?location=Diphu&type=homestay&maxCapacity=4&breakfastIncluded=true&dinnerIncluded=true&lunchIncluded=false", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []models.Accommodation `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	mockSvc.AssertExpectations(t)
}

func TestSearchAccommodations_NoFilters(t *testing.T) {
	mockSvc := new(MockAccommodationService)
	mockStore := new(MockS3Storage)
	router := setupAccommodationRouter(mockSvc, mockStore)

	mockSvc.On("Search", mock.Anything, models.SearchFilters{}).Return([]models.Accommodation{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/accommodation/search", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestSearchAccommodations_InvalidParams(t *testing.T) {
	mockSvc := new(MockAccommodationService)
	mockStore := new(MockS3Storage)
	router := setupAccommodationRouter(mockSvc, mockStore)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/accommodation/search?type=resort", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/v1/accommodation/search?maxCapacity=zero", nil)
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusBadRequest, w2.Code)

	mockSvc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestGetAccommodationByID(t *testing.T) {
	mockSvc := new(MockAccommodationService)
	mockStore := new(MockS3Storage)
	router := setupAccommodationRouter(mockSvc, mockStore)

	id := primitive.NewObjectID()
	mockSvc.On("FindPublicByID", mock.Anything, id).Return(&models.Accommodation{ID: id, Name: "Hillview Homestay"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/accommodation/"+id.Hex(), nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Unknown ID
	missing := primitive.NewObjectID()
	mockSvc.On("FindPublicByID", mock.Anything, missing).Return(nil, mongo.ErrNoDocuments)
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/v1/accommodation/"+missing.Hex(), nil)
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusNotFound, w2.Code)

	// Malformed ID
	w3 := httptest.NewRecorder()
	req3, _ := http.NewRequest("GET", "/v1/accommodation/not-an-id", nil)
	router.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusBadRequest, w3.Code)

	mockSvc.AssertExpectations(t)
}

func TestPublicReads_ServeImageURLs(t *testing.T) {
	mockSvc := new(MockAccommodationService)
	mockStore := new(MockS3Storage)
	router := setupAccommodationRouter(mockSvc, mockStore)

	id := primitive.NewObjectID()
	keys := []string{"accommodations/v/a/one.jpg", "accommodations/v/a/two.jpg"}
	mockSvc.On("Search", mock.Anything, models.SearchFilters{}).Return([]models.Accommodation{
		{ID: id, Name: "Hillview Homestay", Images: append([]string{}, keys...)},
	}, nil)
	mockSvc.On("FindPublicByID", mock.Anything, id).
		Return(&models.Accommodation{ID: id, Name: "Hillview Homestay", Images: append([]string{}, keys...)}, nil)
	for _, k := range keys {
		mockStore.On("PublicURL", k).Return("https://img.example.com/" + k)
	}

	// Search results carry URLs, not raw object keys
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/accommodation/search", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var searchResp struct {
		Data []models.Accommodation `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &searchResp))
	assert.Equal(t, []string{
		"https://img.example.com/" + keys[0],
		"https://img.example.com/" + keys[1],
	}, searchResp.Data[0].Images)

	// Single public view likewise
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/v1/accommodation/"+id.Hex(), nil)
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	var one models.Accommodation
	assert.NoError(t, json.Unmarshal(w2.Body.Bytes(), &one))
	assert.Equal(t, "https://img.example.com/"+keys[0], one.Images[0])

	mockStore.AssertExpectations(t)
}
