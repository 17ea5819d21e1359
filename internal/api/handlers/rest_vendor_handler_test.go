package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sarkuru13/homestay/internal/api/handlers"
	"github.com/sarkuru13/homestay/internal/api/middleware"
	"github.com/sarkuru13/homestay/internal/config"
	"github.com/sarkuru13/homestay/internal/models"
	"github.com/sarkuru13/homestay/internal/services"
	"github.com/sarkuru13/homestay/internal/tasks"
)

type vendorMocks struct {
	vendorSvc  *MockVendorService
	accSvc     *MockAccommodationService
	storage    *MockS3Storage
	taskClient *MockAsynqClient
}

// setupVendorRouter fakes the auth middleware by injecting the claims the
// real middleware would set from a verified token.
func setupVendorRouter(email string) (*gin.Engine, vendorMocks) {
	gin.SetMode(gin.TestMode)
	m := vendorMocks{
		vendorSvc:  new(MockVendorService),
		accSvc:     new(MockAccommodationService),
		storage:    new(MockS3Storage),
		taskClient: new(MockAsynqClient),
	}
	h := handlers.NewRestVendorHandler(&config.Config{}, m.vendorSvc, m.accSvc, m.storage, m.taskClient)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, primitive.NewObjectID().Hex())
		c.Set(middleware.ContextKeyEmail, email)
		c.Set(middleware.ContextKeyIsAdmin, false)
	})
	r.POST("/v1/vendor", h.RegisterVendor)
	r.GET("/v1/vendor/me", h.GetMe)
	r.GET("/v1/vendor/me/accommodations", h.ListMyAccommodations)
	r.POST("/v1/vendor/accommodation", h.CreateAccommodation)
	r.PATCH("/v1/vendor/accommodation/:id", h.UpdateAccommodation)
	r.DELETE("/v1/vendor/accommodation/:id", h.DeleteAccommodation)
	r.POST("/v1/vendor/accommodation/:id/image/presign", h.PresignImageUpload)
	r.POST("/v1/vendor/accommodation/:id/image/attach", h.AttachImage)
	r.DELETE("/v1/vendor/accommodation/:id/image", h.RemoveImage)
	return r, m
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterVendor(t *testing.T) {
	router, m := setupVendorRouter("owner@example.com")

	m.vendorSvc.On("Register", mock.Anything, mock.MatchedBy(func(v *models.Vendor) bool {
		// Email always comes from the token identity
		return v.Email == "owner@example.com" && v.Name == "Karbi Hills Stays"
	})).Return(&models.Vendor{
		ID:     primitive.NewObjectID(),
		Email:  "owner@example.com",
		Name:   "Karbi Hills Stays",
		Status: models.VendorPending,
	}, nil).Once()

	w := doJSON(router, "POST", "/v1/vendor", map[string]string{
		"name":  "Karbi Hills Stays",
		"phone": "9100000010",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var created models.Vendor
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.VendorPending, created.Status)

	// Duplicate registration
	m.vendorSvc.On("Register", mock.Anything, mock.Anything).Return(nil, services.ErrVendorExists).Once()
	w = doJSON(router, "POST", "/v1/vendor", map[string]string{"name": "Again", "phone": "9100000011"})
	assert.Equal(t, http.StatusConflict, w.Code)

	m.vendorSvc.AssertExpectations(t)
}

func TestGetMe(t *testing.T) {
	router, m := setupVendorRouter("owner@example.com")

	vendor := &models.Vendor{ID: primitive.NewObjectID(), Email: "owner@example.com", Status: models.VendorVerified}
	m.vendorSvc.On("FindByEmail", mock.Anything, "owner@example.com").Return(vendor, nil).Once()

	w := doJSON(router, "GET", "/v1/vendor/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// No profile yet
	m.vendorSvc.On("FindByEmail", mock.Anything, "owner@example.com").Return(nil, mongo.ErrNoDocuments).Once()
	w = doJSON(router, "GET", "/v1/vendor/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVendorCreateAccommodation(t *testing.T) {
	router, m := setupVendorRouter("owner@example.com")

	vendorID := primitive.NewObjectID()
	vendor := &models.Vendor{ID: vendorID, Email: "owner@example.com", Status: models.VendorPending}
	m.vendorSvc.On("FindByEmail", mock.Anything, "owner@example.com").Return(vendor, nil)

	m.accSvc.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Accommodation) bool {
		// Ownership and verification are never taken from the request
		return a.VendorID == vendorID && !a.IsVerified
	})).Return(&models.Accommodation{ID: primitive.NewObjectID(), VendorID: vendorID}, nil).Once()

	body := map[string]interface{}{
		"name":            "Hillview Homestay",
		"type":            "homestay",
		"location":        "Diphu",
		"exact_address":   "Ward 3",
		"max_capacity":    4,
		"price_per_night": 1200,
		"contact_number":  "9100000002",
		"is_verified":     true, // must be ignored
	}
	w := doJSON(router, "POST", "/v1/vendor/accommodation", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	m.accSvc.AssertExpectations(t)
}

func TestVendorCreateAccommodation_RejectedVendor(t *testing.T) {
	router, m := setupVendorRouter("rejected@example.com")

	vendor := &models.Vendor{ID: primitive.NewObjectID(), Email: "rejected@example.com", Status: models.VendorRejected}
	m.vendorSvc.On("FindByEmail", mock.Anything, "rejected@example.com").Return(vendor, nil)

	w := doJSON(router, "POST", "/v1/vendor/accommodation", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	m.accSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVendorUpdateAndDeleteAccommodation(t *testing.T) {
	router, m := setupVendorRouter("owner@example.com")

	vendorID := primitive.NewObjectID()
	accommodationID := primitive.NewObjectID()
	vendor := &models.Vendor{ID: vendorID, Email: "owner@example.com", Status: models.VendorVerified}
	m.vendorSvc.On("FindByEmail", mock.Anything, "owner@example.com").Return(vendor, nil)

	m.accSvc.On("Update", mock.Anything, accommodationID, &vendorID, map[string]interface{}{
		"price_per_night": 1500.0,
	}).Return(&models.Accommodation{ID: accommodationID, PricePerNight: 1500}, nil).Once()

	w := doJSON(router, "PATCH", "/v1/vendor/accommodation/"+accommodationID.Hex(), map[string]interface{}{"price_per_night": 1500.0})
	assert.Equal(t, http.StatusOK, w.Code)

	// Listing of another vendor looks like not-found
	m.accSvc.On("Update", mock.Anything, accommodationID, &vendorID, mock.Anything).Return(nil, mongo.ErrNoDocuments).Once()
	w = doJSON(router, "PATCH", "/v1/vendor/accommodation/"+accommodationID.Hex(), map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Delete triggers a cleanup sweep
	m.accSvc.On("Delete", mock.Anything, accommodationID, &vendorID).
		Return(&models.Accommodation{ID: accommodationID}, nil).Once()
	m.taskClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		return task.Type() == tasks.TypeImageCleanup
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil).Once()

	w = doJSON(router, "DELETE", "/v1/vendor/accommodation/"+accommodationID.Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	m.accSvc.AssertExpectations(t)
	m.taskClient.AssertExpectations(t)
}

func TestVendorImageFlow(t *testing.T) {
	router, m := setupVendorRouter("owner@example.com")

	vendorID := primitive.NewObjectID()
	accommodationID := primitive.NewObjectID()
	vendor := &models.Vendor{ID: vendorID, Email: "owner@example.com", Status: models.VendorVerified}
	m.vendorSvc.On("FindByEmail", mock.Anything, "owner@example.com").Return(vendor, nil)
	m.accSvc.On("FindByID", mock.Anything, accommodationID).
		Return(&models.Accommodation{ID: accommodationID, VendorID: vendorID}, nil)

	// Presign
	m.storage.On("GeneratePresignedPutURL", mock.Anything, vendorID.Hex(), accommodationID.Hex(), "front.jpg", "image/jpeg").
		Return("https://bucket.s3.amazonaws.com/put", "accommodations/"+vendorID.Hex()+"/"+accommodationID.Hex()+"/u_front.jpg", nil).Once()

	w := doJSON(router, "POST", "/v1/vendor/accommodation/"+accommodationID.Hex()+"/image/presign", map[string]string{
		"filename":     "front.jpg",
		"content_type": "image/jpeg",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var presign map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &presign))
	objectKey := presign["object_key"]
	assert.NotEmpty(t, presign["upload_url"])
	assert.NotEmpty(t, objectKey)

	// Non-image content type rejected
	w = doJSON(router, "POST", "/v1/vendor/accommodation/"+accommodationID.Hex()+"/image/presign", map[string]string{
		"filename":     "notes.pdf",
		"content_type": "application/pdf",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Attach enqueues an image processing task
	m.taskClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != tasks.TypeImageProcess {
			return false
		}
		var payload tasks.ImageTaskPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return false
		}
		return payload.S3Key == objectKey && payload.AccommodationID == accommodationID.Hex()
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil).Once()

	w = doJSON(router, "POST", "/v1/vendor/accommodation/"+accommodationID.Hex()+"/image/attach", map[string]string{
		"object_key": objectKey,
	})
	assert.Equal(t, http.StatusAccepted, w.Code)

	// A key presigned for someone else is refused
	w = doJSON(router, "POST", "/v1/vendor/accommodation/"+accommodationID.Hex()+"/image/attach", map[string]string{
		"object_key": "accommodations/other-vendor/other-acc/stolen.jpg",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Remove accepts the public URL form, resolves it to the stored key,
	// detaches it and schedules a sweep
	publicURL := "https://img.example.com/" + objectKey
	m.storage.On("KeyFromURL", publicURL).Return(objectKey).Once()
	m.accSvc.On("RemoveImage", mock.Anything, accommodationID, &vendorID, objectKey).Return(nil).Once()
	m.taskClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		return task.Type() == tasks.TypeImageCleanup
	}), mock.Anything).Return(&asynq.TaskInfo{}, nil).Once()

	w = doJSON(router, "DELETE", "/v1/vendor/accommodation/"+accommodationID.Hex()+"/image", map[string]string{
		"object_key": publicURL,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	m.storage.AssertExpectations(t)
	m.taskClient.AssertExpectations(t)
	m.accSvc.AssertExpectations(t)
}
