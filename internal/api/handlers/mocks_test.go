package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sarkuru13/homestay/internal/models"
	"github.com/sarkuru13/homestay/internal/storage"
)

// --- MockAccommodationService implements services.IAccommodationService ---

type MockAccommodationService struct {
	mock.Mock
}

func (m *MockAccommodationService) Search(ctx context.Context, filters models.SearchFilters) ([]models.Accommodation, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Accommodation), args.Error(1)
}

func (m *MockAccommodationService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Accommodation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Accommodation), args.Error(1)
}

func (m *MockAccommodationService) FindPublicByID(ctx context.Context, id primitive.ObjectID) (*models.Accommodation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Accommodation), args.Error(1)
}

func (m *MockAccommodationService) FindAll(ctx context.Context) ([]models.Accommodation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Accommodation), args.Error(1)
}

func (m *MockAccommodationService) FindByVendorID(ctx context.Context, vendorID primitive.ObjectID) ([]models.Accommodation, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Accommodation), args.Error(1)
}

func (m *MockAccommodationService) Create(ctx context.Context, a *models.Accommodation) (*models.Accommodation, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Accommodation), args.Error(1)
}

func (m *MockAccommodationService) Update(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID, updates map[string]interface{}) (*models.Accommodation, error) {
	args := m.Called(ctx, id, vendorID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Accommodation), args.Error(1)
}

func (m *MockAccommodationService) Delete(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID) (*models.Accommodation, error) {
	args := m.Called(ctx, id, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Accommodation), args.Error(1)
}

func (m *MockAccommodationService) SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) (*models.Accommodation, error) {
	args := m.Called(ctx, id, verified)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Accommodation), args.Error(1)
}

func (m *MockAccommodationService) AddImage(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID, key string) error {
	args := m.Called(ctx, id, vendorID, key)
	return args.Error(0)
}

func (m *MockAccommodationService) RemoveImage(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID, key string) error {
	args := m.Called(ctx, id, vendorID, key)
	return args.Error(0)
}

func (m *MockAccommodationService) ReferencedImageKeys(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

// --- MockVendorService implements services.IVendorService ---

type MockVendorService struct {
	mock.Mock
}

func (m *MockVendorService) Register(ctx context.Context, v *models.Vendor) (*models.Vendor, error) {
	args := m.Called(ctx, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockVendorService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vendor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockVendorService) FindByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockVendorService) FindAll(ctx context.Context) ([]models.Vendor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vendor), args.Error(1)
}

func (m *MockVendorService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.VendorStatus) (*models.Vendor, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

// --- MockBookingService implements services.IBookingService ---

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) FindAll(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.BookingStatus) (*models.Booking, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) FindDetailsByReference(ctx context.Context, reference string) (*models.BookingDetails, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingDetails), args.Error(1)
}

// --- MockUserService implements services.IUserService ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, email, password string, isAdmin bool) (*models.User, error) {
	args := m.Called(ctx, email, password, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// --- MockS3Storage implements storage.IS3Storage ---

type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, vendorID, accommodationID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, vendorID, accommodationID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockS3Storage) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockS3Storage) KeyFromURL(url string) string {
	args := m.Called(url)
	return args.String(0)
}

func (m *MockS3Storage) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockS3Storage) ListObjects(ctx context.Context, prefix string) ([]storage.StoredObject, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.StoredObject), args.Error(1)
}

// --- MockAsynqClient implements handlers.IAsynqClient ---

type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
