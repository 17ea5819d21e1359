package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sarkuru13/homestay/internal/config"
	"github.com/sarkuru13/homestay/internal/db"
	"github.com/sarkuru13/homestay/internal/models"
	"github.com/sarkuru13/homestay/internal/utils"
)

// IBookingService defines the interface for booking operations.
type IBookingService interface {
	Create(ctx context.Context, b *models.Booking) (*models.Booking, error)
	FindAll(ctx context.Context) ([]models.Booking, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.BookingStatus) (*models.Booking, error)
	FindDetailsByReference(ctx context.Context, reference string) (*models.BookingDetails, error)
}

const bookingsCollection = "bookings"

var (
	ErrBadDateFormat      = errors.New("dates must use the YYYY-MM-DD format")
	ErrBadBookingDates    = errors.New("check-out date must be after check-in date")
	ErrPastCheckIn        = errors.New("check-in date must not be in the past")
	ErrBadGuestCount      = errors.New("guest count must be between 1 and the accommodation capacity")
	ErrNotBookable        = errors.New("accommodation is not available for booking")
	ErrBookingFinalStatus = errors.New("booking status can no longer be changed")
	ErrBadBookingStatus   = errors.New("booking status must be confirmed or cancelled")
)

// bookingService implements IBookingService.
type bookingService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewBookingService creates a new BookingService.
func NewBookingService(database *mongo.Database, cfg *config.Config) IBookingService {
	return &bookingService{db: database, cfg: cfg}
}

// Create records a booking request against a publicly bookable
// accommodation. The total is always recomputed here from the stored
// nightly price; any total supplied by the caller is discarded. The
// booking starts in the pending state and carries a freshly generated
// reference, with the unique index backstopping collisions.
func (s *bookingService) Create(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	if b.CustomerName == "" || b.CustomerEmail == "" || b.CustomerPhone == "" {
		return nil, errors.New("customer name, email and phone are required")
	}

	checkIn, err := models.ParseDate(b.CheckInDate)
	if err != nil {
		return nil, fmt.Errorf("invalid check-in date '%s': %w", b.CheckInDate, ErrBadDateFormat)
	}
	checkOut, err := models.ParseDate(b.CheckOutDate)
	if err != nil {
		return nil, fmt.Errorf("invalid check-out date '%s': %w", b.CheckOutDate, ErrBadDateFormat)
	}
	if !checkOut.After(checkIn) {
		return nil, ErrBadBookingDates
	}
	today, _ := models.ParseDate(time.Now().UTC().Format(models.DateLayout))
	if checkIn.Before(today) {
		return nil, ErrPastCheckIn
	}

	// The target must be verified and owned by a verified vendor, the same
	// gate the public search applies.
	var acc models.Accommodation
	err = s.db.Collection(accommodationsCollection).
		FindOne(ctx, bson.M{"_id": b.AccommodationID, "is_verified": true}).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotBookable
		}
		return nil, fmt.Errorf("error loading accommodation %s for booking: %w", b.AccommodationID.Hex(), err)
	}
	var vendor models.Vendor
	err = s.db.Collection(vendorsCollection).FindOne(ctx, bson.M{"_id": acc.VendorID}).Decode(&vendor)
	if err != nil || vendor.Status != models.VendorVerified {
		return nil, ErrNotBookable
	}

	if b.GuestsCount < 1 || b.GuestsCount > acc.MaxCapacity {
		return nil, ErrBadGuestCount
	}

	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.Status = models.BookingPending
	b.TotalAmount = models.TotalAmount(b.CheckInDate, b.CheckOutDate, acc.PricePerNight)
	b.CreatedAt = now
	b.UpdatedAt = now

	coll := s.db.Collection(bookingsCollection)
	err = db.Try(func() error {
		b.BookingReference = utils.NewBookingReference()
		_, insertErr := coll.InsertOne(ctx, b)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert booking for accommodation %s: %w", b.AccommodationID.Hex(), err)
	}
	return b, nil
}

// FindAll returns every booking, newest first. Admin console only.
func (s *bookingService) FindAll(ctx context.Context) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(bookingsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cur.Close(ctx)
	var results []models.Booking
	if err = cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return results, nil
}

// FindByID finds a booking by its ID.
func (s *bookingService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	err := s.db.Collection(bookingsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding booking by ID %s: %w", id.Hex(), err)
	}
	return &b, nil
}

// UpdateStatus moves a pending booking to confirmed or cancelled. Both are
// terminal, so the filter insists on the pending state.
func (s *bookingService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.BookingStatus) (*models.Booking, error) {
	if !models.ValidBookingTransition(models.BookingPending, status) {
		return nil, ErrBadBookingStatus
	}

	filter := bson.M{"_id": id, "status": models.BookingPending}
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	err := s.db.Collection(bookingsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, ferr := s.FindByID(ctx, id); ferr == nil {
				return nil, ErrBookingFinalStatus
			}
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update status for booking %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

// FindDetailsByReference resolves a reference a guest received at booking
// time. Only a confirmed booking resolves; pending, cancelled and unknown
// references are all reported as not found so the reference leaks nothing
// before an admin confirms.
func (s *bookingService) FindDetailsByReference(ctx context.Context, reference string) (*models.BookingDetails, error) {
	reference = utils.NormalizeBookingReference(reference)

	var b models.Booking
	err := s.db.Collection(bookingsCollection).
		FindOne(ctx, bson.M{"booking_reference": reference, "status": models.BookingConfirmed}).
		Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding booking by reference: %w", err)
	}

	details := &models.BookingDetails{Booking: b}

	// The accommodation or its vendor may have been deleted since the stay
	// was booked; the booking itself still resolves.
	var acc models.Accommodation
	err = s.db.Collection(accommodationsCollection).FindOne(ctx, bson.M{"_id": b.AccommodationID}).Decode(&acc)
	if err == nil {
		details.Accommodation = &acc
		var vendor models.Vendor
		if verr := s.db.Collection(vendorsCollection).FindOne(ctx, bson.M{"_id": acc.VendorID}).Decode(&vendor); verr == nil {
			details.VendorName = vendor.Name
			details.VendorPhone = vendor.Phone
		}
	}
	return details, nil
}
