package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sarkuru13/homestay/internal/cache"
	"github.com/sarkuru13/homestay/internal/config"
	"github.com/sarkuru13/homestay/internal/models"
)

// IAccommodationService defines the interface for accommodation operations.
type IAccommodationService interface {
	Search(ctx context.Context, filters models.SearchFilters) ([]models.Accommodation, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Accommodation, error)
	FindPublicByID(ctx context.Context, id primitive.ObjectID) (*models.Accommodation, error)
	FindAll(ctx context.Context) ([]models.Accommodation, error)
	FindByVendorID(ctx context.Context, vendorID primitive.ObjectID) ([]models.Accommodation, error)
	Create(ctx context.Context, a *models.Accommodation) (*models.Accommodation, error)
	Update(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID, updates map[string]interface{}) (*models.Accommodation, error)
	Delete(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID) (*models.Accommodation, error)
	SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) (*models.Accommodation, error)
	AddImage(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID, key string) error
	RemoveImage(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID, key string) error
	ReferencedImageKeys(ctx context.Context) (map[string]bool, error)
}

const accommodationsCollection = "accommodations"

const searchCachePrefix = "search:"

// Validation failures surfaced to callers with fixed messages.
var (
	ErrMissingFields = errors.New("accommodation is missing mandatory fields")
	ErrBadCapacity   = errors.New("max capacity must be at least 1")
	ErrBadPrice      = errors.New("price per night must not be negative")
	ErrBadType       = errors.New("accommodation type must be homestay or hotel")
)

// accommodationService implements IAccommodationService.
type accommodationService struct {
	db  *mongo.Database
	cfg *config.Config
	rdb *redis.Client // nil disables the search cache
}

// NewAccommodationService creates a new AccommodationService. rdb may be nil.
func NewAccommodationService(db *mongo.Database, cfg *config.Config, rdb *redis.Client) IAccommodationService {
	return &accommodationService{db: db, cfg: cfg, rdb: rdb}
}

// validate checks the mandatory-field rules shared by create paths.
func validateAccommodation(a *models.Accommodation) error {
	if a.Name == "" || a.Location == "" || a.ExactAddress == "" || a.ContactNumber == "" {
		return ErrMissingFields
	}
	if !models.ValidAccommodationType(a.Type) {
		return ErrBadType
	}
	if a.MaxCapacity < 1 {
		return ErrBadCapacity
	}
	if a.PricePerNight < 0 {
		return ErrBadPrice
	}
	return nil
}

// Create inserts a new accommodation. The caller stamps VendorID; IsVerified
// is taken as given so the admin create path can pre-verify, while the
// vendor handler always passes false.
func (s *accommodationService) Create(ctx context.Context, a *models.Accommodation) (*models.Accommodation, error) {
	if err := validateAccommodation(a); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	if a.Images == nil {
		a.Images = []string{}
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.db.Collection(accommodationsCollection).InsertOne(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to insert accommodation for vendor %s: %w", a.VendorID.Hex(), err)
	}

	s.invalidateSearchCache(ctx)
	return a, nil
}

// Search returns verified accommodations matching the conjunction of the
// supplied filters, newest first. An accommodation whose owning vendor is
// not verified is excluded even when its own flag is set.
func (s *accommodationService) Search(ctx context.Context, filters models.SearchFilters) ([]models.Accommodation, error) {
	cacheKey := searchCacheKey(filters)
	if cached, ok := cache.Get(ctx, s.rdb, cacheKey); ok {
		var results []models.Accommodation
		if err := json.Unmarshal([]byte(cached), &results); err == nil {
			return results, nil
		}
		// Corrupt cache entry: fall through to the database
	}

	filter := bson.M{"is_verified": true}
	if filters.Location != "" {
		filter["location"] = bson.M{"$regex": regexp.QuoteMeta(filters.Location), "$options": "i"}
	}
	if filters.Type != "" {
		filter["type"] = filters.Type
	}
	if filters.MaxCapacity > 0 {
		filter["max_capacity"] = bson.M{"$gte": filters.MaxCapacity}
	}
	if filters.BreakfastIncluded {
		filter["breakfast_included"] = true
	}
	if filters.LunchIncluded {
		filter["lunch_included"] = true
	}
	if filters.DinnerIncluded {
		filter["dinner_included"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(accommodationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute accommodation search query: %w", err)
	}
	defer cur.Close(ctx)

	var results []models.Accommodation
	if err = cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode accommodation search results: %w", err)
	}

	// Post-filter by vendor status: a listing is publicly discoverable only
	// when its owning vendor has been verified.
	vendorColl := s.db.Collection(vendorsCollection)
	filtered := make([]models.Accommodation, 0, len(results))
	for _, a := range results {
		var vendor models.Vendor
		err := vendorColl.FindOne(ctx, bson.M{"_id": a.VendorID}).Decode(&vendor)
		if err != nil || vendor.Status != models.VendorVerified {
			continue
		}
		filtered = append(filtered, a.Public())
	}

	if data, err := json.Marshal(filtered); err == nil {
		cache.Set(ctx, s.rdb, cacheKey, string(data), s.cfg.SearchCacheTTL)
	}

	return filtered, nil
}

// FindByID finds any accommodation by its ID, regardless of verification.
// Callers on public paths must use FindPublicByID instead.
func (s *accommodationService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Accommodation, error) {
	var a models.Accommodation
	err := s.db.Collection(accommodationsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding accommodation by ID %s: %w", id.Hex(), err)
	}
	return &a, nil
}

// FindPublicByID finds a verified accommodation whose vendor is verified.
// Anything else is reported as not found.
func (s *accommodationService) FindPublicByID(ctx context.Context, id primitive.ObjectID) (*models.Accommodation, error) {
	var a models.Accommodation
	err := s.db.Collection(accommodationsCollection).FindOne(ctx, bson.M{"_id": id, "is_verified": true}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding accommodation by ID %s: %w", id.Hex(), err)
	}

	var vendor models.Vendor
	err = s.db.Collection(vendorsCollection).FindOne(ctx, bson.M{"_id": a.VendorID}).Decode(&vendor)
	if err != nil || vendor.Status != models.VendorVerified {
		return nil, mongo.ErrNoDocuments
	}

	public := a.Public()
	return &public, nil
}

// FindAll returns every accommodation, newest first. Admin console only.
func (s *accommodationService) FindAll(ctx context.Context) ([]models.Accommodation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(accommodationsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list accommodations: %w", err)
	}
	defer cur.Close(ctx)
	var results []models.Accommodation
	if err = cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode accommodations: %w", err)
	}
	return results, nil
}

// FindByVendorID returns all accommodations owned by a vendor, newest first.
func (s *accommodationService) FindByVendorID(ctx context.Context, vendorID primitive.ObjectID) ([]models.Accommodation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(accommodationsCollection).Find(ctx, bson.M{"vendor_id": vendorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list accommodations for vendor %s: %w", vendorID.Hex(), err)
	}
	defer cur.Close(ctx)
	var results []models.Accommodation
	if err = cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode vendor accommodations: %w", err)
	}
	return results, nil
}

// ownershipFilter narrows an update to the owner when a vendor ID is given.
// Admin callers pass nil and may touch any accommodation.
func ownershipFilter(id primitive.ObjectID, vendorID *primitive.ObjectID) bson.M {
	filter := bson.M{"_id": id}
	if vendorID != nil {
		filter["vendor_id"] = *vendorID
	}
	return filter
}

// Update applies a partial field patch to an existing accommodation.
func (s *accommodationService) Update(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID, updates map[string]interface{}) (*models.Accommodation, error) {
	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "name", "type", "location", "exact_address", "latitude", "longitude",
			"max_capacity", "breakfast_included", "lunch_included", "dinner_included",
			"price_per_night", "contact_number", "images", "description":
			allowedUpdates[key] = value
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}
	allowedUpdates["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Accommodation
	err := s.db.Collection(accommodationsCollection).
		FindOneAndUpdate(ctx, ownershipFilter(id, vendorID), bson.M{"$set": allowedUpdates}, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update accommodation %s: %w", id.Hex(), err)
	}

	s.invalidateSearchCache(ctx)
	return &updated, nil
}

// Delete removes an accommodation irreversibly and returns the deleted
// document so the caller can reclaim its stored images. Booking history
// referencing it is left in place.
func (s *accommodationService) Delete(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID) (*models.Accommodation, error) {
	var deleted models.Accommodation
	err := s.db.Collection(accommodationsCollection).
		FindOneAndDelete(ctx, ownershipFilter(id, vendorID)).
		Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to delete accommodation %s: %w", id.Hex(), err)
	}

	s.invalidateSearchCache(ctx)
	return &deleted, nil
}

// SetVerified toggles the admin verification flag that gates public
// visibility. There is no distinct rejected state for accommodations.
func (s *accommodationService) SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) (*models.Accommodation, error) {
	update := bson.M{"$set": bson.M{
		"is_verified": verified,
		"updated_at":  time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Accommodation
	err := s.db.Collection(accommodationsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to set verification for accommodation %s: %w", id.Hex(), err)
	}

	s.invalidateSearchCache(ctx)
	return &updated, nil
}

// AddImage appends a stored object key to the accommodation's image list.
func (s *accommodationService) AddImage(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID, key string) error {
	update := bson.M{
		"$addToSet": bson.M{"images": key},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := s.db.Collection(accommodationsCollection).UpdateOne(ctx, ownershipFilter(id, vendorID), update)
	if err != nil {
		return fmt.Errorf("db error adding image %s to accommodation %s: %w", key, id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	if result.ModifiedCount == 0 {
		log.Printf("Image key %s likely already present on accommodation %s", key, id.Hex())
	}
	s.invalidateSearchCache(ctx)
	return nil
}

// RemoveImage splices a key out of the image list. The stored object itself
// is reclaimed by the background cleanup sweep, not here.
func (s *accommodationService) RemoveImage(ctx context.Context, id primitive.ObjectID, vendorID *primitive.ObjectID, key string) error {
	update := bson.M{
		"$pull": bson.M{"images": key},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := s.db.Collection(accommodationsCollection).UpdateOne(ctx, ownershipFilter(id, vendorID), update)
	if err != nil {
		return fmt.Errorf("db error removing image %s from accommodation %s: %w", key, id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	s.invalidateSearchCache(ctx)
	return nil
}

// ReferencedImageKeys returns the set of image keys referenced by any
// accommodation. The cleanup sweep deletes stored objects outside this set.
func (s *accommodationService) ReferencedImageKeys(ctx context.Context) (map[string]bool, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "images", Value: 1}})
	cur, err := s.db.Collection(accommodationsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to collect referenced image keys: %w", err)
	}
	defer cur.Close(ctx)

	keys := make(map[string]bool)
	for cur.Next(ctx) {
		var doc struct {
			Images []string `bson:"images"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode image keys: %w", err)
		}
		for _, k := range doc.Images {
			keys[k] = true
		}
	}
	return keys, cur.Err()
}

func (s *accommodationService) invalidateSearchCache(ctx context.Context) {
	cache.InvalidatePrefix(ctx, s.rdb, searchCachePrefix)
}

// searchCacheKey builds a deterministic cache key from the filter set.
func searchCacheKey(f models.SearchFilters) string {
	return fmt.Sprintf("%s%s|%s|%d|%t|%t|%t",
		searchCachePrefix, f.Location, f.Type, f.MaxCapacity,
		f.BreakfastIncluded, f.LunchIncluded, f.DinnerIncluded)
}
