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
	"github.com/sarkuru13/homestay/internal/models"
)

// IVendorService defines the interface for vendor operations.
type IVendorService interface {
	Register(ctx context.Context, v *models.Vendor) (*models.Vendor, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vendor, error)
	FindByEmail(ctx context.Context, email string) (*models.Vendor, error)
	FindAll(ctx context.Context) ([]models.Vendor, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.VendorStatus) (*models.Vendor, error)
}

const vendorsCollection = "vendors"

var (
	ErrVendorExists      = errors.New("a vendor with this email already exists")
	ErrVendorFinalStatus = errors.New("vendor status can no longer be changed")
	ErrBadVendorStatus   = errors.New("vendor status must be verified or rejected")
)

// vendorService implements IVendorService.
type vendorService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewVendorService creates a new VendorService.
func NewVendorService(db *mongo.Database, cfg *config.Config) IVendorService {
	return &vendorService{db: db, cfg: cfg}
}

// Register creates a vendor profile in the pending state. Verification is
// an admin decision; a freshly registered vendor cannot publish listings.
func (s *vendorService) Register(ctx context.Context, v *models.Vendor) (*models.Vendor, error) {
	if v.Name == "" || v.Email == "" || v.Phone == "" {
		return nil, errors.New("vendor name, email and phone are required")
	}

	now := time.Now().UTC()
	v.ID = primitive.NewObjectID()
	v.Status = models.VendorPending
	v.CreatedAt = now
	v.UpdatedAt = now

	if _, err := s.db.Collection(vendorsCollection).InsertOne(ctx, v); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrVendorExists
		}
		return nil, fmt.Errorf("failed to register vendor %s: %w", v.Email, err)
	}
	return v, nil
}

// FindByID finds a vendor by their ID.
func (s *vendorService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vendor, error) {
	var v models.Vendor
	err := s.db.Collection(vendorsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding vendor by ID %s: %w", id.Hex(), err)
	}
	return &v, nil
}

// FindByEmail finds a vendor by their email address.
func (s *vendorService) FindByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	var v models.Vendor
	err := s.db.Collection(vendorsCollection).FindOne(ctx, bson.M{"email": email}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding vendor by email %s: %w", email, err)
	}
	return &v, nil
}

// FindAll returns every vendor, newest first. Admin console only.
func (s *vendorService) FindAll(ctx context.Context) ([]models.Vendor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(vendorsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer cur.Close(ctx)
	var results []models.Vendor
	if err = cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode vendors: %w", err)
	}
	return results, nil
}

// UpdateStatus moves a pending vendor to verified or rejected. Both target
// states are terminal, so the update filter insists on the pending state;
// a vendor already decided is reported as ErrVendorFinalStatus.
func (s *vendorService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.VendorStatus) (*models.Vendor, error) {
	if !models.ValidVendorTransition(models.VendorPending, status) {
		return nil, ErrBadVendorStatus
	}

	filter := bson.M{"_id": id, "status": models.VendorPending}
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Vendor
	err := s.db.Collection(vendorsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Distinguish "no such vendor" from "already decided"
			if _, ferr := s.FindByID(ctx, id); ferr == nil {
				return nil, ErrVendorFinalStatus
			}
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update status for vendor %s: %w", id.Hex(), err)
	}
	return &updated, nil
}
