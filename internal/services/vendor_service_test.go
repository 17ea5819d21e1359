package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sarkuru13/homestay/internal/config"
	"github.com/sarkuru13/homestay/internal/models"
	"github.com/sarkuru13/homestay/internal/utils"
)

func setupTestDBVendor(t *testing.T, dbName string) *mongo.Database {
	db := utils.SetupTestDB(t, dbName, "vendors")
	// The unique email index normally created at startup
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := db.Collection("vendors").Indexes().CreateOne(context.Background(), indexModel)
	assert.NoError(t, err)
	return db
}

func TestVendorService_Register(t *testing.T) {
	db := setupTestDBVendor(t, "testdb_vendor_register")
	svc := NewVendorService(db, &config.Config{})
	ctx := context.Background()

	vendor, err := svc.Register(ctx, &models.Vendor{
		Email: "owner@example.com",
		Name:  "Karbi Hills Stays",
		Phone: "9100000010",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.VendorPending, vendor.Status)

	// Status supplied by the caller is ignored
	forced, err := svc.Register(ctx, &models.Vendor{
		Email:  "forced@example.com",
		Name:   "Forced Vendor",
		Phone:  "9100000011",
		Status: models.VendorVerified,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.VendorPending, forced.Status)

	// Duplicate email rejected
	_, err = svc.Register(ctx, &models.Vendor{
		Email: "owner@example.com",
		Name:  "Someone Else",
		Phone: "9100000012",
	})
	assert.ErrorIs(t, err, ErrVendorExists)

	// Missing fields rejected
	_, err = svc.Register(ctx, &models.Vendor{Email: "incomplete@example.com"})
	assert.Error(t, err)

	found, err := svc.FindByEmail(ctx, "owner@example.com")
	assert.NoError(t, err)
	assert.Equal(t, vendor.ID, found.ID)

	_, err = svc.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	all, err := svc.FindAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestVendorService_StatusTransitions(t *testing.T) {
	db := setupTestDBVendor(t, "testdb_vendor_status")
	svc := NewVendorService(db, &config.Config{})
	ctx := context.Background()

	v1, err := svc.Register(ctx, &models.Vendor{Email: "one@example.com", Name: "One", Phone: "9100000020"})
	assert.NoError(t, err)
	v2, err := svc.Register(ctx, &models.Vendor{Email: "two@example.com", Name: "Two", Phone: "9100000021"})
	assert.NoError(t, err)

	verified, err := svc.UpdateStatus(ctx, v1.ID, models.VendorVerified)
	assert.NoError(t, err)
	assert.Equal(t, models.VendorVerified, verified.Status)

	rejected, err := svc.UpdateStatus(ctx, v2.ID, models.VendorRejected)
	assert.NoError(t, err)
	assert.Equal(t, models.VendorRejected, rejected.Status)

	// Verified and rejected are terminal
	_, err = svc.UpdateStatus(ctx, v1.ID, models.VendorRejected)
	assert.ErrorIs(t, err, ErrVendorFinalStatus)
	_, err = svc.UpdateStatus(ctx, v2.ID, models.VendorVerified)
	assert.ErrorIs(t, err, ErrVendorFinalStatus)

	// Pending is never a valid target
	v3, err := svc.Register(ctx, &models.Vendor{Email: "three@example.com", Name: "Three", Phone: "9100000022"})
	assert.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, v3.ID, models.VendorPending)
	assert.ErrorIs(t, err, ErrBadVendorStatus)

	// Unknown vendor
	_, err = svc.UpdateStatus(ctx, primitive.NewObjectID(), models.VendorVerified)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}
