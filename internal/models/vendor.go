package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VendorStatus is the admin verification state of a vendor account.
// Verified and rejected are terminal: there is no re-review path.
type VendorStatus string

const (
	VendorPending  VendorStatus = "pending"
	VendorVerified VendorStatus = "verified"
	VendorRejected VendorStatus = "rejected"
)

// Vendor is a property owner/operator account, correlated to the
// authenticated identity by email (unique index).
type Vendor struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Phone     string             `bson:"phone" json:"phone"`
	Status    VendorStatus       `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// ValidVendorTransition reports whether a status change is allowed.
// Only pending may move, and only to verified or rejected.
func ValidVendorTransition(from, to VendorStatus) bool {
	if from != VendorPending {
		return false
	}
	return to == VendorVerified || to == VendorRejected
}
