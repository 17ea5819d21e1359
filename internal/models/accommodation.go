package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccommodationType distinguishes the two property kinds offered in the district.
type AccommodationType string

const (
	TypeHomestay AccommodationType = "homestay"
	TypeHotel    AccommodationType = "hotel"
)

// ValidAccommodationType reports whether t is one of the known kinds.
func ValidAccommodationType(t AccommodationType) bool {
	return t == TypeHomestay || t == TypeHotel
}

// Accommodation represents a bookable property owned by a vendor.
// ExactAddress and ContactNumber are withheld from public reads and are
// disclosed only through a confirmed booking.
type Accommodation struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string             `bson:"name" json:"name"`
	Type              AccommodationType  `bson:"type" json:"type"`
	Location          string             `bson:"location" json:"location"`
	ExactAddress      string             `bson:"exact_address" json:"exact_address,omitempty"`
	Latitude          *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude         *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	MaxCapacity       int                `bson:"max_capacity" json:"max_capacity"`
	BreakfastIncluded bool               `bson:"breakfast_included" json:"breakfast_included"`
	LunchIncluded     bool               `bson:"lunch_included" json:"lunch_included"`
	DinnerIncluded    bool               `bson:"dinner_included" json:"dinner_included"`
	PricePerNight     float64            `bson:"price_per_night" json:"price_per_night"`
	ContactNumber     string             `bson:"contact_number" json:"contact_number,omitempty"`
	Images            []string           `bson:"images" json:"images"`
	Description       string             `bson:"description" json:"description"`
	VendorID          primitive.ObjectID `bson:"vendor_id" json:"vendor_id"`
	IsVerified        bool               `bson:"is_verified" json:"is_verified"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// Public returns a copy stripped of the fields that must not be visible
// before a booking is confirmed.
func (a Accommodation) Public() Accommodation {
	a.ExactAddress = ""
	a.ContactNumber = ""
	return a
}

// SearchFilters is the conjunction of optional search constraints. A zero
// value for a field means "no constraint". The boolean meal filters only
// constrain when true, matching the deep-linkable query parameters
// (breakfastIncluded=true etc.).
type SearchFilters struct {
	Location          string
	Type              AccommodationType
	MaxCapacity       int
	BreakfastIncluded bool
	LunchIncluded     bool
	DinnerIncluded    bool
}
