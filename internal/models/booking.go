package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus is the lifecycle state of a booking. Only an admin moves a
// booking out of pending, and only to confirmed or cancelled.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// DateLayout is the wire and storage format for check-in/check-out dates.
const DateLayout = "2006-01-02"

// Booking is a customer's reservation request against an accommodation.
// The reference string is treated as a capability token: possession of it is
// sufficient to view the booking once confirmed.
type Booking struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AccommodationID  primitive.ObjectID `bson:"accommodation_id" json:"accommodation_id"`
	CustomerName     string             `bson:"customer_name" json:"customer_name"`
	CustomerEmail    string             `bson:"customer_email" json:"customer_email"`
	CustomerPhone    string             `bson:"customer_phone" json:"customer_phone"`
	CheckInDate      string             `bson:"check_in_date" json:"check_in_date"`
	CheckOutDate     string             `bson:"check_out_date" json:"check_out_date"`
	GuestsCount      int                `bson:"guests_count" json:"guests_count"`
	Status           BookingStatus      `bson:"status" json:"status"`
	BookingReference string             `bson:"booking_reference" json:"booking_reference"`
	TotalAmount      float64            `bson:"total_amount" json:"total_amount"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// ValidBookingTransition reports whether a status change is allowed.
func ValidBookingTransition(from, to BookingStatus) bool {
	if from != BookingPending {
		return false
	}
	return to == BookingConfirmed || to == BookingCancelled
}

// ParseDate parses a YYYY-MM-DD date string in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Nights returns the number of whole nights between check-in and check-out.
// Zero or negative when check-out does not fall strictly after check-in;
// such stays must not be purchasable.
func Nights(checkIn, checkOut string) int {
	in, errIn := ParseDate(checkIn)
	out, errOut := ParseDate(checkOut)
	if errIn != nil || errOut != nil {
		return 0
	}
	return int(out.Sub(in).Hours() / 24)
}

// TotalAmount computes nights × nightly price, floored at zero.
func TotalAmount(checkIn, checkOut string, pricePerNight float64) float64 {
	nights := Nights(checkIn, checkOut)
	if nights <= 0 {
		return 0
	}
	return float64(nights) * pricePerNight
}

// BookingDetails is the confirmed-booking disclosure returned for a
// reference lookup: the booking plus the accommodation's withheld contact
// fields and the vendor's name and phone.
type BookingDetails struct {
	Booking       Booking        `json:"booking"`
	Accommodation *Accommodation `json:"accommodation,omitempty"`
	VendorName    string         `json:"vendor_name,omitempty"`
	VendorPhone   string         `json:"vendor_phone,omitempty"`
}
