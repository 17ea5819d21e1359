package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// RefHookFunc is the signature for the NewBookingReference test hook.
// It returns a reference and a boolean indicating whether to override the
// default generation.
type RefHookFunc func() (ref string, override bool)

// NewBookingReferenceHook is a package-level variable that tests can set to
// override NewBookingReference behavior.
var NewBookingReferenceHook RefHookFunc

// Crockford Base32 alphabet: no I, L, O or U, so references survive being
// read out over the phone or copied by hand.
const refAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const refPrefix = "HB-"

const refLength = 8

// NewBookingReference generates a human-shareable booking reference like
// "HB-7Q2MX9KD". Uniqueness is enforced by the unique index on the bookings
// collection; callers insert under db.Try so a collision just regenerates.
func NewBookingReference() string {
	if NewBookingReferenceHook != nil {
		if ref, override := NewBookingReferenceHook(); override {
			return ref
		}
	}

	buf := make([]byte, refLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is not recoverable here
		panic(fmt.Sprintf("reference generation: %v", err))
	}
	var b strings.Builder
	b.WriteString(refPrefix)
	for _, c := range buf {
		b.WriteByte(refAlphabet[int(c)%len(refAlphabet)])
	}
	return b.String()
}

// NormalizeBookingReference uppercases a reference and maps the characters
// Crockford Base32 treats as equivalent, for lenient lookups.
func NormalizeBookingReference(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "O", "0")
	s = strings.ReplaceAll(s, "I", "1")
	s = strings.ReplaceAll(s, "L", "1")
	return s
}
