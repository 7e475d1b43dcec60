package domain

import "crypto/rand"

// Booking references look like airline PNRs: short, upper-case, with the
// ambiguous characters (0/O, 1/I) left out. A single draw is never trusted
// as unique; the store checks for collisions and the engine retries.
const refAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const RefLength = 8

// NewBookingRef draws a random booking reference. Uniqueness is verified
// against the store by the caller.
func NewBookingRef() string {
	buf := make([]byte, RefLength)
	if _, err := rand.Read(buf); err != nil {
		panic("booking ref entropy: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = refAlphabet[int(b)%len(refAlphabet)]
	}
	return string(buf)
}
