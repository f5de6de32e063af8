package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

const domainEmailIdempotency = "menulink/email/v1"

// hashWithDomain computes SHA256(domain + 0x00 + parts joined by 0x00).
func hashWithDomain(domain string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, p := range parts {
		h.Write([]byte{0x00})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IdempotencyKey is the stable key handed to email providers for one
// (reservation, kind) notification. Re-sending the same row after a crash
// yields the same key.
func IdempotencyKey(reservationID string, kind EmailKind) string {
	return hashWithDomain(domainEmailIdempotency, reservationID, string(kind))
}
