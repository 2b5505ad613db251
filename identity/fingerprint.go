package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/thewebalchemist76/immobiliare3/models"
)

// Fingerprint summarizes the mutable surface of a listing so the stores
// can detect content changes without diffing raw payloads. Same id with a
// different fingerprint means the ad was updated (usually the price).
func Fingerprint(rec models.ListingRecord) string {
	input := fmt.Sprintf("%d|%s|%s|%s",
		rec.ID,
		derefInt(rec.Price),
		normalizeText(rec.Title),
		normalizeText(rec.City),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

func derefInt(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func normalizeText(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*s))
}
