package marketdata

import "github.com/rishav/matching-core/internal/orders"

// OwnerHash collapses a party id into the stable hash the depth cache's
// per-owner quantity breakdown and a subscription's owner-exclusion
// filter both key on.
func OwnerHash(partyID string) uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for i := 0; i < len(partyID); i++ {
		h ^= uint64(partyID[i])
		h *= 1099511628211 // FNV-1a prime
	}
	return h
}

// ExecutingFirmHash finds an order's ExecutingFirm party, if any, and
// returns its owner hash plus whether one was found.
func ExecutingFirmHash(parties []orders.Party) (uint64, bool) {
	for _, p := range parties {
		if p.Role == orders.ExecutingFirm {
			return OwnerHash(p.ID), true
		}
	}
	return 0, false
}
