package usecase

import "github.com/google/uuid"

// referenceNamespace scopes derived external references to this
// ledger. Changing it would re-derive every reference, so it is fixed.
var referenceNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Derived-reference tags. One business record can spawn several
// independently idempotent ledger postings.
const (
	RefTagReceive     = "receive"
	RefTagReservation = "reservation"
	RefTagIssue       = "issue"
	RefTagReturn      = "return"
	RefTagBounce      = "bounce"
	RefTagLate        = "late"
	RefTagReserve     = "reserve"
	RefTagRelease     = "release"
	RefTagPricing     = "pricing"
	RefTagPayout      = "payout"
)

// DeriveReference deterministically derives an external reference from
// a business record id and a tag. The same (id, tag) pair always
// yields the same reference, which makes every posting derived from a
// record idempotent without a separate deduplication table.
func DeriveReference(id, tag string) string {
	return uuid.NewSHA1(referenceNamespace, []byte(id+":"+tag)).String()
}
