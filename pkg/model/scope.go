package model

import "gorm.io/gorm"

// The canonical visibility filters, expressed as composable gorm scopes.
// User-facing reads go through these; direct table access is reserved for the
// lifecycle engine and admin surfaces. Predicates are composed at read time,
// there are no denormalised flags.

// VisibleOffers keeps offers that pass the public-read predicate:
// published and not a request.
func VisibleOffers(db *gorm.DB) *gorm.DB {
	return db.Where("offers.status = ? AND offers.is_request = false", StatusPublished)
}

// ActiveOffers keeps visible offers that have not been retired by their
// provider.
func ActiveOffers(db *gorm.DB) *gorm.DB {
	return VisibleOffers(db).Where("offers.is_active = true")
}

// NotRequests keeps offers that are not sitting in the submission queue.
func NotRequests(db *gorm.DB) *gorm.DB {
	return db.Where("offers.is_request = false")
}

// Requests keeps offers in the submission queue.
func Requests(db *gorm.DB) *gorm.DB {
	return db.Where("offers.status = ? AND offers.is_request = true", StatusUnpublished)
}

// ReadyRequests narrows Requests to those queued for publication.
func ReadyRequests(db *gorm.DB) *gorm.DB {
	return Requests(db).Where("offers.is_ready = true")
}

// OffersForProvider narrows any offer scope to a single provider.
func OffersForProvider(providerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("offers.provider_id = ?", providerID)
	}
}

// ActivePlans keeps plans whose offer is active and that are themselves
// active. Queries using it must select from plans.
func ActivePlans(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN offers ON offers.id = plans.offer_id").
		Scopes(ActiveOffers).
		Where("plans.is_active = true")
}

// PlansForOffer narrows a plan scope to a single offer.
func PlansForOffer(offerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("plans.offer_id = ?", offerID)
	}
}

// VisibleComments keeps published comments on visible offers. Queries using
// it must select from comments.
func VisibleComments(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN offers ON offers.id = comments.offer_id").
		Scopes(VisibleOffers).
		Where("comments.status = ?", CommentPublished)
}
