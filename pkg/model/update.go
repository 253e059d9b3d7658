package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferUpdate is a pending edit to a published offer: a one-slot staging copy
// of the offer's writable fields, merged back by an administrator or
// discarded. The unique index on OfferID enforces at most one per offer.
// swagger:model
type OfferUpdate struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Deleting the offer takes its pending update with it.
	OfferID uint  `gorm:"index;unique" json:"offerId"`
	Offer   Offer `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	UserID uint `json:"userId"`
	User   User `json:"-"`

	Name     string      `json:"name"`
	Content  string      `gorm:"type:text" json:"content"`
	IsActive bool        `json:"isActive"`
	Status   OfferStatus `gorm:"size:1" json:"status"`

	// Ready is the provider's signal that the edit is complete and may be
	// reviewed.
	Ready bool `gorm:"default:false" json:"ready"`

	PlanUpdates []PlanUpdate `gorm:"constraint:OnDelete:CASCADE" json:"planUpdates,omitempty"`
}

// PlanUpdate is the staged copy of a single plan. PlanID points back at the
// plan it shadows; a nil PlanID marks a plan added in the update, created on
// the offer when the update is applied.
// swagger:model
type PlanUpdate struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OfferUpdateID uint `json:"offerUpdateId"`

	// Deleting the shadowed plan takes the staged copy with it; a nil PlanID
	// remains the marker of a plan added in the update.
	PlanID *uint `json:"planId,omitempty"`
	Plan   *Plan `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	ServerType  ServerType  `gorm:"size:16" json:"serverType"`
	BandwidthGB int         `json:"bandwidthGb"`
	DiskGB      int         `json:"diskGb"`
	MemoryMB    int         `json:"memoryMb"`
	CPUCores    int         `json:"cpuCores"`
	IPv4Count   int         `json:"ipv4Count"`
	IPv6Count   int         `json:"ipv6Count"`
	BillingTime BillingTime `gorm:"size:1" json:"billingTime"`

	URL       string `json:"url"`
	PromoCode string `json:"promoCode,omitempty"`

	Cost decimal.Decimal `gorm:"type:decimal(20,3)" json:"cost"`

	IsActive bool `json:"isActive"`

	Locations []Location `gorm:"many2many:plan_update_locations;constraint:OnDelete:CASCADE" json:"locations,omitempty"`
}
