package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	StatusPublished   OfferStatus = "p"
	StatusUnpublished OfferStatus = "u"
)

// State is derived from (status, is_request, is_ready). It is never stored.
type State string

const (
	// StateDraft is a newly created request the provider is still editing.
	StateDraft State = "draft"
	// StateReady is a request queued for publication.
	StateReady State = "ready"
	// StatePublished is publicly visible.
	StatePublished State = "published"
	// StateRetired is an offer hidden again after publication. Still owned,
	// not reader-visible.
	StateRetired State = "retired"
)

// Offer is a provider's pitch: descriptive markdown plus one or more plans.
// An offer starts life as a request (unpublished, is_request set) and is
// promoted by the publication queue.
// swagger:model
type Offer struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name    string `json:"name"`
	Content string `gorm:"type:text" json:"content"`

	ProviderID uint     `json:"providerId"`
	Provider   Provider `json:"provider"`

	Status    OfferStatus `gorm:"size:1;default:p" json:"status"`
	IsActive  bool        `gorm:"default:true" json:"isActive"`
	IsRequest bool        `gorm:"default:false" json:"isRequest"`
	IsReady   bool        `gorm:"default:false" json:"isReady"`

	// ReadiedAt is stamped on every is_ready false->true transition. The
	// creation time serves as a lower bound for requests that were never
	// toggled.
	ReadiedAt   time.Time  `json:"readiedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`

	CreatorID *uint `json:"creatorId,omitempty"`
	Creator   *User `json:"-"`

	Followers []User `gorm:"many2many:offer_followers;constraint:OnDelete:CASCADE" json:"-"`

	Plans    []Plan    `gorm:"constraint:OnDelete:CASCADE" json:"plans,omitempty"`
	Comments []Comment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Visible reports whether the offer passes the public-read predicate.
func (o *Offer) Visible() bool {
	return o.Status == StatusPublished && !o.IsRequest
}

// Active reports whether the offer is visible and not retired by its provider.
func (o *Offer) Active() bool {
	return o.Visible() && o.IsActive
}

// Request reports whether the offer sits in the submission queue.
func (o *Offer) Request() bool {
	return o.Status == StatusUnpublished && o.IsRequest
}

// State derives the lifecycle state from the stored flags.
func (o *Offer) State() State {
	if o.Status == StatusPublished {
		return StatePublished
	}
	if !o.IsRequest {
		return StateRetired
	}
	if o.IsReady {
		return StateReady
	}
	return StateDraft
}

// PlanCount returns the number of plans. Plans must be loaded.
func (o *Offer) PlanCount() int {
	return len(o.Plans)
}

// ActivePlanCount returns the number of active plans. Plans must be loaded.
func (o *Offer) ActivePlanCount() int {
	n := 0
	for _, p := range o.Plans {
		if p.IsActive {
			n++
		}
	}
	return n
}

// MinCost returns the lowest plan cost, false when the offer has no plans.
func (o *Offer) MinCost() (decimal.Decimal, bool) {
	if len(o.Plans) == 0 {
		return decimal.Zero, false
	}
	min := o.Plans[0].Cost
	for _, p := range o.Plans[1:] {
		if p.Cost.LessThan(min) {
			min = p.Cost
		}
	}
	return min, true
}

// MaxCost returns the highest plan cost, false when the offer has no plans.
func (o *Offer) MaxCost() (decimal.Decimal, bool) {
	if len(o.Plans) == 0 {
		return decimal.Zero, false
	}
	max := o.Plans[0].Cost
	for _, p := range o.Plans[1:] {
		if p.Cost.GreaterThan(max) {
			max = p.Cost
		}
	}
	return max, true
}

// BillingSummary is the per-cadence cost range of an offer.
type BillingSummary struct {
	Code        BillingTime     `json:"code"`
	DisplayName string          `json:"displayName"`
	MinCost     decimal.Decimal `json:"minCost"`
	MaxCost     decimal.Decimal `json:"maxCost"`
	// Same is set when all plans of this cadence share one cost.
	Same bool `json:"same"`
}

// MinMaxByBillingTime reports, for each billing cadence present among the
// offer's plans, the minimum and maximum cost. Entries follow the canonical
// cadence order.
func (o *Offer) MinMaxByBillingTime() []BillingSummary {
	var summaries []BillingSummary
	for _, bt := range BillingTimes {
		var min, max decimal.Decimal
		found := false
		for _, p := range o.Plans {
			if p.BillingTime != bt {
				continue
			}
			if !found {
				min, max = p.Cost, p.Cost
				found = true
				continue
			}
			if p.Cost.LessThan(min) {
				min = p.Cost
			}
			if p.Cost.GreaterThan(max) {
				max = p.Cost
			}
		}
		if found {
			summaries = append(summaries, BillingSummary{
				Code:        bt,
				DisplayName: bt.DisplayName(),
				MinCost:     min,
				MaxCost:     max,
				Same:        min.Equal(max),
			})
		}
	}
	return summaries
}

// PlanLocations returns the de-duplicated union of the locations across the
// offer's plans, ordered by first appearance.
func (o *Offer) PlanLocations() []Location {
	seen := make(map[uint]bool)
	var locations []Location
	for _, p := range o.Plans {
		for _, l := range p.Locations {
			if seen[l.ID] {
				continue
			}
			seen[l.ID] = true
			locations = append(locations, l)
		}
	}
	return locations
}
