// Package plan implements the plan finder: the catalogue read model over
// active plans, with attribute and relation filters, whitelisted ordering
// and pagination.
package plan

import (
	"context"
	"fmt"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PageSize is the number of plans per finder page.
const PageSize = 20

// orderColumns whitelists the sortable attributes. Anything else is a bad
// request, never raw SQL.
var orderColumns = map[string]string{
	"bandwidth": "plans.bandwidth_gb",
	"disk":      "plans.disk_gb",
	"memory":    "plans.memory_mb",
	"ipv4":      "plans.ipv4_count",
	"ipv6":      "plans.ipv6_count",
	"cost":      "plans.cost",
	"createdAt": "plans.created_at",
}

// Query is one finder invocation. Nil and zero values mean "no filter".
type Query struct {
	ServerType  string
	BillingTime string
	URL         string
	// HasPromoCode filters on promo code presence rather than value.
	HasPromoCode *bool

	MinBandwidthGB *int
	MaxBandwidthGB *int
	MinDiskGB      *int
	MaxDiskGB      *int
	MinMemoryMB    *int
	MaxMemoryMB    *int
	MinIPv4        *int
	MaxIPv4        *int
	MinIPv6        *int
	MaxIPv6        *int
	MinCost        *decimal.Decimal
	MaxCost        *decimal.Decimal

	OfferID      *uint
	ProviderID   *uint
	Country      string
	City         string
	DatacenterID *uint

	OrderBy    string
	Descending bool
	Page       int
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewFinder(db *gorm.DB) *finder {
	return &finder{db}
}

type finder struct {
	db *gorm.DB
}

// Find runs the query over active plans and returns one page plus the total
// match count.
func (f finder) Find(ctx context.Context, query Query) ([]*model.Plan, int64, error) {
	base, err := f.scope(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	var count int64
	if err := base.Session(&gorm.Session{}).Distinct("plans.id").Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count plans: %v", err)
	}

	order := "plans.id"
	if query.OrderBy != "" {
		order = orderColumns[query.OrderBy]
		if query.Descending {
			order += " DESC"
		}
	}

	page := query.Page
	if page < 1 {
		page = 1
	}

	var plans []*model.Plan
	err = base.Session(&gorm.Session{}).
		Distinct("plans.*").
		Preload("Offer.Provider").
		Preload("Locations.Datacenter").
		Order(order).
		Offset((page - 1) * PageSize).
		Limit(PageSize).
		Find(&plans).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find plans: %v", err)
	}
	return plans, count, nil
}

func (f finder) scope(ctx context.Context, query Query) (*gorm.DB, error) {
	if query.OrderBy != "" {
		if _, ok := orderColumns[query.OrderBy]; !ok {
			return nil, errdef.NewBadRequest("cannot order by %q", query.OrderBy)
		}
	}

	db := f.db.WithContext(ctx).Model(&model.Plan{}).Scopes(model.ActivePlans)

	if query.ServerType != "" {
		db = db.Where("plans.server_type = ?", query.ServerType)
	}
	if query.BillingTime != "" {
		db = db.Where("plans.billing_time = ?", query.BillingTime)
	}
	if query.URL != "" {
		db = db.Where("plans.url = ?", query.URL)
	}
	if query.HasPromoCode != nil {
		if *query.HasPromoCode {
			db = db.Where("plans.promo_code <> ''")
		} else {
			db = db.Where("plans.promo_code = ''")
		}
	}

	db = intRange(db, "plans.bandwidth_gb", query.MinBandwidthGB, query.MaxBandwidthGB)
	db = intRange(db, "plans.disk_gb", query.MinDiskGB, query.MaxDiskGB)
	db = intRange(db, "plans.memory_mb", query.MinMemoryMB, query.MaxMemoryMB)
	db = intRange(db, "plans.ipv4_count", query.MinIPv4, query.MaxIPv4)
	db = intRange(db, "plans.ipv6_count", query.MinIPv6, query.MaxIPv6)
	if query.MinCost != nil {
		db = db.Where("plans.cost >= ?", query.MinCost)
	}
	if query.MaxCost != nil {
		db = db.Where("plans.cost <= ?", query.MaxCost)
	}

	if query.OfferID != nil {
		db = db.Scopes(model.PlansForOffer(*query.OfferID))
	}
	if query.ProviderID != nil {
		db = db.Where("offers.provider_id = ?", *query.ProviderID)
	}

	// location filters join through the association table; everything else
	// stays on the plans/offers join
	if query.Country != "" || query.City != "" || query.DatacenterID != nil {
		db = db.
			Joins("JOIN plan_locations ON plan_locations.plan_id = plans.id").
			Joins("JOIN locations ON locations.id = plan_locations.location_id")
		if query.Country != "" {
			db = db.Where("locations.country = ?", query.Country)
		}
		if query.City != "" {
			db = db.Where("locations.city = ?", query.City)
		}
		if query.DatacenterID != nil {
			db = db.Where("locations.datacenter_id = ?", *query.DatacenterID)
		}
	}

	return db, nil
}

func intRange(db *gorm.DB, column string, min *int, max *int) *gorm.DB {
	if min != nil {
		db = db.Where(column+" >= ?", *min)
	}
	if max != nil {
		db = db.Where(column+" <= ?", *max)
	}
	return db
}
