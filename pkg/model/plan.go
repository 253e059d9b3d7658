package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ServerType string

const (
	ServerDedicated ServerType = "dedicated"
	ServerKVM       ServerType = "kvm"
	ServerOpenVZ    ServerType = "openvz"
	ServerXen       ServerType = "xen"
	ServerVMware    ServerType = "vmware"
	ServerVirtuozzo ServerType = "virtuozzo"
	ServerPCS       ServerType = "pcs"
)

// BillingTime is the cadence a plan is billed on, stored as a single-letter
// code.
type BillingTime string

const (
	BillingHourly    BillingTime = "h"
	BillingMonthly   BillingTime = "m"
	BillingQuarterly BillingTime = "q"
	BillingYearly    BillingTime = "y"
	BillingBiyearly  BillingTime = "b"
)

// BillingTimes lists the cadences in canonical order, shortest first.
var BillingTimes = []BillingTime{
	BillingHourly,
	BillingMonthly,
	BillingQuarterly,
	BillingYearly,
	BillingBiyearly,
}

func (b BillingTime) DisplayName() string {
	switch b {
	case BillingHourly:
		return "Hourly"
	case BillingMonthly:
		return "Monthly"
	case BillingQuarterly:
		return "Quarterly"
	case BillingYearly:
		return "Yearly"
	case BillingBiyearly:
		return "Biyearly"
	}
	return string(b)
}

// Plan is a purchasable configuration of an offer: a resource bundle, a
// location set, a billing cadence and a cost.
// swagger:model
type Plan struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OfferID uint  `json:"offerId"`
	Offer   Offer `json:"-"`

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

	IsActive bool `gorm:"default:true" json:"isActive"`

	Locations []Location `gorm:"many2many:plan_locations;constraint:OnDelete:CASCADE" json:"locations,omitempty"`
}

// FormatMemory renders the memory size in the smallest whole unit:
// "n GB" when divisible by 1024, "n MB" otherwise.
func (p *Plan) FormatMemory() string {
	return formatBinary(p.MemoryMB, "MB", "GB")
}

// FormatDisk renders the disk size, promoting GB to TB when divisible.
func (p *Plan) FormatDisk() string {
	return formatBinary(p.DiskGB, "GB", "TB")
}

// FormatBandwidth renders the bandwidth, promoting GB to TB when divisible.
func (p *Plan) FormatBandwidth() string {
	return formatBinary(p.BandwidthGB, "GB", "TB")
}

func formatBinary(value int, unit, nextUnit string) string {
	if value%1024 == 0 {
		return fmt.Sprintf("%d %s", value/1024, nextUnit)
	}
	return fmt.Sprintf("%d %s", value, unit)
}

// FormatCost normalises the cost for display: two decimal places when the
// value fits, three otherwise, rounding half-even.
func (p *Plan) FormatCost() string {
	return FormatCost(p.Cost)
}

// FormatCost renders a cost with two decimal places when the value fits in
// two, otherwise three, rounding half-even.
func FormatCost(cost decimal.Decimal) string {
	rounded := cost.RoundBank(3)
	if rounded.Equal(rounded.Truncate(2)) {
		return rounded.StringFixed(2)
	}
	return rounded.StringFixed(3)
}
