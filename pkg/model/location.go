package model

import "time"

type IPType string

const (
	IPv4 IPType = "v4"
	IPv6 IPType = "v6"
)

// Location is a provider's presence in a datacenter. Plans point at the
// locations they are sold in; all of a plan's locations must belong to the
// same provider as the plan's offer.
// swagger:model
type Location struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	City    string `json:"city"`
	Country string `json:"country"`

	DatacenterID uint       `json:"datacenterId"`
	Datacenter   Datacenter `json:"datacenter"`

	LookingGlass string `json:"lookingGlass,omitempty"`

	ProviderID uint     `json:"providerId"`
	Provider   Provider `json:"-"`

	TestIPs       []TestIP       `gorm:"constraint:OnDelete:CASCADE" json:"testIps"`
	TestDownloads []TestDownload `gorm:"constraint:OnDelete:CASCADE" json:"testDownloads"`
}

// TestIP is an address visitors can ping to gauge latency to a location.
// swagger:model
type TestIP struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	LocationID uint   `json:"-"`
	IP         string `json:"ip"`
	Type       IPType `gorm:"size:2" json:"type"`
}

// TestDownload is a file visitors can fetch to gauge throughput to a location.
// swagger:model
type TestDownload struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	LocationID uint   `json:"-"`
	URL        string `json:"url"`
	SizeMB     int    `json:"sizeMb"`
}
