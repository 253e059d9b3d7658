package model

import "time"

// Provider is a hosting company listed on the site. Providers are created by
// administrators; their offers and locations hang off them.
// swagger:model
type Provider struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name      string    `gorm:"index;unique" json:"name"`
	NameSlug  string    `gorm:"index;unique" json:"nameSlug"`
	StartDate time.Time `json:"startDate"`

	Website          string `json:"website"`
	TermsOfService   string `gorm:"type:text" json:"termsOfService"`
	AUP              string `gorm:"type:text" json:"aup"`
	SLA              string `gorm:"type:text" json:"sla,omitempty"`
	BillingAgreement string `gorm:"type:text" json:"billingAgreement,omitempty"`
	// Logo is a URL; files themselves are handled outside this service.
	Logo string `json:"logo,omitempty"`

	Offers    []Offer    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Locations []Location `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Datacenter is a facility locations refer to. Shared between providers.
// swagger:model
type Datacenter struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}
