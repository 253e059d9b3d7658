package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferVisible(t *testing.T) {
	tests := []struct {
		name    string
		offer   Offer
		visible bool
	}{
		{"published", Offer{Status: StatusPublished}, true},
		{"published request", Offer{Status: StatusPublished, IsRequest: true}, false},
		{"unpublished", Offer{Status: StatusUnpublished}, false},
		{"request", Offer{Status: StatusUnpublished, IsRequest: true}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.visible, test.offer.Visible())
		})
	}
}

func TestOfferActive(t *testing.T) {
	offer := Offer{Status: StatusPublished, IsActive: true}
	assert.True(t, offer.Active())

	offer.IsActive = false
	assert.False(t, offer.Active())

	offer = Offer{Status: StatusUnpublished, IsActive: true}
	assert.False(t, offer.Active())
}

func TestOfferState(t *testing.T) {
	tests := []struct {
		name  string
		offer Offer
		want  State
	}{
		{"draft", Offer{Status: StatusUnpublished, IsRequest: true}, StateDraft},
		{"ready", Offer{Status: StatusUnpublished, IsRequest: true, IsReady: true}, StateReady},
		{"published", Offer{Status: StatusPublished}, StatePublished},
		{"published and still ready", Offer{Status: StatusPublished, IsReady: true}, StatePublished},
		{"retired", Offer{Status: StatusUnpublished}, StateRetired},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.offer.State())
		})
	}
}

func TestPlanCounts(t *testing.T) {
	offer := Offer{Plans: []Plan{
		{IsActive: true},
		{IsActive: false},
		{IsActive: true},
	}}

	assert.Equal(t, 3, offer.PlanCount())
	assert.Equal(t, 2, offer.ActivePlanCount())
}

func TestMinMaxCost(t *testing.T) {
	offer := Offer{}
	_, ok := offer.MinCost()
	assert.False(t, ok)
	_, ok = offer.MaxCost()
	assert.False(t, ok)

	offer.Plans = []Plan{
		{Cost: cost(t, "15.50")},
		{Cost: cost(t, "10.00")},
		{Cost: cost(t, "20.83")},
	}

	min, ok := offer.MinCost()
	require.True(t, ok)
	assert.True(t, min.Equal(cost(t, "10.00")))

	max, ok := offer.MaxCost()
	require.True(t, ok)
	assert.True(t, max.Equal(cost(t, "20.83")))
}

func TestMinMaxByBillingTime(t *testing.T) {
	offer := Offer{Plans: []Plan{
		{BillingTime: BillingMonthly, Cost: cost(t, "10.00")},
		{BillingTime: BillingMonthly, Cost: cost(t, "15.50")},
		{BillingTime: BillingMonthly, Cost: cost(t, "20.83")},
		{BillingTime: BillingYearly, Cost: cost(t, "100.00")},
		{BillingTime: BillingYearly, Cost: cost(t, "155.10")},
		{BillingTime: BillingYearly, Cost: cost(t, "208.30")},
	}}

	summaries := offer.MinMaxByBillingTime()
	require.Len(t, summaries, 2)

	assert.Equal(t, BillingMonthly, summaries[0].Code)
	assert.Equal(t, "Monthly", summaries[0].DisplayName)
	assert.True(t, summaries[0].MinCost.Equal(cost(t, "10.00")))
	assert.True(t, summaries[0].MaxCost.Equal(cost(t, "20.83")))
	assert.False(t, summaries[0].Same)

	assert.Equal(t, BillingYearly, summaries[1].Code)
	assert.True(t, summaries[1].MinCost.Equal(cost(t, "100.00")))
	assert.True(t, summaries[1].MaxCost.Equal(cost(t, "208.30")))
	assert.False(t, summaries[1].Same)
}

func TestMinMaxByBillingTime_SingleCost(t *testing.T) {
	offer := Offer{Plans: []Plan{
		{BillingTime: BillingHourly, Cost: cost(t, "0.015")},
		{BillingTime: BillingHourly, Cost: cost(t, "0.015")},
	}}

	summaries := offer.MinMaxByBillingTime()
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Same)
}

func TestPlanLocations(t *testing.T) {
	amsterdam := Location{ID: 1, City: "Amsterdam"}
	dallas := Location{ID: 2, City: "Dallas"}
	tokyo := Location{ID: 3, City: "Tokyo"}

	offer := Offer{Plans: []Plan{
		{Locations: []Location{dallas, amsterdam}},
		{Locations: []Location{amsterdam, tokyo}},
		{Locations: []Location{dallas}},
	}}

	locations := offer.PlanLocations()
	require.Len(t, locations, 3)
	assert.Equal(t, []uint{2, 1, 3}, []uint{locations[0].ID, locations[1].ID, locations[2].ID})
}

func TestCommentIsReply(t *testing.T) {
	visibleOffer := Offer{Status: StatusPublished}
	target := &Comment{ID: 7, Status: CommentPublished, Offer: visibleOffer}
	targetID := target.ID

	reply := Comment{ReplyToID: &targetID, ReplyTo: target}
	assert.True(t, reply.IsReply())

	target.Status = CommentDeleted
	assert.False(t, reply.IsReply())

	target.Status = CommentPublished
	target.Offer = Offer{Status: StatusUnpublished}
	assert.False(t, reply.IsReply())

	assert.False(t, (&Comment{}).IsReply())
}

func TestUserIsProviderOf(t *testing.T) {
	providerID := uint(4)
	user := User{ProviderID: &providerID}

	assert.True(t, user.IsProviderOf(4))
	assert.False(t, user.IsProviderOf(5))
	assert.False(t, (&User{}).IsProviderOf(4))
}

func cost(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}
