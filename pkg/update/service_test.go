package update

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/inttest"
	"github.com/offerboard/offer-manager/pkg/model"
	"github.com/offerboard/offer-manager/pkg/render"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetUpdateForCopiesOfferAndPlans(t *testing.T) {
	db, service := setup(t)
	ctx := context.Background()
	owner, offer := seedPublishedOffer(t, db)

	update, err := service.GetUpdateFor(ctx, owner, offer.ID)
	require.NoError(t, err)

	assert.Equal(t, offer.Name, update.Name)
	assert.Equal(t, offer.Content, update.Content)
	assert.Equal(t, offer.Status, update.Status)
	assert.Equal(t, owner.ID, update.UserID)
	require.Len(t, update.PlanUpdates, 2)
	for i, pu := range update.PlanUpdates {
		require.NotNil(t, pu.PlanID)
		assert.Equal(t, offer.Plans[i].ID, *pu.PlanID)
		assert.Equal(t, offer.Plans[i].URL, pu.URL)
		assert.True(t, offer.Plans[i].Cost.Equal(pu.Cost))
	}

	// a second call returns the same update, not a fresh copy
	again, err := service.GetUpdateFor(ctx, owner, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, update.ID, again.ID)
}

func TestGetUpdateForRejectsRequests(t *testing.T) {
	db, service := setup(t)
	owner, offer := seedPublishedOffer(t, db)

	require.NoError(t, db.Model(offer).Updates(map[string]any{
		"status":     model.StatusUnpublished,
		"is_request": true,
	}).Error)

	_, err := service.GetUpdateFor(context.Background(), owner, offer.ID)
	assert.True(t, errdef.IsConflict(err))
}

func TestApplyWritesCopyBackAndDeletesUpdate(t *testing.T) {
	db, service := setup(t)
	ctx := context.Background()
	owner, offer := seedPublishedOffer(t, db)

	update, err := service.GetUpdateFor(ctx, owner, offer.ID)
	require.NoError(t, err)

	_, err = service.Edit(ctx, owner, update.ID, EditParams{
		Name:     "new name",
		Content:  "new content",
		IsActive: true,
	})
	require.NoError(t, err)

	shadowed := update.PlanUpdates[0]
	_, err = service.EditPlan(ctx, owner, shadowed.ID, PlanParams{
		ServerType:  model.ServerDedicated,
		BandwidthGB: 5000,
		DiskGB:      500,
		MemoryMB:    8192,
		CPUCores:    4,
		IPv4Count:   2,
		BillingTime: model.BillingYearly,
		URL:         "https://hoster.example/plans/big",
		Cost:        decimal.RequireFromString("99.00"),
		IsActive:    true,
	})
	require.NoError(t, err)

	_, err = service.AddPlan(ctx, owner, update.ID, PlanParams{
		ServerType:  model.ServerKVM,
		BandwidthGB: 2000,
		DiskGB:      40,
		MemoryMB:    4096,
		CPUCores:    2,
		IPv4Count:   1,
		BillingTime: model.BillingMonthly,
		URL:         "https://hoster.example/plans/new",
		Cost:        decimal.RequireFromString("15.00"),
		IsActive:    true,
	})
	require.NoError(t, err)

	applied, err := service.Apply(ctx, update.ID)
	require.NoError(t, err)

	assert.Equal(t, "new name", applied.Name)
	assert.Equal(t, "new content", applied.Content)
	require.Len(t, applied.Plans, 3)

	// the shadowed plans kept their identities
	byID := map[uint]model.Plan{}
	for _, plan := range applied.Plans {
		byID[plan.ID] = plan
	}
	edited, ok := byID[offer.Plans[0].ID]
	require.True(t, ok)
	assert.Equal(t, model.ServerDedicated, edited.ServerType)
	assert.Equal(t, "https://hoster.example/plans/big", edited.URL)
	untouched, ok := byID[offer.Plans[1].ID]
	require.True(t, ok)
	assert.Equal(t, offer.Plans[1].URL, untouched.URL)

	// the update is gone
	_, err = service.findOwned(ctx, owner, update.ID)
	assert.True(t, errdef.IsNotFound(err))
}

func TestDiscardLeavesOfferUntouched(t *testing.T) {
	db, service := setup(t)
	ctx := context.Background()
	owner, offer := seedPublishedOffer(t, db)

	update, err := service.GetUpdateFor(ctx, owner, offer.ID)
	require.NoError(t, err)
	_, err = service.Edit(ctx, owner, update.ID, EditParams{Name: "scrapped", Content: "scrapped", IsActive: false})
	require.NoError(t, err)

	require.NoError(t, service.Discard(ctx, owner, update.ID))

	var live model.Offer
	require.NoError(t, db.First(&live, offer.ID).Error)
	assert.Equal(t, offer.Name, live.Name)
	assert.True(t, live.IsActive)
}

func TestEditRequiresOwnership(t *testing.T) {
	db, service := setup(t)
	ctx := context.Background()
	owner, offer := seedPublishedOffer(t, db)
	stranger := &model.User{Email: "stranger@example.com"}
	require.NoError(t, db.Create(stranger).Error)

	update, err := service.GetUpdateFor(ctx, owner, offer.ID)
	require.NoError(t, err)

	_, err = service.Edit(ctx, stranger, update.ID, EditParams{Name: "x", Content: "x", IsActive: true})
	assert.True(t, errdef.IsForbidden(err))
}

func setup(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()

	db := inttest.SetupDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(logger, NewRepository(db), noopCache{}, render.NewRenderer())
	return db, service
}

func seedPublishedOffer(t *testing.T, db *gorm.DB) (*model.User, *model.Offer) {
	t.Helper()

	provider := &model.Provider{Name: "Hoster One", NameSlug: "hoster-one", Website: "https://hoster.example"}
	require.NoError(t, db.Create(provider).Error)
	owner := &model.User{Email: "owner@hoster.example", ProviderID: &provider.ID}
	require.NoError(t, db.Create(owner).Error)

	offer := &model.Offer{
		Name:       "summer deal",
		Content:    "a **great** deal",
		ProviderID: provider.ID,
		Status:     model.StatusPublished,
		IsActive:   true,
		Plans: []model.Plan{
			{
				ServerType:  model.ServerKVM,
				BandwidthGB: 1000,
				DiskGB:      20,
				MemoryMB:    2048,
				CPUCores:    2,
				IPv4Count:   1,
				BillingTime: model.BillingMonthly,
				URL:         "https://hoster.example/plans/1",
				Cost:        decimal.RequireFromString("10.00"),
				IsActive:    true,
			},
			{
				ServerType:  model.ServerOpenVZ,
				BandwidthGB: 500,
				DiskGB:      10,
				MemoryMB:    1024,
				CPUCores:    1,
				IPv4Count:   1,
				BillingTime: model.BillingMonthly,
				URL:         "https://hoster.example/plans/2",
				Cost:        decimal.RequireFromString("5.00"),
				IsActive:    true,
			},
		},
	}
	require.NoError(t, db.Create(offer).Error)
	return owner, offer
}

type noopCache struct{}

func (noopCache) Set(uint, string) {}
func (noopCache) Invalidate(uint)  {}
