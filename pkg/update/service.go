// Package update implements shadow updates: a published offer is edited
// through a staged copy that an administrator merges back or discards, so the
// public listing never shows a half-finished edit.
package update

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/shopspring/decimal"
)

type renderCache interface {
	Set(offerID uint, html string)
	Invalidate(offerID uint)
}

type renderer interface {
	Markdown(source string) string
}

func NewService(logger *slog.Logger, repository *repository, cache renderCache, renderer renderer) *Service {
	return &Service{
		logger:     logger,
		repository: repository,
		cache:      cache,
		renderer:   renderer,
	}
}

type Service struct {
	logger     *slog.Logger
	repository *repository
	cache      renderCache
	renderer   renderer
}

type EditParams struct {
	Name     string
	Content  string
	IsActive bool
}

type PlanParams struct {
	ServerType  model.ServerType
	BandwidthGB int
	DiskGB      int
	MemoryMB    int
	CPUCores    int
	IPv4Count   int
	IPv6Count   int
	BillingTime model.BillingTime
	URL         string
	PromoCode   string
	Cost        decimal.Decimal
	IsActive    bool
	LocationIDs []uint
}

// GetUpdateFor returns the pending update of a published offer, creating it
// as a copy of the offer and its plans on first call. Requests are edited
// directly and never get an update.
func (s Service) GetUpdateFor(ctx context.Context, user *model.User, offerID uint) (*model.OfferUpdate, error) {
	offer, err := s.repository.findOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin && !user.IsProviderOf(offer.ProviderID) {
		return nil, errdef.NewForbidden("user %d does not manage provider %d", user.ID, offer.ProviderID)
	}
	if offer.Request() {
		return nil, errdef.NewConflict("offer %d is still a request, edit it directly", offerID)
	}

	update, err := s.repository.findByOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if update != nil {
		return update, nil
	}

	update = copyOf(offer, user)
	if err := s.repository.create(ctx, update); err != nil {
		if errdef.IsDuplicated(err) {
			// lost the race against a concurrent first edit; the copy that
			// won is just as good
			return s.repository.findByOffer(ctx, offerID)
		}
		return nil, fmt.Errorf("failed to create update for offer %d: %v", offerID, err)
	}
	return s.repository.findById(ctx, update.ID)
}

// Edit overwrites the staged offer fields.
func (s Service) Edit(ctx context.Context, user *model.User, id uint, params EditParams) (*model.OfferUpdate, error) {
	update, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	update.Name = params.Name
	update.Content = params.Content
	update.IsActive = params.IsActive
	if err := s.repository.save(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to save update %d: %v", id, err)
	}
	return update, nil
}

// EditPlan overwrites one staged plan.
func (s Service) EditPlan(ctx context.Context, user *model.User, planUpdateID uint, params PlanParams) (*model.PlanUpdate, error) {
	planUpdate, err := s.repository.findPlanUpdateById(ctx, planUpdateID)
	if err != nil {
		return nil, err
	}
	update, err := s.findOwned(ctx, user, planUpdate.OfferUpdateID)
	if err != nil {
		return nil, err
	}

	locations, err := s.checkLocations(ctx, update.Offer.ProviderID, params.LocationIDs)
	if err != nil {
		return nil, err
	}

	setPlanFields(planUpdate, params)
	if err := s.repository.savePlanUpdate(ctx, planUpdate, locations); err != nil {
		return nil, fmt.Errorf("failed to save plan update %d: %v", planUpdateID, err)
	}
	return s.repository.findPlanUpdateById(ctx, planUpdateID)
}

// AddPlan stages a plan that does not exist on the live offer yet. Its
// back-pointer stays null until the update is applied.
func (s Service) AddPlan(ctx context.Context, user *model.User, id uint, params PlanParams) (*model.PlanUpdate, error) {
	update, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	locations, err := s.checkLocations(ctx, update.Offer.ProviderID, params.LocationIDs)
	if err != nil {
		return nil, err
	}

	planUpdate := &model.PlanUpdate{OfferUpdateID: update.ID, Locations: locations}
	setPlanFields(planUpdate, params)
	if err := s.repository.createPlanUpdate(ctx, planUpdate); err != nil {
		return nil, fmt.Errorf("failed to add plan to update %d: %v", id, err)
	}
	return planUpdate, nil
}

// MarkReady flags the update as complete and reviewable.
func (s Service) MarkReady(ctx context.Context, user *model.User, id uint, ready bool) (*model.OfferUpdate, error) {
	update, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	update.Ready = ready
	if err := s.repository.save(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to save update %d: %v", id, err)
	}
	return update, nil
}

// Apply merges the update back onto the live offer and deletes it. Admin
// only; the handler enforces that.
func (s Service) Apply(ctx context.Context, id uint) (*model.Offer, error) {
	update, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repository.apply(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to apply update %d: %v", id, err)
	}
	s.logger.InfoContext(ctx, "Offer update applied", "update", id, "offer", update.OfferID)

	s.cache.Invalidate(update.OfferID)
	s.cache.Set(update.OfferID, s.renderer.Markdown(update.Content))
	return s.repository.findOffer(ctx, update.OfferID)
}

// Discard drops the update without touching the live offer.
func (s Service) Discard(ctx context.Context, user *model.User, id uint) error {
	update, err := s.findOwned(ctx, user, id)
	if err != nil {
		return err
	}
	return s.repository.delete(ctx, update.ID)
}

func (s Service) findOwned(ctx context.Context, user *model.User, id uint) (*model.OfferUpdate, error) {
	update, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin && !user.IsProviderOf(update.Offer.ProviderID) {
		return nil, errdef.NewForbidden("user %d does not manage provider %d", user.ID, update.Offer.ProviderID)
	}
	return update, nil
}

func (s Service) checkLocations(ctx context.Context, providerID uint, locationIDs []uint) ([]model.Location, error) {
	ok, err := s.repository.locationsBelongTo(ctx, providerID, locationIDs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errdef.NewBadRequest("plan locations must belong to provider %d", providerID)
	}

	locations := make([]model.Location, 0, len(locationIDs))
	for _, id := range locationIDs {
		locations = append(locations, model.Location{ID: id})
	}
	return locations, nil
}

func copyOf(offer *model.Offer, user *model.User) *model.OfferUpdate {
	update := &model.OfferUpdate{
		OfferID:  offer.ID,
		UserID:   user.ID,
		Name:     offer.Name,
		Content:  offer.Content,
		IsActive: offer.IsActive,
		Status:   offer.Status,
	}
	for _, plan := range offer.Plans {
		planID := plan.ID
		update.PlanUpdates = append(update.PlanUpdates, model.PlanUpdate{
			PlanID:      &planID,
			ServerType:  plan.ServerType,
			BandwidthGB: plan.BandwidthGB,
			DiskGB:      plan.DiskGB,
			MemoryMB:    plan.MemoryMB,
			CPUCores:    plan.CPUCores,
			IPv4Count:   plan.IPv4Count,
			IPv6Count:   plan.IPv6Count,
			BillingTime: plan.BillingTime,
			URL:         plan.URL,
			PromoCode:   plan.PromoCode,
			Cost:        plan.Cost,
			IsActive:    plan.IsActive,
			Locations:   plan.Locations,
		})
	}
	return update
}

func setPlanFields(planUpdate *model.PlanUpdate, params PlanParams) {
	planUpdate.ServerType = params.ServerType
	planUpdate.BandwidthGB = params.BandwidthGB
	planUpdate.DiskGB = params.DiskGB
	planUpdate.MemoryMB = params.MemoryMB
	planUpdate.CPUCores = params.CPUCores
	planUpdate.IPv4Count = params.IPv4Count
	planUpdate.IPv6Count = params.IPv6Count
	planUpdate.BillingTime = params.BillingTime
	planUpdate.URL = params.URL
	planUpdate.PromoCode = params.PromoCode
	planUpdate.Cost = params.Cost
	planUpdate.IsActive = params.IsActive
}
