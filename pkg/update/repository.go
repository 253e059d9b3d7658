package update

import (
	"context"
	"errors"
	"fmt"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/model"

	"gorm.io/gorm"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) findOffer(ctx context.Context, id uint) (*model.Offer, error) {
	var offer *model.Offer
	err := r.db.
		WithContext(ctx).
		Preload("Plans.Locations").
		First(&offer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find offer with id %d", id)
	}
	return offer, err
}

func (r repository) findById(ctx context.Context, id uint) (*model.OfferUpdate, error) {
	var update *model.OfferUpdate
	err := r.db.
		WithContext(ctx).
		Preload("Offer").
		Preload("PlanUpdates.Locations").
		First(&update, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find update with id %d", id)
	}
	return update, err
}

// findByOffer returns nil without error when the offer has no pending update.
func (r repository) findByOffer(ctx context.Context, offerID uint) (*model.OfferUpdate, error) {
	var update *model.OfferUpdate
	err := r.db.
		WithContext(ctx).
		Preload("Offer").
		Preload("PlanUpdates.Locations").
		First(&update, "offer_id = ?", offerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find update of offer %d: %v", offerID, err)
	}
	return update, nil
}

func (r repository) create(ctx context.Context, update *model.OfferUpdate) error {
	err := r.db.WithContext(ctx).Create(update).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("offer %d already has a pending update", update.OfferID)
	}
	return err
}

func (r repository) save(ctx context.Context, update *model.OfferUpdate) error {
	return r.db.WithContext(ctx).Save(update).Error
}

func (r repository) findPlanUpdateById(ctx context.Context, id uint) (*model.PlanUpdate, error) {
	var planUpdate *model.PlanUpdate
	err := r.db.
		WithContext(ctx).
		Preload("Locations").
		First(&planUpdate, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find plan update with id %d", id)
	}
	return planUpdate, err
}

func (r repository) savePlanUpdate(ctx context.Context, planUpdate *model.PlanUpdate, locations []model.Location) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(planUpdate).Error; err != nil {
			return err
		}
		return tx.Model(planUpdate).Association("Locations").Replace(locations)
	})
}

func (r repository) createPlanUpdate(ctx context.Context, planUpdate *model.PlanUpdate) error {
	return r.db.WithContext(ctx).Create(planUpdate).Error
}

// apply writes the staged copy back onto the live offer and removes the
// update, all in one transaction. Plans of the offer no plan update points at
// are left alone.
func (r repository) apply(ctx context.Context, update *model.OfferUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Offer{ID: update.OfferID}).Updates(map[string]any{
			"name":      update.Name,
			"content":   update.Content,
			"is_active": update.IsActive,
			"status":    update.Status,
		}).Error
		if err != nil {
			return err
		}

		for _, pu := range update.PlanUpdates {
			if pu.PlanID != nil {
				err = tx.Model(&model.Plan{ID: *pu.PlanID}).Updates(map[string]any{
					"server_type":  pu.ServerType,
					"bandwidth_gb": pu.BandwidthGB,
					"disk_gb":      pu.DiskGB,
					"memory_mb":    pu.MemoryMB,
					"cpu_cores":    pu.CPUCores,
					"ipv4_count":   pu.IPv4Count,
					"ipv6_count":   pu.IPv6Count,
					"billing_time": pu.BillingTime,
					"url":          pu.URL,
					"promo_code":   pu.PromoCode,
					"cost":         pu.Cost,
					"is_active":    pu.IsActive,
				}).Error
				if err != nil {
					return err
				}
				err = tx.Model(&model.Plan{ID: *pu.PlanID}).Association("Locations").Replace(pu.Locations)
				if err != nil {
					return err
				}
				continue
			}

			plan := model.Plan{
				OfferID:     update.OfferID,
				ServerType:  pu.ServerType,
				BandwidthGB: pu.BandwidthGB,
				DiskGB:      pu.DiskGB,
				MemoryMB:    pu.MemoryMB,
				CPUCores:    pu.CPUCores,
				IPv4Count:   pu.IPv4Count,
				IPv6Count:   pu.IPv6Count,
				BillingTime: pu.BillingTime,
				URL:         pu.URL,
				PromoCode:   pu.PromoCode,
				Cost:        pu.Cost,
				IsActive:    pu.IsActive,
				Locations:   pu.Locations,
			}
			if err := tx.Create(&plan).Error; err != nil {
				return err
			}
		}

		return tx.Select("PlanUpdates").Delete(&model.OfferUpdate{ID: update.ID}).Error
	})
}

func (r repository) delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx).Select("PlanUpdates").Delete(&model.OfferUpdate{ID: id})
	if db.Error != nil {
		return fmt.Errorf("failed to delete update with id %d: %v", id, db.Error)
	} else if db.RowsAffected < 1 {
		return errdef.NewNotFound("failed to find update with id %d", id)
	}
	return nil
}

func (r repository) locationsBelongTo(ctx context.Context, providerID uint, locationIDs []uint) (bool, error) {
	if len(locationIDs) == 0 {
		return true, nil
	}
	var count int64
	err := r.db.
		WithContext(ctx).
		Model(&model.Location{}).
		Where("id IN ? AND provider_id = ?", locationIDs, providerID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check locations of provider %d: %v", providerID, err)
	}
	return count == int64(len(locationIDs)), nil
}
