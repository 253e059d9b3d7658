package offer

import (
	"context"
	"errors"
	"fmt"
	"time"

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

func (r repository) create(ctx context.Context, offer *model.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r repository) save(ctx context.Context, offer *model.Offer) error {
	return r.db.WithContext(ctx).Save(offer).Error
}

func (r repository) findById(ctx context.Context, id uint) (*model.Offer, error) {
	var offer *model.Offer
	err := r.db.
		WithContext(ctx).
		Preload("Provider").
		Preload("Plans.Locations.Datacenter").
		First(&offer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find offer with id %d", id)
	}
	return offer, err
}

func (r repository) findVisibleById(ctx context.Context, id uint) (*model.Offer, error) {
	var offer *model.Offer
	err := r.db.
		WithContext(ctx).
		Scopes(model.VisibleOffers).
		Preload("Provider").
		Preload("Plans.Locations.Datacenter").
		First(&offer, "offers.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find offer with id %d", id)
	}
	return offer, err
}

func (r repository) findAllVisible(ctx context.Context, page int, pageSize int) ([]*model.Offer, int64, error) {
	var count int64
	err := r.db.
		WithContext(ctx).
		Model(&model.Offer{}).
		Scopes(model.VisibleOffers).
		Count(&count).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count visible offers: %v", err)
	}

	var offers []*model.Offer
	err = r.db.
		WithContext(ctx).
		Scopes(model.VisibleOffers).
		Preload("Provider").
		Preload("Plans.Locations").
		Order("published_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&offers).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find visible offers: %v", err)
	}
	return offers, count, nil
}

func (r repository) findVisibleOrdered(ctx context.Context, limit int) ([]*model.Offer, error) {
	var offers []*model.Offer
	err := r.db.
		WithContext(ctx).
		Scopes(model.VisibleOffers).
		Preload("Provider").
		Order("published_at DESC").
		Limit(limit).
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find visible offers: %v", err)
	}
	return offers, nil
}

func (r repository) findRequestsForProvider(ctx context.Context, providerID uint) ([]*model.Offer, error) {
	var offers []*model.Offer
	err := r.db.
		WithContext(ctx).
		Scopes(model.Requests, model.OffersForProvider(providerID)).
		Preload("Plans.Locations").
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find requests of provider %d: %v", providerID, err)
	}
	return offers, nil
}

func (r repository) findNotRequestsForProvider(ctx context.Context, providerID uint) ([]*model.Offer, error) {
	var offers []*model.Offer
	err := r.db.
		WithContext(ctx).
		Scopes(model.NotRequests, model.OffersForProvider(providerID)).
		Preload("Plans.Locations").
		Order("published_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find offers of provider %d: %v", providerID, err)
	}
	return offers, nil
}

// oldestReady returns the head of the publication queue, nil when the queue
// is empty.
func (r repository) oldestReady(ctx context.Context) (*model.Offer, error) {
	var offer *model.Offer
	err := r.db.
		WithContext(ctx).
		Scopes(model.ReadyRequests).
		Order("readied_at, id").
		First(&offer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find oldest ready request: %v", err)
	}
	return offer, nil
}

// publish performs the conditional promotion. Zero rows affected means a
// concurrent tick got there first; the caller treats that as already
// published.
func (r repository) publish(ctx context.Context, id uint, now time.Time) (bool, error) {
	db := r.db.
		WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ? AND status = ? AND is_request = true AND is_ready = true", id, model.StatusUnpublished).
		Updates(map[string]any{
			"status":       model.StatusPublished,
			"is_request":   false,
			"published_at": now,
		})
	if db.Error != nil {
		return false, fmt.Errorf("failed to publish offer %d: %v", id, db.Error)
	}
	return db.RowsAffected > 0, nil
}

// queuePosition counts the ready requests ahead of the offer. Ties on
// readied_at order by id.
func (r repository) queuePosition(ctx context.Context, offer *model.Offer) (int, error) {
	var ahead int64
	err := r.db.
		WithContext(ctx).
		Model(&model.Offer{}).
		Scopes(model.ReadyRequests).
		Where("readied_at < ? OR (readied_at = ? AND id < ?)", offer.ReadiedAt, offer.ReadiedAt, offer.ID).
		Count(&ahead).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute queue position of offer %d: %v", offer.ID, err)
	}
	return int(ahead) + 1, nil
}

func (r repository) delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx).Select("Plans", "Comments").Delete(&model.Offer{ID: id})
	if db.Error != nil {
		return fmt.Errorf("failed to delete offer with id %d: %v", id, db.Error)
	} else if db.RowsAffected < 1 {
		return errdef.NewNotFound("failed to find offer with id %d", id)
	}
	return nil
}

func (r repository) replacePlans(ctx context.Context, offer *model.Offer, plans []model.Plan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.Plan
		if err := tx.Where("offer_id = ?", offer.ID).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			if err := tx.Select("Locations").Delete(&existing).Error; err != nil {
				return err
			}
		}
		if len(plans) == 0 {
			return nil
		}
		for i := range plans {
			plans[i].OfferID = offer.ID
		}
		return tx.Create(&plans).Error
	})
}

// addFollower is idempotent; the join row upsert ignores duplicates.
func (r repository) addFollower(ctx context.Context, offer *model.Offer, user *model.User) error {
	return r.db.WithContext(ctx).Model(offer).Association("Followers").Append(user)
}

func (r repository) removeFollower(ctx context.Context, offer *model.Offer, user *model.User) error {
	return r.db.WithContext(ctx).Model(offer).Association("Followers").Delete(user)
}

func (r repository) followers(ctx context.Context, offer *model.Offer) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Model(offer).Association("Followers").Find(&users)
	if err != nil {
		return nil, fmt.Errorf("failed to find followers of offer %d: %v", offer.ID, err)
	}
	return users, nil
}

func (r repository) findPlanById(ctx context.Context, id uint) (*model.Plan, error) {
	var plan *model.Plan
	err := r.db.
		WithContext(ctx).
		Preload("Offer").
		First(&plan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find plan with id %d", id)
	}
	return plan, err
}

func (r repository) savePlan(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

// locationsBelongTo verifies that every given location is owned by the
// provider.
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
