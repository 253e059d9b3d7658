package provider

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

func (r repository) create(ctx context.Context, provider *model.Provider) error {
	err := r.db.WithContext(ctx).Create(provider).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("provider %q already exists", provider.Name)
	}
	return err
}

func (r repository) save(ctx context.Context, provider *model.Provider) error {
	return r.db.WithContext(ctx).Save(provider).Error
}

func (r repository) findAll(ctx context.Context) ([]*model.Provider, error) {
	var providers []*model.Provider
	err := r.db.
		WithContext(ctx).
		Order("name").
		Find(&providers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find all providers: %v", err)
	}
	return providers, nil
}

func (r repository) findById(ctx context.Context, id uint) (*model.Provider, error) {
	var provider *model.Provider
	err := r.db.WithContext(ctx).First(&provider, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find provider with id %d", id)
	}
	return provider, err
}

func (r repository) findBySlug(ctx context.Context, slug string) (*model.Provider, error) {
	var provider *model.Provider
	err := r.db.
		WithContext(ctx).
		Preload("Locations.Datacenter").
		Preload("Locations.TestIPs").
		Preload("Locations.TestDownloads").
		Where("name_slug = ?", slug).
		First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find provider %q", slug)
	}
	return provider, err
}

func (r repository) delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx).Select("Offers", "Locations").Delete(&model.Provider{ID: id})
	if db.Error != nil {
		return fmt.Errorf("failed to delete provider with id %d: %v", id, db.Error)
	} else if db.RowsAffected < 1 {
		return errdef.NewNotFound("failed to find provider with id %d", id)
	}
	return nil
}

func (r repository) createDatacenter(ctx context.Context, datacenter *model.Datacenter) error {
	return r.db.WithContext(ctx).Create(datacenter).Error
}

func (r repository) findAllDatacenters(ctx context.Context) ([]*model.Datacenter, error) {
	var datacenters []*model.Datacenter
	err := r.db.
		WithContext(ctx).
		Order("name").
		Find(&datacenters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find all datacenters: %v", err)
	}
	return datacenters, nil
}

func (r repository) findDatacenterById(ctx context.Context, id uint) (*model.Datacenter, error) {
	var datacenter *model.Datacenter
	err := r.db.WithContext(ctx).First(&datacenter, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find datacenter with id %d", id)
	}
	return datacenter, err
}

func (r repository) createLocation(ctx context.Context, location *model.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r repository) saveLocation(ctx context.Context, location *model.Location) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(location).Error
}

func (r repository) findLocationById(ctx context.Context, id uint) (*model.Location, error) {
	var location *model.Location
	err := r.db.
		WithContext(ctx).
		Preload("Datacenter").
		Preload("TestIPs").
		Preload("TestDownloads").
		First(&location, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find location with id %d", id)
	}
	return location, err
}

func (r repository) findLocationsByProvider(ctx context.Context, providerID uint) ([]*model.Location, error) {
	var locations []*model.Location
	err := r.db.
		WithContext(ctx).
		Preload("Datacenter").
		Preload("TestIPs").
		Preload("TestDownloads").
		Where("provider_id = ?", providerID).
		Order("country, city").
		Find(&locations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find locations of provider %d: %v", providerID, err)
	}
	return locations, nil
}
