package user

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

func (r repository) findById(ctx context.Context, id uint) (*model.User, error) {
	var u *model.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find user with id %d", id)
	}
	return u, err
}

func (r repository) findByProvider(ctx context.Context, providerID uint) ([]*model.User, error) {
	var users []*model.User
	err := r.db.
		WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find users of provider %d: %v", providerID, err)
	}
	return users, nil
}

func (r repository) save(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
