// Package user exposes read access to the account records the catalog relies
// on. Accounts themselves are created and authenticated by the upstream auth
// service; this package never touches credentials.
package user

import (
	"context"

	"github.com/offerboard/offer-manager/pkg/model"
)

func NewService(repository *repository) *Service {
	return &Service{repository: repository}
}

type Service struct {
	repository *repository
}

func (s Service) FindById(ctx context.Context, id uint) (*model.User, error) {
	return s.repository.findById(ctx, id)
}

// FindByProvider returns the users managing a provider, the audience of
// publication notifications.
func (s Service) FindByProvider(ctx context.Context, providerID uint) ([]*model.User, error) {
	return s.repository.findByProvider(ctx, providerID)
}

func (s Service) Save(ctx context.Context, user *model.User) error {
	return s.repository.save(ctx, user)
}
