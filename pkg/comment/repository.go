package comment

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

func (r repository) findVisibleOffer(ctx context.Context, id uint) (*model.Offer, error) {
	var offer *model.Offer
	err := r.db.
		WithContext(ctx).
		Scopes(model.VisibleOffers).
		First(&offer, "offers.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find offer with id %d", id)
	}
	return offer, err
}

func (r repository) create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r repository) save(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r repository) findById(ctx context.Context, id uint) (*model.Comment, error) {
	var comment *model.Comment
	err := r.db.
		WithContext(ctx).
		Preload("Commenter").
		Preload("Offer.Provider").
		Preload("ReplyTo.Offer").
		Preload("ReplyTo.Commenter").
		First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("failed to find comment with id %d", id)
	}
	return comment, err
}

// findVisibleForOffer lists the reader-facing comments of one offer, oldest
// first.
func (r repository) findVisibleForOffer(ctx context.Context, offerID uint) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := r.db.
		WithContext(ctx).
		Scopes(model.VisibleComments).
		Preload("Commenter").
		Preload("ReplyTo.Offer").
		Preload("ReplyTo.Commenter").
		Preload("Likes").
		Where("comments.offer_id = ?", offerID).
		Order("comments.created_at").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find comments of offer %d: %v", offerID, err)
	}
	return comments, nil
}

// like is idempotent; the join row upsert ignores duplicates.
func (r repository) like(ctx context.Context, comment *model.Comment, user *model.User) error {
	return r.db.WithContext(ctx).Model(comment).Association("Likes").Append(user)
}

func (r repository) unlike(ctx context.Context, comment *model.Comment, user *model.User) error {
	return r.db.WithContext(ctx).Model(comment).Association("Likes").Delete(user)
}

func (r repository) hasLiked(ctx context.Context, comment *model.Comment, user *model.User) (bool, error) {
	var count int64
	err := r.db.
		WithContext(ctx).
		Table("comment_likes").
		Where("comment_id = ? AND user_id = ?", comment.ID, user.ID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check like of comment %d: %v", comment.ID, err)
	}
	return count > 0, nil
}

func (r repository) likeCount(ctx context.Context, comment *model.Comment) int64 {
	return r.db.WithContext(ctx).Model(comment).Association("Likes").Count()
}

func (r repository) followersOf(ctx context.Context, offer *model.Offer) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Model(offer).Association("Followers").Find(&users)
	if err != nil {
		return nil, fmt.Errorf("failed to find followers of offer %d: %v", offer.ID, err)
	}
	return users, nil
}
