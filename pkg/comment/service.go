// Package comment implements the discussion under offers: one-level replies,
// likes, moderation and the notification fan-out to offer followers.
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/model"
	"github.com/offerboard/offer-manager/pkg/queue"
)

// fanOutStagger spaces follower mails so one busy comment thread doesn't
// burst the mailer.
const fanOutStagger = time.Second

type messagePublisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

type renderer interface {
	BBCode(source string) string
}

func NewService(logger *slog.Logger, repository *repository, renderer renderer, publisher messagePublisher) *Service {
	return &Service{
		logger:     logger,
		repository: repository,
		renderer:   renderer,
		publisher:  publisher,
	}
}

type Service struct {
	logger     *slog.Logger
	repository *repository
	renderer   renderer
	publisher  messagePublisher
}

// PostComment adds a comment to a visible offer. A reply target on another
// offer, or one that is no longer published, is silently dropped and the
// comment posted top-level.
func (s Service) PostComment(ctx context.Context, user *model.User, offerID uint, bbcode string, replyToID *uint) (*model.Comment, error) {
	offer, err := s.repository.findVisibleOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(bbcode)
	if source == "" {
		return nil, errdef.NewBadRequest("comment must not be empty")
	}

	replyTo, err := s.resolveReplyTo(ctx, offerID, replyToID)
	if err != nil {
		return nil, err
	}
	comment := &model.Comment{
		CommenterID:   user.ID,
		OfferID:       offer.ID,
		Content:       s.renderer.BBCode(source),
		BBCodeContent: source,
		Status:        model.CommentPublished,
		ReplyToID:     replyTo,
	}
	if err := s.repository.create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %v", err)
	}

	// reload with the reply target so IsReply sees the target's state
	comment, err = s.repository.findById(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	if comment.IsReply() {
		err = s.publisher.Publish(ctx, queue.CommentReply, queue.CommentMessage{ID: comment.ID, AuthorID: user.ID})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to enqueue reply notification", "comment", comment.ID, "error", err)
		}
	}
	err = s.publisher.Publish(ctx, queue.CommentFanOut, queue.CommentMessage{ID: comment.ID, AuthorID: user.ID})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue comment fan-out", "comment", comment.ID, "error", err)
	}
	return comment, nil
}

// resolveReplyTo drops targets that are gone, on another offer or no longer
// published; any other lookup failure is the caller's problem.
func (s Service) resolveReplyTo(ctx context.Context, offerID uint, replyToID *uint) (*uint, error) {
	if replyToID == nil {
		return nil, nil
	}
	target, err := s.repository.findById(ctx, *replyToID)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if target.OfferID != offerID || !target.Published() {
		return nil, nil
	}
	return replyToID, nil
}

// ListComments returns the visible comments of a visible offer, oldest
// first.
func (s Service) ListComments(ctx context.Context, offerID uint) ([]*model.Comment, error) {
	if _, err := s.repository.findVisibleOffer(ctx, offerID); err != nil {
		return nil, err
	}
	return s.repository.findVisibleForOffer(ctx, offerID)
}

// Like records the user's like. Liking twice leaves one row.
func (s Service) Like(ctx context.Context, user *model.User, commentID uint) error {
	comment, err := s.findVisible(ctx, commentID)
	if err != nil {
		return err
	}
	return s.repository.like(ctx, comment, user)
}

func (s Service) Unlike(ctx context.Context, user *model.User, commentID uint) error {
	comment, err := s.findVisible(ctx, commentID)
	if err != nil {
		return err
	}
	return s.repository.unlike(ctx, comment, user)
}

func (s Service) HasLiked(ctx context.Context, user *model.User, commentID uint) (bool, error) {
	comment, err := s.findVisible(ctx, commentID)
	if err != nil {
		return false, err
	}
	return s.repository.hasLiked(ctx, comment, user)
}

// SetStatus moderates a comment. Admin only; the handler enforces that.
func (s Service) SetStatus(ctx context.Context, commentID uint, status model.CommentStatus) (*model.Comment, error) {
	comment, err := s.repository.findById(ctx, commentID)
	if err != nil {
		return nil, err
	}

	comment.Status = status
	if err := s.repository.save(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to save comment %d: %v", commentID, err)
	}
	s.logger.InfoContext(ctx, "Comment moderated", "comment", commentID, "status", status)
	return comment, nil
}

// HandleReply mails the author of the comment that was replied to. A comment
// that disappeared, or a reply target that lost its visibility since, ends
// the task without error.
func (s Service) HandleReply(ctx context.Context, commentID uint) error {
	comment, err := s.repository.findById(ctx, commentID)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !comment.IsReply() {
		return nil
	}
	if comment.ReplyTo.CommenterID == comment.CommenterID {
		return nil
	}

	message := queue.MailMessage{
		To:      comment.ReplyTo.Commenter.Email,
		Subject: fmt.Sprintf("New reply to your comment on %s", comment.Offer.Name),
		Plain: fmt.Sprintf("%s replied to your comment on the offer %s:\n\n%s",
			comment.Commenter.Email, comment.Offer.Name, comment.BBCodeContent),
		HTML: fmt.Sprintf("<p>%s replied to your comment on the offer <strong>%s</strong>:</p>%s",
			comment.Commenter.Email, comment.Offer.Name, comment.Content),
		NotBefore: time.Now(),
	}
	return s.publisher.Publish(ctx, queue.SendMail, message)
}

// HandleFanOut mails every follower of the commented offer except the
// comment's author, one second apart.
func (s Service) HandleFanOut(ctx context.Context, commentID uint, authorID uint) error {
	comment, err := s.repository.findById(ctx, commentID)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil
		}
		return err
	}

	followers, err := s.repository.followersOf(ctx, &comment.Offer)
	if err != nil {
		return err
	}

	notBefore := time.Now()
	for _, follower := range followers {
		if follower.ID == authorID {
			continue
		}

		message := queue.MailMessage{
			To:      follower.Email,
			Subject: fmt.Sprintf("New comment on %s", comment.Offer.Name),
			Plain: fmt.Sprintf("%s commented on the offer %s you follow:\n\n%s",
				comment.Commenter.Email, comment.Offer.Name, comment.BBCodeContent),
			HTML: fmt.Sprintf("<p>%s commented on the offer <strong>%s</strong> you follow:</p>%s",
				comment.Commenter.Email, comment.Offer.Name, comment.Content),
			NotBefore: notBefore,
		}
		if err := s.publisher.Publish(ctx, queue.SendMail, message); err != nil {
			return fmt.Errorf("failed to enqueue follower mail for comment %d: %v", commentID, err)
		}
		notBefore = notBefore.Add(fanOutStagger)
	}
	return nil
}

func (s Service) findVisible(ctx context.Context, commentID uint) (*model.Comment, error) {
	comment, err := s.repository.findById(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.Published() || !comment.Offer.Visible() {
		return nil, errdef.NewNotFound("failed to find comment with id %d", commentID)
	}
	return comment, nil
}
