package comment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/inttest"
	"github.com/offerboard/offer-manager/pkg/model"
	"github.com/offerboard/offer-manager/pkg/queue"
	"github.com/offerboard/offer-manager/pkg/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostCommentRendersAndNotifies(t *testing.T) {
	db, service, spy := setup(t)
	ctx := context.Background()
	offer := seedOffer(t, db, true)
	author := seedUser(t, db, "author@example.com")

	comment, err := service.PostComment(ctx, author, offer.ID, "  [b]nice[/b] deal  ", nil)
	require.NoError(t, err)

	assert.Equal(t, "[b]nice[/b] deal", comment.BBCodeContent)
	assert.Equal(t, "<b>nice</b> deal", comment.Content)
	assert.Equal(t, model.CommentPublished, comment.Status)
	assert.False(t, comment.IsReply())

	// a top-level comment fans out to followers but never triggers a reply mail
	assert.Empty(t, spy.toQueue(queue.CommentReply))
	fanOuts := spy.toQueue(queue.CommentFanOut)
	require.Len(t, fanOuts, 1)
	message := fanOuts[0].(queue.CommentMessage)
	assert.Equal(t, comment.ID, message.ID)
	assert.Equal(t, author.ID, message.AuthorID)
}

func TestPostCommentResolvesReplies(t *testing.T) {
	db, service, spy := setup(t)
	ctx := context.Background()
	offer := seedOffer(t, db, true)
	other := seedOffer(t, db, true)
	parentAuthor := seedUser(t, db, "parent@example.com")
	author := seedUser(t, db, "author@example.com")

	parent, err := service.PostComment(ctx, parentAuthor, offer.ID, "first!", nil)
	require.NoError(t, err)

	reply, err := service.PostComment(ctx, author, offer.ID, "agreed", &parent.ID)
	require.NoError(t, err)
	assert.True(t, reply.IsReply())
	require.Len(t, spy.toQueue(queue.CommentReply), 1)

	// a target on another offer is dropped and the comment posted top-level
	crossOffer, err := service.PostComment(ctx, author, other.ID, "me too", &parent.ID)
	require.NoError(t, err)
	assert.Nil(t, crossOffer.ReplyToID)

	// same for a target that is no longer published
	_, err = service.SetStatus(ctx, parent.ID, model.CommentUnpublished)
	require.NoError(t, err)
	lateReply, err := service.PostComment(ctx, author, offer.ID, "too late", &parent.ID)
	require.NoError(t, err)
	assert.Nil(t, lateReply.ReplyToID)

	// a target that never existed is dropped, not an error
	gone := parent.ID + 1000
	orphan, err := service.PostComment(ctx, author, offer.ID, "hello?", &gone)
	require.NoError(t, err)
	assert.Nil(t, orphan.ReplyToID)
}

func TestPostCommentRequiresVisibleOffer(t *testing.T) {
	db, service, _ := setup(t)
	offer := seedOffer(t, db, false)
	author := seedUser(t, db, "author@example.com")

	_, err := service.PostComment(context.Background(), author, offer.ID, "anyone here?", nil)
	assert.True(t, errdef.IsNotFound(err))
}

func TestCommentVisibilityFollowsOffer(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	offer := seedOffer(t, db, true)
	author := seedUser(t, db, "author@example.com")

	comment, err := service.PostComment(ctx, author, offer.ID, "nice", nil)
	require.NoError(t, err)

	comments, err := service.ListComments(ctx, offer.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)

	// retiring the offer hides its comments with it
	require.NoError(t, db.Model(offer).Update("status", model.StatusUnpublished).Error)
	_, err = service.ListComments(ctx, offer.ID)
	assert.True(t, errdef.IsNotFound(err))
}

func TestModerationHidesComment(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	offer := seedOffer(t, db, true)
	author := seedUser(t, db, "author@example.com")

	comment, err := service.PostComment(ctx, author, offer.ID, "spam spam spam", nil)
	require.NoError(t, err)

	_, err = service.SetStatus(ctx, comment.ID, model.CommentDeleted)
	require.NoError(t, err)

	comments, err := service.ListComments(ctx, offer.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestLikeIsIdempotent(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	offer := seedOffer(t, db, true)
	author := seedUser(t, db, "author@example.com")
	fan := seedUser(t, db, "fan@example.com")

	comment, err := service.PostComment(ctx, author, offer.ID, "nice", nil)
	require.NoError(t, err)

	require.NoError(t, service.Like(ctx, fan, comment.ID))
	require.NoError(t, service.Like(ctx, fan, comment.ID))

	liked, err := service.HasLiked(ctx, fan, comment.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.EqualValues(t, 1, service.repository.likeCount(ctx, comment))

	require.NoError(t, service.Unlike(ctx, fan, comment.ID))
	liked, err = service.HasLiked(ctx, fan, comment.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestHandleFanOutStaggersFollowerMail(t *testing.T) {
	db, service, spy := setup(t)
	ctx := context.Background()
	offer := seedOffer(t, db, true)
	author := seedUser(t, db, "author@example.com")
	followers := []*model.User{
		author,
		seedUser(t, db, "one@example.com"),
		seedUser(t, db, "two@example.com"),
		seedUser(t, db, "three@example.com"),
	}
	for _, follower := range followers {
		require.NoError(t, db.Model(offer).Association("Followers").Append(follower))
	}

	comment, err := service.PostComment(ctx, author, offer.ID, "big news", nil)
	require.NoError(t, err)

	require.NoError(t, service.HandleFanOut(ctx, comment.ID, author.ID))

	mails := spy.toQueue(queue.SendMail)
	require.Len(t, mails, 3)
	var previous time.Time
	for i, payload := range mails {
		mail := payload.(queue.MailMessage)
		assert.NotEqual(t, author.Email, mail.To)
		if i > 0 {
			assert.Equal(t, fanOutStagger, mail.NotBefore.Sub(previous))
		}
		previous = mail.NotBefore
	}
}

func TestHandleReplySkipsSelfReplies(t *testing.T) {
	db, service, spy := setup(t)
	ctx := context.Background()
	offer := seedOffer(t, db, true)
	author := seedUser(t, db, "author@example.com")

	parent, err := service.PostComment(ctx, author, offer.ID, "first!", nil)
	require.NoError(t, err)
	reply, err := service.PostComment(ctx, author, offer.ID, "forgot to add", &parent.ID)
	require.NoError(t, err)

	require.NoError(t, service.HandleReply(ctx, reply.ID))
	assert.Empty(t, spy.toQueue(queue.SendMail))
}

func TestHandleReplyMailsParentAuthor(t *testing.T) {
	db, service, spy := setup(t)
	ctx := context.Background()
	offer := seedOffer(t, db, true)
	parentAuthor := seedUser(t, db, "parent@example.com")
	author := seedUser(t, db, "author@example.com")

	parent, err := service.PostComment(ctx, parentAuthor, offer.ID, "first!", nil)
	require.NoError(t, err)
	reply, err := service.PostComment(ctx, author, offer.ID, "agreed", &parent.ID)
	require.NoError(t, err)

	require.NoError(t, service.HandleReply(ctx, reply.ID))

	mails := spy.toQueue(queue.SendMail)
	require.Len(t, mails, 1)
	assert.Equal(t, parentAuthor.Email, mails[0].(queue.MailMessage).To)
}

func setup(t *testing.T) (*gorm.DB, *Service, *publisherSpy) {
	t.Helper()

	db := inttest.SetupDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	spy := &publisherSpy{}
	service := NewService(logger, NewRepository(db), render.NewRenderer(), spy)
	return db, service, spy
}

func seedOffer(t *testing.T, db *gorm.DB, visible bool) *model.Offer {
	t.Helper()

	provider := &model.Provider{Name: uniqueName(t), NameSlug: uniqueName(t) + "-slug", Website: "https://hoster.example"}
	require.NoError(t, db.Create(provider).Error)

	status := model.StatusPublished
	if !visible {
		status = model.StatusUnpublished
	}
	offer := &model.Offer{
		Name:       "deal",
		Content:    "content",
		ProviderID: provider.ID,
		Status:     status,
		IsActive:   true,
	}
	require.NoError(t, db.Create(offer).Error)
	return offer
}

var seedCounter int

// uniqueName keeps the provider name unique when one test seeds several
// offers.
func uniqueName(t *testing.T) string {
	t.Helper()
	seedCounter++
	return fmt.Sprintf("%s-%d", t.Name(), seedCounter)
}

func seedUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{Email: email}
	require.NoError(t, db.Create(user).Error)
	return user
}

type publisherSpy struct {
	mu       sync.Mutex
	messages []spyMessage
}

type spyMessage struct {
	queue   string
	payload any
}

func (s *publisherSpy) Publish(_ context.Context, queue string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, spyMessage{queue: queue, payload: payload})
	return nil
}

func (s *publisherSpy) toQueue(queue string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payloads []any
	for _, m := range s.messages {
		if m.queue == queue {
			payloads = append(payloads, m.payload)
		}
	}
	return payloads
}
