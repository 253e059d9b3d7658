package offer

import (
	"context"
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
	"github.com/offerboard/offer-manager/pkg/user"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPublishLatestPromotesOldestReady(t *testing.T) {
	db, service, spy := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")

	first := seedRequest(t, service, owner, provider, "first")
	second := seedRequest(t, service, owner, provider, "second")

	_, err := service.SetReady(ctx, owner, first.ID, true)
	require.NoError(t, err)
	_, err = service.SetReady(ctx, owner, second.ID, true)
	require.NoError(t, err)

	published, err := service.PublishLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, published)

	assert.Equal(t, first.ID, published.ID)
	assert.Equal(t, model.StatePublished, published.State())
	assert.NotNil(t, published.PublishedAt)
	require.Len(t, spy.toQueue(queue.OfferPublished), 1)

	published, err = service.PublishLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, published)
	assert.Equal(t, second.ID, published.ID)
}

func TestPublishLatestOnEmptyQueue(t *testing.T) {
	_, service, spy := setup(t)

	published, err := service.PublishLatest(context.Background())

	require.NoError(t, err)
	assert.Nil(t, published)
	assert.Empty(t, spy.toQueue(queue.OfferPublished))
}

func TestPublishIsConditionalOnCurrentState(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")

	request := seedRequest(t, service, owner, provider, "deal")
	_, err := service.SetReady(ctx, owner, request.ID, true)
	require.NoError(t, err)

	promoted, err := service.repository.publish(ctx, request.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, promoted)

	// a second promotion of the same row must not fire again
	promoted, err = service.repository.publish(ctx, request.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, promoted)

	_, err = service.PublishOffer(ctx, request.ID)
	assert.True(t, errdef.IsConflict(err))
}

func TestQueuePositionFollowsReadiedAt(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")

	first := seedRequest(t, service, owner, provider, "first")
	second := seedRequest(t, service, owner, provider, "second")
	third := seedRequest(t, service, owner, provider, "third")
	for _, id := range []uint{first.ID, second.ID, third.ID} {
		_, err := service.SetReady(ctx, owner, id, true)
		require.NoError(t, err)
	}

	assertPosition(t, service, owner, first.ID, 1)
	assertPosition(t, service, owner, second.ID, 2)
	assertPosition(t, service, owner, third.ID, 3)

	// toggling off and on again moves the request to the back
	_, err := service.SetReady(ctx, owner, first.ID, false)
	require.NoError(t, err)
	_, err = service.SetReady(ctx, owner, first.ID, true)
	require.NoError(t, err)

	assertPosition(t, service, owner, second.ID, 1)
	assertPosition(t, service, owner, third.ID, 2)
	assertPosition(t, service, owner, first.ID, 3)
}

func TestSetReadyStampsReadiedAtOnlyOnQueueEntry(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")

	request := seedRequest(t, service, owner, provider, "deal")
	created := request.ReadiedAt

	readied, err := service.SetReady(ctx, owner, request.ID, true)
	require.NoError(t, err)
	assert.True(t, readied.ReadiedAt.After(created))

	stamped := readied.ReadiedAt
	unreadied, err := service.SetReady(ctx, owner, request.ID, false)
	require.NoError(t, err)
	assert.True(t, unreadied.ReadiedAt.Equal(stamped))
}

func TestSetReadyRejectsIllegalTransitions(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")

	request := seedRequest(t, service, owner, provider, "deal")

	// a draft cannot be unreadied
	_, err := service.SetReady(ctx, owner, request.ID, false)
	assert.True(t, errdef.IsConflict(err))

	_, err = service.SetReady(ctx, owner, request.ID, true)
	require.NoError(t, err)
	_, err = service.PublishOffer(ctx, request.ID)
	require.NoError(t, err)

	// a published offer is out of the queue's reach
	_, err = service.SetReady(ctx, owner, request.ID, true)
	assert.True(t, errdef.IsConflict(err))
}

func TestFindByIdHidesUnpublishedOffers(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")
	stranger := seedUser(t, db, "stranger@example.com", nil, false)
	admin := seedUser(t, db, "admin@example.com", nil, true)

	request := seedRequest(t, service, owner, provider, "deal")

	_, err := service.FindById(ctx, nil, request.ID)
	assert.True(t, errdef.IsNotFound(err))
	_, err = service.FindById(ctx, stranger, request.ID)
	assert.True(t, errdef.IsNotFound(err))

	found, err := service.FindById(ctx, owner, request.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, found.ID)
	found, err = service.FindById(ctx, admin, request.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, found.ID)

	_, err = service.SetReady(ctx, owner, request.ID, true)
	require.NoError(t, err)
	_, err = service.PublishOffer(ctx, request.ID)
	require.NoError(t, err)

	found, err = service.FindById(ctx, nil, request.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatePublished, found.State())
}

func TestHandlePublishedRegistersFollowersAndMails(t *testing.T) {
	db, service, spy := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")
	colleague := seedUser(t, db, "colleague@hoster.example", &provider.ID, false)

	request := seedRequest(t, service, owner, provider, "deal")
	_, err := service.SetReady(ctx, owner, request.ID, true)
	require.NoError(t, err)
	published, err := service.PublishLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, published)

	require.NoError(t, service.HandlePublished(ctx, published.ID))

	followers, err := service.Followers(ctx, published)
	require.NoError(t, err)
	assert.Len(t, followers, 2)
	mails := spy.toQueue(queue.SendMail)
	require.Len(t, mails, 2)
	recipients := []string{
		mails[0].(queue.MailMessage).To,
		mails[1].(queue.MailMessage).To,
	}
	assert.ElementsMatch(t, []string{owner.Email, colleague.Email}, recipients)

	// redelivery must not duplicate followers
	require.NoError(t, service.HandlePublished(ctx, published.ID))
	followers, err = service.Followers(ctx, published)
	require.NoError(t, err)
	assert.Len(t, followers, 2)
}

func TestFollowRequiresVisibleOffer(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")
	reader := seedUser(t, db, "reader@example.com", nil, false)

	request := seedRequest(t, service, owner, provider, "deal")

	err := service.Follow(ctx, reader, request.ID)
	assert.True(t, errdef.IsNotFound(err))

	_, err = service.SetReady(ctx, owner, request.ID, true)
	require.NoError(t, err)
	_, err = service.PublishOffer(ctx, request.ID)
	require.NoError(t, err)

	require.NoError(t, service.Follow(ctx, reader, request.ID))
	// following twice is a no-op
	require.NoError(t, service.Follow(ctx, reader, request.ID))

	offer, err := service.FindById(ctx, nil, request.ID)
	require.NoError(t, err)
	followers, err := service.Followers(ctx, offer)
	require.NoError(t, err)
	assert.Len(t, followers, 1)

	require.NoError(t, service.Unfollow(ctx, reader, request.ID))
	followers, err = service.Followers(ctx, offer)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestUpdateRequestReplacesPlans(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")

	request := seedRequest(t, service, owner, provider, "deal")
	require.Len(t, request.Plans, 1)

	updated, err := service.UpdateRequest(ctx, owner, request.ID, UpdateRequestParams{
		Name:    "better deal",
		Content: "now with *more* disk",
		Plans: []PlanParams{
			planParams("https://hoster.example/plans/1", "10.00"),
			planParams("https://hoster.example/plans/2", "20.00"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "better deal", updated.Name)
	require.Len(t, updated.Plans, 2)
	for _, plan := range updated.Plans {
		assert.NotEqual(t, request.Plans[0].ID, plan.ID)
	}
}

func TestUpdateRequestRejectsPublishedOffers(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")

	request := seedRequest(t, service, owner, provider, "deal")
	_, err := service.SetReady(ctx, owner, request.ID, true)
	require.NoError(t, err)
	_, err = service.PublishOffer(ctx, request.ID)
	require.NoError(t, err)

	_, err = service.UpdateRequest(ctx, owner, request.ID, UpdateRequestParams{
		Name:    "sneaky edit",
		Content: "content",
		Plans:   []PlanParams{planParams("https://hoster.example/plans/1", "10.00")},
	})
	assert.True(t, errdef.IsConflict(err))
}

func TestDeleteRemovesPendingUpdate(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")

	request := seedRequest(t, service, owner, provider, "deal")
	_, err := service.SetReady(ctx, owner, request.ID, true)
	require.NoError(t, err)
	_, err = service.PublishOffer(ctx, request.ID)
	require.NoError(t, err)

	location := &model.Location{City: "Amsterdam", Country: "NL", ProviderID: provider.ID}
	require.NoError(t, db.Create(location).Error)
	pending := &model.OfferUpdate{
		OfferID: request.ID,
		UserID:  owner.ID,
		Name:    "pending edit",
		Content: "staged content",
		Status:  model.StatusPublished,
		PlanUpdates: []model.PlanUpdate{
			{PlanID: &request.Plans[0].ID, URL: "https://hoster.example/plans/1", Locations: []model.Location{*location}},
			{URL: "https://hoster.example/plans/new"},
		},
	}
	require.NoError(t, db.Create(pending).Error)

	require.NoError(t, service.Delete(ctx, request.ID))

	_, err = service.FindById(ctx, nil, request.ID)
	assert.True(t, errdef.IsNotFound(err))
	var updates int64
	require.NoError(t, db.Model(&model.OfferUpdate{}).Count(&updates).Error)
	assert.Zero(t, updates)
	var planUpdates int64
	require.NoError(t, db.Model(&model.PlanUpdate{}).Count(&planUpdates).Error)
	assert.Zero(t, planUpdates)
}

func TestCreateRequestRejectsForeignLocations(t *testing.T) {
	db, service, _ := setup(t)
	ctx := context.Background()
	provider, owner := seedProvider(t, db, "Hoster One")
	other, _ := seedProvider(t, db, "Hoster Two")

	location := &model.Location{City: "Amsterdam", Country: "NL", ProviderID: other.ID}
	require.NoError(t, db.Create(location).Error)

	plan := planParams("https://hoster.example/plans/1", "10.00")
	plan.LocationIDs = []uint{location.ID}
	_, err := service.CreateRequest(ctx, owner, CreateRequestParams{
		Name:       "deal",
		Content:    "content",
		ProviderID: provider.ID,
		Plans:      []PlanParams{plan},
	})
	assert.True(t, errdef.IsBadRequest(err))
}

func setup(t *testing.T) (*gorm.DB, *Service, *publisherSpy) {
	t.Helper()

	db := inttest.SetupDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	spy := &publisherSpy{}
	userService := user.NewService(user.NewRepository(db))
	service := NewService(logger, NewRepository(db), &cacheStub{entries: map[uint]string{}}, render.NewRenderer(), spy, userService)
	return db, service, spy
}

func seedProvider(t *testing.T, db *gorm.DB, name string) (*model.Provider, *model.User) {
	t.Helper()

	provider := &model.Provider{Name: name, NameSlug: name, Website: "https://hoster.example"}
	require.NoError(t, db.Create(provider).Error)
	owner := seedUser(t, db, name+"@hoster.example", &provider.ID, false)
	return provider, owner
}

func seedUser(t *testing.T, db *gorm.DB, email string, providerID *uint, isAdmin bool) *model.User {
	t.Helper()

	user := &model.User{Email: email, ProviderID: providerID, IsAdmin: isAdmin}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedRequest(t *testing.T, service *Service, owner *model.User, provider *model.Provider, name string) *model.Offer {
	t.Helper()

	offer, err := service.CreateRequest(context.Background(), owner, CreateRequestParams{
		Name:       name,
		Content:    "a **great** deal",
		ProviderID: provider.ID,
		Plans:      []PlanParams{planParams("https://hoster.example/plans/1", "10.00")},
	})
	require.NoError(t, err)
	return offer
}

func planParams(url string, cost string) PlanParams {
	return PlanParams{
		ServerType:  model.ServerKVM,
		BandwidthGB: 1000,
		DiskGB:      20,
		MemoryMB:    2048,
		CPUCores:    2,
		IPv4Count:   1,
		BillingTime: model.BillingMonthly,
		URL:         url,
		Cost:        decimal.RequireFromString(cost),
	}
}

func assertPosition(t *testing.T, service *Service, user *model.User, id uint, want int) {
	t.Helper()

	position, err := service.QueuePosition(context.Background(), user, id)
	require.NoError(t, err)
	assert.Equal(t, want, position)
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

type cacheStub struct {
	mu      sync.Mutex
	entries map[uint]string
}

func (c *cacheStub) Get(offerID uint) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	html, ok := c.entries[offerID]
	return html, ok
}

func (c *cacheStub) Set(offerID uint, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[offerID] = html
}

func (c *cacheStub) Invalidate(offerID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, offerID)
}
