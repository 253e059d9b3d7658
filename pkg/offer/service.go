// Package offer implements the catalog core: request intake, the ready
// queue, publication and its fan-out, retirement, follows and the rendered
// content cache.
package offer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/model"
	"github.com/offerboard/offer-manager/pkg/queue"

	"github.com/shopspring/decimal"
)

// PageSize is the number of offers per listing page.
const PageSize = 5

type messagePublisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

type userService interface {
	FindByProvider(ctx context.Context, providerID uint) ([]*model.User, error)
}

type renderCache interface {
	Get(offerID uint) (string, bool)
	Set(offerID uint, html string)
	Invalidate(offerID uint)
}

type renderer interface {
	Markdown(source string) string
}

func NewService(logger *slog.Logger, repository *repository, cache renderCache, renderer renderer, publisher messagePublisher, userService userService) *Service {
	return &Service{
		logger:      logger,
		repository:  repository,
		cache:       cache,
		renderer:    renderer,
		publisher:   publisher,
		userService: userService,
	}
}

type Service struct {
	logger      *slog.Logger
	repository  *repository
	cache       renderCache
	renderer    renderer
	publisher   messagePublisher
	userService userService
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
	LocationIDs []uint
}

type CreateRequestParams struct {
	Name       string
	Content    string
	ProviderID uint
	Plans      []PlanParams
}

type UpdateRequestParams struct {
	Name    string
	Content string
	Plans   []PlanParams
}

// CreateRequest opens a new request in the draft state. The creation time
// doubles as the initial readied_at so a request that is readied untouched
// still has a queue timestamp.
func (s Service) CreateRequest(ctx context.Context, user *model.User, params CreateRequestParams) (*model.Offer, error) {
	if !user.IsAdmin && !user.IsProviderOf(params.ProviderID) {
		return nil, errdef.NewForbidden("user %d does not manage provider %d", user.ID, params.ProviderID)
	}

	if err := s.checkPlanLocations(ctx, params.ProviderID, params.Plans); err != nil {
		return nil, err
	}

	offer := &model.Offer{
		Name:       params.Name,
		Content:    params.Content,
		ProviderID: params.ProviderID,
		Status:     model.StatusUnpublished,
		IsRequest:  true,
		IsReady:    false,
		ReadiedAt:  time.Now(),
		CreatorID:  &user.ID,
		Plans:      plansOf(params.Plans),
	}
	if err := s.repository.create(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	s.cache.Set(offer.ID, s.renderer.Markdown(offer.Content))
	return offer, nil
}

// UpdateRequest edits a request that has not been published yet. The plan
// set is replaced wholesale; published offers are edited through shadow
// updates instead.
func (s Service) UpdateRequest(ctx context.Context, user *model.User, id uint, params UpdateRequestParams) (*model.Offer, error) {
	offer, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !offer.Request() {
		return nil, errdef.NewConflict("offer %d is no longer a request", id)
	}

	if err := s.checkPlanLocations(ctx, offer.ProviderID, params.Plans); err != nil {
		return nil, err
	}

	offer.Name = params.Name
	offer.Content = params.Content
	if err := s.repository.save(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to update request %d: %v", id, err)
	}
	if err := s.repository.replacePlans(ctx, offer, plansOf(params.Plans)); err != nil {
		return nil, fmt.Errorf("failed to replace plans of request %d: %v", id, err)
	}

	s.cache.Invalidate(offer.ID)
	s.cache.Set(offer.ID, s.renderer.Markdown(offer.Content))
	return s.repository.findById(ctx, id)
}

// DeleteRequest removes an unpublished request. Published offers can only be
// deleted by an admin through Delete.
func (s Service) DeleteRequest(ctx context.Context, user *model.User, id uint) error {
	offer, err := s.findOwned(ctx, user, id)
	if err != nil {
		return err
	}
	if !offer.Request() {
		return errdef.NewConflict("offer %d is no longer a request", id)
	}

	if err := s.repository.delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(id)
	return nil
}

// SetReady toggles a request in or out of the publication queue. The queue
// timestamp is stamped only on the false->true edge, so toggling off and on
// again sends the request to the back of the queue.
func (s Service) SetReady(ctx context.Context, user *model.User, id uint, ready bool) (*model.Offer, error) {
	offer, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	event := EventReady
	if !ready {
		event = EventUnready
	}
	if _, err := apply(ctx, offer.State(), event); err != nil {
		return nil, err
	}

	offer.IsReady = ready
	if ready {
		offer.ReadiedAt = time.Now()
	}
	if err := s.repository.save(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to save offer %d: %v", id, err)
	}
	return offer, nil
}

// QueuePosition returns the 1-based position of a ready request in the
// publication queue.
func (s Service) QueuePosition(ctx context.Context, user *model.User, id uint) (int, error) {
	offer, err := s.findOwned(ctx, user, id)
	if err != nil {
		return 0, err
	}
	if offer.State() != model.StateReady {
		return 0, errdef.NewConflict("offer %d is not queued", id)
	}
	return s.repository.queuePosition(ctx, offer)
}

// PublishLatest promotes the request at the head of the queue. It returns
// nil without error when the queue is empty, and nil when a concurrent run
// already promoted the head; the conditional update makes the promotion
// happen exactly once.
func (s Service) PublishLatest(ctx context.Context) (*model.Offer, error) {
	head, err := s.repository.oldestReady(ctx)
	if err != nil {
		return nil, err
	}
	if head == nil {
		s.logger.InfoContext(ctx, "Publication queue is empty")
		return nil, nil
	}
	return s.promote(ctx, head.ID)
}

// PublishOffer promotes one specific ready request out of turn.
func (s Service) PublishOffer(ctx context.Context, id uint) (*model.Offer, error) {
	offer, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := apply(ctx, offer.State(), EventPublish); err != nil {
		return nil, err
	}

	promoted, err := s.promote(ctx, id)
	if err != nil {
		return nil, err
	}
	if promoted == nil {
		return nil, errdef.NewConflict("offer %d was already published", id)
	}
	return promoted, nil
}

func (s Service) promote(ctx context.Context, id uint) (*model.Offer, error) {
	now := time.Now()
	promoted, err := s.repository.publish(ctx, id, now)
	if err != nil {
		return nil, err
	}
	if !promoted {
		s.logger.InfoContext(ctx, "Offer already published", "offer", id)
		return nil, nil
	}

	s.logger.InfoContext(ctx, "Offer published", "offer", id)
	if err := s.publisher.Publish(ctx, queue.OfferPublished, queue.OfferMessage{ID: id}); err != nil {
		// the offer is live either way; the fan-out is lost, not the publication
		s.logger.ErrorContext(ctx, "Failed to enqueue publication fan-out", "offer", id, "error", err)
	}
	return s.repository.findById(ctx, id)
}

// Retire hides a published offer from readers again.
func (s Service) Retire(ctx context.Context, id uint) (*model.Offer, error) {
	offer, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := apply(ctx, offer.State(), EventRetire); err != nil {
		return nil, err
	}

	offer.Status = model.StatusUnpublished
	if err := s.repository.save(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to retire offer %d: %v", id, err)
	}
	return offer, nil
}

// Republish restores a retired offer. The publication timestamp is
// re-stamped so the offer reappears at the top of the listing.
func (s Service) Republish(ctx context.Context, id uint) (*model.Offer, error) {
	offer, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := apply(ctx, offer.State(), EventRepublish); err != nil {
		return nil, err
	}

	now := time.Now()
	offer.Status = model.StatusPublished
	offer.PublishedAt = &now
	if err := s.repository.save(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to republish offer %d: %v", id, err)
	}
	return offer, nil
}

// Delete removes an offer with its plans and comments. Admin only.
func (s Service) Delete(ctx context.Context, id uint) error {
	if err := s.repository.delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(id)
	return nil
}

// SetOfferActive toggles the provider-side availability flag. The offer
// stays listed either way; the flag only marks it as no longer orderable.
func (s Service) SetOfferActive(ctx context.Context, user *model.User, id uint, active bool) (*model.Offer, error) {
	offer, err := s.findOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	offer.IsActive = active
	if err := s.repository.save(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to save offer %d: %v", id, err)
	}
	return offer, nil
}

func (s Service) SetPlanActive(ctx context.Context, user *model.User, planID uint, active bool) (*model.Plan, error) {
	plan, err := s.repository.findPlanById(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin && !user.IsProviderOf(plan.Offer.ProviderID) {
		return nil, errdef.NewForbidden("user %d does not manage provider %d", user.ID, plan.Offer.ProviderID)
	}

	plan.IsActive = active
	if err := s.repository.savePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save plan %d: %v", planID, err)
	}
	return plan, nil
}

// Follow subscribes the user to comment notifications for a visible offer.
// Following twice is a no-op.
func (s Service) Follow(ctx context.Context, user *model.User, id uint) error {
	offer, err := s.repository.findVisibleById(ctx, id)
	if err != nil {
		return err
	}
	return s.repository.addFollower(ctx, offer, user)
}

func (s Service) Unfollow(ctx context.Context, user *model.User, id uint) error {
	offer, err := s.repository.findVisibleById(ctx, id)
	if err != nil {
		return err
	}
	return s.repository.removeFollower(ctx, offer, user)
}

func (s Service) Followers(ctx context.Context, offer *model.Offer) ([]model.User, error) {
	return s.repository.followers(ctx, offer)
}

// FindAll lists visible offers, newest publication first.
func (s Service) FindAll(ctx context.Context, page int) ([]*model.Offer, int64, error) {
	if page < 1 {
		page = 1
	}
	return s.repository.findAllVisible(ctx, page, PageSize)
}

// FindLatest returns the most recently published visible offers, the feed's
// window.
func (s Service) FindLatest(ctx context.Context, limit int) ([]*model.Offer, error) {
	return s.repository.findVisibleOrdered(ctx, limit)
}

// FindById returns an offer if the user may see it: visible to everyone,
// otherwise only to the owning provider's users and admins. Existence is
// not revealed to anyone else.
func (s Service) FindById(ctx context.Context, user *model.User, id uint) (*model.Offer, error) {
	offer, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer.Visible() {
		return offer, nil
	}
	if user != nil && (user.IsAdmin || user.IsProviderOf(offer.ProviderID)) {
		return offer, nil
	}
	return nil, errdef.NewNotFound("failed to find offer with id %d", id)
}

func (s Service) FindRequests(ctx context.Context, providerID uint) ([]*model.Offer, error) {
	return s.repository.findRequestsForProvider(ctx, providerID)
}

func (s Service) FindOffersOfProvider(ctx context.Context, providerID uint) ([]*model.Offer, error) {
	return s.repository.findNotRequestsForProvider(ctx, providerID)
}

// RenderedContent returns the offer's markdown rendered to HTML, served from
// the cache when possible.
func (s Service) RenderedContent(ctx context.Context, offer *model.Offer) string {
	if html, ok := s.cache.Get(offer.ID); ok {
		return html
	}
	html := s.renderer.Markdown(offer.Content)
	s.cache.Set(offer.ID, html)
	return html
}

// HandlePublished runs the post-publication fan-out: the users managing the
// provider become followers and are mailed. Redelivery is harmless, both
// steps are idempotent.
func (s Service) HandlePublished(ctx context.Context, offerID uint) error {
	offer, err := s.repository.findById(ctx, offerID)
	if err != nil {
		return err
	}
	if !offer.Visible() {
		s.logger.WarnContext(ctx, "Skipping fan-out for offer that is not visible", "offer", offerID, "state", offer.State())
		return nil
	}

	users, err := s.userService.FindByProvider(ctx, offer.ProviderID)
	if err != nil {
		return err
	}

	for _, user := range users {
		if err := s.repository.addFollower(ctx, offer, user); err != nil {
			return fmt.Errorf("failed to add follower %d to offer %d: %v", user.ID, offerID, err)
		}

		message := queue.MailMessage{
			To:      user.Email,
			Subject: fmt.Sprintf("Your offer %s has been published", offer.Name),
			Plain: fmt.Sprintf("The offer %s of %s is now publicly listed. You are following it and "+
				"will be notified about new comments.", offer.Name, offer.Provider.Name),
			HTML: fmt.Sprintf("<p>The offer <strong>%s</strong> of %s is now publicly listed. "+
				"You are following it and will be notified about new comments.</p>",
				offer.Name, offer.Provider.Name),
			NotBefore: time.Now(),
		}
		if err := s.publisher.Publish(ctx, queue.SendMail, message); err != nil {
			return fmt.Errorf("failed to enqueue publication mail for offer %d: %v", offerID, err)
		}
	}
	return nil
}

func (s Service) findOwned(ctx context.Context, user *model.User, id uint) (*model.Offer, error) {
	offer, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin && !user.IsProviderOf(offer.ProviderID) {
		return nil, errdef.NewForbidden("user %d does not manage provider %d", user.ID, offer.ProviderID)
	}
	return offer, nil
}

func (s Service) checkPlanLocations(ctx context.Context, providerID uint, plans []PlanParams) error {
	var ids []uint
	for _, p := range plans {
		ids = append(ids, p.LocationIDs...)
	}
	ok, err := s.repository.locationsBelongTo(ctx, providerID, ids)
	if err != nil {
		return err
	}
	if !ok {
		return errdef.NewBadRequest("plan locations must belong to provider %d", providerID)
	}
	return nil
}

func plansOf(params []PlanParams) []model.Plan {
	plans := make([]model.Plan, 0, len(params))
	for _, p := range params {
		locations := make([]model.Location, 0, len(p.LocationIDs))
		for _, id := range p.LocationIDs {
			locations = append(locations, model.Location{ID: id})
		}
		plans = append(plans, model.Plan{
			ServerType:  p.ServerType,
			BandwidthGB: p.BandwidthGB,
			DiskGB:      p.DiskGB,
			MemoryMB:    p.MemoryMB,
			CPUCores:    p.CPUCores,
			IPv4Count:   p.IPv4Count,
			IPv6Count:   p.IPv6Count,
			BillingTime: p.BillingTime,
			URL:         p.URL,
			PromoCode:   p.PromoCode,
			Cost:        p.Cost,
			IsActive:    true,
			Locations:   locations,
		})
	}
	return plans
}
