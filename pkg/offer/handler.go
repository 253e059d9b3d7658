package offer

import (
	"net/http"
	"strconv"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/internal/handler"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func NewHandler(offerService *Service) Handler {
	return Handler{offerService}
}

type Handler struct {
	offerService *Service
}

// OfferResponse is an offer with its derived aggregates attached.
// swagger:model
type OfferResponse struct {
	*model.Offer
	State            model.State            `json:"state"`
	RenderedContent  string                 `json:"renderedContent"`
	PlanCount        int                    `json:"planCount"`
	ActivePlanCount  int                    `json:"activePlanCount"`
	BillingSummaries []model.BillingSummary `json:"billingSummaries"`
	Locations        []model.Location       `json:"locations"`
}

func (h Handler) response(c *gin.Context, offer *model.Offer) OfferResponse {
	return OfferResponse{
		Offer:            offer,
		State:            offer.State(),
		RenderedContent:  h.offerService.RenderedContent(c, offer),
		PlanCount:        offer.PlanCount(),
		ActivePlanCount:  offer.ActivePlanCount(),
		BillingSummaries: offer.MinMaxByBillingTime(),
		Locations:        offer.PlanLocations(),
	}
}

type PlanRequest struct {
	ServerType  string          `json:"serverType" binding:"required,oneOf=dedicated kvm openvz xen vmware virtuozzo pcs"`
	BandwidthGB int             `json:"bandwidthGb" binding:"required,min=1"`
	DiskGB      int             `json:"diskGb" binding:"required,min=1"`
	MemoryMB    int             `json:"memoryMb" binding:"required,min=1"`
	CPUCores    int             `json:"cpuCores" binding:"required,min=1"`
	IPv4Count   int             `json:"ipv4Count" binding:"min=0"`
	IPv6Count   int             `json:"ipv6Count" binding:"min=0"`
	BillingTime string          `json:"billingTime" binding:"required,oneOf=h m q y b"`
	URL         string          `json:"url" binding:"required,url"`
	PromoCode   string          `json:"promoCode"`
	Cost        decimal.Decimal `json:"cost" binding:"required"`
	LocationIDs []uint          `json:"locationIds"`
}

type CreateRequestRequest struct {
	Name       string        `json:"name" binding:"required"`
	Content    string        `json:"content" binding:"required"`
	ProviderID uint          `json:"providerId" binding:"required"`
	Plans      []PlanRequest `json:"plans" binding:"required,min=1,dive"`
}

// CreateRequest offer request
func (h Handler) CreateRequest(c *gin.Context) {
	// swagger:route POST /requests createRequest
	//
	// Create request
	//
	// Open a new offer request in the draft state. Requires provider
	// ownership.
	//
	// responses:
	//   201: OfferResponse
	//   400: Error
	//   401: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request CreateRequestRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	offer, err := h.offerService.CreateRequest(c, user, CreateRequestParams{
		Name:       request.Name,
		Content:    request.Content,
		ProviderID: request.ProviderID,
		Plans:      planParamsOf(request.Plans),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, h.response(c, offer))
}

type UpdateRequestRequest struct {
	Name    string        `json:"name" binding:"required"`
	Content string        `json:"content" binding:"required"`
	Plans   []PlanRequest `json:"plans" binding:"required,min=1,dive"`
}

// UpdateRequest offer request
func (h Handler) UpdateRequest(c *gin.Context) {
	// swagger:route PUT /requests/{id} updateRequest
	//
	// Update request
	//
	// Edit an unpublished request. The plan set is replaced. Requires
	// provider ownership.
	//
	// responses:
	//   200: OfferResponse
	//   400: Error
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request UpdateRequestRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	offer, err := h.offerService.UpdateRequest(c, user, id, UpdateRequestParams{
		Name:    request.Name,
		Content: request.Content,
		Plans:   planParamsOf(request.Plans),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, h.response(c, offer))
}

// DeleteRequest offer request
func (h Handler) DeleteRequest(c *gin.Context) {
	// swagger:route DELETE /requests/{id} deleteRequest
	//
	// Delete request
	//
	// Delete an unpublished request. Requires provider ownership.
	//
	// responses:
	//   204:
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.offerService.DeleteRequest(c, user, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type ReadyRequest struct {
	Ready *bool `json:"ready" binding:"required"`
}

// SetReady toggles queue membership
func (h Handler) SetReady(c *gin.Context) {
	// swagger:route PUT /requests/{id}/ready setReady
	//
	// Ready request
	//
	// Queue a request for publication, or pull it back out. Requires
	// provider ownership.
	//
	// responses:
	//   200: OfferResponse
	//   400: Error
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request ReadyRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	offer, err := h.offerService.SetReady(c, user, id, *request.Ready)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, h.response(c, offer))
}

// QueuePosition of a ready request
func (h Handler) QueuePosition(c *gin.Context) {
	// swagger:route GET /requests/{id}/position queuePosition
	//
	// Queue position
	//
	// Position of a ready request in the publication queue, starting at 1.
	// Requires provider ownership.
	//
	// responses:
	//   200:
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	position, err := h.offerService.QueuePosition(c, user, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// FindRequests of the caller's provider
func (h Handler) FindRequests(c *gin.Context) {
	// swagger:route GET /requests listRequests
	//
	// List requests
	//
	// Unpublished requests of the provider the caller manages.
	//
	// responses:
	//   200: []OfferResponse
	//   401: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if user.ProviderID == nil {
		_ = c.Error(errdef.NewForbidden("user %d does not manage a provider", user.ID))
		return
	}

	offers, err := h.offerService.FindRequests(c, *user.ProviderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, h.responses(c, offers))
}

// FindMine lists the published and retired offers of the caller's provider
func (h Handler) FindMine(c *gin.Context) {
	// swagger:route GET /my/offers listOwnOffers
	//
	// List own offers
	//
	// Published and retired offers of the provider the caller manages.
	//
	// responses:
	//   200: []OfferResponse
	//   401: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if user.ProviderID == nil {
		_ = c.Error(errdef.NewForbidden("user %d does not manage a provider", user.ID))
		return
	}

	offers, err := h.offerService.FindOffersOfProvider(c, *user.ProviderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, h.responses(c, offers))
}

// FindAll visible offers
func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /offers listOffers
	//
	// List offers
	//
	// Visible offers, newest publication first, five per page.
	//
	// responses:
	//   200:
	//   400: Error
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		_ = c.Error(errdef.NewBadRequest("page must be a positive number"))
		return
	}

	offers, count, err := h.offerService.FindAll(c, page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"offers":     h.responses(c, offers),
		"totalCount": count,
		"page":       page,
		"pageSize":   PageSize,
	})
}

// FindById returns one offer
func (h Handler) FindById(c *gin.Context) {
	// swagger:route GET /offers/{id} findOffer
	//
	// Find offer
	//
	// One offer with plans and aggregates. Offers that are not visible are
	// only returned to their provider's users and admins.
	//
	// responses:
	//   200: OfferResponse
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	// the route is public; a user is only on the context when the caller
	// authenticated
	user, _ := handler.GetUserFromContext(c)

	offer, err := h.offerService.FindById(c, user, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, h.response(c, offer))
}

type ActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive toggles the offer availability flag
func (h Handler) SetActive(c *gin.Context) {
	// swagger:route PUT /offers/{id}/active setOfferActive
	//
	// Set offer active
	//
	// Mark an offer as orderable or sold out. Requires provider ownership.
	//
	// responses:
	//   200: OfferResponse
	//   400: Error
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request ActiveRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	offer, err := h.offerService.SetOfferActive(c, user, id, *request.Active)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, h.response(c, offer))
}

// SetPlanActive toggles a plan availability flag
func (h Handler) SetPlanActive(c *gin.Context) {
	// swagger:route PUT /plans/{id}/active setPlanActive
	//
	// Set plan active
	//
	// Mark a plan as orderable or sold out. Requires provider ownership.
	//
	// responses:
	//   200: Plan
	//   400: Error
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request ActiveRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	plan, err := h.offerService.SetPlanActive(c, user, id, *request.Active)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// Follow an offer
func (h Handler) Follow(c *gin.Context) {
	// swagger:route POST /offers/{id}/followers followOffer
	//
	// Follow offer
	//
	// Subscribe to comment notifications for a visible offer. Idempotent.
	//
	// responses:
	//   204:
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.offerService.Follow(c, user, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Unfollow an offer
func (h Handler) Unfollow(c *gin.Context) {
	// swagger:route DELETE /offers/{id}/followers unfollowOffer
	//
	// Unfollow offer
	//
	// Unsubscribe from comment notifications. Idempotent.
	//
	// responses:
	//   204:
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.offerService.Unfollow(c, user, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Publish one ready request out of turn
func (h Handler) Publish(c *gin.Context) {
	// swagger:route POST /offers/{id}/publish publishOffer
	//
	// Publish offer
	//
	// Promote one specific ready request, skipping the queue.
	// Administrators only.
	//
	// responses:
	//   200: OfferResponse
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	offer, err := h.offerService.PublishOffer(c, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, h.response(c, offer))
}

// PublishLatest promotes the head of the queue
func (h Handler) PublishLatest(c *gin.Context) {
	// swagger:route POST /publish publishLatestOffer
	//
	// Publish latest
	//
	// Promote the request at the head of the publication queue, as the
	// scheduler would. Administrators only.
	//
	// responses:
	//   200: OfferResponse
	//   204:
	//   401: Error
	offer, err := h.offerService.PublishLatest(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if offer == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, h.response(c, offer))
}

// Retire a published offer
func (h Handler) Retire(c *gin.Context) {
	// swagger:route PUT /offers/{id}/retire retireOffer
	//
	// Retire offer
	//
	// Hide a published offer from readers. Administrators only.
	//
	// responses:
	//   200: OfferResponse
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	offer, err := h.offerService.Retire(c, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, h.response(c, offer))
}

// Republish a retired offer
func (h Handler) Republish(c *gin.Context) {
	// swagger:route PUT /offers/{id}/republish republishOffer
	//
	// Republish offer
	//
	// Restore a retired offer with a fresh publication timestamp.
	// Administrators only.
	//
	// responses:
	//   200: OfferResponse
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	offer, err := h.offerService.Republish(c, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, h.response(c, offer))
}

// Delete an offer
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /offers/{id} deleteOffer
	//
	// Delete offer
	//
	// Delete an offer with its plans and comments. Administrators only.
	//
	// responses:
	//   204:
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	if err := h.offerService.Delete(c, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h Handler) responses(c *gin.Context, offers []*model.Offer) []OfferResponse {
	responses := make([]OfferResponse, 0, len(offers))
	for _, offer := range offers {
		responses = append(responses, h.response(c, offer))
	}
	return responses
}

func planParamsOf(requests []PlanRequest) []PlanParams {
	params := make([]PlanParams, 0, len(requests))
	for _, r := range requests {
		params = append(params, PlanParams{
			ServerType:  model.ServerType(r.ServerType),
			BandwidthGB: r.BandwidthGB,
			DiskGB:      r.DiskGB,
			MemoryMB:    r.MemoryMB,
			CPUCores:    r.CPUCores,
			IPv4Count:   r.IPv4Count,
			IPv6Count:   r.IPv6Count,
			BillingTime: model.BillingTime(r.BillingTime),
			URL:         r.URL,
			PromoCode:   r.PromoCode,
			Cost:        r.Cost,
			LocationIDs: r.LocationIDs,
		})
	}
	return params
}
