package update

import (
	"net/http"

	"github.com/offerboard/offer-manager/internal/handler"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func NewHandler(updateService *Service) Handler {
	return Handler{updateService}
}

type Handler struct {
	updateService *Service
}

// Open returns the pending update of an offer, creating it on first call
func (h Handler) Open(c *gin.Context) {
	// swagger:route POST /offers/{id}/update openUpdate
	//
	// Open update
	//
	// Staged copy of a published offer, created on first call. Requires
	// provider ownership.
	//
	// responses:
	//   200: OfferUpdate
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

	update, err := h.updateService.GetUpdateFor(c, user, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, update)
}

type EditUpdateRequest struct {
	Name     string `json:"name" binding:"required"`
	Content  string `json:"content" binding:"required"`
	IsActive *bool  `json:"isActive" binding:"required"`
}

// Edit the staged offer fields
func (h Handler) Edit(c *gin.Context) {
	// swagger:route PUT /updates/{id} editUpdate
	//
	// Edit update
	//
	// Overwrite the staged offer fields. Requires provider ownership.
	//
	// responses:
	//   200: OfferUpdate
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

	var request EditUpdateRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	update, err := h.updateService.Edit(c, user, id, EditParams{
		Name:     request.Name,
		Content:  request.Content,
		IsActive: *request.IsActive,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, update)
}

type PlanUpdateRequest struct {
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
	IsActive    *bool           `json:"isActive" binding:"required"`
	LocationIDs []uint          `json:"locationIds"`
}

// EditPlan overwrites one staged plan
func (h Handler) EditPlan(c *gin.Context) {
	// swagger:route PUT /plan-updates/{id} editUpdatePlan
	//
	// Edit staged plan
	//
	// Overwrite one staged plan. Requires provider ownership.
	//
	// responses:
	//   200: PlanUpdate
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

	var request PlanUpdateRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	planUpdate, err := h.updateService.EditPlan(c, user, id, planParamsOf(request))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, planUpdate)
}

// AddPlan stages a new plan on the update
func (h Handler) AddPlan(c *gin.Context) {
	// swagger:route POST /updates/{id}/plans addUpdatePlan
	//
	// Add staged plan
	//
	// Stage a plan that will be created on the offer when the update is
	// applied. Requires provider ownership.
	//
	// responses:
	//   201: PlanUpdate
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

	var request PlanUpdateRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	planUpdate, err := h.updateService.AddPlan(c, user, id, planParamsOf(request))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, planUpdate)
}

type ReadyUpdateRequest struct {
	Ready *bool `json:"ready" binding:"required"`
}

// MarkReady flags the update as reviewable
func (h Handler) MarkReady(c *gin.Context) {
	// swagger:route PUT /updates/{id}/ready markUpdateReady
	//
	// Mark update ready
	//
	// Flag the update as complete and reviewable. Requires provider
	// ownership.
	//
	// responses:
	//   200: OfferUpdate
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

	var request ReadyUpdateRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	update, err := h.updateService.MarkReady(c, user, id, *request.Ready)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, update)
}

// Apply merges the update onto the live offer
func (h Handler) Apply(c *gin.Context) {
	// swagger:route POST /updates/{id}/apply applyUpdate
	//
	// Apply update
	//
	// Merge the staged copy back onto the live offer and delete the update.
	// Administrators only.
	//
	// responses:
	//   200: Offer
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	offer, err := h.updateService.Apply(c, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// Discard drops the update
func (h Handler) Discard(c *gin.Context) {
	// swagger:route DELETE /updates/{id} discardUpdate
	//
	// Discard update
	//
	// Drop the staged copy without touching the live offer. Requires
	// provider ownership.
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

	if err := h.updateService.Discard(c, user, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func planParamsOf(request PlanUpdateRequest) PlanParams {
	return PlanParams{
		ServerType:  model.ServerType(request.ServerType),
		BandwidthGB: request.BandwidthGB,
		DiskGB:      request.DiskGB,
		MemoryMB:    request.MemoryMB,
		CPUCores:    request.CPUCores,
		IPv4Count:   request.IPv4Count,
		IPv6Count:   request.IPv6Count,
		BillingTime: model.BillingTime(request.BillingTime),
		URL:         request.URL,
		PromoCode:   request.PromoCode,
		Cost:        request.Cost,
		IsActive:    *request.IsActive,
		LocationIDs: request.LocationIDs,
	}
}
