package provider

import (
	"net/http"
	"time"

	"github.com/offerboard/offer-manager/internal/handler"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/gin-gonic/gin"
)

func NewHandler(providerService *Service) Handler {
	return Handler{providerService}
}

type Handler struct {
	providerService *Service
}

type CreateProviderRequest struct {
	Name             string    `json:"name" binding:"required"`
	StartDate        time.Time `json:"startDate" binding:"required"`
	Website          string    `json:"website" binding:"required,url"`
	TermsOfService   string    `json:"termsOfService" binding:"required"`
	AUP              string    `json:"aup" binding:"required"`
	SLA              string    `json:"sla"`
	BillingAgreement string    `json:"billingAgreement"`
	Logo             string    `json:"logo"`
}

// Create provider
func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /providers createProvider
	//
	// Create provider
	//
	// Create a provider. Administrators only.
	//
	// responses:
	//   201: Provider
	//   400: Error
	//   401: Error
	//   404: Error
	//   409: Error
	var request CreateProviderRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	provider, err := h.providerService.Create(c, CreateProviderParams{
		Name:             request.Name,
		StartDate:        request.StartDate,
		Website:          request.Website,
		TermsOfService:   request.TermsOfService,
		AUP:              request.AUP,
		SLA:              request.SLA,
		BillingAgreement: request.BillingAgreement,
		Logo:             request.Logo,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, provider)
}

type UpdateProviderRequest struct {
	Website          string `json:"website" binding:"required,url"`
	TermsOfService   string `json:"termsOfService" binding:"required"`
	AUP              string `json:"aup" binding:"required"`
	SLA              string `json:"sla"`
	BillingAgreement string `json:"billingAgreement"`
	Logo             string `json:"logo"`
}

// Update provider
func (h Handler) Update(c *gin.Context) {
	// swagger:route PUT /providers/{id} updateProvider
	//
	// Update provider
	//
	// Update a provider's descriptive fields. Requires provider ownership.
	//
	// responses:
	//   200: Provider
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

	var request UpdateProviderRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	provider, err := h.providerService.Update(c, user, id, UpdateProviderParams{
		Website:          request.Website,
		TermsOfService:   request.TermsOfService,
		AUP:              request.AUP,
		SLA:              request.SLA,
		BillingAgreement: request.BillingAgreement,
		Logo:             request.Logo,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, provider)
}

// FindAll providers
func (h Handler) FindAll(c *gin.Context) {
	// swagger:route GET /providers listProviders
	//
	// List providers
	//
	// responses:
	//   200: []Provider
	providers, err := h.providerService.FindAll(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, providers)
}

// FindBySlug provider
func (h Handler) FindBySlug(c *gin.Context) {
	// swagger:route GET /providers/{slug} findProvider
	//
	// Find provider
	//
	// Find a provider by its name slug, locations included.
	//
	// responses:
	//   200: Provider
	//   404: Error
	provider, err := h.providerService.FindBySlug(c, c.Param("slug"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, provider)
}

// Delete provider
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /providers/{id} deleteProvider
	//
	// Delete provider
	//
	// Delete a provider and cascade to its offers and locations.
	// Administrators only.
	//
	// responses:
	//   204:
	//   400: Error
	//   401: Error
	//   404: Error
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	if err := h.providerService.Delete(c, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type DatacenterRequest struct {
	Name    string `json:"name" binding:"required"`
	Website string `json:"website" binding:"omitempty,url"`
}

// CreateDatacenter datacenter
func (h Handler) CreateDatacenter(c *gin.Context) {
	// swagger:route POST /datacenters createDatacenter
	//
	// Create datacenter
	//
	// Administrators only.
	//
	// responses:
	//   201: Datacenter
	//   400: Error
	//   401: Error
	//   404: Error
	var request DatacenterRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	datacenter, err := h.providerService.CreateDatacenter(c, DatacenterParams(request))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, datacenter)
}

// FindAllDatacenters datacenters
func (h Handler) FindAllDatacenters(c *gin.Context) {
	// swagger:route GET /datacenters listDatacenters
	//
	// List datacenters
	//
	// responses:
	//   200: []Datacenter
	datacenters, err := h.providerService.FindAllDatacenters(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, datacenters)
}

type TestIPRequest struct {
	IP   string       `json:"ip" binding:"required,ip"`
	Type model.IPType `json:"type" binding:"required,oneOf=v4 v6"`
}

type TestDownloadRequest struct {
	URL    string `json:"url" binding:"required,url"`
	SizeMB int    `json:"sizeMb" binding:"required,gt=0"`
}

type LocationRequest struct {
	City          string                `json:"city" binding:"required"`
	Country       string                `json:"country" binding:"required"`
	DatacenterID  uint                  `json:"datacenterId" binding:"required"`
	LookingGlass  string                `json:"lookingGlass" binding:"omitempty,url"`
	TestIPs       []TestIPRequest       `json:"testIps" binding:"dive"`
	TestDownloads []TestDownloadRequest `json:"testDownloads" binding:"dive"`
}

func (r LocationRequest) params() LocationParams {
	params := LocationParams{
		City:         r.City,
		Country:      r.Country,
		DatacenterID: r.DatacenterID,
		LookingGlass: r.LookingGlass,
	}
	for _, ip := range r.TestIPs {
		params.TestIPs = append(params.TestIPs, TestIPParams{IP: ip.IP, Type: ip.Type})
	}
	for _, download := range r.TestDownloads {
		params.TestDownloads = append(params.TestDownloads, TestDownloadParams{URL: download.URL, SizeMB: download.SizeMB})
	}
	return params
}

// CreateLocation location
func (h Handler) CreateLocation(c *gin.Context) {
	// swagger:route POST /providers/{id}/locations createLocation
	//
	// Create location
	//
	// Add a location to the provider the caller manages.
	//
	// responses:
	//   201: Location
	//   400: Error
	//   401: Error
	//   404: Error
	providerID, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request LocationRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	location, err := h.providerService.CreateLocation(c, user, providerID, request.params())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, location)
}

// UpdateLocation location
func (h Handler) UpdateLocation(c *gin.Context) {
	// swagger:route PUT /locations/{id} updateLocation
	//
	// Update location
	//
	// responses:
	//   200: Location
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

	var request LocationRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	location, err := h.providerService.UpdateLocation(c, user, id, request.params())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, location)
}

// FindLocations locations
func (h Handler) FindLocations(c *gin.Context) {
	// swagger:route GET /providers/{slug}/locations listLocations
	//
	// List locations
	//
	// List the locations of a provider.
	//
	// responses:
	//   200: []Location
	//   404: Error
	provider, err := h.providerService.FindBySlug(c, c.Param("slug"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	locations, err := h.providerService.FindLocations(c, provider.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, locations)
}
