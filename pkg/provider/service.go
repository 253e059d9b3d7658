package provider

import (
	"context"
	"time"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/gosimple/slug"
)

func NewService(repository *repository) *Service {
	return &Service{repository: repository}
}

type Service struct {
	repository *repository
}

type CreateProviderParams struct {
	Name             string
	StartDate        time.Time
	Website          string
	TermsOfService   string
	AUP              string
	SLA              string
	BillingAgreement string
	Logo             string
}

func (s Service) Create(ctx context.Context, params CreateProviderParams) (*model.Provider, error) {
	provider := &model.Provider{
		Name:             params.Name,
		NameSlug:         slug.Make(params.Name),
		StartDate:        params.StartDate,
		Website:          params.Website,
		TermsOfService:   params.TermsOfService,
		AUP:              params.AUP,
		SLA:              params.SLA,
		BillingAgreement: params.BillingAgreement,
		Logo:             params.Logo,
	}

	err := s.repository.create(ctx, provider)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

type UpdateProviderParams struct {
	Website          string
	TermsOfService   string
	AUP              string
	SLA              string
	BillingAgreement string
	Logo             string
}

// Update lets a provider's user edit the descriptive fields. The name, and
// with it the slug, stays fixed once created.
func (s Service) Update(ctx context.Context, user *model.User, id uint, params UpdateProviderParams) (*model.Provider, error) {
	provider, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin && !user.IsProviderOf(provider.ID) {
		return nil, errdef.NewForbidden("user %d doesn't manage provider %d", user.ID, provider.ID)
	}

	provider.Website = params.Website
	provider.TermsOfService = params.TermsOfService
	provider.AUP = params.AUP
	provider.SLA = params.SLA
	provider.BillingAgreement = params.BillingAgreement
	provider.Logo = params.Logo

	err = s.repository.save(ctx, provider)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

func (s Service) FindAll(ctx context.Context) ([]*model.Provider, error) {
	return s.repository.findAll(ctx)
}

func (s Service) FindById(ctx context.Context, id uint) (*model.Provider, error) {
	return s.repository.findById(ctx, id)
}

func (s Service) FindBySlug(ctx context.Context, slug string) (*model.Provider, error) {
	return s.repository.findBySlug(ctx, slug)
}

// Delete removes a provider and cascades to its offers and locations.
func (s Service) Delete(ctx context.Context, id uint) error {
	return s.repository.delete(ctx, id)
}

type DatacenterParams struct {
	Name    string
	Website string
}

func (s Service) CreateDatacenter(ctx context.Context, params DatacenterParams) (*model.Datacenter, error) {
	datacenter := &model.Datacenter{
		Name:    params.Name,
		Website: params.Website,
	}
	err := s.repository.createDatacenter(ctx, datacenter)
	if err != nil {
		return nil, err
	}
	return datacenter, nil
}

func (s Service) FindAllDatacenters(ctx context.Context) ([]*model.Datacenter, error) {
	return s.repository.findAllDatacenters(ctx)
}

type TestIPParams struct {
	IP   string
	Type model.IPType
}

type TestDownloadParams struct {
	URL    string
	SizeMB int
}

type LocationParams struct {
	City          string
	Country       string
	DatacenterID  uint
	LookingGlass  string
	TestIPs       []TestIPParams
	TestDownloads []TestDownloadParams
}

// CreateLocation adds a location to the provider the user manages.
func (s Service) CreateLocation(ctx context.Context, user *model.User, providerID uint, params LocationParams) (*model.Location, error) {
	if !user.IsProviderOf(providerID) {
		return nil, errdef.NewForbidden("user %d doesn't manage provider %d", user.ID, providerID)
	}

	if _, err := s.repository.findDatacenterById(ctx, params.DatacenterID); err != nil {
		return nil, err
	}

	location := &model.Location{
		City:          params.City,
		Country:       params.Country,
		DatacenterID:  params.DatacenterID,
		LookingGlass:  params.LookingGlass,
		ProviderID:    providerID,
		TestIPs:       testIPs(params.TestIPs),
		TestDownloads: testDownloads(params.TestDownloads),
	}

	err := s.repository.createLocation(ctx, location)
	if err != nil {
		return nil, err
	}
	return s.repository.findLocationById(ctx, location.ID)
}

func (s Service) UpdateLocation(ctx context.Context, user *model.User, id uint, params LocationParams) (*model.Location, error) {
	location, err := s.repository.findLocationById(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.IsProviderOf(location.ProviderID) {
		return nil, errdef.NewForbidden("user %d doesn't manage provider %d", user.ID, location.ProviderID)
	}

	if _, err := s.repository.findDatacenterById(ctx, params.DatacenterID); err != nil {
		return nil, err
	}

	location.City = params.City
	location.Country = params.Country
	location.DatacenterID = params.DatacenterID
	location.LookingGlass = params.LookingGlass
	location.TestIPs = testIPs(params.TestIPs)
	location.TestDownloads = testDownloads(params.TestDownloads)

	err = s.repository.saveLocation(ctx, location)
	if err != nil {
		return nil, err
	}
	return s.repository.findLocationById(ctx, location.ID)
}

func (s Service) FindLocations(ctx context.Context, providerID uint) ([]*model.Location, error) {
	return s.repository.findLocationsByProvider(ctx, providerID)
}

func (s Service) FindLocationById(ctx context.Context, id uint) (*model.Location, error) {
	return s.repository.findLocationById(ctx, id)
}

func testIPs(params []TestIPParams) []model.TestIP {
	ips := make([]model.TestIP, len(params))
	for i, p := range params {
		ips[i] = model.TestIP{IP: p.IP, Type: p.Type}
	}
	return ips
}

func testDownloads(params []TestDownloadParams) []model.TestDownload {
	downloads := make([]model.TestDownload, len(params))
	for i, p := range params {
		downloads[i] = model.TestDownload{URL: p.URL, SizeMB: p.SizeMB}
	}
	return downloads
}
