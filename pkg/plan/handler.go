package plan

import (
	"net/http"
	"strconv"

	"github.com/offerboard/offer-manager/internal/errdef"
	"github.com/offerboard/offer-manager/pkg/model"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func NewHandler(finder *finder) Handler {
	return Handler{finder}
}

type Handler struct {
	finder *finder
}

// PlanResponse is a plan with its display formats attached.
// swagger:model
type PlanResponse struct {
	*model.Plan
	FormattedMemory    string `json:"formattedMemory"`
	FormattedDisk      string `json:"formattedDisk"`
	FormattedBandwidth string `json:"formattedBandwidth"`
	FormattedCost      string `json:"formattedCost"`
	BillingDisplayName string `json:"billingDisplayName"`
}

// Find plans
func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /plans findPlans
	//
	// Find plans
	//
	// The plan finder: active plans filtered by attributes, ranges and
	// relations, with whitelisted ordering. Twenty per page.
	//
	// responses:
	//   200:
	//   400: Error
	query, err := parseQuery(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	plans, count, err := h.finder.Find(c, query)
	if err != nil {
		_ = c.Error(err)
		return
	}

	responses := make([]PlanResponse, 0, len(plans))
	for _, plan := range plans {
		responses = append(responses, PlanResponse{
			Plan:               plan,
			FormattedMemory:    plan.FormatMemory(),
			FormattedDisk:      plan.FormatDisk(),
			FormattedBandwidth: plan.FormatBandwidth(),
			FormattedCost:      plan.FormatCost(),
			BillingDisplayName: plan.BillingTime.DisplayName(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"plans":      responses,
		"totalCount": count,
		"page":       max(query.Page, 1),
		"pageSize":   PageSize,
	})
}

func parseQuery(c *gin.Context) (Query, error) {
	query := Query{
		ServerType:  c.Query("serverType"),
		BillingTime: c.Query("billingTime"),
		URL:         c.Query("url"),
		Country:     c.Query("country"),
		City:        c.Query("city"),
		OrderBy:     c.Query("orderBy"),
		Descending:  c.Query("order") == "desc",
	}

	var err error
	if query.HasPromoCode, err = boolParam(c, "hasPromoCode"); err != nil {
		return query, err
	}
	if query.MinBandwidthGB, err = intParam(c, "minBandwidth"); err != nil {
		return query, err
	}
	if query.MaxBandwidthGB, err = intParam(c, "maxBandwidth"); err != nil {
		return query, err
	}
	if query.MinDiskGB, err = intParam(c, "minDisk"); err != nil {
		return query, err
	}
	if query.MaxDiskGB, err = intParam(c, "maxDisk"); err != nil {
		return query, err
	}
	if query.MinMemoryMB, err = intParam(c, "minMemory"); err != nil {
		return query, err
	}
	if query.MaxMemoryMB, err = intParam(c, "maxMemory"); err != nil {
		return query, err
	}
	if query.MinIPv4, err = intParam(c, "minIpv4"); err != nil {
		return query, err
	}
	if query.MaxIPv4, err = intParam(c, "maxIpv4"); err != nil {
		return query, err
	}
	if query.MinIPv6, err = intParam(c, "minIpv6"); err != nil {
		return query, err
	}
	if query.MaxIPv6, err = intParam(c, "maxIpv6"); err != nil {
		return query, err
	}
	if query.MinCost, err = decimalParam(c, "minCost"); err != nil {
		return query, err
	}
	if query.MaxCost, err = decimalParam(c, "maxCost"); err != nil {
		return query, err
	}
	if query.OfferID, err = uintParam(c, "offer"); err != nil {
		return query, err
	}
	if query.ProviderID, err = uintParam(c, "provider"); err != nil {
		return query, err
	}
	if query.DatacenterID, err = uintParam(c, "datacenter"); err != nil {
		return query, err
	}

	page, err := intParam(c, "page")
	if err != nil {
		return query, err
	}
	if page != nil {
		query.Page = *page
	}
	return query, nil
}

func intParam(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errdef.NewBadRequest("%s must be a number", name)
	}
	return &value, nil
}

func uintParam(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, errdef.NewBadRequest("%s must be a positive number", name)
	}
	id := uint(value)
	return &id, nil
}

func boolParam(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errdef.NewBadRequest("%s must be a boolean", name)
	}
	return &value, nil
}

func decimalParam(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errdef.NewBadRequest("%s must be a decimal number", name)
	}
	return &value, nil
}
