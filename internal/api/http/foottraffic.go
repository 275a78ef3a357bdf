package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/b31417592/location-insights/internal/geo"
	"github.com/b31417592/location-insights/internal/traffic"
)

const (
	defaultSearchRadiusMeters  = 5000
	defaultClosestRadiusMeters = 2000
	defaultTopN                = 3
)

// searchRequest is the body of the raw venue-search passthrough.
type searchRequest struct {
	Query        string   `json:"q" validate:"required"`
	Latitude     *float64 `json:"lat" validate:"required,latitude"`
	Longitude    *float64 `json:"lng" validate:"required,longitude"`
	RadiusMeters int      `json:"radius" validate:"omitempty,min=1"`
	ResultLimit  int      `json:"num" validate:"omitempty,min=1"`
}

func (a *API) searchFootTraffic(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	q := traffic.SearchQuery{
		QueryText:    req.Query,
		Center:       geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude},
		RadiusMeters: req.RadiusMeters,
		ResultLimit:  req.ResultLimit,
		TopN:         1,
	}
	if q.RadiusMeters <= 0 {
		q.RadiusMeters = defaultSearchRadiusMeters
	}
	if q.ResultLimit <= 0 {
		q.ResultLimit = 100
	}

	resp, err := a.TrafficClient.Search(c.Context(), q)
	if err != nil {
		if errors.Is(err, traffic.ErrNoCredential) {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return providerPassthrough(c, resp)
}

func (a *API) footTrafficProgress(c *fiber.Ctx) error {
	jobID := c.Query("job_id")
	collectionID := c.Query("collection_id")
	if jobID == "" || collectionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "job_id and collection_id query parameters are required")
	}

	resp, err := a.TrafficClient.Progress(c.Context(), jobID, collectionID)
	if err != nil {
		if errors.Is(err, traffic.ErrNoCredential) {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return providerPassthrough(c, resp)
}

// closestRequest is the body of the orchestrated closest-venues endpoint.
// business_type doubles as the search text; q is the fallback.
type closestRequest struct {
	BusinessType string   `json:"business_type"`
	Query        string   `json:"q"`
	Latitude     *float64 `json:"lat" validate:"required,latitude"`
	Longitude    *float64 `json:"lng" validate:"required,longitude"`
	RadiusMeters int      `json:"radius" validate:"omitempty,min=1"`
	ResultLimit  int      `json:"num" validate:"omitempty,min=1"`
	TopN         int      `json:"top_n" validate:"omitempty,min=1"`

	// Optional polling overrides, in seconds.
	ProgressTimeoutSec  float64 `json:"progress_timeout" validate:"omitempty,gt=0"`
	ProgressIntervalSec float64 `json:"progress_interval" validate:"omitempty,gt=0"`
}

func (r closestRequest) queryText() string {
	if r.BusinessType != "" {
		return r.BusinessType
	}
	return r.Query
}

func (a *API) closestVenues(c *fiber.Ctx) error {
	var req closestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.queryText() == "" {
		return fiber.NewError(fiber.StatusBadRequest, "business_type or q is required")
	}

	q := traffic.SearchQuery{
		QueryText:    req.queryText(),
		Center:       geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude},
		RadiusMeters: req.RadiusMeters,
		ResultLimit:  req.ResultLimit,
		TopN:         req.TopN,
	}
	if q.RadiusMeters <= 0 {
		q.RadiusMeters = defaultClosestRadiusMeters
	}
	if q.TopN <= 0 {
		q.TopN = defaultTopN
	}
	if req.ProgressTimeoutSec > 0 {
		q.PollDeadline = time.Duration(req.ProgressTimeoutSec * float64(time.Second))
	}
	if req.ProgressIntervalSec > 0 {
		q.PollInterval = time.Duration(req.ProgressIntervalSec * float64(time.Second))
	}

	out, err := a.Traffic.Resolve(c.Context(), q)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	switch out.Kind {
	case traffic.OutcomeRanked:
		return c.JSON(fiber.Map{
			"top_venues":      out.Venues,
			"search_response": out.SearchRaw,
		})

	case traffic.OutcomeStillRunning:
		body := fiber.Map{
			"error":           "Venue search still running (timed out while polling).",
			"search_response": out.SearchRaw,
		}
		if len(out.ProgressRaw) > 0 {
			body["progress_response"] = out.ProgressRaw
		}
		if out.ProgressLink != "" {
			body["progress_link"] = out.ProgressLink
		}
		return c.Status(fiber.StatusAccepted).JSON(body)

	case traffic.OutcomeNoResults:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":           "No venues found in BestTime response",
			"search_response": out.SearchRaw,
		})

	default:
		if out.ErrorKind == traffic.ErrorProvider {
			return providerFailure(c, out.Status, out.Message, out.Detail)
		}
		return fiber.NewError(fiber.StatusInternalServerError, out.Message)
	}
}

// providerPassthrough relays the provider body as-is; failure responses keep
// the provider's own status code.
func providerPassthrough(c *fiber.Ctx, resp traffic.Response) error {
	if resp.Kind == traffic.ResponseFailure {
		return providerFailure(c, resp.Status, "", resp.Detail)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(resp.Raw)
}

func providerFailure(c *fiber.Ctx, status int, message string, detail json.RawMessage) error {
	if status <= 0 {
		status = fiber.StatusBadGateway
	}
	if message == "" {
		message = fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	body := fiber.Map{"error": message}
	if len(detail) > 0 {
		body["details"] = detail
	}
	return c.Status(status).JSON(body)
}
