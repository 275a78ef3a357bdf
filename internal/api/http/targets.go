package httpapi

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/b31417592/location-insights/internal/places"
	"github.com/b31417592/location-insights/internal/store"
)

type targetCompetitorPayload struct {
	Name     string          `json:"name" validate:"required"`
	Vicinity string          `json:"vicinity"`
	Details  json.RawMessage `json:"details"`
}

type targetTrafficPayload struct {
	SourceName string          `json:"source_name" validate:"required"`
	Details    json.RawMessage `json:"details"`
}

type saveTargetRequest struct {
	Name              string                    `json:"name" validate:"required"`
	BusinessType      string                    `json:"business_type"`
	Description       string                    `json:"description"`
	Latitude          *float64                  `json:"latitude" validate:"required,latitude"`
	Longitude         *float64                  `json:"longitude" validate:"required,longitude"`
	AddressComponents places.AddressComponents  `json:"address_components"`
	Data              json.RawMessage           `json:"data"`
	Competitors       []targetCompetitorPayload `json:"competitors" validate:"dive"`
	FootTraffic       []targetTrafficPayload    `json:"foot_traffic" validate:"dive"`
}

func (a *API) saveTarget(c *fiber.Ctx) error {
	var req saveTargetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	target := store.NewTarget{
		Name:         req.Name,
		BusinessType: req.BusinessType,
		Description:  req.Description,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		Municipality: req.AddressComponents.Municipality,
		Barangay:     req.AddressComponents.Barangay,
		Province:     req.AddressComponents.Province,
		Region:       req.AddressComponents.Region,
		Data:         req.Data,
	}
	for _, comp := range req.Competitors {
		target.Competitors = append(target.Competitors, store.TargetCompetitor{
			Name:     comp.Name,
			Vicinity: comp.Vicinity,
			Details:  comp.Details,
		})
	}
	for _, rec := range req.FootTraffic {
		target.FootTraffic = append(target.FootTraffic, store.TrafficRecord{
			SourceName: rec.SourceName,
			Details:    rec.Details,
		})
	}

	publicID, err := a.Targets.SaveTarget(c.Context(), target)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save target")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"target_id": publicID})
}

func (a *API) listTargets(c *fiber.Ctx) error {
	targets, err := a.Targets.ListTargets(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list targets")
	}
	return c.JSON(targets)
}

func (a *API) getTarget(c *fiber.Ctx) error {
	detail, err := a.Targets.GetTarget(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrTargetNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "target not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load target")
	}
	return c.JSON(detail)
}

func (a *API) latestTargetTraffic(c *fiber.Ctx) error {
	snap, err := a.Snapshots.Latest(c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshot) {
			return fiber.NewError(fiber.StatusNotFound, "no foot traffic snapshots for target")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load foot traffic snapshot")
	}
	return c.JSON(snap)
}

// trafficHistoryQuery holds query parameters for the snapshot history endpoint.
type trafficHistoryQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *trafficHistoryQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

func (a *API) targetTrafficHistory(c *fiber.Ctx) error {
	var q trafficHistoryQuery
	if err := q.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	targetID := c.Params("id")
	snapshots, err := a.Snapshots.Range(targetID, q.From, q.To)
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshot) {
			return fiber.NewError(fiber.StatusNotFound, "no foot traffic snapshots in requested range")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load foot traffic history")
	}

	return c.JSON(fiber.Map{
		"target_id": targetID,
		"from":      q.From,
		"to":        q.To,
		"snapshots": snapshots,
	})
}
