package httpapi

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/b31417592/location-insights/internal/demographics"
	"github.com/b31417592/location-insights/internal/geo"
	"github.com/b31417592/location-insights/internal/places"
)

const (
	defaultNearbyRadiusMeters = 1500
	defaultReportRadiusMeters = 2000
)

type nearbyRequest struct {
	Latitude     *float64 `json:"latitude" validate:"required,latitude"`
	Longitude    *float64 `json:"longitude" validate:"required,longitude"`
	RadiusMeters int      `json:"radius" validate:"omitempty,min=1"`
}

func (a *API) nearbyPlaces(c *fiber.Ctx) error {
	var req nearbyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	radius := req.RadiusMeters
	if radius <= 0 {
		radius = defaultNearbyRadiusMeters
	}

	center := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	found, err := a.Places.NearbySearch(c.Context(), center, radius)
	if err != nil {
		if errors.Is(err, places.ErrNoCredential) {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(fiber.Map{"places": found})
}

type reportRequest struct {
	Latitude          *float64                 `json:"latitude" validate:"required,latitude"`
	Longitude         *float64                 `json:"longitude" validate:"required,longitude"`
	BusinessType      string                   `json:"business_type"`
	Description       string                   `json:"description"`
	AddressComponents places.AddressComponents `json:"address_components"`
}

// establishmentsReport builds the full picture around a prospective site:
// nearby establishments split into competitors and everything else, the
// administrative address, and the demographic profile of the municipality.
// Geocoding and demographics are best-effort; their failures degrade the
// report instead of failing it.
func (a *API) establishmentsReport(c *fiber.Ctx) error {
	var req reportRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	businessType := req.BusinessType
	if businessType == "" {
		businessType = "other"
	}

	center := geo.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	found, err := a.Places.NearbySearch(c.Context(), center, defaultReportRadiusMeters)
	if err != nil {
		if errors.Is(err, places.ErrNoCredential) {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	competitors, others := places.PartitionCompetitors(found, businessType)

	// Client-supplied components win; the geocoder fills in the rest.
	addr := req.AddressComponents
	if server, err := places.ReverseGeocode(center); err != nil {
		log.Printf("ERROR: establishments report: %v", err)
	} else {
		addr = addr.Merge(server)
	}

	var population *demographics.Summary
	municipality := addr.Municipality
	if municipality == "" {
		municipality = a.DefaultMunicipality
	}
	if municipality != "" {
		rows, err := a.Demographics.MunicipalityRows(c.Context(), municipality)
		if err != nil {
			log.Printf("ERROR: establishments report: demographics for %q: %v", municipality, err)
		} else {
			summary := demographics.Aggregate(rows)
			population = &summary
		}
	}

	return c.JSON(fiber.Map{
		"competitors":          competitors,
		"other_establishments": others,
		"type_summary":         places.TypeSummary(others),
		"address_components":   addr,
		"population":           population,
	})
}
