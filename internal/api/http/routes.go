// Package httpapi exposes the location-insights services over HTTP.
package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/b31417592/location-insights/internal/analysis"
	"github.com/b31417592/location-insights/internal/demographics"
	"github.com/b31417592/location-insights/internal/places"
	"github.com/b31417592/location-insights/internal/store"
	"github.com/b31417592/location-insights/internal/traffic"
)

var validate = validator.New()

// API bundles the services the HTTP handlers dispatch to.
type API struct {
	TrafficClient traffic.Client
	Traffic       *traffic.Service
	Places        *places.Client
	Demographics  *demographics.Store
	Targets       *store.TargetStore
	Snapshots     *store.SnapshotCache
	Analyzer      *analysis.Analyzer

	// DefaultMunicipality backs demographic lookups when neither the request
	// nor the geocoder yields one.
	DefaultMunicipality string
}

// ErrorHandler renders uncaught handler errors as a JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, api *API) {
	v1 := app.Group("/api/v1")

	v1.Post("/foot-traffic/search", api.searchFootTraffic)
	v1.Get("/foot-traffic/progress", api.footTrafficProgress)
	v1.Post("/foot-traffic/closest", api.closestVenues)

	v1.Post("/places/nearby", api.nearbyPlaces)
	v1.Post("/establishments/report", api.establishmentsReport)

	v1.Get("/demographics", api.municipalityDemographics)

	v1.Post("/analysis", api.locationAnalysis)
	v1.Post("/analysis/speech", api.analysisSpeech)

	v1.Post("/targets", api.saveTarget)
	v1.Get("/targets", api.listTargets)
	v1.Get("/targets/:id", api.getTarget)
	v1.Get("/targets/:id/foot-traffic", api.latestTargetTraffic)
	v1.Get("/targets/:id/foot-traffic/history", api.targetTrafficHistory)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
