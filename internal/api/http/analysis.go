package httpapi

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/b31417592/location-insights/internal/analysis"
)

type analysisLocation struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

type analysisCompetitor struct {
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Notes    string `json:"notes"`
}

// analysisRequest carries whatever context the caller has assembled for the
// site; every section except the location is optional and the prompt simply
// omits what is missing.
type analysisRequest struct {
	TargetLocation      *analysisLocation    `json:"target_location" validate:"required"`
	BusinessType        string               `json:"business_type"`
	Description         string               `json:"description"`
	Competitors         []analysisCompetitor `json:"competitors"`
	OtherEstablishments []json.RawMessage    `json:"other_establishments"`
	PopulationSummary   json.RawMessage      `json:"population_summary"`
	FootTraffic         json.RawMessage      `json:"foot_traffic"`
	SelectedBarangays   []string             `json:"selected_barangays"`
}

func (a *API) locationAnalysis(c *fiber.Ctx) error {
	var req analysisRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	in := analysis.Input{
		BusinessType:      req.BusinessType,
		Description:       req.Description,
		OtherCount:        len(req.OtherEstablishments),
		PopulationSummary: req.PopulationSummary,
		FootTraffic:       req.FootTraffic,
	}
	if req.TargetLocation != nil {
		in.HasLocation = true
		in.Latitude = *req.TargetLocation.Latitude
		in.Longitude = *req.TargetLocation.Longitude
	}
	for _, comp := range req.Competitors {
		in.Competitors = append(in.Competitors, analysis.Competitor{
			Name:     comp.Name,
			Vicinity: comp.Vicinity,
			Notes:    comp.Notes,
		})
	}

	text, err := a.Analyzer.Narrative(c.Context(), in)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"analysis":           text,
		"selected_barangays": req.SelectedBarangays,
	})
}

type speechRequest struct {
	Text string `json:"text" validate:"required"`
}

func (a *API) analysisSpeech(c *fiber.Ctx) error {
	var req speechRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	audio, err := a.Analyzer.Speech(c.Context(), req.Text)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(audio)
}
