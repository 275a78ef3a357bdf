package httpapi

import (
	"github.com/gofiber/fiber/v2"
)

func (a *API) municipalityDemographics(c *fiber.Ctx) error {
	municipality := c.Query("municipality", a.DefaultMunicipality)
	if municipality == "" {
		return fiber.NewError(fiber.StatusBadRequest, "municipality query parameter is required")
	}

	rows, err := a.Demographics.MunicipalityRows(c.Context(), municipality)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to query demographics")
	}

	return c.JSON(fiber.Map{
		"municipality": municipality,
		"rows":         rows,
	})
}
