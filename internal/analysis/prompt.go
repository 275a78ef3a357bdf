// Package analysis turns a site report into a narrative business analysis
// and renders it as speech.
package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// maxPromptCompetitors caps how many competitor lines the prompt carries.
const maxPromptCompetitors = 12

// Competitor is one competitor line for the prompt. Notes wins over
// Vicinity when both are present.
type Competitor struct {
	Name     string
	Vicinity string
	Notes    string
}

// Input carries everything the prompt can mention. Empty sections are left
// out entirely rather than rendered blank.
type Input struct {
	BusinessType string
	Latitude     float64
	Longitude    float64
	HasLocation  bool
	Description  string

	Competitors []Competitor
	OtherCount  int

	// Pre-marshalled JSON blobs, passed through verbatim.
	PopulationSummary json.RawMessage
	FootTraffic       json.RawMessage
}

// BuildPrompt assembles the analyst prompt. It is pure so tests can pin the
// exact text the model sees.
func BuildPrompt(in Input) string {
	parts := []string{
		"You are a practical business analyst. Provide a concise, actionable analysis.",
		"You should focus more on competitor's menus/services etc. and their distances like realistically can their businesses affect my business.",
	}

	if in.BusinessType != "" {
		parts = append(parts, fmt.Sprintf("Business type: %s", in.BusinessType))
	}
	if in.HasLocation {
		parts = append(parts, fmt.Sprintf("Location (lat,lng): %s,%s",
			strconv.FormatFloat(in.Latitude, 'f', -1, 64),
			strconv.FormatFloat(in.Longitude, 'f', -1, 64)))
	}
	if in.Description != "" {
		parts = append(parts, fmt.Sprintf("Description: %s", in.Description))
	}

	if len(in.Competitors) > 0 {
		lines := []string{fmt.Sprintf("Competitors (%d):", len(in.Competitors))}
		for i, c := range in.Competitors {
			if i == maxPromptCompetitors {
				break
			}
			detail := c.Notes
			if detail == "" {
				detail = c.Vicinity
			}
			lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, c.Name, detail))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if in.OtherCount > 0 {
		parts = append(parts, fmt.Sprintf("Other nearby establishments: %d total (summarize types).", in.OtherCount))
	}
	if len(in.PopulationSummary) > 0 {
		parts = append(parts, fmt.Sprintf("Demographics summary: %s", in.PopulationSummary))
	}
	if len(in.FootTraffic) > 0 {
		parts = append(parts, fmt.Sprintf("Foot traffic (nearest venues): %s", in.FootTraffic))
	}

	parts = append(parts, "Please provide:\n"+
		"1) A 2-3 sentence summary of opportunity.\n"+
		"2) 3 numbered actionable recommendations.\n"+
		"3) 3 numbered risks with one-line mitigations each.\n"+
		"Be concise and practical.")

	return strings.Join(parts, "\n\n")
}
