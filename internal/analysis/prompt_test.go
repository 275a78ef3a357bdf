package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptIncludesAllSections(t *testing.T) {
	in := Input{
		BusinessType: "cafe",
		Latitude:     14.4516,
		Longitude:    120.9773,
		HasLocation:  true,
		Description:  "Specialty coffee near the city hall.",
		Competitors: []Competitor{
			{Name: "Aroma Cafe", Vicinity: "Main St"},
			{Name: "Beanhouse", Vicinity: "Real St", Notes: "cheap espresso, open late"},
		},
		OtherCount:        17,
		PopulationSummary: json.RawMessage(`{"total":2000}`),
		FootTraffic:       json.RawMessage(`[{"venue_name":"Kapetolyo"}]`),
	}

	prompt := BuildPrompt(in)

	assert.Contains(t, prompt, "You are a practical business analyst.")
	assert.Contains(t, prompt, "\n\nBusiness type: cafe")
	assert.Contains(t, prompt, "Location (lat,lng): 14.4516,120.9773")
	assert.Contains(t, prompt, "Description: Specialty coffee near the city hall.")
	assert.Contains(t, prompt, "Competitors (2):\n1. Aroma Cafe - Main St\n2. Beanhouse - cheap espresso, open late")
	assert.Contains(t, prompt, "Other nearby establishments: 17 total (summarize types).")
	assert.Contains(t, prompt, `Demographics summary: {"total":2000}`)
	assert.Contains(t, prompt, `Foot traffic (nearest venues): [{"venue_name":"Kapetolyo"}]`)
	assert.Contains(t, prompt, "1) A 2-3 sentence summary of opportunity.")
	assert.True(t, strings.HasSuffix(prompt, "Be concise and practical."))
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	prompt := BuildPrompt(Input{})

	assert.NotContains(t, prompt, "Business type:")
	assert.NotContains(t, prompt, "Location (lat,lng):")
	assert.NotContains(t, prompt, "Competitors")
	assert.NotContains(t, prompt, "Demographics summary:")
	assert.Contains(t, prompt, "You are a practical business analyst.")
	assert.Contains(t, prompt, "Please provide:")
}

func TestBuildPromptCapsCompetitorLines(t *testing.T) {
	var in Input
	for i := 1; i <= 15; i++ {
		in.Competitors = append(in.Competitors, Competitor{Name: fmt.Sprintf("C%d", i)})
	}

	prompt := BuildPrompt(in)

	assert.Contains(t, prompt, "Competitors (15):")
	assert.Contains(t, prompt, "12. C12")
	assert.NotContains(t, prompt, "13. C13")
}

func TestTruncateForSpeech(t *testing.T) {
	short := "A short analysis."
	assert.Equal(t, short, TruncateForSpeech(short))

	long := strings.Repeat("ñ", 5000)
	got := TruncateForSpeech(long)

	assert.True(t, strings.HasSuffix(got, "... (truncated for text-to-speech)"))
	assert.Equal(t, 4000+len([]rune("... (truncated for text-to-speech)")), len([]rune(got)))
}
