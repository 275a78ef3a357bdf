package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/b31417592/location-insights/internal/geo"
	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

// ErrNoCredential is returned when no Places API key is configured.
var ErrNoCredential = errors.New("places api key is not configured")

// maxResults caps pagination; the API serves at most three pages of 20.
const maxResults = 60

// nearbyPage is one page of the nearby-search response.
type nearbyPage struct {
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message"`
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		Name     string `json:"name"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Types            []string `json:"types"`
		BusinessStatus   string   `json:"business_status"`
		Vicinity         string   `json:"vicinity"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
		PlaceID          string   `json:"place_id"`
		Icon             string   `json:"icon"`
		Photos           []struct {
			PhotoReference string `json:"photo_reference"`
			Width          int    `json:"width"`
			Height         int    `json:"height"`
		} `json:"photos"`
	} `json:"results"`
}

// Client calls the Google Places nearby-search endpoint.
type Client struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	backoff    BackoffConfig
	circuit    *gobreaker.CircuitBreaker

	// pageDelay is how long a freshly issued next_page_token needs before
	// it becomes valid on Google's side.
	pageDelay time.Duration
}

func NewClient(client *http.Client, apiKey string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "googleplaces",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		name:       "googleplaces",
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: client,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit:   cb,
		pageDelay: 2 * time.Second,
	}
}

func (c *Client) Name() string {
	return c.name
}

// NearbySearch returns establishments around center, following pagination
// tokens up to the result cap. A ZERO_RESULTS answer is an empty slice, not
// an error.
func (c *Client) NearbySearch(ctx context.Context, center geo.Coordinate, radiusMeters int) ([]Place, error) {
	if c.apiKey == "" {
		return nil, ErrNoCredential
	}

	var places []Place
	pageToken := ""

	for {
		page, err := c.fetchPage(ctx, center, radiusMeters, pageToken)
		if err != nil {
			return nil, err
		}

		switch page.Status {
		case "OK":
		case "ZERO_RESULTS":
			return places, nil
		default:
			if page.ErrorMessage != "" {
				return nil, fmt.Errorf("places api status %s: %s", page.Status, page.ErrorMessage)
			}
			return nil, fmt.Errorf("places api status %s", page.Status)
		}

		for _, r := range page.Results {
			p := Place{
				Name:             r.Name,
				Lat:              r.Geometry.Location.Lat,
				Lng:              r.Geometry.Location.Lng,
				Types:            r.Types,
				BusinessStatus:   r.BusinessStatus,
				Vicinity:         r.Vicinity,
				Rating:           r.Rating,
				UserRatingsTotal: r.UserRatingsTotal,
				PlaceID:          r.PlaceID,
				Icon:             r.Icon,
			}
			if len(r.Photos) > 0 {
				p.PhotoReference = r.Photos[0].PhotoReference
				p.PhotoWidth = r.Photos[0].Width
				p.PhotoHeight = r.Photos[0].Height
			}

			places = append(places, p)
			if len(places) >= maxResults {
				return places, nil
			}
		}

		if page.NextPageToken == "" {
			return places, nil
		}
		pageToken = page.NextPageToken

		timer := time.NewTimer(c.pageDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, center geo.Coordinate, radiusMeters int, pageToken string) (*nearbyPage, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", c.apiKey)

		if pageToken != "" {
			values.Set("pagetoken", pageToken)
		} else {
			values.Set("location", fmt.Sprintf("%s,%s",
				strconv.FormatFloat(center.Latitude, 'f', -1, 64),
				strconv.FormatFloat(center.Longitude, 'f', -1, 64)))
			values.Set("radius", strconv.Itoa(radiusMeters))
		}

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doWithResilience(ctx, c.httpClient, c.backoff, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var page nearbyPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}
	return &page, nil
}
