// Package besttime implements the foot-traffic provider client against the
// BestTime API, which answers either inline or by opening a background
// search job.
package besttime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/b31417592/location-insights/internal/traffic"
)

// DefaultBaseURL is the public BestTime API root.
const DefaultBaseURL = "https://besttime.app/api/v1"

// venueListKeys are the body keys that may hold the venue list, in the
// order they are tried. The provider is not consistent about the name.
var venueListKeys = []string{"venues", "results", "items", "found_venues"}

// Client is a stateless BestTime adapter. It performs single calls only;
// retry and polling policy belong to the caller.
type Client struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. An empty baseURL selects the public API; the
// http.Client's timeout bounds each call.
func New(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		name:       "besttime",
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Name() string {
	return c.name
}

// Search issues the venue search call. The API expects POST with
// query-string parameters and an empty body.
func (c *Client) Search(ctx context.Context, q traffic.SearchQuery) (traffic.Response, error) {
	if c.apiKey == "" {
		return traffic.Response{}, fmt.Errorf("besttime: %w", traffic.ErrNoCredential)
	}

	values := url.Values{}
	values.Set("q", q.QueryText)
	values.Set("format", "raw")
	values.Set("num", strconv.Itoa(q.ResultLimit))
	values.Set("radius", strconv.Itoa(q.RadiusMeters))
	values.Set("lat", formatCoord(q.Center.Latitude))
	values.Set("lng", formatCoord(q.Center.Longitude))
	values.Set("api_key_private", c.apiKey)

	body, status, err := c.do(ctx, http.MethodPost, "/venues/search", values)
	if err != nil {
		return traffic.Response{}, err
	}
	if status < 200 || status >= 300 {
		return failureResponse(status, body), nil
	}
	return normalizeSearch(body)
}

// Progress issues the poll call for a known job. It never reports a
// deferred response: a poll either has venues or it doesn't yet.
func (c *Client) Progress(ctx context.Context, jobID, collectionID string) (traffic.Response, error) {
	if c.apiKey == "" {
		return traffic.Response{}, fmt.Errorf("besttime: %w", traffic.ErrNoCredential)
	}

	values := url.Values{}
	values.Set("job_id", jobID)
	values.Set("collection_id", collectionID)
	values.Set("format", "raw")
	values.Set("api_key_private", c.apiKey)

	body, status, err := c.do(ctx, http.MethodGet, "/venues/progress", values)
	if err != nil {
		return traffic.Response{}, err
	}
	if status < 200 || status >= 300 {
		return failureResponse(status, body), nil
	}
	return normalizeProgress(body)
}

func (c *Client) do(ctx context.Context, method, path string, values url.Values) ([]byte, int, error) {
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, 0, err
	}

	log.Printf("DEBUG: besttime %s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("besttime %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read besttime response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// failureResponse normalizes a non-2xx answer. The detail keeps the body as
// JSON when it parses, else the text JSON-quoted, so callers can surface the
// provider's machine-readable error payloads.
func failureResponse(status int, body []byte) traffic.Response {
	resp := traffic.Response{Kind: traffic.ResponseFailure, Status: status}
	if json.Valid(body) {
		resp.Detail = json.RawMessage(body)
		resp.Raw = json.RawMessage(body)
	} else {
		resp.Detail = quoteText(string(body))
	}
	return resp
}

func normalizeSearch(body []byte) (traffic.Response, error) {
	if !json.Valid(body) {
		return traffic.Response{}, fmt.Errorf("besttime returned a malformed body")
	}

	resp := traffic.Response{Kind: traffic.ResponseVenues, Raw: json.RawMessage(body)}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		// Valid JSON that is not an object: nothing to extract.
		return resp, nil
	}

	if venues, ok := extractVenues(top); ok {
		resp.Venues = venues
		return resp, nil
	}

	if jobID, collectionID, link, ok := extractJobInfo(top); ok {
		return traffic.Response{
			Kind:         traffic.ResponseDeferred,
			JobID:        jobID,
			CollectionID: collectionID,
			ProgressLink: link,
			Raw:          resp.Raw,
		}, nil
	}

	// No venues and no job info: an empty inline answer.
	return resp, nil
}

func normalizeProgress(body []byte) (traffic.Response, error) {
	if !json.Valid(body) {
		return traffic.Response{}, fmt.Errorf("besttime returned a malformed body")
	}

	resp := traffic.Response{Kind: traffic.ResponseVenues, Raw: json.RawMessage(body)}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return resp, nil
	}

	if venues, ok := extractVenues(top); ok {
		resp.Venues = venues
	}
	return resp, nil
}

// extractVenues scans the candidate keys in order and returns the first
// non-empty venue list. A key holding an empty or undecodable list falls
// through to the next candidate.
func extractVenues(top map[string]json.RawMessage) ([]traffic.Venue, bool) {
	for _, key := range venueListKeys {
		raw, ok := top[key]
		if !ok {
			continue
		}
		var venues []traffic.Venue
		if err := json.Unmarshal(raw, &venues); err != nil {
			continue
		}
		if len(venues) > 0 {
			return venues, true
		}
	}
	return nil, false
}

// extractJobInfo looks for background-job identifiers: direct ids first,
// then the documented _links entry, then any top-level string value that
// mentions the progress endpoint. The fallback scans keys in sorted order
// so the pick is deterministic.
func extractJobInfo(top map[string]json.RawMessage) (jobID, collectionID, link string, ok bool) {
	jobID = stringField(top, "job_id")
	if jobID == "" {
		jobID = stringField(top, "job")
	}
	collectionID = stringField(top, "collection_id")

	if raw, has := top["_links"]; has {
		var links struct {
			VenueSearchProgress string `json:"venue_search_progress"`
		}
		if err := json.Unmarshal(raw, &links); err == nil {
			link = links.VenueSearchProgress
		}
	}

	if link == "" {
		keys := make([]string, 0, len(top))
		for k := range top {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			var s string
			if err := json.Unmarshal(top[k], &s); err != nil {
				continue
			}
			if strings.Contains(s, "venues/progress") {
				link = s
				break
			}
		}
	}

	ok = jobID != "" || collectionID != "" || link != ""
	return jobID, collectionID, link, ok
}

func stringField(top map[string]json.RawMessage, key string) string {
	raw, ok := top[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func quoteText(s string) json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return b
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
