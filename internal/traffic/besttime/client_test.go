package besttime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/b31417592/location-insights/internal/geo"
	"github.com/b31417592/location-insights/internal/traffic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuery() traffic.SearchQuery {
	return traffic.SearchQuery{
		QueryText:    "cafe",
		Center:       geo.Coordinate{Latitude: 14.4516, Longitude: 120.9773},
		RadiusMeters: 1500,
		ResultLimit:  100,
		TopN:         3,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), srv.URL, "test-key")
}

func TestSearchSendsQueryStringParams(t *testing.T) {
	var gotMethod, gotPath string
	var gotQuery url.Values

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"venues":[{"venue_name":"Aroma Cafe","venue_lat":14.45,"venue_lon":120.97}]}`)
	})

	resp, err := client.Search(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/venues/search", gotPath)
	assert.Equal(t, "cafe", gotQuery.Get("q"))
	assert.Equal(t, "raw", gotQuery.Get("format"))
	assert.Equal(t, "100", gotQuery.Get("num"))
	assert.Equal(t, "1500", gotQuery.Get("radius"))
	assert.Equal(t, "14.4516", gotQuery.Get("lat"))
	assert.Equal(t, "120.9773", gotQuery.Get("lng"))
	assert.Equal(t, "test-key", gotQuery.Get("api_key_private"))

	assert.Equal(t, traffic.ResponseVenues, resp.Kind)
	require.Len(t, resp.Venues, 1)
	assert.Equal(t, "Aroma Cafe", resp.Venues[0].Name)
}

func TestSearchDetectsDeferredJob(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"job_id": "job-1",
			"collection_id": "col-1",
			"_links": {"venue_search_progress": "https://besttime.app/api/v1/venues/progress?job_id=job-1&collection_id=col-1"}
		}`)
	})

	resp, err := client.Search(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, traffic.ResponseDeferred, resp.Kind)
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, "col-1", resp.CollectionID)
	assert.Contains(t, resp.ProgressLink, "venues/progress")
}

func TestSearchAcceptsJobAlias(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"job": "job-2"}`)
	})

	resp, err := client.Search(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, traffic.ResponseDeferred, resp.Kind)
	assert.Equal(t, "job-2", resp.JobID)
	assert.Empty(t, resp.CollectionID)
}

func TestSearchFallbackProgressLinkScan(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status": "queued",
			"poll_here": "https://besttime.app/api/v1/venues/progress?job_id=job-3&collection_id=col-3"
		}`)
	})

	resp, err := client.Search(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, traffic.ResponseDeferred, resp.Kind)
	assert.Contains(t, resp.ProgressLink, "job_id=job-3")
}

func TestSearchVenueListAliases(t *testing.T) {
	// An empty list under the preferred key falls through to the next alias.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"venues": [], "results": [{"venue_name": "Brew Bar"}]}`)
	})

	resp, err := client.Search(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, traffic.ResponseVenues, resp.Kind)
	require.Len(t, resp.Venues, 1)
	assert.Equal(t, "Brew Bar", resp.Venues[0].Name)
}

func TestSearchEmptyAnswerHasNoVenuesAndNoJob(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "OK"}`)
	})

	resp, err := client.Search(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, traffic.ResponseVenues, resp.Kind)
	assert.Empty(t, resp.Venues)
	assert.JSONEq(t, `{"status": "OK"}`, string(resp.Raw))
}

func TestSearchFailureKeepsStatusAndDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": "rate limit"}`)
	})

	resp, err := client.Search(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, traffic.ResponseFailure, resp.Kind)
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
	assert.JSONEq(t, `{"error": "rate limit"}`, string(resp.Detail))
}

func TestSearchFailureQuotesNonJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream exploded")
	})

	resp, err := client.Search(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, traffic.ResponseFailure, resp.Kind)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.JSONEq(t, `"upstream exploded"`, string(resp.Detail))
}

func TestProgressSendsJobIdentifiers(t *testing.T) {
	var gotMethod, gotPath string
	var gotQuery url.Values

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{"job_finished": false}`)
	})

	resp, err := client.Progress(context.Background(), "job-1", "col-1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/venues/progress", gotPath)
	assert.Equal(t, "job-1", gotQuery.Get("job_id"))
	assert.Equal(t, "col-1", gotQuery.Get("collection_id"))
	assert.Equal(t, "raw", gotQuery.Get("format"))
	assert.Equal(t, "test-key", gotQuery.Get("api_key_private"))

	assert.Equal(t, traffic.ResponseVenues, resp.Kind)
	assert.Empty(t, resp.Venues)
}

func TestProgressReturnsVenuesWhenReady(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"job_finished": true, "venues": [{"venue_name": "Kapetolyo"}]}`)
	})

	resp, err := client.Progress(context.Background(), "job-1", "col-1")
	require.NoError(t, err)

	assert.Equal(t, traffic.ResponseVenues, resp.Kind)
	require.Len(t, resp.Venues, 1)
	assert.Equal(t, "Kapetolyo", resp.Venues[0].Name)
}

func TestMissingCredentialFailsBeforeAnyCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(srv.Close)

	client := New(srv.Client(), srv.URL, "")

	_, err := client.Search(context.Background(), testQuery())
	assert.True(t, errors.Is(err, traffic.ErrNoCredential))

	_, err = client.Progress(context.Background(), "job-1", "col-1")
	assert.True(t, errors.Is(err, traffic.ErrNoCredential))

	assert.False(t, called)
}
