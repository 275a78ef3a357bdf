package traffic

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressStep struct {
	resp Response
	err  error
}

// scriptedClient replays a fixed search response and a sequence of progress
// steps; the last step repeats once the script runs out.
type scriptedClient struct {
	searchResp Response
	searchErr  error
	steps      []progressStep

	progressCalls    int
	lastJobID        string
	lastCollectionID string
}

func (c *scriptedClient) Search(ctx context.Context, q SearchQuery) (Response, error) {
	return c.searchResp, c.searchErr
}

func (c *scriptedClient) Progress(ctx context.Context, jobID, collectionID string) (Response, error) {
	i := c.progressCalls
	c.progressCalls++
	c.lastJobID = jobID
	c.lastCollectionID = collectionID

	if len(c.steps) == 0 {
		return Response{Kind: ResponseVenues}, nil
	}
	if i >= len(c.steps) {
		i = len(c.steps) - 1
	}
	return c.steps[i].resp, c.steps[i].err
}

func fastPoll() PollConfig {
	return PollConfig{
		Deadline:        2 * time.Second,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
		GrowthFactor:    1.5,
	}
}

func TestResolveInlineVenuesSkipsPolling(t *testing.T) {
	client := &scriptedClient{}
	r := NewResolver(client)

	res := r.Resolve(context.Background(), Response{
		Kind:   ResponseVenues,
		Venues: []Venue{{Name: "Aroma Cafe"}},
	}, fastPoll())

	assert.Equal(t, StateInlineComplete, res.State)
	assert.Len(t, res.Venues, 1)
	assert.Zero(t, client.progressCalls)
}

func TestResolvePollsUntilVenuesArrive(t *testing.T) {
	ready := json.RawMessage(`{"venues":[{"venue_name":"Aroma Cafe"}]}`)
	client := &scriptedClient{
		steps: []progressStep{
			{resp: Response{Kind: ResponseVenues}},
			{resp: Response{Kind: ResponseVenues}},
			{resp: Response{Kind: ResponseVenues, Venues: []Venue{{Name: "Aroma Cafe"}}, Raw: ready}},
		},
	}
	r := NewResolver(client)

	res := r.Resolve(context.Background(), Response{
		Kind:         ResponseDeferred,
		JobID:        "job-1",
		CollectionID: "col-1",
	}, fastPoll())

	assert.Equal(t, StatePollComplete, res.State)
	assert.Equal(t, 3, client.progressCalls)
	require.Len(t, res.Venues, 1)
	assert.Equal(t, "Aroma Cafe", res.Venues[0].Name)
	assert.Equal(t, ready, res.ProgressRaw)
	assert.Equal(t, "job-1", client.lastJobID)
	assert.Equal(t, "col-1", client.lastCollectionID)
}

func TestResolveTimesOutAfterDeadline(t *testing.T) {
	client := &scriptedClient{}
	r := NewResolver(client)

	// Deadline 50ms with a 20ms starting interval: attempts land at roughly
	// 0ms, 20ms and 50ms (the second sleep is clamped to the remaining
	// time), then the deadline check fires.
	start := time.Now()
	res := r.Resolve(context.Background(), Response{
		Kind:         ResponseDeferred,
		JobID:        "job-1",
		CollectionID: "col-1",
	}, PollConfig{
		Deadline:        50 * time.Millisecond,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     80 * time.Millisecond,
		GrowthFactor:    1.5,
	})
	elapsed := time.Since(start)

	assert.Equal(t, StatePollTimeout, res.State)
	assert.Equal(t, 3, client.progressCalls)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, "col-1", res.CollectionID)
}

func TestResolveProviderFailureDuringPolling(t *testing.T) {
	detail := json.RawMessage(`{"error":"job disappeared"}`)
	client := &scriptedClient{
		steps: []progressStep{
			{resp: Response{Kind: ResponseFailure, Status: 503, Detail: detail}},
		},
	}
	r := NewResolver(client)

	res := r.Resolve(context.Background(), Response{
		Kind:         ResponseDeferred,
		JobID:        "job-1",
		CollectionID: "col-1",
	}, fastPoll())

	assert.Equal(t, StatePollError, res.State)
	assert.Equal(t, 503, res.FaultStatus)
	assert.Equal(t, detail, res.FaultDetail)
	assert.Equal(t, 1, client.progressCalls)
}

func TestResolveTransportErrorDuringPolling(t *testing.T) {
	client := &scriptedClient{
		steps: []progressStep{
			{err: assert.AnError},
		},
	}
	r := NewResolver(client)

	res := r.Resolve(context.Background(), Response{
		Kind:         ResponseDeferred,
		JobID:        "job-1",
		CollectionID: "col-1",
	}, fastPoll())

	assert.Equal(t, StatePollError, res.State)
	assert.Zero(t, res.FaultStatus)
	assert.JSONEq(t, `"assert.AnError general error for testing"`, string(res.FaultDetail))
}

func TestResolveIncompleteJobPairIsUnresolvable(t *testing.T) {
	client := &scriptedClient{}
	r := NewResolver(client)

	res := r.Resolve(context.Background(), Response{
		Kind:         ResponseDeferred,
		CollectionID: "col-1",
	}, fastPoll())

	assert.Equal(t, StateUnresolvable, res.State)
	assert.Zero(t, client.progressCalls)

	res = r.Resolve(context.Background(), Response{Kind: ResponseDeferred}, fastPoll())
	assert.Equal(t, StateUnresolvable, res.State)
}

func TestResolveJobPairParsedFromProgressLink(t *testing.T) {
	client := &scriptedClient{
		steps: []progressStep{
			{resp: Response{Kind: ResponseVenues, Venues: []Venue{{Name: "Aroma Cafe"}}}},
		},
	}
	r := NewResolver(client)

	res := r.Resolve(context.Background(), Response{
		Kind:         ResponseDeferred,
		ProgressLink: "https://besttime.app/api/v1/venues/progress?job_id=job-9&collection_id=col-9",
	}, fastPoll())

	assert.Equal(t, StatePollComplete, res.State)
	assert.Equal(t, "job-9", client.lastJobID)
	assert.Equal(t, "col-9", client.lastCollectionID)
}

func TestResolveDirectIDsWinOverProgressLink(t *testing.T) {
	client := &scriptedClient{
		steps: []progressStep{
			{resp: Response{Kind: ResponseVenues, Venues: []Venue{{Name: "Aroma Cafe"}}}},
		},
	}
	r := NewResolver(client)

	r.Resolve(context.Background(), Response{
		Kind:         ResponseDeferred,
		JobID:        "job-direct",
		ProgressLink: "https://besttime.app/api/v1/venues/progress?job_id=job-link&collection_id=col-link",
	}, fastPoll())

	assert.Equal(t, "job-direct", client.lastJobID)
	assert.Equal(t, "col-link", client.lastCollectionID)
}

func TestResolveCancellationReadsAsTimeout(t *testing.T) {
	client := &scriptedClient{}
	r := NewResolver(client)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := r.Resolve(ctx, Response{
		Kind:         ResponseDeferred,
		JobID:        "job-1",
		CollectionID: "col-1",
	}, PollConfig{
		Deadline:        5 * time.Second,
		InitialInterval: time.Second,
		MaxInterval:     time.Second,
		GrowthFactor:    1.5,
	})

	assert.Equal(t, StatePollTimeout, res.State)
	assert.Less(t, time.Since(start), time.Second)
}
