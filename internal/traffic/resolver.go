package traffic

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"
)

// PollConfig controls the progress poll loop. The growth factor and cap are
// configuration rather than constants so deployments can tune them.
type PollConfig struct {
	Deadline        time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	GrowthFactor    float64
}

const (
	defaultPollDeadline    = 30 * time.Second
	defaultPollInterval    = 2 * time.Second
	defaultPollMaxInterval = 8 * time.Second
	defaultPollGrowth      = 1.5
)

func (c PollConfig) withDefaults() PollConfig {
	if c.Deadline <= 0 {
		c.Deadline = defaultPollDeadline
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = defaultPollInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = defaultPollMaxInterval
	}
	if c.GrowthFactor <= 1 {
		c.GrowthFactor = defaultPollGrowth
	}
	return c
}

// ResolveState is the terminal state of one search resolution.
type ResolveState int

const (
	// StateInlineComplete: the search answered inline, no polling happened.
	StateInlineComplete ResolveState = iota

	// StatePollComplete: a progress poll produced venues.
	StatePollComplete

	// StatePollTimeout: the deadline elapsed (or the caller cancelled)
	// before venues appeared. A retryable condition, not a failure.
	StatePollTimeout

	// StatePollError: the provider failed during polling.
	StatePollError

	// StateUnresolvable: no venues and no usable job identifiers.
	StateUnresolvable
)

// Resolution is the outcome of driving one search response to a terminal
// state.
type Resolution struct {
	State  ResolveState
	Venues []Venue

	// Last raw progress body seen, if any poll attempt completed.
	ProgressRaw json.RawMessage

	JobID        string
	CollectionID string
	ProgressLink string

	// Provider fault information for StatePollError. Status 0 means the
	// failure was transport-level rather than an HTTP error response.
	FaultStatus int
	FaultDetail json.RawMessage
}

// Resolver decides whether a search response already holds venues or names a
// background job, and owns the poll loop for the latter. It keeps no state
// across calls.
type Resolver struct {
	client Client
}

func NewResolver(client Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve drives the provider's search response to a terminal state.
// It never blocks past the poll deadline: every path ends in one of the
// ResolveState values.
func (r *Resolver) Resolve(ctx context.Context, search Response, poll PollConfig) Resolution {
	if search.Kind == ResponseVenues {
		return Resolution{State: StateInlineComplete, Venues: search.Venues}
	}

	jobID, collectionID := completeJobPair(search)
	if jobID == "" || collectionID == "" {
		return Resolution{
			State:        StateUnresolvable,
			JobID:        jobID,
			CollectionID: collectionID,
			ProgressLink: search.ProgressLink,
		}
	}

	return r.pollJob(ctx, jobID, collectionID, search.ProgressLink, poll.withDefaults())
}

// completeJobPair takes direct identifiers first and fills missing parts
// from the progress link's query parameters.
func completeJobPair(search Response) (jobID, collectionID string) {
	jobID = search.JobID
	collectionID = search.CollectionID

	if (jobID == "" || collectionID == "") && search.ProgressLink != "" {
		if u, err := url.Parse(search.ProgressLink); err == nil {
			qs := u.Query()
			if jobID == "" {
				jobID = qs.Get("job_id")
			}
			if collectionID == "" {
				collectionID = qs.Get("collection_id")
			}
		}
	}
	return jobID, collectionID
}

func (r *Resolver) pollJob(ctx context.Context, jobID, collectionID, link string, poll PollConfig) Resolution {
	res := Resolution{
		JobID:        jobID,
		CollectionID: collectionID,
		ProgressLink: link,
	}

	deadline := time.Now().Add(poll.Deadline)
	interval := poll.InitialInterval

	for {
		resp, err := r.client.Progress(ctx, jobID, collectionID)
		if err != nil {
			// Caller-initiated cancellation is a timeout-equivalent
			// terminal state, not a provider failure.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				res.State = StatePollTimeout
				return res
			}
			res.State = StatePollError
			res.FaultDetail = quoteText(err.Error())
			return res
		}

		res.ProgressRaw = resp.Raw

		if resp.Kind == ResponseFailure {
			res.State = StatePollError
			res.FaultStatus = resp.Status
			res.FaultDetail = resp.Detail
			return res
		}

		if len(resp.Venues) > 0 {
			res.State = StatePollComplete
			res.Venues = resp.Venues
			return res
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			res.State = StatePollTimeout
			return res
		}

		sleep := interval
		if sleep > remaining {
			sleep = remaining
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			res.State = StatePollTimeout
			return res
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * poll.GrowthFactor)
		if interval > poll.MaxInterval {
			interval = poll.MaxInterval
		}
	}
}

// quoteText wraps plain text as a JSON string so it can sit in a
// json.RawMessage field.
func quoteText(s string) json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return b
}
