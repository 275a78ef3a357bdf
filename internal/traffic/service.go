package traffic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

const defaultResultLimit = 100

// OutcomeKind tags the result of one orchestrated search resolution.
type OutcomeKind int

const (
	OutcomeRanked OutcomeKind = iota
	OutcomeStillRunning
	OutcomeNoResults
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRanked:
		return "ranked"
	case OutcomeStillRunning:
		return "still-running"
	case OutcomeNoResults:
		return "no-results"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorKind narrows an OutcomeError.
type ErrorKind int

const (
	ErrorConfig ErrorKind = iota
	ErrorProvider
	ErrorUnresolvableJob
)

// Outcome is what route handlers consume. Provider-facing failures are
// carried here as typed values rather than returned as Go errors, so the
// handler layer can map each case to an HTTP response without knowing the
// polling internals.
type Outcome struct {
	Kind OutcomeKind

	// OutcomeRanked
	Venues []RankedVenue

	// OutcomeStillRunning: enough identifiers for the caller to resume
	// polling on its own.
	ProgressLink string
	JobID        string
	CollectionID string

	// OutcomeError
	ErrorKind ErrorKind
	Status    int             // provider HTTP status; 0 for transport-level failures
	Detail    json.RawMessage // provider error payload, when available
	Message   string

	// Raw provider bodies for passthrough.
	SearchRaw   json.RawMessage
	ProgressRaw json.RawMessage
}

// Service is the public entry point of the venue-search pipeline: it drives
// search, job resolution and ranking, and wraps the result in an Outcome.
type Service struct {
	client   Client
	resolver *Resolver
	poll     PollConfig
}

// NewService creates a Service with the given poll defaults; zero fields
// fall back to the built-in defaults (30s deadline, 2s interval, 8s cap,
// 1.5 growth).
func NewService(client Client, poll PollConfig) *Service {
	return &Service{
		client:   client,
		resolver: NewResolver(client),
		poll:     poll.withDefaults(),
	}
}

// Resolve runs one full search resolution. The returned error covers only
// invalid queries; everything the provider does wrong comes back inside the
// Outcome.
func (s *Service) Resolve(ctx context.Context, q SearchQuery) (Outcome, error) {
	if err := q.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("invalid search query: %w", err)
	}
	if q.ResultLimit <= 0 {
		q.ResultLimit = defaultResultLimit
	}

	search, err := s.client.Search(ctx, q)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return Outcome{Kind: OutcomeError, ErrorKind: ErrorConfig, Message: err.Error()}, nil
		}
		log.Printf("ERROR: foot traffic search failed for %q: %v", q.QueryText, err)
		return Outcome{Kind: OutcomeError, ErrorKind: ErrorProvider, Message: err.Error()}, nil
	}

	if search.Kind == ResponseFailure {
		return Outcome{
			Kind:      OutcomeError,
			ErrorKind: ErrorProvider,
			Status:    search.Status,
			Detail:    search.Detail,
			SearchRaw: search.Raw,
		}, nil
	}

	poll := s.poll
	if q.PollDeadline > 0 {
		poll.Deadline = q.PollDeadline
	}
	if q.PollInterval > 0 {
		poll.InitialInterval = q.PollInterval
	}

	res := s.resolver.Resolve(ctx, search, poll)

	switch res.State {
	case StateInlineComplete, StatePollComplete:
		ranked := Rank(res.Venues, q.Center, q.TopN)
		if len(ranked) == 0 {
			return Outcome{Kind: OutcomeNoResults, SearchRaw: search.Raw, ProgressRaw: res.ProgressRaw}, nil
		}
		return Outcome{
			Kind:        OutcomeRanked,
			Venues:      ranked,
			SearchRaw:   search.Raw,
			ProgressRaw: res.ProgressRaw,
		}, nil

	case StatePollTimeout:
		link := res.ProgressLink
		if link == "" && res.JobID != "" && res.CollectionID != "" {
			link = fmt.Sprintf("venues/progress?job_id=%s&collection_id=%s", res.JobID, res.CollectionID)
		}
		return Outcome{
			Kind:         OutcomeStillRunning,
			ProgressLink: link,
			JobID:        res.JobID,
			CollectionID: res.CollectionID,
			SearchRaw:    search.Raw,
			ProgressRaw:  res.ProgressRaw,
		}, nil

	case StatePollError:
		return Outcome{
			Kind:        OutcomeError,
			ErrorKind:   ErrorProvider,
			Status:      res.FaultStatus,
			Detail:      res.FaultDetail,
			Message:     "foot traffic provider failed while polling",
			SearchRaw:   search.Raw,
			ProgressRaw: res.ProgressRaw,
		}, nil

	default: // StateUnresolvable
		return Outcome{
			Kind:      OutcomeError,
			ErrorKind: ErrorUnresolvableJob,
			Message:   "no venues and no resolvable job: either job_id+collection_id or a progress link must be provided",
			SearchRaw: search.Raw,
		}, nil
	}
}
