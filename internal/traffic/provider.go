package traffic

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNoCredential is returned by a Client before any network call when the
// provider credential is missing. It is a configuration error and is never
// retried.
var ErrNoCredential = errors.New("foot traffic api key is not configured")

// ResponseKind tags the variant of a normalized provider response.
type ResponseKind int

const (
	// ResponseVenues means the provider answered inline. The venue list may
	// be empty, which callers treat as "no results", not as an error.
	ResponseVenues ResponseKind = iota

	// ResponseDeferred means the provider accepted the query as a background
	// job to be polled.
	ResponseDeferred

	// ResponseFailure means the provider returned a non-success HTTP status.
	ResponseFailure
)

// Response is the normalized boundary between the provider client and the
// rest of the pipeline. Exactly one variant is meaningful, selected by Kind.
type Response struct {
	Kind ResponseKind

	// ResponseVenues
	Venues []Venue

	// ResponseDeferred; any of these may be empty depending on what the
	// provider included.
	JobID        string
	CollectionID string
	ProgressLink string

	// ResponseFailure: the HTTP status and the best-effort decoded body
	// (raw JSON when parseable, else the body text JSON-quoted).
	Status int
	Detail json.RawMessage

	// Raw is the response body as received, for passthrough to callers.
	Raw json.RawMessage
}

// Client performs single authenticated calls against the foot-traffic
// provider. Implementations must be safe for concurrent use, hold no
// per-call state, and do no retrying of their own: transport and decode
// problems surface as errors, non-2xx answers as ResponseFailure.
type Client interface {
	Search(ctx context.Context, q SearchQuery) (Response, error)
	Progress(ctx context.Context, jobID, collectionID string) (Response, error)
}
