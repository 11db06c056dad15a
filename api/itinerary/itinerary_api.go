package itinerary

import (
	"context"

	"trip-viewer/models"
)

// FetchResult is one response for the itinerary resource. NotModified means
// the server confirmed the caller's copy, and Body is empty.
type FetchResult struct {
	Body        []byte
	ETag        string
	NotModified bool
}

// ItineraryAPI is the client side of the itinerary server.
type ItineraryAPI interface {
	// FetchItinerary returns the raw itinerary resource.
	FetchItinerary(ctx context.Context) ([]byte, error)
	// FetchItineraryIfNoneMatch revalidates a copy tagged etag. An empty
	// etag always fetches the full resource.
	FetchItineraryIfNoneMatch(ctx context.Context, etag string) (*FetchResult, error)
	GetAppVersion(ctx context.Context) (*models.AppVersion, error)
	Ping(ctx context.Context) error
}
