package itinerary

import (
	"context"
	"fmt"
	"strconv"

	"trip-viewer/models"
	"trip-viewer/util"
)

// ItineraryApiClientMock serves the itinerary from a file on disk.
type ItineraryApiClientMock struct {
	path    string
	version string
}

// NewItineraryApiClientMock creates a mock that reads path on every fetch.
func NewItineraryApiClientMock(path, version string) *ItineraryApiClientMock {
	return &ItineraryApiClientMock{path: path, version: version}
}

func (c *ItineraryApiClientMock) FetchItinerary(ctx context.Context) ([]byte, error) {
	data, err := util.ReadItineraryFile(c.path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// FetchItineraryIfNoneMatch tags the file with the same ETag the server
// would send for it.
func (c *ItineraryApiClientMock) FetchItineraryIfNoneMatch(ctx context.Context, etag string) (*FetchResult, error) {
	data, err := util.ReadItineraryFile(c.path)
	if err != nil {
		return nil, err
	}
	current := strconv.Quote(util.ContentVersion(data))
	if etag != "" && etag == current {
		return &FetchResult{ETag: etag, NotModified: true}, nil
	}
	return &FetchResult{Body: data, ETag: current}, nil
}

func (c *ItineraryApiClientMock) GetAppVersion(ctx context.Context) (*models.AppVersion, error) {
	data, err := util.ReadItineraryFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("could not read itinerary for version: %w", err)
	}
	return &models.AppVersion{Version: c.version, ContentVersion: util.ContentVersion(data)}, nil
}

func (c *ItineraryApiClientMock) Ping(ctx context.Context) error {
	return nil
}
