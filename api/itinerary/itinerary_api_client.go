package itinerary

import (
	"context"
	"errors"
	"net/http"

	"trip-viewer/api"
	"trip-viewer/models"
)

const APP_VERSION_ENDPOINT = "/v1/app/version"
const PING_ENDPOINT = "/ping"

// ItineraryApiClient embeds the common HTTPClient
type ItineraryApiClient struct {
	*api.HTTPClient
	resourcePath string
}

// NewItineraryApiClient creates a client for the itinerary resource at resourcePath.
func NewItineraryApiClient(httpClient *api.HTTPClient, resourcePath string) *ItineraryApiClient {
	return &ItineraryApiClient{
		HTTPClient:   httpClient,
		resourcePath: resourcePath,
	}
}

// ResourceURL is the absolute URL of the itinerary resource, also used as
// the offline cache key.
func (c *ItineraryApiClient) ResourceURL() string {
	return c.BaseURL + c.resourcePath
}

// FetchItinerary issues a single GET for the itinerary resource.
func (c *ItineraryApiClient) FetchItinerary(ctx context.Context) ([]byte, error) {
	res, err := c.FetchItineraryIfNoneMatch(ctx, "")
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// FetchItineraryIfNoneMatch issues a single conditional GET. A 304 answer is
// reported as NotModified rather than as an error.
func (c *ItineraryApiClient) FetchItineraryIfNoneMatch(ctx context.Context, etag string) (*FetchResult, error) {
	headers := map[string]string{"Cache-Control": "no-cache"}
	if etag != "" {
		headers["If-None-Match"] = etag
	}

	res, err := c.Do(ctx, "GET", c.resourcePath, headers, nil)
	if err != nil {
		var statusErr *api.StatusError
		if etag != "" && errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotModified {
			return &FetchResult{ETag: etag, NotModified: true}, nil
		}
		return nil, err
	}
	return &FetchResult{Body: res.Body, ETag: res.Header.Get("ETag")}, nil
}

func (c *ItineraryApiClient) GetAppVersion(ctx context.Context) (*models.AppVersion, error) {
	var response models.AppVersion
	if err := c.Request(ctx, "GET", APP_VERSION_ENDPOINT, nil, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *ItineraryApiClient) Ping(ctx context.Context) error {
	return c.Request(ctx, "GET", PING_ENDPOINT, nil, nil, nil)
}
