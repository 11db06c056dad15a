package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"trip-viewer/models/trip"
)

// ReadItineraryFile loads the raw itinerary document from disk.
func ReadItineraryFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	return data, nil
}

// ReadTripDaysFromJSON loads and decodes the itinerary days from disk. It
// does not validate them.
func ReadTripDaysFromJSON(filePath string) ([]trip.TripDay, error) {
	data, err := ReadItineraryFile(filePath)
	if err != nil {
		return nil, err
	}
	days, err := trip.DecodeDays(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", filePath, err)
	}
	return days, nil
}

// ContentVersion is a short stable fingerprint of a document, used as ETag
// and as the content part of the app version.
func ContentVersion(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
