package trip

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the wrapped form of the itinerary resource.
type Document struct {
	Days []TripDay `json:"days"`
}

// DecodeDays decodes either a bare array of days or a {"days": [...]} document.
func DecodeDays(data []byte) ([]TripDay, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal itinerary document: %w", err)
		}
		return doc.Days, nil
	}

	var days []TripDay
	if err := json.Unmarshal(trimmed, &days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal itinerary days: %w", err)
	}
	return days, nil
}
