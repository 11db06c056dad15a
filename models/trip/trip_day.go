package trip

import "fmt"

// ItemType is the closed set of itinerary item kinds.
type ItemType string

const (
	ItemTypeSight      ItemType = "sight"
	ItemTypeTransport  ItemType = "transport"
	ItemTypeRestaurant ItemType = "restaurant"
	ItemTypeShopping   ItemType = "shopping"
	ItemTypeOther      ItemType = "other"
)

// ItemTypes lists every valid ItemType.
var ItemTypes = []ItemType{
	ItemTypeSight,
	ItemTypeTransport,
	ItemTypeRestaurant,
	ItemTypeShopping,
	ItemTypeOther,
}

// IsValid reports whether t belongs to the closed set.
func (t ItemType) IsValid() bool {
	for _, known := range ItemTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TripDay is one calendar day of the itinerary.
// Weekday is derived from Date and is never trusted from input.
type TripDay struct {
	Date                    string          `json:"date"`
	Weekday                 string          `json:"weekday,omitempty"`
	Title                   string          `json:"title"`
	ItineraryItems          []ItineraryItem `json:"itineraryItems"`
	FoodRecommendations     []string        `json:"foodRecommendations,omitempty"`
	ShoppingRecommendations []string        `json:"shoppingRecommendations,omitempty"`
	Accommodation           *Accommodation  `json:"accommodation,omitempty"`
}

// ItineraryItem is one activity within a day. Items are kept in
// chronological order; an empty Time means flexible timing.
type ItineraryItem struct {
	Type              ItemType        `json:"type"`
	Name              string          `json:"name"`
	Time              string          `json:"time,omitempty"`
	Description       string          `json:"description,omitempty"`
	Tips              string          `json:"tips,omitempty"`
	Location          string          `json:"location,omitempty"`
	RecommendedDishes string          `json:"recommendedDishes,omitempty"`
	Transportation    *Transportation `json:"transportation,omitempty"`
}

// Transportation is the transit detail of a transport item. No segments
// means a single direct leg.
type Transportation struct {
	From          string    `json:"from"`
	To            string    `json:"to"`
	DepartureTime string    `json:"departureTime,omitempty"`
	ArrivalTime   string    `json:"arrivalTime,omitempty"`
	Segments      []Segment `json:"segments,omitempty"`
}

// Segment is one leg of a multi-leg journey.
type Segment struct {
	VehicleNumber string `json:"vehicleNumber"`
	From          string `json:"from"`
	To            string `json:"to"`
	DepartureTime string `json:"departureTime,omitempty"`
	ArrivalTime   string `json:"arrivalTime,omitempty"`
	IsReserved    bool   `json:"isReserved"`
}

// Accommodation is a night's lodging.
type Accommodation struct {
	City        string `json:"city"`
	Name        string `json:"name"`
	LocationURL string `json:"locationURL"`
}

// IsDirect reports whether the journey has no transfer legs.
func (t *Transportation) IsDirect() bool {
	return len(t.Segments) == 0
}

// ToString is a one-line summary of the day.
func (d *TripDay) ToString() string {
	return fmt.Sprintf("%s  %s (%d items)", d.Date, d.Title, len(d.ItineraryItems))
}
