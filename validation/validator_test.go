package validation

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validItinerary = `[
	{
		"date": "2025-03-28",
		"title": "Arrival in Tokyo",
		"itineraryItems": [
			{
				"type": "transport",
				"name": "Narita Express",
				"time": "14:05",
				"transportation": {
					"from": "Narita Airport",
					"to": "Shinjuku",
					"departureTime": "14:05",
					"arrivalTime": "15:35",
					"segments": [
						{"vehicleNumber": "N'EX 32", "from": "Narita Airport", "to": "Tokyo", "isReserved": true},
						{"vehicleNumber": "JY", "from": "Tokyo", "to": "Shinjuku", "departureTime": "15:10", "arrivalTime": "15:35", "isReserved": false}
					]
				}
			},
			{"type": "restaurant", "name": "Fuunji", "time": "19:00", "recommendedDishes": "Tsukemen"},
			{"type": "other", "name": "Evening walk", "time": ""}
		],
		"foodRecommendations": ["ramen", "yakitori"],
		"accommodation": {"city": "Tokyo", "name": "Hotel Gracery", "locationURL": "https://maps.app.goo.gl/abc"}
	},
	{
		"date": "2025-03-29",
		"weekday": "Monday",
		"title": "Asakusa",
		"itineraryItems": [
			{"type": "sight", "name": "Senso-ji", "time": "09:00", "tips": "Go early"}
		],
		"shoppingRecommendations": ["Nakamise"]
	}
]`

func parse(t *testing.T, doc string) interface{} {
	t.Helper()
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	return raw
}

func containsError(errors []string, parts ...string) bool {
	for _, e := range errors {
		matched := true
		for _, p := range parts {
			if !strings.Contains(e, p) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func TestValidate_ValidItinerary(t *testing.T) {
	result := Validate(parse(t, validItinerary))

	assert.True(t, result.IsValid, "unexpected errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
}

func TestValidate_WrappedDocument(t *testing.T) {
	result := Validate(parse(t, `{"days": `+validItinerary+`}`))

	assert.True(t, result.IsValid, "unexpected errors: %v", result.Errors)
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	raw := parse(t, validItinerary)
	before := parse(t, validItinerary)

	Validate(raw)

	assert.True(t, reflect.DeepEqual(before, raw))
}

func TestValidate_TopLevelInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"null", `null`},
		{"number", `42`},
		{"string", `"trip"`},
		{"empty array", `[]`},
		{"object without days", `{"title": "trip"}`},
		{"wrapped empty days", `{"days": []}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Validate(parse(t, test.doc))
			assert.False(t, result.IsValid)
			assert.Len(t, result.Errors, 1)
		})
	}
}

func TestValidate_AccumulatesErrorsAcrossDays(t *testing.T) {
	doc := `[
		{"title": "No date", "itineraryItems": []},
		{"date": "2025-03-29", "itineraryItems": [{"type": "sight"}]},
		{"date": "29/03/2025", "title": "Bad date", "itineraryItems": "none"}
	]`

	result := Validate(parse(t, doc))

	assert.False(t, result.IsValid)
	assert.True(t, containsError(result.Errors, "Day 1", `"date"`), "errors: %v", result.Errors)
	assert.True(t, containsError(result.Errors, "Day 2", `"title"`), "errors: %v", result.Errors)
	assert.True(t, containsError(result.Errors, "Day 2", "item 1", `"name"`), "errors: %v", result.Errors)
	assert.True(t, containsError(result.Errors, "Day 3", "YYYY-MM-DD"), "errors: %v", result.Errors)
	assert.True(t, containsError(result.Errors, "Day 3", `"itineraryItems" must be an array`), "errors: %v", result.Errors)
	assert.Len(t, result.Errors, 5)
}

func TestValidate_TransportWithoutTransportation(t *testing.T) {
	doc := `[{"date": "2025-03-28", "title": "Travel", "itineraryItems": [
		{"type": "sight", "name": "Castle"},
		{"type": "transport", "name": "Shinkansen Nozomi"}
	]}]`

	result := Validate(parse(t, doc))

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "item 2")
	assert.Contains(t, result.Errors[0], "Shinkansen Nozomi")
	assert.Contains(t, result.Errors[0], `missing "transportation"`)
}

func TestValidate_TransportationOnNonTransportItem(t *testing.T) {
	doc := `[{"date": "2025-03-28", "title": "Day", "itineraryItems": [
		{"type": "sight", "name": "Castle", "transportation": {"from": "A", "to": "B"}}
	]}]`

	result := Validate(parse(t, doc))

	assert.False(t, result.IsValid)
	assert.True(t, containsError(result.Errors, "only allowed on transport items"))
}

func TestValidate_ItemRules(t *testing.T) {
	doc := `[{"date": "2025-03-28", "title": "Day", "itineraryItems": [
		{"type": "flight", "name": "Plane"},
		{"type": "sight", "name": "Tower", "time": "25:00"},
		{"type": "restaurant", "name": "Diner", "tips": 5},
		{"type": "transport", "name": "Bus", "transportation": {}}
	]}]`

	result := Validate(parse(t, doc))

	assert.False(t, result.IsValid)
	assert.True(t, containsError(result.Errors, "item 1", `"type" must be one of`))
	assert.True(t, containsError(result.Errors, "item 2", "HH:MM"))
	assert.True(t, containsError(result.Errors, "item 3", `"tips" must be a string`))
	assert.True(t, containsError(result.Errors, "item 4", "must not be empty"))
}

func TestValidate_SegmentRules(t *testing.T) {
	doc := `[{"date": "2025-03-28", "title": "Day", "itineraryItems": [
		{"type": "transport", "name": "Transfer", "transportation": {
			"from": "Kyoto", "to": "Nara",
			"segments": [
				{"vehicleNumber": "JR 1", "from": "Kyoto", "to": "Osaka", "departureTime": "9am", "isReserved": "yes"},
				{"from": "Tennoji", "to": "Nara"}
			]
		}}
	]}]`

	result := Validate(parse(t, doc))

	assert.False(t, result.IsValid)
	assert.True(t, containsError(result.Errors, "segment 1", "HH:MM"))
	assert.True(t, containsError(result.Errors, "segment 1", `"isReserved" must be a boolean`))
	assert.True(t, containsError(result.Errors, "segment 2", `"vehicleNumber"`))
	assert.True(t, containsError(result.Errors, "segment 2", `"isReserved"`))
	assert.True(t, containsError(result.Errors, "segment 2", `starts at "Tennoji"`))
}

func TestValidate_DayLevelOptionalFields(t *testing.T) {
	doc := `[
		{"date": "2025-03-28", "title": "A", "itineraryItems": [], "foodRecommendations": ["sushi", 3],
		 "accommodation": {"city": "Osaka", "name": "Inn", "locationURL": "maps/inn"}},
		{"date": "2025-03-28", "title": "B", "itineraryItems": [], "accommodation": "Inn"},
		{"date": "2025-02-30", "title": "C", "itineraryItems": [], "shoppingRecommendations": "none"}
	]`

	result := Validate(parse(t, doc))

	assert.False(t, result.IsValid)
	assert.True(t, containsError(result.Errors, "Day 1", "foodRecommendations[1]"))
	assert.True(t, containsError(result.Errors, "Day 1", "locationURL"))
	assert.True(t, containsError(result.Errors, "Day 2", "duplicate date"))
	assert.True(t, containsError(result.Errors, "Day 2", "accommodation", "must be an object"))
	assert.True(t, containsError(result.Errors, "Day 3", "real calendar date"))
	assert.True(t, containsError(result.Errors, "Day 3", `"shoppingRecommendations" must be an array`))
}

func TestValidateJSON_Unparseable(t *testing.T) {
	result := ValidateJSON([]byte(`[{"date": `))

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not valid JSON")
}

func TestValidate_Idempotent(t *testing.T) {
	raw := parse(t, validItinerary)

	first := Validate(raw)
	second := Validate(raw)

	assert.Equal(t, first, second)
}

func TestResult_Message(t *testing.T) {
	r := Result{Errors: []string{"a", "b"}}

	assert.Equal(t, "a; b", r.Message())
}
