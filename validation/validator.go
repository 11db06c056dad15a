package validation

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"trip-viewer/models/trip"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// Result is the outcome of validating an itinerary document. Errors holds one
// human-readable message per violation, in document order.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Message joins all errors into a single line.
func (r Result) Message() string {
	return strings.Join(r.Errors, "; ")
}

// ValidateJSON parses data and validates it. Unparseable input is reported as
// a single error.
func ValidateJSON(data []byte) Result {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return invalid(fmt.Sprintf("itinerary is not valid JSON: %v", err))
	}
	return Validate(raw)
}

// Validate checks a parsed JSON value against the itinerary schema. It never
// mutates raw and never stops at the first violation.
func Validate(raw interface{}) Result {
	days, problem := topLevelDays(raw)
	if problem != "" {
		return invalid(problem)
	}

	v := &validator{}
	seen := make(map[string]int)
	for i, day := range days {
		v.validateDay(i, day, seen)
	}

	if len(v.errors) > 0 {
		return Result{IsValid: false, Errors: v.errors}
	}
	return Result{IsValid: true, Errors: []string{}}
}

func invalid(msg string) Result {
	return Result{IsValid: false, Errors: []string{msg}}
}

func topLevelDays(raw interface{}) ([]interface{}, string) {
	switch value := raw.(type) {
	case []interface{}:
		if len(value) == 0 {
			return nil, "itinerary must contain at least one day"
		}
		return value, ""
	case map[string]interface{}:
		days, ok := value["days"].([]interface{})
		if !ok {
			return nil, `itinerary object must have a "days" array`
		}
		return topLevelDays(days)
	case nil:
		return nil, "itinerary is empty (null)"
	default:
		return nil, fmt.Sprintf("itinerary must be an array of days, got %s", jsonKind(raw))
	}
}

type validator struct {
	errors []string
}

func (v *validator) addf(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) validateDay(i int, raw interface{}, seen map[string]int) {
	label := fmt.Sprintf("Day %d", i+1)
	day, ok := raw.(map[string]interface{})
	if !ok {
		v.addf("%s: must be an object, got %s", label, jsonKind(raw))
		return
	}

	if date, ok := v.requireString(label, day, "date"); ok {
		label = fmt.Sprintf("Day %d (%s)", i+1, date)
		if !datePattern.MatchString(date) {
			v.addf("%s: \"date\" must match YYYY-MM-DD", label)
		} else if _, err := time.Parse("2006-01-02", date); err != nil {
			v.addf("%s: \"date\" is not a real calendar date", label)
		} else if first, dup := seen[date]; dup {
			v.addf("%s: duplicate date, already used by day %d", label, first+1)
		} else {
			seen[date] = i
		}
	}

	v.requireString(label, day, "title")

	items, present := day["itineraryItems"]
	if !present || items == nil {
		v.addf("%s: missing required field \"itineraryItems\"", label)
	} else if list, ok := items.([]interface{}); !ok {
		v.addf("%s: \"itineraryItems\" must be an array, got %s", label, jsonKind(items))
	} else {
		for j, item := range list {
			v.validateItem(fmt.Sprintf("%s, item %d", label, j+1), item)
		}
	}

	v.optionalStringList(label, day, "foodRecommendations")
	v.optionalStringList(label, day, "shoppingRecommendations")

	if acc, present := day["accommodation"]; present && acc != nil {
		v.validateAccommodation(label+", accommodation", acc)
	}
}

func (v *validator) validateItem(label string, raw interface{}) {
	item, ok := raw.(map[string]interface{})
	if !ok {
		v.addf("%s: must be an object, got %s", label, jsonKind(raw))
		return
	}

	if name, ok := v.requireString(label, item, "name"); ok {
		label = fmt.Sprintf("%s (%q)", label, name)
	}

	itemType, typeOK := v.requireString(label, item, "type")
	if typeOK && !trip.ItemType(itemType).IsValid() {
		v.addf("%s: \"type\" must be one of %s, got %q", label, itemTypeList(), itemType)
	}

	v.optionalTime(label, item, "time")
	for _, field := range []string{"description", "tips", "location", "recommendedDishes"} {
		v.optionalString(label, item, field)
	}

	transport, present := item["transportation"]
	present = present && transport != nil
	switch {
	case typeOK && trip.ItemType(itemType) == trip.ItemTypeTransport && !present:
		v.addf("%s: transport item is missing \"transportation\"", label)
	case present && typeOK && trip.ItemType(itemType) != trip.ItemTypeTransport:
		v.addf("%s: \"transportation\" is only allowed on transport items", label)
	case present:
		v.validateTransportation(label+", transportation", transport)
	}
}

func (v *validator) validateTransportation(label string, raw interface{}) {
	t, ok := raw.(map[string]interface{})
	if !ok {
		v.addf("%s: must be an object, got %s", label, jsonKind(raw))
		return
	}
	if len(t) == 0 {
		v.addf("%s: must not be empty", label)
		return
	}

	v.requireString(label, t, "from")
	v.requireString(label, t, "to")
	v.optionalTime(label, t, "departureTime")
	v.optionalTime(label, t, "arrivalTime")

	rawSegments, present := t["segments"]
	if !present || rawSegments == nil {
		return
	}
	segments, ok := rawSegments.([]interface{})
	if !ok {
		v.addf("%s: \"segments\" must be an array, got %s", label, jsonKind(rawSegments))
		return
	}

	prevTo := ""
	for k, rawSegment := range segments {
		segLabel := fmt.Sprintf("%s, segment %d", label, k+1)
		seg, ok := rawSegment.(map[string]interface{})
		if !ok {
			v.addf("%s: must be an object, got %s", segLabel, jsonKind(rawSegment))
			prevTo = ""
			continue
		}
		v.requireString(segLabel, seg, "vehicleNumber")
		from, fromOK := v.requireString(segLabel, seg, "from")
		to, _ := v.requireString(segLabel, seg, "to")
		v.optionalTime(segLabel, seg, "departureTime")
		v.optionalTime(segLabel, seg, "arrivalTime")

		reserved, present := seg["isReserved"]
		if !present || reserved == nil {
			v.addf("%s: missing required field \"isReserved\"", segLabel)
		} else if _, ok := reserved.(bool); !ok {
			v.addf("%s: \"isReserved\" must be a boolean, got %s", segLabel, jsonKind(reserved))
		}

		if k > 0 && fromOK && prevTo != "" && strings.TrimSpace(from) != strings.TrimSpace(prevTo) {
			v.addf("%s: starts at %q but the previous segment ends at %q", segLabel, from, prevTo)
		}
		prevTo = to
	}
}

func (v *validator) validateAccommodation(label string, raw interface{}) {
	acc, ok := raw.(map[string]interface{})
	if !ok {
		v.addf("%s: must be an object, got %s", label, jsonKind(raw))
		return
	}

	v.requireString(label, acc, "city")
	v.requireString(label, acc, "name")
	if link, ok := v.requireString(label, acc, "locationURL"); ok && !isHTTPURL(link) {
		v.addf("%s: \"locationURL\" must be an absolute http(s) URL, got %q", label, link)
	}
}

// requireString reports a missing, empty or non-string field.
func (v *validator) requireString(label string, obj map[string]interface{}, field string) (string, bool) {
	raw, present := obj[field]
	if !present || raw == nil {
		v.addf("%s: missing required field %q", label, field)
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		v.addf("%s: %q must be a string, got %s", label, field, jsonKind(raw))
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		v.addf("%s: missing required field %q", label, field)
		return "", false
	}
	return s, true
}

func (v *validator) optionalString(label string, obj map[string]interface{}, field string) {
	raw, present := obj[field]
	if !present || raw == nil {
		return
	}
	if _, ok := raw.(string); !ok {
		v.addf("%s: %q must be a string, got %s", label, field, jsonKind(raw))
	}
}

func (v *validator) optionalTime(label string, obj map[string]interface{}, field string) {
	raw, present := obj[field]
	if !present || raw == nil {
		return
	}
	s, ok := raw.(string)
	if !ok {
		v.addf("%s: %q must be a string, got %s", label, field, jsonKind(raw))
		return
	}
	if s != "" && !timePattern.MatchString(s) {
		v.addf("%s: %q must match HH:MM, got %q", label, field, s)
	}
}

func (v *validator) optionalStringList(label string, obj map[string]interface{}, field string) {
	raw, present := obj[field]
	if !present || raw == nil {
		return
	}
	list, ok := raw.([]interface{})
	if !ok {
		v.addf("%s: %q must be an array, got %s", label, field, jsonKind(raw))
		return
	}
	for i, entry := range list {
		if _, ok := entry.(string); !ok {
			v.addf("%s: %s[%d] must be a string, got %s", label, field, i, jsonKind(entry))
		}
	}
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func itemTypeList() string {
	names := make([]string, len(trip.ItemTypes))
	for i, t := range trip.ItemTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
