package services

import (
	"fmt"
	"sync"
	"time"

	"trip-viewer/models/trip"
	"trip-viewer/util"
)

// UIState is a snapshot of the view selection.
type UIState struct {
	SelectedDay int
	Expanded    map[string]bool
}

// UIStateStore holds the selected day and per-item expand/collapse flags.
// It knows nothing about loading; InitializeFrom seeds it from loaded days.
// A day picked with SelectDay is remembered by date and survives reloads.
type UIStateStore struct {
	mu          sync.Mutex
	selectedDay int
	dates       []string
	pinnedDate  string
	expanded    map[string]bool
	subscribers map[int]func(UIState)
	nextID      int
}

func NewUIStateStore() *UIStateStore {
	return &UIStateStore{
		expanded:    make(map[string]bool),
		subscribers: make(map[int]func(UIState)),
	}
}

// ItemKey identifies an itinerary item for expand/collapse.
func ItemKey(dayDate string, itemIndex int) string {
	return fmt.Sprintf("%s#%d", dayDate, itemIndex)
}

// InitializeFrom selects the day last picked with SelectDay when its date is
// still present. Otherwise it selects today's day when the trip is in
// progress and the first day outside it. Expansion flags are cleared.
func (s *UIStateStore) InitializeFrom(days []trip.TripDay, now time.Time) {
	dates := make([]string, len(days))
	for i, day := range days {
		dates[i] = day.Date
	}

	s.mu.Lock()
	pinned := s.pinnedDate
	s.mu.Unlock()

	selected := 0
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(util.DATE_LAYOUT)
	if i, ok := util.IndexOfDate(days, pinned); pinned != "" && ok {
		selected = i
	} else if i, ok := util.IndexOfDate(days, today); ok {
		selected = i
		pinned = ""
	} else if offset, ok := util.CurrentTripDayIndex(days, now); ok && offset < len(days) {
		selected = offset
		pinned = ""
	} else {
		pinned = ""
	}

	s.mu.Lock()
	s.dates = dates
	s.pinnedDate = pinned
	s.selectedDay = selected
	s.expanded = make(map[string]bool)
	s.mu.Unlock()
	s.notify()
}

// SelectDay changes the selected day; out-of-range indexes are rejected.
func (s *UIStateStore) SelectDay(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.dates) {
		s.mu.Unlock()
		return fmt.Errorf("day index %d out of range [0, %d)", index, len(s.dates))
	}
	s.pinnedDate = s.dates[index]
	if s.selectedDay == index {
		s.mu.Unlock()
		return nil
	}
	s.selectedDay = index
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *UIStateStore) SelectedDay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedDay
}

func (s *UIStateStore) IsExpanded(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[key]
}

func (s *UIStateStore) SetExpanded(key string, expanded bool) {
	s.mu.Lock()
	if s.expanded[key] == expanded {
		s.mu.Unlock()
		return
	}
	if expanded {
		s.expanded[key] = true
	} else {
		delete(s.expanded, key)
	}
	s.mu.Unlock()
	s.notify()
}

// ToggleExpanded flips the flag for key and returns the new value.
func (s *UIStateStore) ToggleExpanded(key string) bool {
	expanded := !s.IsExpanded(key)
	s.SetExpanded(key, expanded)
	return expanded
}

// Snapshot returns a copy of the current state.
func (s *UIStateStore) Snapshot() UIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *UIStateStore) snapshotLocked() UIState {
	expanded := make(map[string]bool, len(s.expanded))
	for k, v := range s.expanded {
		expanded[k] = v
	}
	return UIState{SelectedDay: s.selectedDay, Expanded: expanded}
}

func (s *UIStateStore) Subscribe(fn func(UIState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *UIStateStore) notify() {
	s.mu.Lock()
	state := s.snapshotLocked()
	subs := make([]func(UIState), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
