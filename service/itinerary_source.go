package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"trip-viewer/logging"
	"trip-viewer/models"
	"trip-viewer/models/trip"
	"trip-viewer/util"
	"trip-viewer/validation"
)

var (
	ErrInvalidItinerary = errors.New("itinerary file is invalid")
	ErrNoItinerary      = errors.New("no valid itinerary has been loaded")
)

// ItineraryContent is one validated version of the itinerary file.
type ItineraryContent struct {
	Raw      []byte
	Days     []trip.TripDay
	Version  string
	LoadedAt time.Time
}

// ItinerarySource owns the itinerary file on the server side. Only content
// that passes validation is ever published; a failed reload keeps the last
// good content.
type ItinerarySource struct {
	path       string
	appVersion string
	formatter  *util.DateFormatter
	logger     *zap.Logger
	now        func() time.Time
	readFile   func(path string) ([]byte, error)

	// reloadMu keeps a slow reload from publishing over a newer one.
	reloadMu sync.Mutex

	mu      sync.RWMutex
	content *ItineraryContent
}

func NewItinerarySource(path, appVersion string, formatter *util.DateFormatter, logger *zap.Logger) *ItinerarySource {
	return &ItinerarySource{
		path:       path,
		appVersion: appVersion,
		formatter:  formatter,
		logger:     logging.OrNop(logger).Named("ItinerarySource"),
		now:        time.Now,
		readFile:   util.ReadItineraryFile,
	}
}

func (s *ItinerarySource) Path() string {
	return s.path
}

// Reload reads and validates the file. When the file is unreadable or
// invalid the published content is left untouched. The validation result is
// returned in both cases so callers can report every violation. Concurrent
// calls run one at a time.
func (s *ItinerarySource) Reload() (validation.Result, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	raw, err := s.readFile(s.path)
	if err != nil {
		s.logger.Error("failed to read itinerary", zap.String("path", s.path), zap.Error(err))
		return validation.Result{}, err
	}

	version := util.ContentVersion(raw)
	if current := s.Content(); current != nil && current.Version == version {
		return validation.Result{IsValid: true, Errors: []string{}}, nil
	}

	result := validation.ValidateJSON(raw)
	if !result.IsValid {
		s.logger.Warn("itinerary rejected, keeping last good content",
			zap.String("path", s.path),
			zap.Strings("errors", result.Errors))
		return result, fmt.Errorf("%w: %s", ErrInvalidItinerary, result.Message())
	}

	days, err := trip.DecodeDays(raw)
	if err != nil {
		s.logger.Error("failed to decode validated itinerary", zap.Error(err))
		return result, fmt.Errorf("%w: %v", ErrInvalidItinerary, err)
	}

	content := &ItineraryContent{
		Raw:      raw,
		Days:     NormalizeTripDays(days, s.formatter),
		Version:  version,
		LoadedAt: s.now(),
	}
	s.mu.Lock()
	s.content = content
	s.mu.Unlock()

	s.logger.Info("itinerary loaded",
		zap.String("path", s.path),
		zap.String("contentVersion", version),
		zap.Int("days", len(content.Days)))
	return result, nil
}

// Content returns the published content, or nil before the first good load.
func (s *ItinerarySource) Content() *ItineraryContent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content
}

// AppVersion reports the application version and the published content
// version.
func (s *ItinerarySource) AppVersion() (*models.AppVersion, error) {
	content := s.Content()
	if content == nil {
		return nil, ErrNoItinerary
	}
	return &models.AppVersion{Version: s.appVersion, ContentVersion: content.Version}, nil
}
