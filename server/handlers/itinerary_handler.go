package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"trip-viewer/logging"
	"trip-viewer/models"
	"trip-viewer/models/trip"
	services "trip-viewer/service"
	"trip-viewer/util"
	"trip-viewer/validation"
)

// MAX_VALIDATE_BODY_BYTES caps POST /v1/itinerary/validate bodies.
const MAX_VALIDATE_BODY_BYTES = 1 << 20

// ItineraryProvider is the read side of the ItinerarySource.
type ItineraryProvider interface {
	Content() *services.ItineraryContent
	AppVersion() (*models.AppVersion, error)
}

// TripDaysResponse is the body of GET /v1/itinerary/days. TodayIndex is set
// only while the trip is in progress.
type TripDaysResponse struct {
	Days           []trip.TripDay `json:"days"`
	TodayIndex     *int           `json:"todayIndex,omitempty"`
	ContentVersion string         `json:"contentVersion"`
}

type ItineraryHandler struct {
	source ItineraryProvider
	logger *zap.Logger
	now    func() time.Time
}

func NewItineraryHandler(source ItineraryProvider, logger *zap.Logger) *ItineraryHandler {
	return &ItineraryHandler{
		source: source,
		logger: logging.OrNop(logger).Named("ItineraryHandler"),
		now:    time.Now,
	}
}

// GetItineraryResource serves the raw itinerary document. The content
// version doubles as a strong ETag so clients can revalidate cheaply.
func (h *ItineraryHandler) GetItineraryResource(w http.ResponseWriter, r *http.Request) {
	content := h.source.Content()
	if content == nil {
		RespondWithError(w, http.StatusServiceUnavailable, services.ErrNoItinerary.Error())
		return
	}

	etag := strconv.Quote(content.Version)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && (match == etag || match == "*") {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content.Raw); err != nil {
		h.logger.Warn("error writing itinerary", zap.Error(err))
	}
}

// GetTripDays handles GET /v1/itinerary/days
func (h *ItineraryHandler) GetTripDays(w http.ResponseWriter, r *http.Request) {
	content := h.source.Content()
	if content == nil {
		RespondWithError(w, http.StatusServiceUnavailable, services.ErrNoItinerary.Error())
		return
	}

	resp := TripDaysResponse{Days: content.Days, ContentVersion: content.Version}
	if i, ok := util.CurrentTripDayIndex(content.Days, h.now()); ok {
		resp.TodayIndex = &i
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// ValidateItinerary handles POST /v1/itinerary/validate. An invalid document
// is still a 200: the verdict is in the body.
func (h *ItineraryHandler) ValidateItinerary(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MAX_VALIDATE_BODY_BYTES))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondWithError(w, http.StatusRequestEntityTooLarge, "itinerary too large")
			return
		}
		RespondWithError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	RespondWithJSON(w, http.StatusOK, validation.ValidateJSON(body))
}

// GetAppVersion handles GET /v1/app/version
func (h *ItineraryHandler) GetAppVersion(w http.ResponseWriter, r *http.Request) {
	version, err := h.source.AppVersion()
	if err != nil {
		RespondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusOK, version)
}

// Ping handles GET /ping
func (h *ItineraryHandler) Ping(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "pong"})
}

func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("error encoding response", zap.Error(err))
	}
}

func RespondWithError(w http.ResponseWriter, status int, message string) {
	RespondWithJSON(w, status, map[string]string{"error": message})
}
