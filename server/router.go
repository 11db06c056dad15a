package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// ItineraryRoutes is the handler set the router exposes.
type ItineraryRoutes interface {
	GetItineraryResource(w http.ResponseWriter, r *http.Request)
	GetTripDays(w http.ResponseWriter, r *http.Request)
	ValidateItinerary(w http.ResponseWriter, r *http.Request)
	GetAppVersion(w http.ResponseWriter, r *http.Request)
	Ping(w http.ResponseWriter, r *http.Request)
}

type Router struct {
	itineraryHandler ItineraryRoutes
	router           *mux.Router
	resourcePath     string
}

// NewRouter creates a router with the app’s routes.
func NewRouter(
	itineraryHandler ItineraryRoutes,
	router *mux.Router,
	resourcePath string) *Router {
	return &Router{
		itineraryHandler: itineraryHandler,
		router:           router,
		resourcePath:     resourcePath,
	}
}

func (r *Router) RegisterRoutes() {
	r.router.HandleFunc(r.resourcePath, r.itineraryHandler.GetItineraryResource).Methods("GET", "HEAD")

	r.router.HandleFunc("/v1/itinerary/days", r.itineraryHandler.GetTripDays).Methods("GET")

	// body is an itinerary document, array or {"days": [...]}
	r.router.HandleFunc("/v1/itinerary/validate", r.itineraryHandler.ValidateItinerary).Methods("POST")

	r.router.HandleFunc("/v1/app/version", r.itineraryHandler.GetAppVersion).Methods("GET")

	r.router.HandleFunc("/ping", r.itineraryHandler.Ping).Methods("GET")
}
