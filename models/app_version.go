package models

// AppVersion is served by /v1/app/version. ContentVersion changes whenever
// the published itinerary changes.
type AppVersion struct {
	Version        string `json:"version"`
	ContentVersion string `json:"contentVersion"`
}
