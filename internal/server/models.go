package server

import "github.com/mohammad-safakhou/wildscan/models"

// HTTPError is the error envelope returned by every endpoint.
type HTTPError struct {
	Error string `json:"error"`
}

// RateLimitedResponse is returned with 429.
type RateLimitedResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
}

// MessageResponse acknowledges a mutation.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OutboundRequest scans every origin to every destination on one date.
type OutboundRequest struct {
	Origins      []string `json:"origins"`
	Destinations []string `json:"destinations"`
	Date         string   `json:"date"`
	NonstopOnly  bool     `json:"nonstopOnly"`
}

// OutboundSummary counts over an outbound batch.
type OutboundSummary struct {
	TotalRoutes   int `json:"totalRoutes"`
	TotalFlights  int `json:"totalFlights"`
	GoWildFlights int `json:"goWildFlights"`
	CachedResults int `json:"cachedResults"`
	Errors        int `json:"errors"`
}

type OutboundResponse struct {
	Success bool                  `json:"success"`
	Date    string                `json:"date"`
	Summary OutboundSummary       `json:"summary"`
	Results []models.ScanResult   `json:"results"`
	Flights []models.FlightResult `json:"flights"`
}

// SingleRouteResponse flattens one ScanResult next to the success flag.
type SingleRouteResponse struct {
	Success bool `json:"success"`
	models.ScanResult
}

// AnywhereRequest scans one origin to the first MaxDestinations known airports.
type AnywhereRequest struct {
	Origin          string `json:"origin"`
	Date            string `json:"date"`
	MaxDestinations *int   `json:"maxDestinations"`
}

type AnywhereSummary struct {
	DestinationsScanned int `json:"destinationsScanned"`
	RoutesWithFlights   int `json:"routesWithFlights"`
	TotalFlights        int `json:"totalFlights"`
	GoWildFlights       int `json:"goWildFlights"`
	CachedResults       int `json:"cachedResults"`
	Errors              int `json:"errors"`
}

// DestinationResult is the per-destination line of an anywhere scan.
type DestinationResult struct {
	Destination    string               `json:"destination"`
	FlightCount    int                  `json:"flightCount"`
	GoWildCount    int                  `json:"goWildCount"`
	CheapestGoWild *models.FlightResult `json:"cheapestGoWild,omitempty"`
	Cached         bool                 `json:"cached"`
	Error          string               `json:"error,omitempty"`
}

type AnywhereResponse struct {
	Success        bool                  `json:"success"`
	Origin         string                `json:"origin"`
	Date           string                `json:"date"`
	Summary        AnywhereSummary       `json:"summary"`
	GoWildFlights  []models.FlightResult `json:"goWildFlights"`
	CheapestGoWild []models.FlightResult `json:"cheapestGoWild"`
	AllResults     []DestinationResult   `json:"allResults"`
}

type AirportsResponse struct {
	Airports []models.Airport `json:"airports"`
}

type CacheStatsResponse struct {
	Backend string `json:"backend"`
	Entries int64  `json:"entries"`
}

type CleanupResponse struct {
	Success        bool  `json:"success"`
	CleanedEntries int64 `json:"cleanedEntries"`
}
