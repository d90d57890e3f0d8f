package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidRoute is returned when a route is not a pair of 3-letter codes and an ISO date
var ErrInvalidRoute = errors.New("invalid route")

// DefaultCurrency is attached to every scraped price
const DefaultCurrency = "USD"

// DateLayout is the ISO date format used for scan dates
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Cookie is one browser cookie of the stored session credential.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // seconds since epoch, -1 for session cookies
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"` // Strict, Lax or None
}

// Route identifies one origin/destination/date query.
type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
}

// NewRoute upper-cases the codes and validates the route.
func NewRoute(origin, destination, date string) (Route, error) {
	r := Route{
		Origin:      strings.ToUpper(strings.TrimSpace(origin)),
		Destination: strings.ToUpper(strings.TrimSpace(destination)),
		Date:        strings.TrimSpace(date),
	}
	return r, r.Validate()
}

// Validate checks code length and date shape; it does not check that a code exists.
func (r Route) Validate() error {
	if len(r.Origin) != 3 {
		return fmt.Errorf("%w: origin %q must be a 3-letter code", ErrInvalidRoute, r.Origin)
	}
	if len(r.Destination) != 3 {
		return fmt.Errorf("%w: destination %q must be a 3-letter code", ErrInvalidRoute, r.Destination)
	}
	if !datePattern.MatchString(r.Date) {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidRoute, r.Date)
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: date %q: %v", ErrInvalidRoute, r.Date, err)
	}
	return nil
}

func (r Route) String() string {
	return fmt.Sprintf("%s → %s on %s", r.Origin, r.Destination, r.Date)
}

// FlightResult is one scraped offer. Values are never mutated after extraction.
type FlightResult struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	Date          string   `json:"date"`
	DepartTime    string   `json:"departTime"`
	ArriveTime    string   `json:"arriveTime"`
	Duration      string   `json:"duration,omitempty"`
	Stops         int      `json:"stops"`
	StopLocations []string `json:"stopLocations,omitempty"`
	FlightNumbers []string `json:"flightNumbers,omitempty"`
	IsGoWild      bool     `json:"isGoWild"`
	TaxesAndFees  *float64 `json:"taxesAndFees"`
	Currency      string   `json:"currency"`
	RawPrice      *string  `json:"rawPrice,omitempty"`
}

// ScanResult is the outcome of one route query. Flights keep page order.
type ScanResult struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Date        string         `json:"date"`
	Flights     []FlightResult `json:"flights"`
	ScannedAt   int64          `json:"scannedAt"` // epoch milliseconds
	Cached      bool           `json:"cached"`
	Error       string         `json:"error,omitempty"`
}

// NewScanResult returns an empty, error-free result for the route.
func NewScanResult(r Route, at time.Time) ScanResult {
	return ScanResult{
		Origin:      r.Origin,
		Destination: r.Destination,
		Date:        r.Date,
		Flights:     []FlightResult{},
		ScannedAt:   at.UnixMilli(),
	}
}

// Route returns the query the result answers.
func (s ScanResult) Route() Route {
	return Route{Origin: s.Origin, Destination: s.Destination, Date: s.Date}
}

// Failed reports whether the scan carries an error.
func (s ScanResult) Failed() bool { return s.Error != "" }

// GoWildFlights returns the discount-fare flights in page order.
func (s ScanResult) GoWildFlights() []FlightResult {
	var out []FlightResult
	for _, f := range s.Flights {
		if f.IsGoWild {
			out = append(out, f)
		}
	}
	return out
}

// Airport is one queryable location.
type Airport struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state,omitempty"`
}
