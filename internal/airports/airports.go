// Package airports holds the static list of locations the scanner can query.
package airports

import (
	"strings"

	"github.com/mohammad-safakhou/wildscan/models"
)

// hubs first, then focus cities, then leisure destinations; anywhere scans take a prefix
var all = []models.Airport{
	{Code: "DEN", Name: "Denver International", City: "Denver", State: "CO"},
	{Code: "LAS", Name: "Harry Reid International", City: "Las Vegas", State: "NV"},
	{Code: "PHX", Name: "Phoenix Sky Harbor", City: "Phoenix", State: "AZ"},
	{Code: "MCO", Name: "Orlando International", City: "Orlando", State: "FL"},
	{Code: "ATL", Name: "Hartsfield-Jackson", City: "Atlanta", State: "GA"},

	{Code: "MIA", Name: "Miami International", City: "Miami", State: "FL"},
	{Code: "FLL", Name: "Fort Lauderdale-Hollywood", City: "Fort Lauderdale", State: "FL"},
	{Code: "TPA", Name: "Tampa International", City: "Tampa", State: "FL"},
	{Code: "ORD", Name: "O'Hare International", City: "Chicago", State: "IL"},
	{Code: "MDW", Name: "Chicago Midway", City: "Chicago", State: "IL"},
	{Code: "DFW", Name: "Dallas/Fort Worth International", City: "Dallas", State: "TX"},
	{Code: "IAH", Name: "George Bush Intercontinental", City: "Houston", State: "TX"},
	{Code: "AUS", Name: "Austin-Bergstrom", City: "Austin", State: "TX"},
	{Code: "SAN", Name: "San Diego International", City: "San Diego", State: "CA"},
	{Code: "LAX", Name: "Los Angeles International", City: "Los Angeles", State: "CA"},
	{Code: "SFO", Name: "San Francisco International", City: "San Francisco", State: "CA"},
	{Code: "OAK", Name: "Oakland International", City: "Oakland", State: "CA"},
	{Code: "SJC", Name: "San Jose International", City: "San Jose", State: "CA"},
	{Code: "SEA", Name: "Seattle-Tacoma", City: "Seattle", State: "WA"},
	{Code: "PDX", Name: "Portland International", City: "Portland", State: "OR"},
	{Code: "SLC", Name: "Salt Lake City International", City: "Salt Lake City", State: "UT"},
	{Code: "MSP", Name: "Minneapolis-Saint Paul", City: "Minneapolis", State: "MN"},
	{Code: "DTW", Name: "Detroit Metro Wayne County", City: "Detroit", State: "MI"},
	{Code: "CLE", Name: "Cleveland Hopkins", City: "Cleveland", State: "OH"},
	{Code: "PHL", Name: "Philadelphia International", City: "Philadelphia", State: "PA"},
	{Code: "BOS", Name: "Logan International", City: "Boston", State: "MA"},
	{Code: "JFK", Name: "John F. Kennedy", City: "New York", State: "NY"},
	{Code: "LGA", Name: "LaGuardia", City: "New York", State: "NY"},
	{Code: "EWR", Name: "Newark Liberty", City: "Newark", State: "NJ"},
	{Code: "BWI", Name: "Baltimore/Washington", City: "Baltimore", State: "MD"},
	{Code: "IAD", Name: "Washington Dulles", City: "Washington", State: "DC"},
	{Code: "DCA", Name: "Reagan National", City: "Washington", State: "DC"},
	{Code: "RDU", Name: "Raleigh-Durham", City: "Raleigh", State: "NC"},
	{Code: "CLT", Name: "Charlotte Douglas", City: "Charlotte", State: "NC"},
	{Code: "BNA", Name: "Nashville International", City: "Nashville", State: "TN"},
	{Code: "MSY", Name: "Louis Armstrong New Orleans", City: "New Orleans", State: "LA"},

	{Code: "CUN", Name: "Cancun International", City: "Cancun", State: "Mexico"},
	{Code: "SJU", Name: "Luis Muñoz Marín", City: "San Juan", State: "PR"},
	{Code: "PUJ", Name: "Punta Cana International", City: "Punta Cana", State: "DR"},
}

// All returns a copy of the full list in its canonical order.
func All() []models.Airport {
	out := make([]models.Airport, len(all))
	copy(out, all)
	return out
}

// Lookup finds an airport by code, ignoring case.
func Lookup(code string) (models.Airport, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, a := range all {
		if a.Code == code {
			return a, true
		}
	}
	return models.Airport{}, false
}

// Search matches q case-insensitively against code, city and name.
func Search(q string) []models.Airport {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return All()
	}
	out := []models.Airport{}
	for _, a := range all {
		if strings.Contains(strings.ToLower(a.Code), q) ||
			strings.Contains(strings.ToLower(a.City), q) ||
			strings.Contains(strings.ToLower(a.Name), q) {
			out = append(out, a)
		}
	}
	return out
}

// Destinations returns the codes of the first n airports, skipping origin.
func Destinations(origin string, n int) []string {
	origin = strings.ToUpper(origin)
	var out []string
	for _, a := range all {
		if len(out) >= n {
			break
		}
		if a.Code == origin {
			continue
		}
		out = append(out, a.Code)
	}
	return out
}
