package server

import (
	"sort"

	"github.com/mohammad-safakhou/wildscan/models"
)

// cheapestListSize bounds the cheapestGoWild list of an anywhere scan.
const cheapestListSize = 10

// summarizeOutbound flattens results into one flight list and counts it. With nonstopOnly
// the flight list and its counts drop connecting flights; results stay untouched.
func summarizeOutbound(date string, results []models.ScanResult, nonstopOnly bool) OutboundResponse {
	flights := []models.FlightResult{}
	sum := OutboundSummary{TotalRoutes: len(results)}
	for _, r := range results {
		for _, f := range r.Flights {
			if nonstopOnly && f.Stops != 0 {
				continue
			}
			flights = append(flights, f)
			if f.IsGoWild {
				sum.GoWildFlights++
			}
		}
		if r.Cached {
			sum.CachedResults++
		}
		if r.Failed() {
			sum.Errors++
		}
	}
	sum.TotalFlights = len(flights)
	return OutboundResponse{
		Success: true,
		Date:    date,
		Summary: sum,
		Results: results,
		Flights: flights,
	}
}

func summarizeAnywhere(origin, date string, results []models.ScanResult) AnywhereResponse {
	resp := AnywhereResponse{
		Success:       true,
		Origin:        origin,
		Date:          date,
		GoWildFlights: []models.FlightResult{},
		AllResults:    make([]DestinationResult, 0, len(results)),
	}
	resp.Summary.DestinationsScanned = len(results)
	for _, r := range results {
		resp.Summary.TotalFlights += len(r.Flights)
		if len(r.Flights) > 0 {
			resp.Summary.RoutesWithFlights++
		}
		if r.Cached {
			resp.Summary.CachedResults++
		}
		if r.Failed() {
			resp.Summary.Errors++
		}

		gw := sortByTaxes(r.GoWildFlights())
		resp.GoWildFlights = append(resp.GoWildFlights, gw...)
		line := DestinationResult{
			Destination: r.Destination,
			FlightCount: len(r.Flights),
			GoWildCount: len(gw),
			Cached:      r.Cached,
			Error:       r.Error,
		}
		if len(gw) > 0 {
			cheapest := gw[0]
			line.CheapestGoWild = &cheapest
		}
		resp.AllResults = append(resp.AllResults, line)
	}
	resp.GoWildFlights = sortByTaxes(resp.GoWildFlights)
	resp.Summary.GoWildFlights = len(resp.GoWildFlights)
	n := min(len(resp.GoWildFlights), cheapestListSize)
	resp.CheapestGoWild = resp.GoWildFlights[:n]
	return resp
}

// sortByTaxes orders flights by taxes and fees ascending; unknown amounts sort last and
// ties keep page order.
func sortByTaxes(flights []models.FlightResult) []models.FlightResult {
	sort.SliceStable(flights, func(i, j int) bool {
		a, b := flights[i].TaxesAndFees, flights[j].TaxesAndFees
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
	return flights
}
