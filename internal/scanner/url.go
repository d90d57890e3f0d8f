package scanner

import (
	"net/url"

	"github.com/mohammad-safakhou/wildscan/models"
)

// SearchURL builds the one-way, one-adult search url for a route.
func SearchURL(base string, r models.Route) string {
	q := url.Values{}
	q.Set("from", r.Origin)
	q.Set("to", r.Destination)
	q.Set("departure", r.Date)
	q.Set("adults", "1")
	q.Set("children", "0")
	q.Set("infants", "0")
	q.Set("tripType", "oneway")
	return base + "?" + q.Encode()
}
