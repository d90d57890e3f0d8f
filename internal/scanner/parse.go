package scanner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/wildscan/models"
)

// UnknownTime is used when a card shows fewer than two times.
const UnknownTime = "Unknown"

var (
	timePattern     = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}\s*(?:AM|PM)?)`)
	stopsPattern    = regexp.MustCompile(`(?i)(\d+)\s*stop|nonstop|direct`)
	stopVia         = regexp.MustCompile(`(?:[Ss]tops?|[Vv]ia)\s*(?:in\s*)?[:(]?\s*([A-Z]{3}(?:\s*[,/]\s*[A-Z]{3})*)`)
	airportCode     = regexp.MustCompile(`[A-Z]{3}`)
	pricePattern    = regexp.MustCompile(`\$[\d,.]+`)
	priceStrip      = regexp.MustCompile(`[^0-9.]`)
	leadingNumber   = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)`)
	durationPattern = regexp.MustCompile(`(?i)(\d{1,2})\s*h(?:ours?|rs?)?\s*(\d{1,2})\s*m`)
	flightNumber    = regexp.MustCompile(`(?i)F9\s?(\d{1,4})`)
)

// goWildMarkers flag a card as bookable with the pass, matched case-insensitively.
var goWildMarkers = []string{"gowild", "go wild", "$0", "pass"}

// ParseCard turns the text of one result card into a flight record. Fields that cannot be
// read fall back to their defaults, so even an empty card yields a record.
func ParseCard(text string, r models.Route) models.FlightResult {
	depart, arrive := ParseTimes(text)
	stops := ParseStops(text)
	f := models.FlightResult{
		Origin:        r.Origin,
		Destination:   r.Destination,
		Date:          r.Date,
		DepartTime:    depart,
		ArriveTime:    arrive,
		Duration:      ParseDuration(text),
		Stops:         stops,
		FlightNumbers: ParseFlightNumbers(text),
		IsGoWild:      IsGoWild(text),
		Currency:      models.DefaultCurrency,
	}
	if stops > 0 {
		f.StopLocations = ParseStopLocations(text)
	}
	f.TaxesAndFees, f.RawPrice = ParsePrice(text)
	return f
}

// ParseTimes returns the first two clock times in text, whitespace-normalised.
func ParseTimes(text string) (depart, arrive string) {
	depart, arrive = UnknownTime, UnknownTime
	times := timePattern.FindAllString(text, 2)
	if len(times) > 0 {
		depart = normalizeSpace(times[0])
	}
	if len(times) > 1 {
		arrive = normalizeSpace(times[1])
	}
	return depart, arrive
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseStops reads the stop count. Nonstop and direct are 0, and so is anything unparseable.
func ParseStops(text string) int {
	m := stopsPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	lower := strings.ToLower(m[0])
	if strings.Contains(lower, "nonstop") || strings.Contains(lower, "direct") {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// ParseStopLocations returns connection airports written like "1 stop DEN" or "via DEN, LAS".
func ParseStopLocations(text string) []string {
	m := stopVia.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return airportCode.FindAllString(m[1], -1)
}

// IsGoWild reports whether the card text carries any pass-fare marker.
func IsGoWild(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range goWildMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ParsePrice finds the first dollar amount. The amount is nil when the match has no
// leading number; the raw match is nil only when nothing looked like a price.
func ParsePrice(text string) (amount *float64, raw *string) {
	match := pricePattern.FindString(text)
	if match == "" {
		return nil, nil
	}
	raw = &match
	num := leadingNumber.FindString(priceStrip.ReplaceAllString(match, ""))
	if num == "" {
		return nil, raw
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return nil, raw
	}
	return &v, raw
}

// ParseDuration returns durations like "2h 35m" or "" when the card shows none.
func ParseDuration(text string) string {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%dh %dm", h, mins)
}

// ParseFlightNumbers returns the distinct flight numbers in page order.
func ParseFlightNumbers(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range flightNumber.FindAllStringSubmatch(text, -1) {
		n := "F9 " + m[1]
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
