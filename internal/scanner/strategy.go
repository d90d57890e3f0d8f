package scanner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy finds result cards in a rendered results page. ok is false when the strategy
// found nothing, which sends the engine on to the next strategy.
type Strategy interface {
	Name() string
	Cards(doc *goquery.Document) (cards []string, ok bool)
}

// SelectorStrategy treats every element matching a CSS selector as one card.
type SelectorStrategy string

func (s SelectorStrategy) Name() string { return string(s) }

func (s SelectorStrategy) Cards(doc *goquery.Document) ([]string, bool) {
	sel := doc.Find(string(s))
	if sel.Length() == 0 {
		return nil, false
	}
	cards := make([]string, 0, sel.Length())
	sel.Each(func(_ int, card *goquery.Selection) {
		cards = append(cards, card.Text())
	})
	return cards, true
}

// DefaultStrategies lists the known card selectors, most specific first.
func DefaultStrategies() []Strategy {
	return []Strategy{
		SelectorStrategy(`[data-testid="flight-card"]`),
		SelectorStrategy(".flight-card"),
		SelectorStrategy(".flight-result"),
		SelectorStrategy(`[class*="flight"]`),
		SelectorStrategy(`[class*="FlightCard"]`),
		SelectorStrategy(".departure-flight"),
	}
}

// DefaultNoFlightsMarkers are page texts that confirm there is nothing to book.
var DefaultNoFlightsMarkers = []string{"no flights", "No flights available", "We couldn't find"}

// probe runs strategies in order and returns the first hit.
func probe(doc *goquery.Document, strategies []Strategy) (string, []string, bool) {
	for _, s := range strategies {
		if cards, ok := s.Cards(doc); ok {
			return s.Name(), cards, true
		}
	}
	return "", nil, false
}

// hasMarker matches case-insensitively against the visible text of the page.
func hasMarker(doc *goquery.Document, markers []string) bool {
	text := strings.ToLower(doc.Text())
	for _, m := range markers {
		if strings.Contains(text, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
