package scanner

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestSelectorStrategyNoMatch(t *testing.T) {
	doc := mustDoc(t, `<div class="other">x</div>`)
	if cards, ok := SelectorStrategy(".flight-card").Cards(doc); ok || cards != nil {
		t.Fatalf("expected no match, got %v", cards)
	}
}

func TestProbePrefersMostSpecific(t *testing.T) {
	doc := mustDoc(t, `<div class="flight-result">a</div><div class="flight-card">b</div><div class="flight-card">c</div>`)
	name, cards, ok := probe(doc, DefaultStrategies())
	if !ok || name != ".flight-card" {
		t.Fatalf("expected .flight-card to win, got %q", name)
	}
	if len(cards) != 2 || cards[0] != "b" || cards[1] != "c" {
		t.Fatalf("unexpected cards %v", cards)
	}
}

func TestProbeFallsBackToLooseSelector(t *testing.T) {
	doc := mustDoc(t, `<section class="FlightCardV2">x</section>`)
	name, _, ok := probe(doc, DefaultStrategies())
	if !ok || name != `[class*="FlightCard"]` {
		t.Fatalf("expected FlightCard fallback, got %q %v", name, ok)
	}
}

func TestHasMarkerIsCaseInsensitive(t *testing.T) {
	doc := mustDoc(t, `<p>NO FLIGHTS available on this date</p>`)
	if !hasMarker(doc, DefaultNoFlightsMarkers) {
		t.Fatalf("expected marker to match")
	}
	if hasMarker(mustDoc(t, `<p>3 flights found</p>`), DefaultNoFlightsMarkers) {
		t.Fatalf("unexpected marker match")
	}
}
