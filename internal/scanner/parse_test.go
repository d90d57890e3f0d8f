package scanner

import (
	"testing"

	"github.com/mohammad-safakhou/wildscan/models"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		text   string
		amount float64
		hasNum bool
		raw    string
		hasRaw bool
	}{
		{text: "$123.45", amount: 123.45, hasNum: true, raw: "$123.45", hasRaw: true},
		{text: "Taxes & fees $1,234.50 per person", amount: 1234.5, hasNum: true, raw: "$1,234.50", hasRaw: true},
		{text: "GoWild $0", amount: 0, hasNum: true, raw: "$0", hasRaw: true},
		{text: "Contact airline"},
		{text: "Fare $. shown at checkout", raw: "$.", hasRaw: true},
	}
	for _, tc := range cases {
		amount, raw := ParsePrice(tc.text)
		if tc.hasNum {
			if amount == nil || *amount != tc.amount {
				t.Fatalf("ParsePrice(%q) amount = %v, want %v", tc.text, amount, tc.amount)
			}
		} else if amount != nil {
			t.Fatalf("ParsePrice(%q) amount = %v, want nil", tc.text, *amount)
		}
		if tc.hasRaw {
			if raw == nil || *raw != tc.raw {
				t.Fatalf("ParsePrice(%q) raw = %v, want %q", tc.text, raw, tc.raw)
			}
		} else if raw != nil {
			t.Fatalf("ParsePrice(%q) raw = %q, want nil", tc.text, *raw)
		}
	}
}

func TestParseStops(t *testing.T) {
	cases := map[string]int{
		"Nonstop":             0,
		"NONSTOP 2h 10m":      0,
		"Direct flight":       0,
		"1 stop DEN":          1,
		"2 stops":             2,
		"2stops via DEN, LAS": 2,
		"Depart 6:00 AM":      0,
		"":                    0,
	}
	for text, want := range cases {
		if got := ParseStops(text); got != want {
			t.Fatalf("ParseStops(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestParseTimes(t *testing.T) {
	depart, arrive := ParseTimes("Depart 6:00  am Arrive 11:45PM")
	if depart != "6:00 am" || arrive != "11:45PM" {
		t.Fatalf("unexpected times %q %q", depart, arrive)
	}
	depart, arrive = ParseTimes("Departs 7:15 AM")
	if depart != "7:15 AM" || arrive != UnknownTime {
		t.Fatalf("expected missing arrival to be Unknown, got %q %q", depart, arrive)
	}
	depart, arrive = ParseTimes("no times here")
	if depart != UnknownTime || arrive != UnknownTime {
		t.Fatalf("expected Unknown times, got %q %q", depart, arrive)
	}
}

func TestIsGoWild(t *testing.T) {
	for _, text := range []string{"GoWild! fare", "Go Wild Pass", "$0.00", "Pass holders"} {
		if !IsGoWild(text) {
			t.Fatalf("expected %q to be a GoWild card", text)
		}
	}
	if IsGoWild("Standard $89.00") {
		t.Fatalf("standard fare flagged as GoWild")
	}
}

func TestParseDurationAndFlightNumbers(t *testing.T) {
	if got := ParseDuration("Nonstop 2h 35m"); got != "2h 35m" {
		t.Fatalf("unexpected duration %q", got)
	}
	if got := ParseDuration("3 hrs 5 min"); got != "3h 5m" {
		t.Fatalf("unexpected duration %q", got)
	}
	if got := ParseDuration("Nonstop"); got != "" {
		t.Fatalf("expected empty duration, got %q", got)
	}
	nums := ParseFlightNumbers("F9 1234 / F91235 / F9 1234")
	if len(nums) != 2 || nums[0] != "F9 1234" || nums[1] != "F9 1235" {
		t.Fatalf("unexpected flight numbers %v", nums)
	}
}

func TestParseStopLocations(t *testing.T) {
	locs := ParseStopLocations("2 stops via DEN, LAS")
	if len(locs) != 2 || locs[0] != "DEN" || locs[1] != "LAS" {
		t.Fatalf("unexpected stop locations %v", locs)
	}
	if locs := ParseStopLocations("Nonstop"); locs != nil {
		t.Fatalf("expected no stop locations, got %v", locs)
	}
}

func TestParseCard(t *testing.T) {
	r := models.Route{Origin: "DEN", Destination: "LAS", Date: "2026-11-01"}
	f := ParseCard("6:00 AM8:15 AMNonstopGoWild $23.45", r)
	if f.Origin != "DEN" || f.Destination != "LAS" || f.Date != "2026-11-01" {
		t.Fatalf("route not copied: %+v", f)
	}
	if f.DepartTime != "6:00 AM" || f.ArriveTime != "8:15 AM" || f.Stops != 0 || !f.IsGoWild {
		t.Fatalf("unexpected flight %+v", f)
	}
	if f.TaxesAndFees == nil || *f.TaxesAndFees != 23.45 || f.Currency != "USD" {
		t.Fatalf("unexpected price %+v", f)
	}
	if f.StopLocations != nil {
		t.Fatalf("nonstop flight must not carry stop locations")
	}
}

func TestParseCardEmptyTextKeepsDefaults(t *testing.T) {
	r := models.Route{Origin: "DEN", Destination: "LAS", Date: "2026-11-01"}
	f := ParseCard("   \n", r)
	if f.Origin != "DEN" || f.DepartTime != UnknownTime || f.ArriveTime != UnknownTime {
		t.Fatalf("unexpected empty-card record %+v", f)
	}
	if f.Stops != 0 || f.IsGoWild || f.TaxesAndFees != nil || f.RawPrice != nil || f.Currency != "USD" {
		t.Fatalf("empty card must keep default fields, got %+v", f)
	}
}
