package airports

import "testing"

func TestLookupIgnoresCase(t *testing.T) {
	a, ok := Lookup(" den ")
	if !ok || a.City != "Denver" {
		t.Fatalf("expected Denver, got %+v %v", a, ok)
	}
	if _, ok := Lookup("XXX"); ok {
		t.Fatalf("unexpected match for XXX")
	}
}

func TestSearch(t *testing.T) {
	got := Search("chicago")
	if len(got) != 2 || got[0].Code != "ORD" || got[1].Code != "MDW" {
		t.Fatalf("unexpected chicago matches %+v", got)
	}
	if got := Search("Harry"); len(got) != 1 || got[0].Code != "LAS" {
		t.Fatalf("expected name match, got %+v", got)
	}
	if got := Search("zzz"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if len(Search("")) != len(All()) {
		t.Fatalf("empty query should return everything")
	}
}

func TestDestinationsSkipsOrigin(t *testing.T) {
	got := Destinations("den", 3)
	want := []string{"LAS", "PHX", "MCO"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if n := len(Destinations("DEN", 500)); n != len(All())-1 {
		t.Fatalf("expected %d destinations, got %d", len(All())-1, n)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	list := All()
	list[0].Code = "ZZZ"
	if a, _ := Lookup("DEN"); a.Code != "DEN" {
		t.Fatalf("All must not expose the backing slice")
	}
}
