package tracker

import (
	"strings"
	"testing"
	"time"
)

func listingFixture() []Submarine {
	return []Submarine{
		{ID: 1, Name: "Shark I", Return: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC), CharacterID: 7, CharacterName: "Aeryn Var", Tag: "FLEET"},
		{ID: 2, Name: "Unkiu", Return: time.Date(2026, 8, 21, 9, 30, 5, 0, time.UTC), CharacterID: 7, CharacterName: "Aeryn Var", Tag: "FLEET"},
		{ID: 3, Name: "Whale", Return: time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC), CharacterID: 9, CharacterName: "Brin Kael", Tag: "DEEP"},
	}
}

func TestFormatListing(t *testing.T) {
	out := FormatListing(listingFixture(), time.UTC)
	want := "" +
		"Aeryn Var «FLEET»:\n" +
		"  Shark I: 20 August 2026 at 12:00:00 PM UTC\n" +
		"  Unkiu:   21 August 2026 at 09:30:05 AM UTC\n" +
		"Brin Kael «DEEP»:\n" +
		"  Whale:   20 August 2026 at 06:00:00 PM UTC\n"
	if out != want {
		t.Fatalf("listing mismatch:\n got: %q\nwant: %q", out, want)
	}
}

func TestFormatListing_IdempotentAcrossRuns(t *testing.T) {
	first := FormatListing(listingFixture(), time.UTC)
	second := FormatListing(listingFixture(), time.UTC)
	if first != second {
		t.Fatalf("listing not idempotent:\n%q\n%q", first, second)
	}
}

func TestFormatListing_EmptySet(t *testing.T) {
	if out := FormatListing(nil, time.UTC); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestDisplayLocation_TZOverrideWins(t *testing.T) {
	t.Setenv("TZ", "America/New_York")
	loc := DisplayLocation("Europe/Berlin")
	if loc.String() != "America/New_York" {
		t.Fatalf("TZ override ignored, got %v", loc)
	}
}

func TestDisplayLocation_ConfiguredZone(t *testing.T) {
	t.Setenv("TZ", "")
	loc := DisplayLocation("Europe/Berlin")
	if loc.String() != "Europe/Berlin" {
		t.Fatalf("configured zone ignored, got %v", loc)
	}
}

func TestDisplayLocation_BadZoneFallsBack(t *testing.T) {
	t.Setenv("TZ", "")
	loc := DisplayLocation("Atlantis/Nowhere")
	if loc == nil {
		t.Fatal("expected a fallback location")
	}
}

func TestOwnerFormat(t *testing.T) {
	s := Submarine{CharacterName: "Aeryn Var", Tag: "FLEET"}
	if s.Owner() != "Aeryn Var «FLEET»" {
		t.Fatalf("owner = %q", s.Owner())
	}
}

func TestListingContainsZoneAbbreviation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	out := FormatListing(listingFixture(), loc)
	if !strings.Contains(out, "EDT") && !strings.Contains(out, "EST") {
		t.Fatalf("zone abbreviation missing from listing:\n%s", out)
	}
}
