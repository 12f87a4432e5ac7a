package tracker

import (
	"strings"
	"testing"
	"time"
)

func pendingSub(name string, charID int64, due time.Time) Submarine {
	return Submarine{
		ID:            int64(len(name)) + charID*100,
		Name:          name,
		Return:        due,
		CharacterID:   charID,
		CharacterName: "Aeryn Var",
		Tag:           "FLEET",
	}
}

func TestBatchAlerts_EmptyInput(t *testing.T) {
	alerts := BatchAlerts(nil, DefaultGroupWindow, time.UTC)
	if len(alerts) != 0 {
		t.Fatalf("expected empty map, got %v", alerts)
	}
}

func TestBatchAlerts_GapOfExactlyWindowStillMerges(t *testing.T) {
	a := pendingSub("Alpha", 7, baseTime)
	b := pendingSub("Beta", 7, baseTime.Add(300000*time.Millisecond))
	alerts := BatchAlerts([]Submarine{a, b}, DefaultGroupWindow, time.UTC)
	if len(alerts) != 1 {
		t.Fatalf("expected one merged alert for a 300000ms gap, got %d", len(alerts))
	}
	al := alerts["7-0"]
	if al.Title != "Alpha (+1) returned" {
		t.Fatalf("unexpected title %q", al.Title)
	}
}

func TestBatchAlerts_GapOverWindowSplits(t *testing.T) {
	a := pendingSub("Alpha", 7, baseTime)
	b := pendingSub("Beta", 7, baseTime.Add(300001*time.Millisecond))
	alerts := BatchAlerts([]Submarine{a, b}, DefaultGroupWindow, time.UTC)
	if len(alerts) != 2 {
		t.Fatalf("expected split at 300001ms gap, got %d alerts", len(alerts))
	}
	if _, ok := alerts["7-0"]; !ok {
		t.Fatalf("missing first batch key, got %v", alerts)
	}
	if _, ok := alerts["7-1"]; !ok {
		t.Fatalf("missing second batch key, got %v", alerts)
	}
}

func TestBatchAlerts_ThreeSubsTwoBatches(t *testing.T) {
	a := pendingSub("Alpha", 7, baseTime)
	b := pendingSub("Beta", 7, baseTime.Add(100000*time.Millisecond))
	c := pendingSub("Gamma", 7, baseTime.Add(400001*time.Millisecond))
	alerts := BatchAlerts([]Submarine{a, b, c}, DefaultGroupWindow, time.UTC)
	if len(alerts) != 2 {
		t.Fatalf("expected {Alpha,Beta} and {Gamma}, got %d alerts: %v", len(alerts), alerts)
	}

	merged := alerts["7-0"]
	if merged.Title != "Alpha (+1) returned" {
		t.Fatalf("unexpected merged title %q", merged.Title)
	}
	if !strings.Contains(merged.Message, "+ 1 others") {
		t.Fatalf("merged message missing member count: %q", merged.Message)
	}
	if merged.Timestamp != baseTime.UnixMilli() {
		t.Fatalf("merged timestamp should be the earliest return, got %d", merged.Timestamp)
	}

	// The dangling batch at end of input must still be flushed.
	solo := alerts["7-1"]
	if solo.Title != "Gamma returned" {
		t.Fatalf("unexpected solo title %q", solo.Title)
	}
	if strings.Contains(solo.Message, "others") {
		t.Fatalf("solo message should not mention others: %q", solo.Message)
	}
}

func TestBatchAlerts_SingleSubIsFlushed(t *testing.T) {
	a := pendingSub("Alpha", 7, baseTime)
	alerts := BatchAlerts([]Submarine{a}, DefaultGroupWindow, time.UTC)
	if len(alerts) != 1 {
		t.Fatalf("dangling batch dropped: %v", alerts)
	}
}

func TestBatchAlerts_MessageFormat(t *testing.T) {
	due := time.Date(2026, 8, 20, 15, 30, 0, 0, time.UTC)
	a := pendingSub("Alpha", 7, due)
	alerts := BatchAlerts([]Submarine{a}, DefaultGroupWindow, time.UTC)
	al := alerts["7-0"]
	want := "Alpha (Aeryn Var «FLEET») returned on Aug 20, 2026, 03:30PM"
	if al.Message != want {
		t.Fatalf("message = %q, want %q", al.Message, want)
	}
	if al.Timestamp != due.UnixMilli() {
		t.Fatalf("timestamp = %d, want %d", al.Timestamp, due.UnixMilli())
	}
}

func TestBatchAlerts_RepresentativeIsFirstSeen(t *testing.T) {
	a := pendingSub("Alpha", 7, baseTime)
	b := pendingSub("Beta", 9, baseTime.Add(time.Minute))
	alerts := BatchAlerts([]Submarine{a, b}, DefaultGroupWindow, time.UTC)
	if len(alerts) != 1 {
		t.Fatalf("expected one batch, got %v", alerts)
	}
	// Key and text both come from the first submarine of the batch.
	al, ok := alerts["7-0"]
	if !ok {
		t.Fatalf("batch not keyed by representative character: %v", alerts)
	}
	if !strings.HasPrefix(al.Message, "Alpha ") {
		t.Fatalf("representative should be first-seen, got %q", al.Message)
	}
}
