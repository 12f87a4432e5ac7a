package tracker

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Display layouts matching the upstream tracker output.
const (
	returnTimeFormat = "Jan _2, 2006, 03:04PM"
	listTimeFormat   = "_2 January 2006 at 03:04:05 PM"
)

// DisplayLocation resolves the timezone used for human-readable times: TZ
// env override first, then the configured name, then the system zone.
// Return-time comparison always stays in UTC regardless.
func DisplayLocation(configured string) *time.Location {
	if tz := os.Getenv("TZ"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	if configured != "" {
		if loc, err := time.LoadLocation(configured); err == nil {
			return loc
		}
	}
	return time.Local
}

// FormatListing renders the one-shot overview: one block per character,
// submarine names padded to the longest, return times in loc with the zone
// abbreviation. Output is deterministic for a given input.
func FormatListing(subs []Submarine, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	longest := 0
	for _, s := range subs {
		if len(s.Name) > longest {
			longest = len(s.Name)
		}
	}

	byChar := make(map[string][]Submarine)
	for _, s := range subs {
		ident := s.Owner()
		byChar[ident] = append(byChar[ident], s)
	}
	idents := make([]string, 0, len(byChar))
	for ident := range byChar {
		idents = append(idents, ident)
	}
	sort.Strings(idents)

	var b strings.Builder
	for _, ident := range idents {
		b.WriteString(ident)
		b.WriteString(":\n")
		for _, s := range byChar[ident] {
			local := s.Return.In(loc)
			padding := strings.Repeat(" ", longest-len(s.Name))
			fmt.Fprintf(&b, "  %s:%s %s %s\n", s.Name, padding, local.Format(listTimeFormat), local.Format("MST"))
		}
	}
	return b.String()
}
