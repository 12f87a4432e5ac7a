package tracker

import (
	"fmt"
	"time"
)

// DefaultGroupWindow is the largest gap between consecutive return times
// that still folds into one alert.
const DefaultGroupWindow = 5 * time.Minute

// Alert is one outbound bridge payload entry.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	// Timestamp is the earliest return in the batch, unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// BatchAlerts collapses pending submarines into coalesced alerts to limit
// outbound call volume. Input must be sorted ascending by return time; a
// new batch opens whenever the gap from the previous submarine exceeds
// window (a gap of exactly window still merges). The first submarine of a
// batch is its representative for title and message text, and its return
// time is the batch timestamp.
func BatchAlerts(subs []Submarine, window time.Duration, loc *time.Location) map[string]Alert {
	if window <= 0 {
		window = DefaultGroupWindow
	}
	if loc == nil {
		loc = time.UTC
	}

	alerts := make(map[string]Alert)
	var (
		open  bool
		rep   Submarine
		count int
		prev  time.Time
		seq   int
	)
	flush := func() {
		if !open {
			return
		}
		alerts[fmt.Sprintf("%d-%d", rep.CharacterID, seq)] = makeAlert(rep, count, loc)
		seq++
		open = false
	}
	for _, sub := range subs {
		if open && sub.Return.Sub(prev) > window {
			flush()
		}
		if !open {
			open = true
			rep = sub
			count = 0
		}
		count++
		prev = sub.Return
	}
	// The last batch is still open when input ends.
	flush()
	return alerts
}

func makeAlert(rep Submarine, n int, loc *time.Location) Alert {
	when := rep.Return.In(loc).Format(returnTimeFormat)
	title := fmt.Sprintf("%s returned", rep.Name)
	msg := fmt.Sprintf("%s (%s) returned on %s", rep.Name, rep.Owner(), when)
	if n > 1 {
		title = fmt.Sprintf("%s (+%d) returned", rep.Name, n-1)
		msg = fmt.Sprintf("%s (%s) + %d others returned on %s", rep.Name, rep.Owner(), n-1, when)
	}
	return Alert{Title: title, Message: msg, Timestamp: rep.Return.UnixMilli()}
}
