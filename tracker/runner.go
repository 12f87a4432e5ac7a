package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Source yields the current full submarine set, ordered ascending by
// return time.
type Source interface {
	Poll() ([]Submarine, error)
}

type RunnerConfig struct {
	PollInterval time.Duration
	GroupWindow  time.Duration
	// Location is used for human-readable times only; due-time comparison
	// is always UTC.
	Location *time.Location
}

// Runner drives the poll loop: one strictly sequential tick pulls from the
// source, runs every submarine through the state machine, dispatches fires
// to the desktop notifier, and pushes batched pending returns over the
// bridge. All per-cycle state lives here.
type Runner struct {
	cfg     RunnerConfig
	source  Source
	tracker *Tracker
	notify  Notifier     // nil: desktop notifications disabled
	bridge  BridgeSender // nil: bridge stage disabled
	wake    <-chan struct{}
	log     zerolog.Logger

	lastSet string
}

func NewRunner(cfg RunnerConfig, source Source, tracker *Tracker, notify Notifier, bridge BridgeSender, log zerolog.Logger) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.GroupWindow <= 0 {
		cfg.GroupWindow = DefaultGroupWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Runner{
		cfg:     cfg,
		source:  source,
		tracker: tracker,
		notify:  notify,
		bridge:  bridge,
		log:     log.With().Str("comp", "runner").Logger(),
	}
}

// SetWake installs a channel that forces an early tick (snapshot watcher).
func (r *Runner) SetWake(ch <-chan struct{}) { r.wake = ch }

// Run polls until ctx is canceled. A failed poll is logged and retried on
// the next tick; it never stops the loop.
func (r *Runner) Run(ctx context.Context) {
	r.log.Info().Dur("interval", r.cfg.PollInterval).Msg("watching for submarine returns")
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if err := r.Tick(ctx, time.Now()); err != nil {
			r.log.Error().Err(err).Msg("poll failed, retrying next tick")
		}
		select {
		case <-ctx.Done():
			r.log.Info().Msg("shutting down")
			return
		case <-ticker.C:
		case <-r.wake: // nil when no watcher; a nil channel never fires
			r.log.Debug().Msg("woken by snapshot change")
		}
	}
}

// Tick runs one poll cycle against now.
func (r *Runner) Tick(ctx context.Context, now time.Time) error {
	subs, err := r.source.Poll()
	if err != nil {
		return err
	}

	set := describeSet(subs)
	changed := set != r.lastSet
	r.lastSet = set

	// A tick where no (id, return) pair changed and nothing is due has no
	// observable effect. The data check alone is not enough: a return time
	// elapses without the set changing.
	if !changed && !r.tracker.AnyDue(subs, now) {
		return nil
	}
	if changed {
		r.log.Debug().Int("submarines", len(subs)).Msg("submarine set changed")
	}

	for _, sub := range subs {
		ev, ok := r.tracker.Observe(sub, now)
		if !ok {
			continue
		}
		when := ev.Sub.Return.In(r.cfg.Location).Format(returnTimeFormat)
		r.log.Info().Str("submarine", ev.Sub.Name).Str("owner", ev.Sub.Owner()).Str("returned", when).Msg("submarine returned")
		if r.notify == nil {
			continue
		}
		summary := fmt.Sprintf("%s returned", ev.Sub.Name)
		body := fmt.Sprintf("%s (%s) returned on %s", ev.Sub.Name, ev.Sub.Owner(), when)
		if err := r.notify.Show(summary, body); err != nil {
			r.log.Warn().Err(err).Str("submarine", ev.Sub.Name).Msg("desktop notification failed")
		}
	}

	// Re-pushing an identical pending set every second would spam the
	// relay, so the bridge stage only runs when the set changed.
	if r.bridge != nil && changed {
		pending := pendingAfter(subs, now)
		alerts := BatchAlerts(pending, r.cfg.GroupWindow, r.cfg.Location)
		if len(alerts) == 0 {
			return nil
		}
		if err := r.bridge.Push(ctx, alerts); err != nil {
			r.log.Warn().Err(err).Int("alerts", len(alerts)).Msg("bridge push failed")
		}
	}
	return nil
}

func pendingAfter(subs []Submarine, now time.Time) []Submarine {
	out := make([]Submarine, 0, len(subs))
	for _, s := range subs {
		if s.Return.After(now) {
			out = append(out, s)
		}
	}
	return out
}

// describeSet fingerprints the (key, return) pairs of one poll. The set is
// tens of entries at most, so the plain string wins over hashing.
func describeSet(subs []Submarine) string {
	var b strings.Builder
	for _, s := range subs {
		b.WriteString(s.Key())
		b.WriteByte('=')
		b.WriteString(strconv.FormatInt(s.Return.Unix(), 10))
		b.WriteByte(';')
	}
	return b.String()
}
