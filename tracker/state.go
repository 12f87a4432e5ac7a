package tracker

import "time"

// ArmPolicy decides whether a submarine first seen with an already-elapsed
// return time still gets a notification.
type ArmPolicy int

const (
	// ArmAlways arms on first sight regardless of the return time, so a
	// return that elapsed while the process was down notifies once on the
	// next tick. Database-backend default.
	ArmAlways ArmPolicy = iota
	// ArmFutureOnly arms on first sight only when the return time is still
	// pending; an already-past entry just loaded never fires.
	// Snapshot-backend default.
	ArmFutureOnly
)

// NotifyMeta is the transient per-submarine notification record. It lives
// only in process memory; a restart rebuilds it from the backing store.
type NotifyMeta struct {
	Key        string
	WillNotify bool
	LastReturn time.Time
}

// Tracker owns one NotifyMeta per submarine observed during the process
// lifetime and decides, per poll, whether a notification fires.
type Tracker struct {
	policy ArmPolicy
	metas  map[string]*NotifyMeta
}

func NewTracker(policy ArmPolicy) *Tracker {
	return &Tracker{policy: policy, metas: make(map[string]*NotifyMeta)}
}

// Observe runs one submarine through the state machine. It fires at most
// once per (key, return time) value: once fired, nothing is emitted again
// until the return time moves to a new, still-pending value.
func (t *Tracker) Observe(sub Submarine, now time.Time) (FireEvent, bool) {
	key := sub.Key()
	meta, ok := t.metas[key]
	if !ok {
		meta = &NotifyMeta{Key: key, WillNotify: true, LastReturn: sub.Return}
		if t.policy == ArmFutureOnly && !sub.Return.After(now) {
			meta.WillNotify = false
		}
		t.metas[key] = meta
	} else if !meta.LastReturn.Equal(sub.Return) && sub.Return.After(now) {
		// Schedule changed and the new time is still pending: re-arm.
		meta.LastReturn = sub.Return
		meta.WillNotify = true
	}

	if meta.WillNotify && !sub.Return.After(now) {
		meta.WillNotify = false
		return FireEvent{Sub: sub}, true
	}
	return FireEvent{}, false
}

// AnyDue reports whether some already-tracked submarine is armed with an
// elapsed return time. New keys don't matter here: an unseen submarine
// always changes the poll fingerprint, so the tick runs anyway.
func (t *Tracker) AnyDue(subs []Submarine, now time.Time) bool {
	for _, sub := range subs {
		meta, ok := t.metas[sub.Key()]
		if ok && meta.WillNotify && !sub.Return.After(now) {
			return true
		}
	}
	return false
}
