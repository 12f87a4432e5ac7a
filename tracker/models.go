package tracker

import (
	"fmt"
	"strconv"
	"time"
)

// Submarine is one tracked voyage: a boat with a single return timestamp,
// owned by a free company character.
type Submarine struct {
	// ID is the stable row id from the database backend. Snapshot entries
	// have no row id; they are keyed by owner and slot instead.
	ID   int64
	Slot int

	Name   string
	Return time.Time // always UTC; only display formatting is zoned

	CharacterID   int64
	CharacterName string
	Tag           string
}

// Key identifies the submarine across polls for notification bookkeeping.
func (s Submarine) Key() string {
	if s.ID != 0 {
		return strconv.FormatInt(s.ID, 10)
	}
	return fmt.Sprintf("%d/%d", s.CharacterID, s.Slot)
}

// Owner renders the character identity the way the game shows it.
func (s Submarine) Owner() string {
	return fmt.Sprintf("%s «%s»", s.CharacterName, s.Tag)
}

// FireEvent is a single elapsed return that should notify exactly once.
type FireEvent struct {
	Sub Submarine
}

// StorageError marks a failed read of the backing store. The daemon loop
// logs it and retries next tick instead of exiting; one-shot mode fails.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }
