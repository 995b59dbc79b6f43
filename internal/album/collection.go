package album

import (
	"codeberg.org/snonux/virtualtourist/internal/fetcher"
)

// SlotState is the state of one placeholder in a collection
type SlotState int

const (
	SlotPending SlotState = iota
	SlotLoaded
	SlotFailed
)

func (s SlotState) String() string {
	switch s {
	case SlotLoaded:
		return "loaded"
	case SlotFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Slot is one position of a collection
type Slot struct {
	State      SlotState
	StorageKey string
	Err        error
}

// Collection is the positional placeholder view of one batch. It is filled
// in from the batch's events; events of any other batch are ignored.
type Collection struct {
	BatchID   string
	Slots     []Slot
	Completed bool
	Err       error // set when the batch failed
}

// Apply updates the collection from ev and reports whether ev belonged to
// the collection's batch
func (c *Collection) Apply(ev fetcher.Event) bool {
	if c.BatchID == "" {
		c.BatchID = ev.BatchID
	}
	if ev.BatchID != c.BatchID {
		return false
	}

	switch ev.Kind {
	case fetcher.BatchStarted:
		c.Slots = make([]Slot, ev.Total)
	case fetcher.ItemSucceeded:
		if !c.inRange(ev.Index) {
			return false
		}
		c.Slots[ev.Index] = Slot{State: SlotLoaded, StorageKey: ev.StorageKey}
	case fetcher.ItemFailed:
		if !c.inRange(ev.Index) {
			return false
		}
		c.Slots[ev.Index] = Slot{State: SlotFailed, Err: ev.Err}
	case fetcher.BatchCompleted:
		c.Completed = true
	case fetcher.BatchFailed:
		c.Err = ev.Err
	}

	return true
}

func (c *Collection) inRange(i int) bool {
	return i >= 0 && i < len(c.Slots)
}

// Progress returns how many slots reached a terminal state out of the total
func (c *Collection) Progress() (done, total int) {
	for _, s := range c.Slots {
		if s.State != SlotPending {
			done++
		}
	}
	return done, len(c.Slots)
}

// Loaded returns the number of slots holding a stored photo
func (c *Collection) Loaded() int {
	n := 0
	for _, s := range c.Slots {
		if s.State == SlotLoaded {
			n++
		}
	}
	return n
}

// Finished reports whether the batch reached BatchCompleted or BatchFailed
func (c *Collection) Finished() bool {
	return c.Completed || c.Err != nil
}
