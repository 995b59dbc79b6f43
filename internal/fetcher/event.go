package fetcher

import "fmt"

// EventKind identifies what happened in a batch
type EventKind int

const (
	BatchStarted EventKind = iota
	ItemSucceeded
	ItemFailed
	BatchCompleted
	BatchFailed
)

func (k EventKind) String() string {
	switch k {
	case BatchStarted:
		return "BatchStarted"
	case ItemSucceeded:
		return "ItemSucceeded"
	case ItemFailed:
		return "ItemFailed"
	case BatchCompleted:
		return "BatchCompleted"
	case BatchFailed:
		return "BatchFailed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one progress report of a batch. Which fields are set depends on
// Kind:
//
//	BatchStarted    Total
//	ItemSucceeded   Index, StorageKey
//	ItemFailed      Index, Err (a *flickr.ItemError)
//	BatchCompleted  -
//	BatchFailed     Err
type Event struct {
	BatchID    string
	Kind       EventKind
	Total      int
	Index      int
	StorageKey string
	Err        error
}

// Terminal reports whether no further events follow in the batch
func (e Event) Terminal() bool {
	return e.Kind == BatchCompleted || e.Kind == BatchFailed
}

func (e Event) String() string {
	switch e.Kind {
	case BatchStarted:
		return fmt.Sprintf("%s{%d}", e.Kind, e.Total)
	case ItemSucceeded:
		return fmt.Sprintf("%s(%d, %s)", e.Kind, e.Index, e.StorageKey)
	case ItemFailed:
		return fmt.Sprintf("%s(%d, %v)", e.Kind, e.Index, e.Err)
	case BatchFailed:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}
