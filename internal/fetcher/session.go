package fetcher

import (
	"sync"

	"codeberg.org/snonux/virtualtourist/internal/flickr"
)

// State is the position of a session in its lifecycle
type State int

const (
	AwaitingPageCount State = iota
	AwaitingPageFetch
	EmittingItems
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingPageCount:
		return "AwaitingPageCount"
	case AwaitingPageFetch:
		return "AwaitingPageFetch"
	case EmittingItems:
		return "EmittingItems"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Session is one batch fetch. Its events arrive in order on Events(), which
// is closed after the terminal event. The consumer must drain Events().
type Session struct {
	id       string
	albumKey string
	query    flickr.SearchQuery
	events   chan Event

	mu    sync.Mutex
	state State
}

func newSession(id, albumKey string, q flickr.SearchQuery) *Session {
	return &Session{
		id:       id,
		albumKey: albumKey,
		query:    q,
		events:   make(chan Event),
		state:    AwaitingPageCount,
	}
}

// ID is the batch ID carried by every event of the session
func (s *Session) ID() string {
	return s.id
}

func (s *Session) AlbumKey() string {
	return s.albumKey
}

func (s *Session) Events() <-chan Event {
	return s.events
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Collect drains the session and returns all of its events
func (s *Session) Collect() []Event {
	var events []Event
	for ev := range s.events {
		events = append(events, ev)
	}
	return events
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) emit(ev Event) {
	ev.BatchID = s.id
	s.events <- ev
}
