package domain

// Aggregate is a consistency boundary whose state is derived entirely from its
// own ordered event history. Implementations embed Root, which keeps the
// interface closed to this package.
type Aggregate interface {
	AggregateID() string
	AggregateType() string
	Version() uint64
	UncommittedEvents() []Event
	MarkCommitted()

	// ApplyEvent mutates the aggregate's domain state for one event. It is a
	// closed switch over the aggregate's own payload types and must stay free
	// of side effects so that live application and replay produce identical
	// state.
	ApplyEvent(e Event) error

	base() *Root
}

// Root is the event-sourcing base embedded by every aggregate. It tracks the
// aggregate id, the version (number of events applied since construction,
// whether from history or newly staged) and the events staged since the last
// commit.
type Root struct {
	id      string
	version uint64
	staged  []Event
}

func (r *Root) AggregateID() string { return r.id }

func (r *Root) Version() uint64 { return r.version }

// UncommittedEvents returns the events staged since the last commit, in
// staging order.
func (r *Root) UncommittedEvents() []Event { return r.staged }

// MarkCommitted clears the staged events. The store calls this only after a
// successful publish and append of every staged event.
func (r *Root) MarkCommitted() { r.staged = nil }

func (r *Root) base() *Root { return r }

func (r *Root) setID(id string) { r.id = id }

// raise applies a new event through the aggregate's own switch, stages it and
// advances the version to the event's version.
func raise(a Aggregate, e Event) error {
	if err := a.ApplyEvent(e); err != nil {
		return err
	}
	r := a.base()
	r.staged = append(r.staged, e)
	r.version = e.Version
	return nil
}

// Replay rebuilds aggregate state from history. Events must already be ordered
// by ascending version; the aggregate does not re-sort. Replayed events are
// never staged.
func Replay(a Aggregate, history []Event) error {
	r := a.base()
	for _, e := range history {
		if err := a.ApplyEvent(e); err != nil {
			return err
		}
		r.version = e.Version
	}
	return nil
}
